package main

import (
	"github.com/soltixdb/insight/internal/analytics/anomaly"
	"github.com/soltixdb/insight/internal/analytics/forecast"
	"github.com/soltixdb/insight/internal/config"
	"github.com/soltixdb/insight/internal/handlers"
	"github.com/soltixdb/insight/internal/models"
)

// forecastConfig maps the forecast section onto the forecaster's tuning
func forecastConfig(cfg config.ForecastConfig) forecast.Config {
	return forecast.Config{
		HistoryPoints: cfg.HistoryPoints,
		TrendRange:    cfg.TrendRange,
		NoiseStdDev:   cfg.NoiseStdDev,
		FloorRatio:    cfg.FloorRatio,
		MinConfidence: cfg.MinConfidence,
		MaxConfidence: cfg.MaxConfidence,
		Timeframe:     cfg.Timeframe,
		Seed:          cfg.Seed,
	}
}

// anomalyConfig maps the anomaly section onto the detector's tuning
func anomalyConfig(cfg config.AnomalyConfig) anomaly.Config {
	return anomaly.Config{
		Methods: append([]string(nil), cfg.Methods...),
		Method: anomaly.MethodConfig{
			ZScoreThreshold: cfg.ZScoreThreshold,
			Contamination:   cfg.Contamination,
			NumTrees:        cfg.NumTrees,
			MaxSamples:      cfg.MaxSamples,
			Seed:            cfg.Seed,
			IQRMultiplier:   cfg.IQRMultiplier,
			WindowSize:      cfg.WindowSize,
			WindowThreshold: cfg.WindowThreshold,
		},
	}
}

// instanceInfo describes this process for the registry
func instanceInfo(cfg *config.Config) models.InstanceInfo {
	return models.InstanceInfo{
		ID:           cfg.Registry.GetInstanceID(),
		HTTPAddress:  cfg.GetServerAddress(),
		GRPCAddress:  cfg.GetGRPCAddress(),
		Status:       models.InstanceStatusActive,
		Version:      handlers.ServiceVersion,
		Capabilities: []string{"forecast", "detect"},
		Jobs:         cfg.Jobs.Enabled,
	}
}
