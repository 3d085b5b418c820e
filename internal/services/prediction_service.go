package services

import (
	"context"
	"fmt"
	"time"

	"github.com/soltixdb/insight/internal/analytics"
	"github.com/soltixdb/insight/internal/analytics/forecast"
	"github.com/soltixdb/insight/internal/logging"
	"github.com/soltixdb/insight/internal/utils"
)

// PredictionService handles forecasting business logic
type PredictionService struct {
	logger     *logging.Logger
	forecaster *forecast.Forecaster
}

// NewPredictionService creates a new PredictionService
func NewPredictionService(logger *logging.Logger, forecaster *forecast.Forecaster) *PredictionService {
	return &PredictionService{
		logger:     logger,
		forecaster: forecaster,
	}
}

// ParseMetrics validates raw decoded metrics of the form {"id"?: string, "value": number}.
// A missing value is read as 0 and later skipped by the forecaster.
// A missing, null or empty id gets a generated UUID.
func ParseMetrics(raw []interface{}) ([]forecast.MetricInput, error) {
	if len(raw) == 0 {
		return nil, NewInputError("No metrics provided")
	}
	if len(raw) > utils.MaxMetricsPerRequest {
		return nil, NewInputError("too many metrics: %d (max %d)", len(raw), utils.MaxMetricsPerRequest)
	}

	metrics := make([]forecast.MetricInput, 0, len(raw))
	for i, item := range raw {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, NewInputError("metrics[%d]: expected an object", i)
		}

		var m forecast.MetricInput

		switch id := obj["id"].(type) {
		case nil:
		case string:
			m.ID = id
		default:
			return nil, NewInputError("metrics[%d].id: expected a string", i)
		}

		if v, present := obj["value"]; present && v != nil {
			f, ok := utils.ParseNumeric(v)
			if !ok {
				return nil, NewInputError("metrics[%d].value: expected a number", i)
			}
			if !analytics.IsFinite(f) {
				return nil, NewInputError("metrics[%d].value: must be finite", i)
			}
			m.Value = f
		}

		metrics = append(metrics, m)
	}
	return metrics, nil
}

// Predict validates raw metrics and forecasts each one
func (s *PredictionService) Predict(ctx context.Context, raw []interface{}) ([]forecast.Prediction, error) {
	metrics, err := ParseMetrics(raw)
	if err != nil {
		return nil, err
	}
	return s.PredictMetrics(ctx, metrics)
}

// PredictMetrics forecasts already typed metrics
func (s *PredictionService) PredictMetrics(ctx context.Context, metrics []forecast.MetricInput) (predictions []forecast.Prediction, err error) {
	startExec := time.Now()

	for i, m := range metrics {
		if !analytics.IsFinite(m.Value) {
			return nil, NewInputError("metrics[%d].value: must be finite", i)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Prediction panicked", "panic", r)
			predictions = nil
			err = NewComputationError("prediction failed", fmt.Errorf("panic: %v", r))
		}
	}()

	predictions, err = s.forecaster.Predict(metrics)
	if err != nil {
		s.logger.Error("Prediction failed", "error", err, "metrics_count", len(metrics))
		return nil, NewComputationError("prediction failed", err)
	}

	s.logger.Info("Prediction completed",
		"metrics_count", len(metrics),
		"predictions_count", len(predictions),
		"skipped", len(metrics)-len(predictions),
		"latency_ms", time.Since(startExec).Milliseconds())

	return predictions, nil
}
