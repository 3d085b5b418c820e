package services

import (
	"context"
	"fmt"
	"time"

	"github.com/soltixdb/insight/internal/analytics"
	"github.com/soltixdb/insight/internal/analytics/anomaly"
	"github.com/soltixdb/insight/internal/logging"
	"github.com/soltixdb/insight/internal/utils"
)

// AnomalyService handles outlier detection business logic
type AnomalyService struct {
	logger   *logging.Logger
	detector *anomaly.Detector
}

// NewAnomalyService creates a new AnomalyService
func NewAnomalyService(logger *logging.Logger, detector *anomaly.Detector) *AnomalyService {
	return &AnomalyService{
		logger:   logger,
		detector: detector,
	}
}

// ParseSeries validates a raw decoded sequence of numbers
func ParseSeries(raw []interface{}) ([]float64, error) {
	if len(raw) == 0 {
		return nil, NewInputError("Invalid data format")
	}
	if len(raw) > utils.MaxSeriesLength {
		return nil, NewInputError("too many data points: %d (max %d)", len(raw), utils.MaxSeriesLength)
	}

	values := make([]float64, len(raw))
	for i, item := range raw {
		f, ok := utils.ToFloat64(item)
		if !ok {
			return nil, NewInputError("data[%d]: expected a number", i)
		}
		if !analytics.IsFinite(f) {
			return nil, NewInputError("data[%d]: must be finite", i)
		}
		values[i] = f
	}
	return values, nil
}

// Detect validates a raw sequence and returns its anomalies
func (s *AnomalyService) Detect(ctx context.Context, raw []interface{}) ([]anomaly.Anomaly, error) {
	values, err := ParseSeries(raw)
	if err != nil {
		return nil, err
	}
	return s.DetectValues(ctx, values)
}

// DetectValues runs detection over an already typed sequence
func (s *AnomalyService) DetectValues(ctx context.Context, values []float64) (anomalies []anomaly.Anomaly, err error) {
	startExec := time.Now()

	for i, v := range values {
		if !analytics.IsFinite(v) {
			return nil, NewInputError("data[%d]: must be finite", i)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Detection panicked", "panic", r)
			anomalies = nil
			err = NewComputationError("anomaly detection failed", fmt.Errorf("panic: %v", r))
		}
	}()

	anomalies = s.detector.Detect(values)

	s.logger.Info("Detection completed",
		"points", len(values),
		"anomalies_count", len(anomalies),
		"methods", s.detector.Methods(),
		"latency_ms", time.Since(startExec).Milliseconds())

	return anomalies, nil
}
