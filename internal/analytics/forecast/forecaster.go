package forecast

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/soltixdb/insight/internal/analytics"
	"github.com/soltixdb/insight/internal/logging"
)

// Forecaster predicts the next value of each metric from its current reading.
// It holds no fitted state: scaler and regression are built per metric.
type Forecaster struct {
	cfg         Config
	synthesizer HistorySynthesizer
	logger      *logging.Logger
}

// Option configures a Forecaster
type Option func(*Forecaster)

// WithSynthesizer replaces the default random history source
func WithSynthesizer(s HistorySynthesizer) Option {
	return func(f *Forecaster) {
		f.synthesizer = s
	}
}

// WithLogger sets the logger used for fit diagnostics
func WithLogger(logger *logging.Logger) Option {
	return func(f *Forecaster) {
		f.logger = logger
	}
}

// New creates a Forecaster
func New(cfg Config, opts ...Option) *Forecaster {
	cfg = cfg.withDefaults()
	f := &Forecaster{
		cfg:    cfg,
		logger: logging.Global().Component("forecast"),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.synthesizer == nil {
		f.synthesizer = NewRandomTrendSynthesizer(cfg)
	}
	return f
}

// Config returns the effective configuration
func (f *Forecaster) Config() Config {
	return f.cfg
}

// Predict returns one prediction per metric with a positive value, in input
// order. Metrics with a value <= 0 are skipped.
func (f *Forecaster) Predict(metrics []MetricInput) ([]Prediction, error) {
	predictions := make([]Prediction, 0, len(metrics))

	for _, m := range metrics {
		if !(m.Value > 0) {
			continue
		}

		id := m.ID
		if id == "" {
			id = uuid.NewString()
		}

		p, err := f.predictOne(id, m.Value)
		if err != nil {
			return nil, fmt.Errorf("metric %s: %w", id, err)
		}
		predictions = append(predictions, p)
	}

	return predictions, nil
}

func (f *Forecaster) predictOne(id string, current float64) (Prediction, error) {
	history := f.synthesizer.Synthesize(current)
	n := len(history)

	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i)
	}

	var scaler StandardScaler
	scaler.Fit(x)
	xs := scaler.Transform(x)

	var reg LinearRegression
	if err := reg.Fit(xs, history); err != nil {
		return Prediction{}, err
	}

	predicted := reg.Predict(scaler.TransformValue(float64(n)))
	if !analytics.IsFinite(predicted) {
		return Prediction{}, ErrNonFinite
	}
	predicted = math.Max(predicted, f.cfg.FloorRatio*current)

	confidence := f.confidence(history)

	if f.logger != nil {
		stats := fitStats(&reg, xs, history)
		f.logger.Debug("Forecast fitted",
			"metric_id", id,
			"slope", stats.Slope,
			"intercept", stats.Intercept,
			"mae", stats.MAE,
			"rmse", stats.RMSE,
			"mape", stats.MAPE,
			"points", stats.Points,
		)
	}

	currentValue := analytics.Round(current, analytics.ValuePlaces)
	return Prediction{
		MetricID:       id,
		CurrentValue:   currentValue,
		PredictedValue: f.roundWithFloor(predicted, currentValue),
		Confidence:     analytics.Round(confidence, analytics.ConfidencePlaces),
		Timeframe:      f.cfg.Timeframe,
	}, nil
}

// roundWithFloor rounds predicted and keeps it at or above FloorRatio times
// the rounded current value, rounding the floor up when it has more places.
func (f *Forecaster) roundWithFloor(predicted, currentValue float64) float64 {
	rounded := analytics.Round(predicted, analytics.ValuePlaces)
	floor := f.cfg.FloorRatio * currentValue
	if rounded >= floor {
		return rounded
	}
	scale := math.Pow(10, analytics.ValuePlaces)
	// Round before Ceil so binary noise like 50.000000001 does not add a cent.
	return math.Ceil(analytics.Round(floor*scale, 6)) / scale
}

// confidence is 1 minus the coefficient of variation of the history,
// clamped to the configured range.
func (f *Forecaster) confidence(history []float64) float64 {
	mean, std := analytics.MeanStdDev(history)
	cv := 1.0
	if mean > 0 {
		cv = std / mean
	}
	return analytics.Clamp(1-cv, f.cfg.MinConfidence, f.cfg.MaxConfidence)
}

func fitStats(reg *LinearRegression, x, actual []float64) FitStats {
	fitted := reg.PredictAll(x)
	return FitStats{
		Slope:     reg.Slope,
		Intercept: reg.Intercept,
		MAPE:      CalculateMAPE(actual, fitted),
		MAE:       CalculateMAE(actual, fitted),
		RMSE:      CalculateRMSE(actual, fitted),
		Points:    len(actual),
	}
}
