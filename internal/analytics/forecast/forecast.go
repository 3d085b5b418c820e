// Package forecast produces short-horizon metric forecasts from a single
// current reading by fitting a linear trend over a synthesized history.
package forecast

import (
	"errors"
	"math"
)

// Default tuning values
const (
	DefaultHistoryPoints = 30
	DefaultTrendRange    = 0.02
	DefaultNoiseStdDev   = 0.05
	DefaultFloorRatio    = 0.5
	DefaultMinConfidence = 0.6
	DefaultMaxConfidence = 0.95
	DefaultTimeframe     = "7 days"
)

var (
	// ErrDegenerateFit is returned when the regression feature has no variance.
	ErrDegenerateFit = errors.New("degenerate fit: feature has zero variance")
	// ErrNonFinite is returned when a fit produces NaN or Inf.
	ErrNonFinite = errors.New("non-finite forecast value")
)

// MetricInput is a single metric reading to forecast from.
// An empty ID is replaced by a generated UUID.
type MetricInput struct {
	ID    string  `json:"id,omitempty"`
	Value float64 `json:"value"`
}

// Prediction is the forecast emitted for one metric
type Prediction struct {
	MetricID       string  `json:"metricId"`
	CurrentValue   float64 `json:"currentValue"`
	PredictedValue float64 `json:"predictedValue"`
	Confidence     float64 `json:"confidence"`
	Timeframe      string  `json:"timeframe"`
}

// Config holds forecaster tuning
type Config struct {
	HistoryPoints int     // Length of the synthesized history
	TrendRange    float64 // Trend drawn uniformly from [-TrendRange, TrendRange]
	NoiseStdDev   float64 // Std dev of the relative gaussian noise
	FloorRatio    float64 // Predictions never go below FloorRatio x current value
	MinConfidence float64
	MaxConfidence float64
	Timeframe     string
	Seed          uint64 // 0 seeds from the runtime source
}

// DefaultConfig returns the default forecaster configuration
func DefaultConfig() Config {
	return Config{
		HistoryPoints: DefaultHistoryPoints,
		TrendRange:    DefaultTrendRange,
		NoiseStdDev:   DefaultNoiseStdDev,
		FloorRatio:    DefaultFloorRatio,
		MinConfidence: DefaultMinConfidence,
		MaxConfidence: DefaultMaxConfidence,
		Timeframe:     DefaultTimeframe,
	}
}

// withDefaults fills zero fields with default values. A flat history needs
// a custom HistorySynthesizer.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.HistoryPoints <= 0 {
		c.HistoryPoints = d.HistoryPoints
	}
	if c.TrendRange <= 0 {
		c.TrendRange = d.TrendRange
	}
	if c.NoiseStdDev <= 0 {
		c.NoiseStdDev = d.NoiseStdDev
	}
	if c.FloorRatio <= 0 {
		c.FloorRatio = d.FloorRatio
	}
	if c.MinConfidence == 0 && c.MaxConfidence == 0 {
		c.MinConfidence = d.MinConfidence
		c.MaxConfidence = d.MaxConfidence
	}
	if c.Timeframe == "" {
		c.Timeframe = d.Timeframe
	}
	return c
}

// FitStats describes how well the trend line matches the synthesized history
type FitStats struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	MAPE      float64 `json:"mape,omitempty"` // Mean Absolute Percentage Error
	MAE       float64 `json:"mae,omitempty"`  // Mean Absolute Error
	RMSE      float64 `json:"rmse,omitempty"` // Root Mean Squared Error
	Points    int     `json:"points"`
}

// CalculateMAPE calculates Mean Absolute Percentage Error
func CalculateMAPE(actual, predicted []float64) float64 {
	if len(actual) != len(predicted) || len(actual) == 0 {
		return 0
	}

	sum := 0.0
	count := 0
	for i := range actual {
		if actual[i] != 0 {
			sum += math.Abs((actual[i] - predicted[i]) / actual[i])
			count++
		}
	}

	if count == 0 {
		return 0
	}
	return (sum / float64(count)) * 100
}

// CalculateMAE calculates Mean Absolute Error
func CalculateMAE(actual, predicted []float64) float64 {
	if len(actual) != len(predicted) || len(actual) == 0 {
		return 0
	}

	sum := 0.0
	for i := range actual {
		sum += math.Abs(actual[i] - predicted[i])
	}
	return sum / float64(len(actual))
}

// CalculateRMSE calculates Root Mean Squared Error
func CalculateRMSE(actual, predicted []float64) float64 {
	if len(actual) != len(predicted) || len(actual) == 0 {
		return 0
	}

	sum := 0.0
	for i := range actual {
		diff := actual[i] - predicted[i]
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(len(actual)))
}
