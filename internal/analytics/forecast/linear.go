package forecast

import (
	"github.com/soltixdb/insight/internal/analytics"
)

// StandardScaler centres a feature to zero mean and unit population variance.
type StandardScaler struct {
	Mean  float64
	Scale float64
}

// Fit computes the mean and scale of x. A zero-variance feature keeps scale 1.
func (s *StandardScaler) Fit(x []float64) {
	mean, std := analytics.MeanStdDev(x)
	s.Mean = mean
	s.Scale = std
	if std == 0 {
		s.Scale = 1
	}
}

// Transform returns the standardized copy of x
func (s *StandardScaler) Transform(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = s.TransformValue(v)
	}
	return out
}

// TransformValue standardizes a single value with the fitted statistics
func (s *StandardScaler) TransformValue(v float64) float64 {
	return (v - s.Mean) / s.Scale
}

// LinearRegression is an ordinary least squares fit of y = Slope*x + Intercept.
type LinearRegression struct {
	Slope     float64
	Intercept float64
}

// Fit estimates slope and intercept from paired observations
func (r *LinearRegression) Fit(x, y []float64) error {
	if len(x) != len(y) || len(x) == 0 {
		return ErrDegenerateFit
	}

	n := float64(len(x))

	// Calculate sums for linear regression
	sumX := 0.0
	sumY := 0.0
	sumXY := 0.0
	sumX2 := 0.0

	for i := range x {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumX2 += x[i] * x[i]
	}

	denominator := n*sumX2 - sumX*sumX
	if denominator == 0 {
		return ErrDegenerateFit
	}

	r.Slope = (n*sumXY - sumX*sumY) / denominator
	r.Intercept = (sumY - r.Slope*sumX) / n
	if !analytics.IsFinite(r.Slope) || !analytics.IsFinite(r.Intercept) {
		return ErrNonFinite
	}
	return nil
}

// Predict evaluates the fitted line at x
func (r *LinearRegression) Predict(x float64) float64 {
	return r.Intercept + r.Slope*x
}

// PredictAll evaluates the fitted line at every x
func (r *LinearRegression) PredictAll(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = r.Predict(v)
	}
	return out
}
