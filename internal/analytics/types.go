// Package analytics provides common types and numeric helpers shared by the
// forecasting and outlier detection packages.
package analytics

import (
	"math"
	"strconv"
	"time"
)

// Rounding precision used by the observable outputs
const (
	ValuePlaces      = 2
	ConfidencePlaces = 4
)

// TimeSeriesPoint represents a single time-series data point with time and value.
type TimeSeriesPoint struct {
	Time  time.Time
	Value float64
}

// TimeSeriesData represents a collection of time-series data points
type TimeSeriesData []TimeSeriesPoint

// Values extracts just the values from the time series
func (ts TimeSeriesData) Values() []float64 {
	values := make([]float64, len(ts))
	for i, p := range ts {
		values[i] = p.Value
	}
	return values
}

// Len returns the number of data points
func (ts TimeSeriesData) Len() int {
	return len(ts)
}

// Mean calculates the mean of all values
func (ts TimeSeriesData) Mean() float64 {
	return Mean(ts.Values())
}

// StdDev calculates the population standard deviation of all values
func (ts TimeSeriesData) StdDev() float64 {
	return StdDev(ts.Values())
}

// FromValues builds a series with one point per value, spaced by interval from start.
func FromValues(values []float64, start time.Time, interval time.Duration) TimeSeriesData {
	ts := make(TimeSeriesData, len(values))
	for i, v := range values {
		ts[i] = TimeSeriesPoint{Time: start.Add(interval * time.Duration(i)), Value: v}
	}
	return ts
}

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Variance returns the population variance (divides by n).
func Variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	var sumSq float64
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return sumSq / float64(len(values))
}

// StdDev returns the population standard deviation.
func StdDev(values []float64) float64 {
	return math.Sqrt(Variance(values))
}

// MeanStdDev returns the mean and population standard deviation in one call.
func MeanStdDev(values []float64) (mean, stdDev float64) {
	return Mean(values), StdDev(values)
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Round rounds v to the given number of decimal places using the shortest
// correctly rounded decimal form, so 2.675 stays 2.67 like its binary value.
func Round(v float64, places int) float64 {
	if !IsFinite(v) {
		return v
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	if err != nil {
		return v
	}
	return r
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
