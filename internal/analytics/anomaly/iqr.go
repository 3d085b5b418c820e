package anomaly

import (
	"sort"
)

// IQRDetector detects anomalies using Interquartile Range (IQR) method
// IQR is robust to outliers compared to Z-Score
// Anomalies are points outside [Q1 - k*IQR, Q3 + k*IQR] where k is typically 1.5
type IQRDetector struct {
	Multiplier float64
}

func init() {
	RegisterMethod(MethodIQR, func(cfg MethodConfig) IndexDetector {
		return &IQRDetector{Multiplier: cfg.IQRMultiplier}
	})
}

// Name returns the method name
func (d *IQRDetector) Name() string {
	return MethodIQR
}

// Detect finds anomalies using IQR method
func (d *IQRDetector) Detect(values []float64) []int {
	if len(values) == 0 {
		return nil
	}

	q1, q3, iqr := CalculateIQR(values)

	multiplier := d.Multiplier
	if multiplier <= 0 {
		multiplier = 1.5
	}

	lowerBound := q1 - multiplier*iqr
	upperBound := q3 + multiplier*iqr

	var indices []int
	for i, v := range values {
		if v < lowerBound || v > upperBound {
			indices = append(indices, i)
		}
	}
	return indices
}

// percentile calculates the p-th percentile of sorted data
// p should be between 0 and 100
func percentile(sortedData []float64, p float64) float64 {
	if len(sortedData) == 0 {
		return 0
	}
	if len(sortedData) == 1 {
		return sortedData[0]
	}

	// Calculate the index
	index := (p / 100) * float64(len(sortedData)-1)
	lower := int(index)
	upper := lower + 1

	if upper >= len(sortedData) {
		return sortedData[len(sortedData)-1]
	}

	// Linear interpolation
	weight := index - float64(lower)
	return sortedData[lower] + weight*(sortedData[upper]-sortedData[lower])
}

// Percentile returns the p-th percentile (0-100) of values with linear
// interpolation between closest ranks.
func Percentile(values []float64, p float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return percentile(sorted, p)
}

// CalculateIQR returns Q1, Q3, and IQR for a slice of values
func CalculateIQR(values []float64) (q1, q3, iqr float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}

	sortedValues := make([]float64, len(values))
	copy(sortedValues, values)
	sort.Float64s(sortedValues)

	q1 = percentile(sortedValues, 25)
	q3 = percentile(sortedValues, 75)
	iqr = q3 - q1

	return q1, q3, iqr
}
