package anomaly

import (
	"math"

	"github.com/soltixdb/insight/internal/analytics"
)

// DefaultZScoreThreshold applies when Threshold is not positive
const DefaultZScoreThreshold = 2.5

// ZScoreDetector flags points whose distance from the mean exceeds
// Threshold population standard deviations.
// A sequence with zero variance yields no flags.
type ZScoreDetector struct {
	Threshold float64
}

func init() {
	RegisterMethod(MethodZScore, func(cfg MethodConfig) IndexDetector {
		return &ZScoreDetector{Threshold: cfg.ZScoreThreshold}
	})
}

// Name returns the method name
func (z *ZScoreDetector) Name() string {
	return MethodZScore
}

// Detect finds anomalies using Z-Score method
func (z *ZScoreDetector) Detect(values []float64) []int {
	if len(values) == 0 {
		return nil
	}

	mean, stdDev := analytics.MeanStdDev(values)
	if stdDev == 0 {
		return nil
	}

	threshold := z.Threshold
	if threshold <= 0 {
		threshold = DefaultZScoreThreshold
	}

	var indices []int
	for i, v := range values {
		if math.Abs(CalculateZScore(v, mean, stdDev)) > threshold {
			indices = append(indices, i)
		}
	}
	return indices
}

// CalculateZScore calculates Z-Score for a single value given mean and stdDev
func CalculateZScore(value, mean, stdDev float64) float64 {
	if stdDev == 0 {
		return 0
	}
	return (value - mean) / stdDev
}
