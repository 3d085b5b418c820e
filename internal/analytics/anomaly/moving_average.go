package anomaly

import (
	"math"
)

// MovingAverageDetector detects anomalies by comparing each point
// to its local moving average. Good for detecting sudden changes in trending data.
type MovingAverageDetector struct {
	WindowSize int
	Threshold  float64
}

func init() {
	RegisterMethod(MethodMovingAverage, func(cfg MethodConfig) IndexDetector {
		return &MovingAverageDetector{WindowSize: cfg.WindowSize, Threshold: cfg.WindowThreshold}
	})
}

// Name returns the method name
func (ma *MovingAverageDetector) Name() string {
	return MethodMovingAverage
}

// Detect finds anomalies using moving average method
func (ma *MovingAverageDetector) Detect(values []float64) []int {
	if len(values) < 3 {
		return nil
	}

	windowSize := ma.WindowSize
	if windowSize <= 0 {
		windowSize = 10 // Default window size
	}
	if windowSize > len(values) {
		windowSize = len(values) / 2
	}
	if windowSize < 3 {
		windowSize = 3
	}

	threshold := ma.Threshold
	if threshold <= 0 {
		threshold = 3.0
	}

	var indices []int

	for i, v := range values {
		start := i - windowSize/2
		end := i + windowSize/2

		if start < 0 {
			start = 0
		}
		if end >= len(values) {
			end = len(values) - 1
		}

		// Calculate mean for window
		var sum float64
		count := 0
		for j := start; j <= end; j++ {
			if j != i { // Exclude current point
				sum += values[j]
				count++
			}
		}
		if count == 0 {
			continue
		}
		localMean := sum / float64(count)

		// Calculate standard deviation for window
		var varianceSum float64
		for j := start; j <= end; j++ {
			if j != i {
				diff := values[j] - localMean
				varianceSum += diff * diff
			}
		}
		localStdDev := math.Sqrt(varianceSum / float64(count))

		// Calculate deviation from local average
		var deviation float64
		if localStdDev > 0 {
			deviation = math.Abs(v-localMean) / localStdDev
		} else if v != localMean {
			// If no variation in window, any difference is significant
			deviation = threshold + 1
		}

		if deviation > threshold {
			indices = append(indices, i)
		}
	}

	return indices
}

// CalculateMovingAverage calculates moving average for a slice of values
func CalculateMovingAverage(values []float64, windowSize int) []float64 {
	if len(values) == 0 {
		return nil
	}

	result := make([]float64, len(values))

	for i := range values {
		start := i - windowSize/2
		end := i + windowSize/2

		if start < 0 {
			start = 0
		}
		if end >= len(values) {
			end = len(values) - 1
		}

		var sum float64
		count := 0
		for j := start; j <= end; j++ {
			sum += values[j]
			count++
		}
		result[i] = sum / float64(count)
	}

	return result
}
