package anomaly

import (
	"math"
	"testing"
)

func containsIndex(indices []int, want int) bool {
	for _, idx := range indices {
		if idx == want {
			return true
		}
	}
	return false
}

func TestZScoreDetector_DetectSpike(t *testing.T) {
	detector := &ZScoreDetector{Threshold: 2.5}

	// Spike sits exactly 3 std deviations above the mean
	values := []float64{10, 10, 10, 10, 10, 10, 100, 10, 10, 10}

	indices := detector.Detect(values)

	if len(indices) != 1 || indices[0] != 6 {
		t.Errorf("Expected only index 6 flagged, got %v", indices)
	}
}

func TestZScoreDetector_DetectDrop(t *testing.T) {
	detector := &ZScoreDetector{Threshold: 2.5}

	values := []float64{50, 50, 50, 50, 50, 50, 0, 50, 50, 50}

	indices := detector.Detect(values)

	if !containsIndex(indices, 6) {
		t.Errorf("Expected to detect drop at index 6, got %v", indices)
	}
}

func TestZScoreDetector_NoAnomalies(t *testing.T) {
	detector := &ZScoreDetector{Threshold: 2.5}

	values := []float64{10, 11, 10, 12, 11, 10, 11, 11, 10, 12}

	if indices := detector.Detect(values); len(indices) != 0 {
		t.Errorf("Expected no anomalies in normal data, got %v", indices)
	}
}

func TestZScoreDetector_Flatline(t *testing.T) {
	detector := &ZScoreDetector{Threshold: 2.5}

	values := []float64{10, 10, 10, 10, 10, 10, 10, 10, 10, 10}

	if indices := detector.Detect(values); len(indices) != 0 {
		t.Errorf("Expected no flags when std is zero, got %v", indices)
	}
}

func TestZScoreDetector_ZeroThresholdUsesDefault(t *testing.T) {
	detector := &ZScoreDetector{}

	if indices := detector.Detect([]float64{10, 11, 10, 11, 10, 11, 10, 11}); len(indices) != 0 {
		t.Errorf("Expected no flags for alternating data, got %v", indices)
	}

	indices := detector.Detect([]float64{10, 10, 10, 10, 10, 10, 100, 10, 10, 10})
	if len(indices) != 1 || indices[0] != 6 {
		t.Errorf("Expected only index 6 flagged, got %v", indices)
	}
}

func TestZScoreDetector_Deterministic(t *testing.T) {
	detector := &ZScoreDetector{Threshold: 2.0}
	values := []float64{3, 4, 3, 5, 4, 30, 3, 4, -20, 4}

	first := detector.Detect(values)
	for i := 0; i < 10; i++ {
		got := detector.Detect(values)
		if len(got) != len(first) {
			t.Fatalf("Run %d: expected %v, got %v", i, first, got)
		}
		for j := range got {
			if got[j] != first[j] {
				t.Fatalf("Run %d: expected %v, got %v", i, first, got)
			}
		}
	}
}

func TestNegativeValues(t *testing.T) {
	detector := &ZScoreDetector{Threshold: 2.0}

	// Negative values with a clear anomaly
	values := []float64{-10, -10, -10, -10, -10, -10, -100, -10, -10, -10}

	if !containsIndex(detector.Detect(values), 6) {
		t.Error("Expected to detect anomaly in negative values")
	}
}

func TestVeryHighThreshold(t *testing.T) {
	detector := &ZScoreDetector{Threshold: 100}

	values := []float64{10, 11, 10, 12, 11, 10, 50, 11, 10, 12}

	if indices := detector.Detect(values); len(indices) != 0 {
		t.Errorf("Expected no anomalies with high threshold, got %d", len(indices))
	}
}

func TestCalculateZScore(t *testing.T) {
	if got := CalculateZScore(15, 10, 2.5); got != 2 {
		t.Errorf("Expected z-score 2, got %v", got)
	}
	if got := CalculateZScore(15, 10, 0); got != 0 {
		t.Errorf("Expected 0 for zero std, got %v", got)
	}
}

func TestIQRDetector_DetectOutliers(t *testing.T) {
	detector := &IQRDetector{Multiplier: 1.5}

	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 100}

	indices := detector.Detect(values)

	if len(indices) != 1 || indices[0] != 9 {
		t.Errorf("Expected outlier at index 9 only, got %v", indices)
	}
}

func TestIQRDetector_NoAnomalies(t *testing.T) {
	detector := &IQRDetector{Multiplier: 1.5}

	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	if indices := detector.Detect(values); len(indices) != 0 {
		t.Errorf("Expected no anomalies, got %d", len(indices))
	}
}

func TestCalculateIQR(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}

	q1, q3, iqr := CalculateIQR(values)

	if q1 != 3 {
		t.Errorf("Expected Q1 3, got %f", q1)
	}

	if q3 != 7 {
		t.Errorf("Expected Q3 7, got %f", q3)
	}

	expectedIQR := q3 - q1
	if math.Abs(iqr-expectedIQR) > 0.01 {
		t.Errorf("Expected IQR %f, got %f", expectedIQR, iqr)
	}
}

func TestPercentile(t *testing.T) {
	values := []float64{4, 1, 3, 2, 5}

	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{50, 3},
		{90, 4.6},
		{100, 5},
	}

	for _, tt := range tests {
		if got := Percentile(values, tt.p); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Percentile(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}

	if got := Percentile([]float64{0.7, 0.7, 0.7}, 90); got != 0.7 {
		t.Errorf("Percentile of constant data should be exact, got %v", got)
	}
}

func TestMovingAverageDetector_DetectSuddenChange(t *testing.T) {
	detector := &MovingAverageDetector{WindowSize: 5}

	values := []float64{10, 10, 10, 10, 10, 10, 50, 10, 10, 10, 10, 10}

	if !containsIndex(detector.Detect(values), 6) {
		t.Error("Expected to detect change at index 6")
	}
}

func TestCalculateMovingAverage(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	windowSize := 3

	result := CalculateMovingAverage(values, windowSize)

	if len(result) != len(values) {
		t.Errorf("Expected result length %d, got %d", len(values), len(result))
	}

	if math.Abs(result[2]-3) > 0.01 {
		t.Errorf("Expected moving average at index 2 to be 3, got %f", result[2])
	}
}

func TestMethodRegistry(t *testing.T) {
	methods := ListMethods()

	expected := []string{MethodIQR, MethodIsolationForest, MethodMovingAverage, MethodZScore}
	if len(methods) < len(expected) {
		t.Fatalf("Expected at least %d methods, got %v", len(expected), methods)
	}

	for _, name := range expected {
		method, err := NewMethod(name, DefaultMethodConfig())
		if err != nil {
			t.Errorf("Expected method %s to exist, got error: %v", name, err)
			continue
		}
		if method.Name() != name {
			t.Errorf("Expected name %s, got %s", name, method.Name())
		}
	}

	for i := 1; i < len(methods); i++ {
		if methods[i-1] > methods[i] {
			t.Errorf("Method names not sorted: %v", methods)
		}
	}
}

func TestNewMethod_Unknown(t *testing.T) {
	if _, err := NewMethod("unknown_method", DefaultMethodConfig()); err == nil {
		t.Error("Expected error for unknown method")
	}
}

func TestNewMethod_PassesConfig(t *testing.T) {
	cfg := DefaultMethodConfig()
	cfg.ZScoreThreshold = 1.7

	method, err := NewMethod(MethodZScore, cfg)
	if err != nil {
		t.Fatalf("NewMethod failed: %v", err)
	}
	if z := method.(*ZScoreDetector); z.Threshold != 1.7 {
		t.Errorf("Expected threshold 1.7, got %v", z.Threshold)
	}
}

func TestEmptyData(t *testing.T) {
	methods := []IndexDetector{
		&ZScoreDetector{Threshold: 2.5},
		&IQRDetector{},
		&MovingAverageDetector{},
		&IsolationForestDetector{Seed: 1},
	}

	for _, method := range methods {
		if indices := method.Detect(nil); len(indices) != 0 {
			t.Errorf("%s: Expected no results for empty data", method.Name())
		}
	}
}
