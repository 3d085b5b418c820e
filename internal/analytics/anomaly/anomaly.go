// Package anomaly flags outlying points in a numeric sequence by combining
// independent index-returning detection methods.
package anomaly

import (
	"fmt"
	"sort"
	"sync"
)

// Severity grades how far a flagged point lies from the sequence mean
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Method names
const (
	MethodZScore          = "zscore"
	MethodIsolationForest = "isolation_forest"
	MethodIQR             = "iqr"
	MethodMovingAverage   = "moving_avg"
)

// Anomaly is one flagged point of the input sequence
type Anomaly struct {
	ID            string   `json:"id"`
	Index         int      `json:"index"`
	Value         float64  `json:"value"`
	ExpectedValue float64  `json:"expectedValue"`
	Severity      Severity `json:"severity"`
}

// IndexDetector is a pure detection method: it returns the indices of the
// points it considers outliers, in any order.
type IndexDetector interface {
	// Name returns the method name
	Name() string

	// Detect returns flagged indices into values
	Detect(values []float64) []int
}

// MethodConfig holds tuning for every registered method
type MethodConfig struct {
	// ZScoreThreshold is the number of std deviations beyond which a point is flagged
	ZScoreThreshold float64

	// Isolation forest
	Contamination float64
	NumTrees      int
	MaxSamples    int
	Seed          uint64 // 0 draws a fresh seed per call

	// IQRMultiplier widens [Q1 - k*IQR, Q3 + k*IQR]
	IQRMultiplier float64

	// WindowSize and WindowThreshold drive the moving average method
	WindowSize      int
	WindowThreshold float64
}

// DefaultMethodConfig returns default method configuration
func DefaultMethodConfig() MethodConfig {
	return MethodConfig{
		ZScoreThreshold: DefaultZScoreThreshold,
		Contamination:   0.1,
		NumTrees:        100,
		MaxSamples:      256,
		IQRMultiplier:   1.5,
		WindowSize:      10,
		WindowThreshold: 3.0,
	}
}

// MethodFactory builds a method from configuration
type MethodFactory func(cfg MethodConfig) IndexDetector

var (
	methodMu       sync.RWMutex
	methodRegistry = make(map[string]MethodFactory)
)

// RegisterMethod adds a method factory to the registry
func RegisterMethod(name string, factory MethodFactory) {
	methodMu.Lock()
	defer methodMu.Unlock()
	methodRegistry[name] = factory
}

// NewMethod builds a registered method by name
func NewMethod(name string, cfg MethodConfig) (IndexDetector, error) {
	methodMu.RLock()
	factory, ok := methodRegistry[name]
	methodMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown detection method: %s", name)
	}
	return factory(cfg), nil
}

// ListMethods returns the sorted names of registered methods
func ListMethods() []string {
	methodMu.RLock()
	defer methodMu.RUnlock()

	names := make([]string, 0, len(methodRegistry))
	for name := range methodRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
