package anomaly

import (
	"fmt"
	"math"
	"sort"

	"github.com/soltixdb/insight/internal/analytics"
)

// MinPoints is the shortest sequence the detector inspects
const MinPoints = 3

// DefaultMethods are the methods combined when none are configured
var DefaultMethods = []string{MethodZScore, MethodIsolationForest}

// Config holds detector configuration
type Config struct {
	Methods []string
	Method  MethodConfig
}

// DefaultConfig returns default detector configuration
func DefaultConfig() Config {
	return Config{
		Methods: append([]string(nil), DefaultMethods...),
		Method:  DefaultMethodConfig(),
	}
}

// Detector reports the union of the points flagged by its methods and grades
// each one by its z-score against the whole sequence.
type Detector struct {
	methods []IndexDetector
}

// New builds a detector from the registered methods named in cfg
func New(cfg Config) (*Detector, error) {
	names := cfg.Methods
	if len(names) == 0 {
		names = DefaultMethods
	}

	methods := make([]IndexDetector, 0, len(names))
	for _, name := range names {
		m, err := NewMethod(name, cfg.Method)
		if err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return &Detector{methods: methods}, nil
}

// NewWithMethods builds a detector from explicit method values
func NewWithMethods(methods ...IndexDetector) *Detector {
	return &Detector{methods: methods}
}

// Methods returns the names of the combined methods
func (d *Detector) Methods() []string {
	names := make([]string, len(d.methods))
	for i, m := range d.methods {
		names[i] = m.Name()
	}
	return names
}

// Detect returns one Anomaly per flagged index, sorted by index.
// Sequences shorter than MinPoints yield an empty result.
func (d *Detector) Detect(data []float64) []Anomaly {
	if len(data) < MinPoints {
		return []Anomaly{}
	}

	flagged := make(map[int]struct{})
	for _, m := range d.methods {
		for _, idx := range m.Detect(data) {
			if idx >= 0 && idx < len(data) {
				flagged[idx] = struct{}{}
			}
		}
	}

	indices := make([]int, 0, len(flagged))
	for idx := range flagged {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	mean, stdDev := analytics.MeanStdDev(data)
	expected := analytics.Round(mean, analytics.ValuePlaces)

	anomalies := make([]Anomaly, len(indices))
	for i, idx := range indices {
		anomalies[i] = Anomaly{
			ID:            fmt.Sprintf("anomaly-%d", idx),
			Index:         idx,
			Value:         analytics.Round(data[idx], analytics.ValuePlaces),
			ExpectedValue: expected,
			Severity:      ClassifySeverity(data[idx], mean, stdDev),
		}
	}
	return anomalies
}

// ClassifySeverity grades a value by its absolute z-score:
// above 3 is high, above 2.5 is medium, anything else is low.
// Zero deviation is always medium.
func ClassifySeverity(value, mean, stdDev float64) Severity {
	if stdDev == 0 {
		return SeverityMedium
	}

	z := math.Abs(CalculateZScore(value, mean, stdDev))
	switch {
	case z > 3:
		return SeverityHigh
	case z > 2.5:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
