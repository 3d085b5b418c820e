package forecast

import (
	"math"
	"math/rand/v2"
	"sync"
)

// HistorySynthesizer builds the history a forecast is fitted on.
// A source backed by stored readings can replace the random one without
// touching the regression step.
type HistorySynthesizer interface {
	Synthesize(currentValue float64) []float64
}

// RandomTrendSynthesizer draws a history around the current value with a
// random linear trend and gaussian noise.
type RandomTrendSynthesizer struct {
	points      int
	trendRange  float64
	noiseStdDev float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomTrendSynthesizer creates a synthesizer from the forecaster config
func NewRandomTrendSynthesizer(cfg Config) *RandomTrendSynthesizer {
	cfg = cfg.withDefaults()
	return &RandomTrendSynthesizer{
		points:      cfg.HistoryPoints,
		trendRange:  cfg.TrendRange,
		noiseStdDev: cfg.NoiseStdDev,
		rng:         newRand(cfg.Seed),
	}
}

func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Synthesize returns points values where
// value_i = current * (1 + trend*(i - points/2) + noise_i).
func (s *RandomTrendSynthesizer) Synthesize(currentValue float64) []float64 {
	n := s.points
	half := float64(n) / 2

	s.mu.Lock()
	trend := (s.rng.Float64()*2 - 1) * s.trendRange
	noise := make([]float64, n)
	for i := range noise {
		noise[i] = s.rng.NormFloat64() * s.noiseStdDev
	}
	s.mu.Unlock()

	history := make([]float64, n)
	for i := range history {
		v := currentValue * (1 + trend*(float64(i)-half) + noise[i])
		// Kept as max(0.5v, v): it does not lift negative values.
		history[i] = math.Max(0.5*v, v)
	}
	return history
}
