package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMeanAndStdDev(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	assert.InDelta(t, 5.0, Mean(values), 1e-12)
	assert.InDelta(t, 4.0, Variance(values), 1e-12)
	assert.InDelta(t, 2.0, StdDev(values), 1e-12)

	mean, std := MeanStdDev(values)
	assert.InDelta(t, 5.0, mean, 1e-12)
	assert.InDelta(t, 2.0, std, 1e-12)
}

func TestMean_Empty(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, Variance(nil))
	assert.Equal(t, 0.0, StdDev([]float64{}))
}

func TestRound(t *testing.T) {
	tests := []struct {
		in     float64
		places int
		want   float64
	}{
		{107.857142857, 2, 107.86},
		{0.87654321, 4, 0.8765},
		{1000, 2, 1000},
		{-3.14159, 2, -3.14},
		{2.675, 2, 2.67}, // binary value is slightly below 2.675
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Round(tt.in, tt.places))
	}

	assert.True(t, math.IsNaN(Round(math.NaN(), 2)))
}

func TestIsFinite(t *testing.T) {
	assert.True(t, IsFinite(1.5))
	assert.False(t, IsFinite(math.NaN()))
	assert.False(t, IsFinite(math.Inf(1)))
	assert.False(t, IsFinite(math.Inf(-1)))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.6, Clamp(0.1, 0.6, 0.95))
	assert.Equal(t, 0.95, Clamp(1.2, 0.6, 0.95))
	assert.Equal(t, 0.8, Clamp(0.8, 0.6, 0.95))
}

func TestTimeSeriesData(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ts := FromValues([]float64{1, 2, 3}, start, time.Hour)

	assert.Equal(t, 3, ts.Len())
	assert.Equal(t, []float64{1, 2, 3}, ts.Values())
	assert.Equal(t, start.Add(2*time.Hour), ts[2].Time)
	assert.InDelta(t, 2.0, ts.Mean(), 1e-12)
	assert.InDelta(t, math.Sqrt(2.0/3.0), ts.StdDev(), 1e-12)
}
