package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"veritas-system/internal/stats"
)

func TestMean(t *testing.T) {
	assert.Equal(t, 2.0, stats.Mean([]float64{1, 2, 3}))
	assert.Equal(t, 0.0, stats.Mean(nil))
}

func TestVariancePopulation(t *testing.T) {
	// Population variance divides by n: [2,4,4,4,5,5,7,9] has variance 4.
	xs := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, 4.0, stats.Variance(xs), 1e-9)
	assert.InDelta(t, 2.0, stats.StdDev(xs), 1e-9)
}

func TestVarianceConstantSeries(t *testing.T) {
	assert.Equal(t, 0.0, stats.Variance([]float64{5, 5, 5, 5}))
	assert.Equal(t, 0.0, stats.StdDev([]float64{5, 5, 5, 5}))
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name string
		xs   []float64
		want float64
	}{
		{"odd length", []float64{3, 1, 2}, 2},
		{"even length takes lower middle", []float64{4, 1, 3, 2}, 2},
		{"single", []float64{7}, 7},
		{"empty", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stats.Median(tt.xs))
		})
	}
}

func TestMedianDoesNotMutateInput(t *testing.T) {
	xs := []float64{3, 1, 2}
	stats.Median(xs)
	assert.Equal(t, []float64{3, 1, 2}, xs)
}

func TestZScore(t *testing.T) {
	assert.InDelta(t, 3.0, stats.ZScore(130, 100, 10), 1e-9)
	assert.InDelta(t, -2.5, stats.ZScore(75, 100, 10), 1e-9)
}

func TestZScoreZeroStdDev(t *testing.T) {
	// A constant series must never produce an anomaly signal.
	assert.Equal(t, 0.0, stats.ZScore(1000, 1000, 0))
	assert.Equal(t, 0.0, stats.ZScore(9999, 1000, 0))
}
