package throughput

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoubleEWMADefaultsHalfLives(t *testing.T) {
	e := NewDoubleEWMA(nil, 4000)
	assert.Equal(t, []float64{8000, 3000}, e.halfLivesMs)
}

func TestDoubleEWMAZeroBiasCorrectionOnFirstSample(t *testing.T) {
	e := NewDoubleEWMA([]float64{8000}, 4000)

	e.Push(1000, 5000, 100)

	// With zero-bias correction the first sample's estimate should equal
	// the sample itself, not a value dragged toward zero.
	assert.InDelta(t, 5000.0, e.Throughput(), 1e-6)
	assert.InDelta(t, 100.0, e.Latency(), 1e-6)
}

func TestDoubleEWMAConvergesWithRepeatedSamples(t *testing.T) {
	e := NewDoubleEWMA([]float64{8000}, 4000)

	for i := 0; i < 50; i++ {
		e.Push(1000, 3000, 150)
	}

	require.InDelta(t, 3000.0, e.Throughput(), 1.0)
	require.InDelta(t, 150.0, e.Latency(), 1.0)
}

func TestDoubleEWMATakesConservativeAcrossHalfLives(t *testing.T) {
	e := NewDoubleEWMA([]float64{8000, 500}, 4000)

	e.Push(1000, 1000, 50)
	e.Push(1000, 5000, 200)

	// The shorter half-life reacts faster to the more recent, higher
	// sample; the conservative throughput is still the minimum across
	// half-lives, and conservative latency the maximum.
	assert.LessOrEqual(t, e.Throughput(), 5000.0)
	assert.GreaterOrEqual(t, e.Latency(), 50.0)
}
