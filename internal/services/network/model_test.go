package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sabre/internal/domain"
)

func testManifest(t *testing.T) *domain.Manifest {
	t.Helper()
	m, err := domain.NewManifest(2000, []float64{1000, 2000, 4000}, nil)
	require.NoError(t, err)
	return m
}

func TestModelPrimeSetsSustainableQuality(t *testing.T) {
	trace := domain.NetworkTrace{
		{Duration: 5000, Bandwidth: 3000, Latency: 100},
	}
	m := New(trace, testManifest(t), Options{})
	m.Prime()

	assert.Equal(t, 1, m.SustainableQuality())
}

func TestModelPrimeFiresOnQualityChange(t *testing.T) {
	trace := domain.NetworkTrace{
		{Duration: 5000, Bandwidth: 3000, Latency: 100},
	}
	m := New(trace, testManifest(t), Options{})

	var gotNew, gotPrev int
	calls := 0
	m.SetOnQualityChange(func(newQ, prevQ int) {
		calls++
		gotNew, gotPrev = newQ, prevQ
	})
	m.Prime()

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, gotNew)
	assert.Equal(t, 0, gotPrev)
}

func TestModelDownloadAdvancesTotalTime(t *testing.T) {
	trace := domain.NetworkTrace{
		{Duration: 10000, Bandwidth: 1000, Latency: 0},
	}
	m := New(trace, testManifest(t), Options{})
	m.Prime()

	dp := m.Download(4000, 0, 0, 10000, nil)

	assert.Equal(t, 4000.0, dp.Downloaded)
	assert.Equal(t, 4.0, dp.Time)
	assert.Equal(t, 4.0, m.TotalTime())
}

func TestModelDownloadCrossesPeriodBoundary(t *testing.T) {
	trace := domain.NetworkTrace{
		{Duration: 2, Bandwidth: 1000, Latency: 0},
		{Duration: 10000, Bandwidth: 500, Latency: 0},
	}
	m := New(trace, testManifest(t), Options{})
	m.Prime()

	dp := m.Download(3000, 0, 0, 10000, nil)

	// First period carries 2ms*1000 bits/ms=2000 bits, remaining 1000 bits
	// at 500 bits/ms take 2ms more.
	assert.Equal(t, 3000.0, dp.Downloaded)
	assert.Equal(t, 4.0, dp.Time)
}

func TestModelDownloadZeroSizeIsNoop(t *testing.T) {
	trace := domain.NetworkTrace{{Duration: 1000, Bandwidth: 1000, Latency: 0}}
	m := New(trace, testManifest(t), Options{})
	m.Prime()

	dp := m.Download(0, 2, 1, 10000, nil)

	assert.Equal(t, 0.0, dp.Time)
	assert.Equal(t, 0.0, m.TotalTime())
}

func TestModelDownloadAbandonmentCheckpoint(t *testing.T) {
	trace := domain.NetworkTrace{{Duration: 100000, Bandwidth: 100, Latency: 0}}
	m := New(trace, testManifest(t), Options{MinProgressSize: 1000, MinProgressTime: 10})
	m.Prime()

	abandonTo := 0
	calls := 0
	checkAbandon := func(dp domain.DownloadProgress, bufferLevel float64) *int {
		calls++
		return &abandonTo
	}

	dp := m.Download(100000, 0, 2, 10000, checkAbandon)

	assert.GreaterOrEqual(t, calls, 1)
	require.NotNil(t, dp.AbandonToQuality)
	assert.Equal(t, 0, *dp.AbandonToQuality)
	assert.Less(t, dp.Downloaded, dp.Size)
}

func TestModelDelayAdvancesClockWithoutDownload(t *testing.T) {
	trace := domain.NetworkTrace{
		{Duration: 5, Bandwidth: 1000, Latency: 0},
		{Duration: 10000, Bandwidth: 1000, Latency: 0},
	}
	m := New(trace, testManifest(t), Options{})
	m.Prime()

	m.Delay(8)

	assert.Equal(t, 8.0, m.TotalTime())
}
