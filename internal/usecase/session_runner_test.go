package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sabre/internal/domain"
	"sabre/internal/domain/ports"
	"sabre/internal/services/abr"
	"sabre/internal/services/network"
	"sabre/internal/services/replace"
	"sabre/internal/services/throughput"
)

// smallManifest builds a 10-segment, 3-rung manifest at 2000ms/segment with
// a generous, always-downloadable bitrate ladder, matching spec.md §8's
// "zero-seek run" fixture shape.
func smallManifest(t *testing.T) *domain.Manifest {
	t.Helper()
	bitrates := []float64{300, 750, 1500}
	segments := make([][]float64, 10)
	for i := range segments {
		segments[i] = []float64{300 * 2000, 750 * 2000, 1500 * 2000}
	}
	m, err := domain.NewManifest(2000, bitrates, segments)
	require.NoError(t, err)
	return m
}

func fastTrace() domain.NetworkTrace {
	return domain.NetworkTrace{
		{Duration: 1_000_000, Bandwidth: 10_000, Latency: 10},
	}
}

func newTestSession(t *testing.T, manifest *domain.Manifest, trace domain.NetworkTrace, seeks *domain.SeekQueue) *Session {
	t.Helper()
	net := network.New(trace, manifest, network.Options{})
	estimator := throughput.NewSlidingWindow([]int{3})

	abrCtor := func(view ports.SessionView) ports.Abr {
		return abr.NewThroughputRule(view, abr.Config{NoIBR: true})
	}
	replacerCtor := func(view ports.SessionView) ports.Replacer {
		return replace.None{}
	}

	return New(manifest, net, abrCtor, replacerCtor, estimator, seeks,
		Config{BufferSize: 20000}, nil, nil, nil)
}

func TestSessionZeroSeekRunPlaysEverySegment(t *testing.T) {
	manifest := smallManifest(t)
	s := newTestSession(t, manifest, fastTrace(), domain.NewSeekQueue(nil))

	s.Run()

	assert.Equal(t, manifest.NumSegments(), s.nextSegment)
	assert.Greater(t, s.metrics.PlayedUtility, 0.0)
	assert.Equal(t, 0.0, s.metrics.RebufferTime)
}

func TestSessionSingleSeekJumpsPlaybackPosition(t *testing.T) {
	manifest := smallManifest(t)
	seeks := domain.NewSeekQueue([]domain.SeekEvent{
		{SeekWhenMs: 3000, SeekToMs: 12000},
	})
	s := newTestSession(t, manifest, fastTrace(), seeks)

	s.Run()

	assert.Equal(t, 0, s.seeks.Len())
	assert.Equal(t, manifest.NumSegments(), s.nextSegment)
}

func TestSessionTwoSeeksBothProcessed(t *testing.T) {
	manifest := smallManifest(t)
	seeks := domain.NewSeekQueue([]domain.SeekEvent{
		{SeekWhenMs: 2000, SeekToMs: 10000},
		{SeekWhenMs: 5000, SeekToMs: 4000},
	})
	s := newTestSession(t, manifest, fastTrace(), seeks)

	s.Run()

	assert.Equal(t, 0, s.seeks.Len())
}

func TestSessionSeekThenRebufferRecordsRebufferTime(t *testing.T) {
	manifest := smallManifest(t)
	// A slow trace forces the buffer to run dry after the seek lands on an
	// empty buffer position. The bootstrap download alone takes 12010ms, so
	// the seek is scheduled after it to fall inside the next depletion.
	slowTrace := domain.NetworkTrace{
		{Duration: 1_000_000, Bandwidth: 50, Latency: 10},
	}
	seeks := domain.NewSeekQueue([]domain.SeekEvent{
		{SeekWhenMs: 13000, SeekToMs: 16000},
	})
	s := newTestSession(t, manifest, slowTrace, seeks)

	s.Run()

	assert.Equal(t, 0, s.seeks.Len())
	assert.Greater(t, s.metrics.RebufferTime, 0.0)
}

func TestSessionAbandonmentDownshiftsQuality(t *testing.T) {
	manifest := smallManifest(t)
	// Bandwidth collapses after the first period, forcing the throughput
	// rule's ETA-based abandonment trigger mid-download.
	trace := domain.NetworkTrace{
		{Duration: 2000, Bandwidth: 10_000, Latency: 0},
		{Duration: 1_000_000, Bandwidth: 10, Latency: 0},
	}
	s := newTestSession(t, manifest, trace, domain.NewSeekQueue(nil))

	s.Run()

	assert.Equal(t, manifest.NumSegments(), s.nextSegment)
}

func TestSessionReplacementLeftUpgradesBufferedSegment(t *testing.T) {
	manifest := smallManifest(t)
	net := network.New(fastTrace(), manifest, network.Options{})
	estimator := throughput.NewSlidingWindow([]int{3})

	abrCtor := func(view ports.SessionView) ports.Abr {
		return abr.NewThroughputRule(view, abr.Config{NoIBR: true})
	}
	replacerCtor := func(view ports.SessionView) ports.Replacer {
		return replace.New(view, replace.Left)
	}

	s := New(manifest, net, abrCtor, replacerCtor, estimator, domain.NewSeekQueue(nil),
		Config{BufferSize: 20000}, nil, nil, nil)

	s.Run()

	assert.Equal(t, manifest.NumSegments(), s.nextSegment)
}
