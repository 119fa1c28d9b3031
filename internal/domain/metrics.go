package domain

import "math"

// SessionMetrics accumulates the running sums and counters a session run
// produces, per spec.md §3/§8.
type SessionMetrics struct {
	PlayedUtility       float64
	PlayedBitrate       float64
	RebufferTime        float64
	RebufferEventCount  int
	SegmentRebufferTime float64 // graph-only, reset after each emission (spec.md §9 open question)
	TotalBitrateChange  float64
	TotalLogBitrateChange float64
	TotalReactionTime   float64

	OverestimateCount   int
	OverestimateAverage float64
	GoodEstimateCount   int
	GoodEstimateAverage float64
	EstimateAverage     float64

	RampupOrigin float64
	RampupTime   *float64

	StartupTime float64

	LastPlayed *int
}

// RecordPlayedSegment folds one fully-consumed buffer entry into the running
// utility/bitrate sums and bitrate-change deltas.
func (m *SessionMetrics) RecordPlayedSegment(manifest *Manifest, quality int) {
	m.PlayedUtility += manifest.Utilities[quality]
	m.PlayedBitrate += manifest.Bitrates[quality]
	if m.LastPlayed != nil && quality != *m.LastPlayed {
		prev := *m.LastPlayed
		delta := manifest.Bitrates[quality] - manifest.Bitrates[prev]
		if delta < 0 {
			delta = -delta
		}
		m.TotalBitrateChange += delta

		logDelta := logAbs(manifest.Bitrates[quality] / manifest.Bitrates[prev])
		m.TotalLogBitrateChange += logDelta
	}
	q := quality
	m.LastPlayed = &q
}

// RecordThroughputSample updates the over/good-estimate running averages
// given the conservative throughput estimate used to pick a quality and the
// observed throughput t of the completed download.
func (m *SessionMetrics) RecordThroughputSample(estimate, observed float64) {
	if estimate > observed {
		m.OverestimateCount++
		m.OverestimateAverage += (estimate - observed - m.OverestimateAverage) / float64(m.OverestimateCount)
	} else {
		m.GoodEstimateCount++
		m.GoodEstimateAverage += (observed - estimate - m.GoodEstimateAverage) / float64(m.GoodEstimateCount)
	}
	n := float64(m.OverestimateCount + m.GoodEstimateCount)
	m.EstimateAverage += (estimate - observed - m.EstimateAverage) / n
}

func logAbs(ratio float64) float64 {
	v := math.Log(ratio)
	if v < 0 {
		return -v
	}
	return v
}
