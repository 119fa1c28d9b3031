// Package metrics exposes the prometheus gauges/counters a session run
// feeds while it plays out, grounded on the torrent-engine service's
// internal/metrics package (same Namespace/Register(prometheus.Registerer)
// shape, scoped here to playback QoE instead of torrent I/O).
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	BufferLevelMs = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sabre",
		Name:      "buffer_level_ms",
		Help:      "Current playback buffer level in milliseconds.",
	})

	CurrentQuality = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sabre",
		Name:      "current_quality_index",
		Help:      "Quality index of the segment whose playback started most recently.",
	})

	ThroughputEstimateBps = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sabre",
		Name:      "throughput_estimate_bits_per_ms",
		Help:      "Current conservative throughput estimate in bits per millisecond.",
	})

	SustainableQuality = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sabre",
		Name:      "network_sustainable_quality_index",
		Help:      "Highest quality index the current network period can sustain.",
	})

	SegmentsPlayedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sabre",
		Name:      "segments_played_total",
		Help:      "Total number of buffered segments whose playback has started.",
	})

	SegmentsAbandonedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sabre",
		Name:      "segments_abandoned_total",
		Help:      "Total number of downloads abandoned mid-transfer.",
	})

	RebufferEventsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sabre",
		Name:      "rebuffer_events_total",
		Help:      "Total number of rebuffering events.",
	})

	RebufferDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sabre",
		Name:      "rebuffer_duration_seconds",
		Help:      "Duration of individual rebuffering events in seconds.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})

	DownloadDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sabre",
		Name:      "segment_download_duration_seconds",
		Help:      "Transfer time after the first bit of each segment download, abandoned ones included, in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	BitrateChangeTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sabre",
		Name:      "bitrate_change_total",
		Help:      "Cumulative absolute bitrate change across played segments.",
	})

	ReplacementsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sabre",
		Name:      "replacements_total",
		Help:      "Total number of replacement downloads applied to the buffer.",
	})

	SeeksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sabre",
		Name:      "seeks_total",
		Help:      "Total number of seek events processed.",
	})
)

// Register registers every metric above against reg, mirroring the
// teacher's flat MustRegister-everything Register function.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		BufferLevelMs,
		CurrentQuality,
		ThroughputEstimateBps,
		SustainableQuality,
		SegmentsPlayedTotal,
		SegmentsAbandonedTotal,
		RebufferEventsTotal,
		RebufferDuration,
		DownloadDuration,
		BitrateChangeTotal,
		ReplacementsTotal,
		SeeksTotal,
	)
}
