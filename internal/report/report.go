// Package report formats the two fixed-shape run outputs named in spec.md
// §6 — a human-readable verbose trace and a machine-parseable graph trace —
// plus the end-of-run summary. Both are raw fmt.Fprintf writes to a
// configured io.Writer (not structured log events): their line shapes are
// an external contract a downstream script may parse, grounded on
// sabre.py's own print() formatting.
package report

import (
	"fmt"
	"io"

	"sabre/internal/domain"
)

// FullBufferDelay logs the delay imposed when the buffer has no room left
// for one more segment under the configured buffer size (the delay is
// buffer level + segment_time - buffer size).
func FullBufferDelay(w io.Writer, delayMs, bufferLevel float64) {
	if w == nil {
		return
	}
	fmt.Fprintf(w, "full buffer delay %d bl=%d\n", int64(delayMs), int64(bufferLevel))
}

// AbrDelay logs a delay requested by the ABR strategy itself.
func AbrDelay(w io.Writer, delayMs, bufferLevel float64) {
	if w == nil {
		return
	}
	fmt.Fprintf(w, "abr delay %d bl=%d\n", int64(delayMs), int64(bufferLevel))
}

// SeekNotice logs a processed seek event.
func SeekNotice(w io.Writer, atMs, seekToSeconds float64, newSegment int) {
	if w == nil {
		return
	}
	fmt.Fprintf(w, "[Seek] At playback time %d ms: seeking to %d seconds (segment index %d)\n",
		int64(atMs), int64(seekToSeconds), newSegment)
}

// Bootstrap writes the verbose trace line for the segment-0 bootstrap
// download, a one-off shape distinct from Download's (sabre.py's __main__
// prints it separately from the main process_download_loop body).
func Bootstrap(w io.Writer, dp domain.DownloadProgress, bufferLevelAfter float64) {
	if w == nil {
		return
	}
	fmt.Fprintf(w, "[%d-%d]  %d: quality=%d download_size=%d/%d download_time=%d=%d+%d buffer_level=0->0->%d\n",
		0, int64(dp.Time), 0, dp.Quality, int64(dp.Downloaded), int64(dp.Size),
		int64(dp.Time), int64(dp.TimeToFirstBit), int64(dp.DownloadTime()), int64(bufferLevelAfter))
}

// BootstrapGraphLines writes the two graph trace lines bracketing the
// segment-0 bootstrap download (its start and its completion).
func BootstrapGraphLines(w io.Writer, dp domain.DownloadProgress, period domain.NetworkPeriod, bitrate, bufferLevelAfter float64) {
	if w == nil {
		return
	}
	const lineFmt = "%d time=%d network_bandwidth=%d network_latency=%d quality=%d bitrate=%d download_size=%d download_time=%d buffer_level=%d rebuffer_time=%d is_bola=%t\n"
	fmt.Fprintf(w, lineFmt, 0, 0, int64(period.Bandwidth), int64(period.Latency), dp.Quality, int64(bitrate), 0, 0, 0, 0, false)
	fmt.Fprintf(w, lineFmt, 0, int64(dp.Time), int64(period.Bandwidth), int64(period.Latency), dp.Quality, int64(bitrate),
		int64(dp.Downloaded), int64(dp.Time), int64(bufferLevelAfter), 0, false)
}

// DownloadEvent describes one completed or abandoned segment download, for
// the verbose and graph report lines.
type DownloadEvent struct {
	StartTime, EndTime float64
	Segment            int
	Progress           domain.DownloadProgress
	Replace            *int // non-nil offset into the buffer if this was a replacement
	BufferLevelAfter   float64
	RebufferTime       float64
	IsBola             bool
	Period             domain.NetworkPeriod
	Bitrate            float64
}

// Download writes the verbose trace line for one download.
func Download(w io.Writer, ev DownloadEvent) {
	if w == nil {
		return
	}
	p := ev.Progress
	downloadTime := p.DownloadTime()
	fmt.Fprintf(w, "[%d-%d]  %d: quality=%d download_size=%d/%d download_time=%d=%d+%d ",
		int64(ev.StartTime), int64(ev.EndTime), ev.Segment, p.Quality,
		int64(p.Downloaded), int64(p.Size), int64(p.Time), int64(p.TimeToFirstBit), int64(downloadTime))

	switch {
	case ev.Replace == nil && !p.Abandoned():
		fmt.Fprintf(w, "buffer_level=%d", int64(ev.BufferLevelAfter))
	case ev.Replace == nil:
		fmt.Fprintf(w, " ABANDONED to %d - %d/%d bits in %d=%d+%d ttfb+ttdl  bl=%d",
			*p.AbandonToQuality, int64(p.Downloaded), int64(p.Size), int64(p.Time),
			int64(p.TimeToFirstBit), int64(downloadTime), int64(ev.BufferLevelAfter))
	case !p.Abandoned():
		fmt.Fprintf(w, " REPLACEMENT  bl=%d", int64(ev.BufferLevelAfter))
	default:
		fmt.Fprintf(w, " REPLACMENT ABANDONED after %d=%d+%d ttfb+ttdl  bl=%d",
			int64(p.Time), int64(p.TimeToFirstBit), int64(downloadTime), int64(ev.BufferLevelAfter))
	}
	fmt.Fprintf(w, "->%d\n", int64(ev.BufferLevelAfter))
}

// GraphLine writes the graph trace line for one download.
func GraphLine(w io.Writer, ev DownloadEvent) {
	if w == nil {
		return
	}
	p := ev.Progress
	fmt.Fprintf(w,
		"%d time=%d network_bandwidth=%d network_latency=%d quality=%d bitrate=%d download_size=%d download_time=%d buffer_level=%d rebuffer_time=%d is_bola=%t\n",
		ev.Segment, int64(ev.EndTime), int64(ev.Period.Bandwidth), int64(ev.Period.Latency),
		p.Quality, int64(ev.Bitrate), int64(p.Downloaded), int64(p.Time),
		int64(ev.BufferLevelAfter), int64(ev.RebufferTime), ev.IsBola)
}

// Summary is the end-of-run report (spec.md §6 verbose summary block).
type Summary struct {
	BufferSize             float64
	PlayedUtility          float64
	PlayedBitrate          float64
	TotalPlayTime          float64
	SegmentTime            float64
	RebufferTime           float64
	RebufferEventCount     int
	TotalBitrateChange     float64
	TotalLogBitrateChange  float64
	GammaP                 float64
	OverestimateCount      int
	OverestimateAverage    float64
	GoodEstimateCount      int
	GoodEstimateAverage    float64
	EstimateAverage        float64
	RampupTime            *float64
	SegmentCount          int
	TotalReactionTime     float64
	NetworkTotalTime      float64
}

// WriteSummary writes the final per-run statistics block.
func WriteSummary(w io.Writer, s Summary) {
	toTimeAverage := 1 / (s.TotalPlayTime / s.SegmentTime)

	fmt.Fprintf(w, "buffer size: %d\n", int64(s.BufferSize))
	fmt.Fprintf(w, "total played utility: %f\n", s.PlayedUtility)
	fmt.Fprintf(w, "time average played utility: %f\n", s.PlayedUtility*toTimeAverage)
	fmt.Fprintf(w, "total played bitrate: %f\n", s.PlayedBitrate)
	fmt.Fprintf(w, "time average played bitrate: %f\n", s.PlayedBitrate*toTimeAverage)
	fmt.Fprintf(w, "total play time: %f\n", s.TotalPlayTime/1000)
	fmt.Fprintf(w, "total play time chunks: %f\n", s.TotalPlayTime/s.SegmentTime)
	fmt.Fprintf(w, "total rebuffer: %f\n", s.RebufferTime/1000)
	fmt.Fprintf(w, "rebuffer ratio: %f\n", s.RebufferTime/s.TotalPlayTime)
	fmt.Fprintf(w, "time average rebuffer: %f\n", s.RebufferTime/1000*toTimeAverage)
	fmt.Fprintf(w, "total rebuffer events: %f\n", float64(s.RebufferEventCount))
	fmt.Fprintf(w, "time average rebuffer events: %f\n", float64(s.RebufferEventCount)*toTimeAverage)
	fmt.Fprintf(w, "total bitrate change: %f\n", s.TotalBitrateChange)
	fmt.Fprintf(w, "time average bitrate change: %f\n", s.TotalBitrateChange*toTimeAverage)
	fmt.Fprintf(w, "total log bitrate change: %f\n", s.TotalLogBitrateChange)
	fmt.Fprintf(w, "time average log bitrate change: %f\n", s.TotalLogBitrateChange*toTimeAverage)
	fmt.Fprintf(w, "time average score: %f\n",
		toTimeAverage*(s.PlayedUtility-s.GammaP*s.RebufferTime/s.SegmentTime))

	if s.OverestimateCount == 0 {
		fmt.Fprintf(w, "over estimate count: 0\n")
		fmt.Fprintf(w, "over estimate: 0\n")
	} else {
		fmt.Fprintf(w, "over estimate count: %d\n", s.OverestimateCount)
		fmt.Fprintf(w, "over estimate: %f\n", s.OverestimateAverage)
	}
	if s.GoodEstimateCount == 0 {
		fmt.Fprintf(w, "leq estimate count: 0\n")
		fmt.Fprintf(w, "leq estimate: 0\n")
	} else {
		fmt.Fprintf(w, "leq estimate count: %d\n", s.GoodEstimateCount)
		fmt.Fprintf(w, "leq estimate: %f\n", s.GoodEstimateAverage)
	}
	fmt.Fprintf(w, "estimate: %f\n", s.EstimateAverage)

	if s.RampupTime == nil {
		fmt.Fprintf(w, "rampup time: %f\n", float64(s.SegmentCount)*s.SegmentTime/1000)
	} else {
		fmt.Fprintf(w, "rampup time: %f\n", *s.RampupTime/1000)
	}
	fmt.Fprintf(w, "total reaction time: %f\n", s.TotalReactionTime/1000)
	fmt.Fprintf(w, "network total time: %f\n", s.NetworkTotalTime/1000)
}
