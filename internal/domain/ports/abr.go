package ports

import "sabre/internal/domain"

// Abr is the pluggable ABR decision strategy capability set (spec.md §4.4):
// it chooses (quality, delay) for the next segment, may signal mid-download
// abandonment, and receives lifecycle callbacks.
type Abr interface {
	// FirstQuality is the quality chosen for segment 0, before any
	// throughput sample exists.
	FirstQuality() int

	// GetQualityDelay chooses the next segment's quality and an optional
	// positive delay (ms) to impose before its download starts.
	GetQualityDelay(segmentIndex int) (quality int, delayMs float64)

	// ReportDelay notifies the strategy that a delay of delayMs ms was
	// imposed before the next download (either the full-buffer delay or
	// the strategy's own requested delay).
	ReportDelay(delayMs float64)

	// ReportDownload notifies the strategy that a download completed (or
	// was abandoned — see progress.AbandonToQuality).
	ReportDownload(progress domain.DownloadProgress, isReplacement bool)

	// ReportSeek notifies the strategy that playback jumped to whereMs.
	ReportSeek(whereMs float64)

	// CheckAbandon is invoked by the network model at progress checkpoints
	// during an in-flight download; a non-nil return aborts the transfer
	// and downshifts to the returned quality.
	CheckAbandon(progress domain.DownloadProgress, bufferLevel float64) *int
}
