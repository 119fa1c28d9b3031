package ports

import "sabre/internal/domain"

// Replacer is the policy that may mark an already-buffered segment for
// re-download at a higher quality (spec.md §4.5).
type Replacer interface {
	// CheckReplace returns the negative index (relative to the buffer end)
	// of a buffered entry to replace with the given quality, or nil.
	CheckReplace(quality int) *int

	// CheckAbandon mirrors Abr.CheckAbandon for a replacement download: if
	// playback has caught up enough that the replacement would arrive too
	// late, it returns the sentinel abandon-quality -1.
	CheckAbandon(progress domain.DownloadProgress, bufferLevel float64) *int
}
