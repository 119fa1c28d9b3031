package domain

// BufferEntry is one buffered (not yet played) segment: its index in the
// manifest and the quality it was downloaded at.
type BufferEntry struct {
	SegmentIndex int
	Quality      int
}

// PlaybackBuffer is the ordered sequence of buffered segments plus the
// fractional number of milliseconds of the head entry already consumed
// (fcc, "first-chunk-consumed"). Design Notes §9: this is the normative
// linear buffer; any alternative (e.g. a multi-region buffer) must expose
// the same PushTail/PopHead/Level contract and yield identical metrics for
// sequential workloads.
type PlaybackBuffer struct {
	entries     []BufferEntry
	segmentTime float64
	fcc         float64
}

// NewPlaybackBuffer constructs an empty buffer for a manifest with the given
// per-segment duration.
func NewPlaybackBuffer(segmentTime float64) *PlaybackBuffer {
	return &PlaybackBuffer{segmentTime: segmentTime}
}

// Level returns the buffer level in milliseconds: segment_time * len(buffer)
// - fcc.
func (b *PlaybackBuffer) Level() float64 {
	return b.segmentTime*float64(len(b.entries)) - b.fcc
}

// Len reports the number of buffered entries.
func (b *PlaybackBuffer) Len() int {
	return len(b.entries)
}

// Empty reports whether the buffer holds no entries.
func (b *PlaybackBuffer) Empty() bool {
	return len(b.entries) == 0
}

// FCC returns the milliseconds of the head entry already consumed.
func (b *PlaybackBuffer) FCC() float64 {
	return b.fcc
}

// SetFCC sets the fractional head-consumption offset directly; used by seek
// handling to align the buffer to a new playback position.
func (b *PlaybackBuffer) SetFCC(ms float64) {
	b.fcc = ms
}

// Head returns the first buffered entry without removing it.
func (b *PlaybackBuffer) Head() BufferEntry {
	return b.entries[0]
}

// PopHead removes and returns the first buffered entry.
func (b *PlaybackBuffer) PopHead() BufferEntry {
	e := b.entries[0]
	b.entries = b.entries[1:]
	return e
}

// PushTail appends a newly downloaded segment to the buffer.
func (b *PlaybackBuffer) PushTail(e BufferEntry) {
	b.entries = append(b.entries, e)
}

// At returns the entry at the given offset from the buffer head.
func (b *PlaybackBuffer) At(i int) BufferEntry {
	return b.entries[i]
}

// SetQualityAt overwrites the quality of the buffered entry at offset i,
// used by replacement.
func (b *PlaybackBuffer) SetQualityAt(i int, quality int) {
	b.entries[i].Quality = quality
}

// Contents returns a defensive copy of the buffered entries, the read-only
// view handed to Abr/Replacer implementations (spec.md §3 Ownership).
func (b *PlaybackBuffer) Contents() []BufferEntry {
	out := make([]BufferEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

// KeepSuffixFrom drops every buffered entry whose segment index is less than
// fromIndex, keeping the contiguous suffix at or after it — the seek-time
// buffer trim of spec.md §4.2.
func (b *PlaybackBuffer) KeepSuffixFrom(fromIndex int) {
	for len(b.entries) > 0 && b.entries[0].SegmentIndex < fromIndex {
		b.entries = b.entries[1:]
	}
}

// Clear empties the buffer and resets fcc, used after final playout.
func (b *PlaybackBuffer) Clear() {
	b.entries = nil
	b.fcc = 0
}
