package domain

import (
	"fmt"
	"math"
)

// Manifest is the immutable description of the video: segment duration, the
// bitrate ladder, the per-bitrate utility (utilities[i] = ln(bitrates[i]) -
// ln(bitrates[0])) and the per-segment size matrix. All times are
// milliseconds, all sizes are bits, all rates are bits/ms.
type Manifest struct {
	SegmentTime float64
	Bitrates    []float64
	Utilities   []float64
	Segments    [][]float64
}

// NewManifest validates and constructs a Manifest from a bitrate ladder and
// segment size matrix. Utilities are derived, not supplied, per spec.md §3.
func NewManifest(segmentTime float64, bitrates []float64, segments [][]float64) (*Manifest, error) {
	if segmentTime <= 0 {
		return nil, fmt.Errorf("%w: segment_time must be positive, got %v", ErrManifest, segmentTime)
	}
	if len(bitrates) == 0 {
		return nil, fmt.Errorf("%w: bitrates must not be empty", ErrManifest)
	}
	for i := 1; i < len(bitrates); i++ {
		if bitrates[i] <= bitrates[i-1] {
			return nil, fmt.Errorf("%w: bitrates must be strictly increasing (index %d: %v <= %v)",
				ErrManifest, i, bitrates[i], bitrates[i-1])
		}
	}
	for i, sizes := range segments {
		if len(sizes) != len(bitrates) {
			return nil, fmt.Errorf("%w: segment %d has %d sizes, want %d", ErrManifest, i, len(sizes), len(bitrates))
		}
	}

	offset := -math.Log(bitrates[0])
	utilities := make([]float64, len(bitrates))
	for i, b := range bitrates {
		utilities[i] = math.Log(b) + offset
	}

	return &Manifest{
		SegmentTime: segmentTime,
		Bitrates:    bitrates,
		Utilities:   utilities,
		Segments:    segments,
	}, nil
}

// NumSegments returns the number of segments in the manifest.
func (m *Manifest) NumSegments() int {
	return len(m.Segments)
}

// TopQuality returns the highest valid quality index.
func (m *Manifest) TopQuality() int {
	return len(m.Bitrates) - 1
}

// TruncateOrRepeat implements the movie_length adjustment from spec.md §6:
// l2 = ceil(movieLengthMs / segmentTime); repeat the segment list
// ceil(l2/l1) times then trim to l2.
func (m *Manifest) TruncateOrRepeat(movieLengthMs float64) {
	l1 := len(m.Segments)
	if l1 == 0 {
		return
	}
	l2 := int(math.Ceil(movieLengthMs / m.SegmentTime))
	repeats := int(math.Ceil(float64(l2) / float64(l1)))

	repeated := make([][]float64, 0, l1*repeats)
	for i := 0; i < repeats; i++ {
		repeated = append(repeated, m.Segments...)
	}
	if l2 > len(repeated) {
		l2 = len(repeated)
	}
	m.Segments = repeated[:l2]
}
