// Package replace implements the ports.Replacer policies of spec.md §4.5,
// grounded on abr_algorithms.py's NoReplace and Replace classes.
package replace

import (
	"math"

	"sabre/internal/domain"
	"sabre/internal/domain/ports"
)

// abandonSentinel is the downshift quality CheckAbandon returns to signal
// "abandon this replacement, it is too late to help" rather than "abandon
// in favor of quality X" (Replace.check_abandon's -1 return).
const abandonSentinel = -1

// None never proposes a replacement (abr_algorithms.py's NoReplace).
type None struct{}

func (None) CheckReplace(int) *int { return nil }

func (None) CheckAbandon(domain.DownloadProgress, float64) *int { return nil }

// Direction selects which end of the buffer a Policy scans from.
type Direction int

const (
	// Left scans from the buffer head outward (Replace.strategy == 0).
	Left Direction = iota
	// Right scans from the buffer tail inward (Replace.strategy == 1).
	Right
)

// Policy replaces the first (Left) or last (Right) buffered entry below a
// target quality, skipping a window near the playback head sized so a
// replacement can't preempt a segment about to play, grounded on
// abr_algorithms.py's Replace class.
type Policy struct {
	view      ports.SessionView
	direction Direction

	replacing *int // negative offset from the end of the buffer, or nil
}

// New constructs a replacement Policy bound to view.
func New(view ports.SessionView, direction Direction) *Policy {
	return &Policy{view: view, direction: direction}
}

func (p *Policy) CheckReplace(quality int) *int {
	p.replacing = nil

	contents := p.view.BufferContents()
	skip := int(math.Ceil(1.5 + p.view.BufferFCC()/p.view.Manifest().SegmentTime))

	switch p.direction {
	case Left:
		for i := skip; i < len(contents); i++ {
			if contents[i].Quality < quality {
				idx := i - len(contents)
				p.replacing = &idx
				break
			}
		}
	case Right:
		for i := len(contents) - 1; i >= skip; i-- {
			if contents[i].Quality < quality {
				idx := i - len(contents)
				p.replacing = &idx
				break
			}
		}
	}

	return p.replacing
}

func (p *Policy) CheckAbandon(_ domain.DownloadProgress, bufferLevel float64) *int {
	if p.replacing == nil {
		return nil
	}
	if bufferLevel+p.view.Manifest().SegmentTime*float64(*p.replacing) <= 0 {
		sentinel := abandonSentinel
		return &sentinel
	}
	return nil
}
