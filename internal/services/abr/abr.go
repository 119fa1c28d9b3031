// Package abr implements the pluggable ports.Abr strategies of spec.md
// §4.4, grounded on abr_algorithms.py's Abr subclasses.
package abr

import "sabre/internal/domain/ports"

// Config collects the tunables shared across strategy constructors
// (abr_algorithms.py constructors read these out of a config dict).
type Config struct {
	Gp         float64
	BufferSize float64
	AbrOsc     bool
	AbrBasic   bool
	NoIBR      bool
}

// qualityFromThroughput picks the highest quality whose download would
// finish within one segment_time at the given throughput, net of the
// session's current latency estimate (Abr.quality_from_throughput).
func qualityFromThroughput(view ports.SessionView, tput float64) int {
	m := view.Manifest()
	p := m.SegmentTime
	latency := view.Latency()
	quality := 0
	for quality+1 < len(m.Bitrates) && latency+p*m.Bitrates[quality+1]/tput <= p {
		quality++
	}
	return quality
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
