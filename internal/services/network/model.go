// Package network implements the NetworkModel of spec.md §4.1: exact
// bit/ms accounting against a cyclically repeated trace, with abandonment
// checkpoints, grounded on sabre.py's NetworkModel class.
package network

import (
	"sabre/internal/domain"
	"sabre/internal/domain/ports"
)

// Default abandonment-checkpoint thresholds (sabre.py NetworkModel class
// attributes), configurable via Options.
const (
	DefaultMinProgressSize = 12000
	DefaultMinProgressTime = 50
)

// Options configures a Model.
type Options struct {
	MinProgressSize float64 // 0 selects DefaultMinProgressSize; negative disables the size checkpoint
	MinProgressTime float64 // 0 selects DefaultMinProgressTime; negative disables the time checkpoint
}

// Model is the concrete ports.NetworkModel: it consumes bits and elapsed
// time against a NetworkTrace, wrapping on exhaustion.
type Model struct {
	trace       domain.NetworkTrace
	bitrates    []float64
	segmentTime float64

	minProgressSize float64
	minProgressTime float64

	index      int
	timeToNext float64
	totalTime  float64

	sustainableQuality int
	onQualityChange    func(newQuality, previousQuality int)
}

// New constructs a Model over trace for the given manifest. Callers must
// register SetOnQualityChange (if needed) and then call Prime before the
// first Delay/Download — matching sabre.py's NetworkModel.__init__, which
// calls next_network_period() once before any segment is downloaded, but
// split out here so the callback can be wired to a session that needs the
// Model to already exist.
func New(trace domain.NetworkTrace, manifest *domain.Manifest, opts Options) *Model {
	minSize := DefaultMinProgressSize
	if opts.MinProgressSize != 0 {
		minSize = opts.MinProgressSize
	}
	minTime := DefaultMinProgressTime
	if opts.MinProgressTime != 0 {
		minTime = opts.MinProgressTime
	}
	return &Model{
		trace:           trace,
		bitrates:        manifest.Bitrates,
		segmentTime:     manifest.SegmentTime,
		minProgressSize: minSize,
		minProgressTime: minTime,
		index:           -1,
	}
}

// SetOnQualityChange registers the reaction-time tracker callback.
func (m *Model) SetOnQualityChange(cb func(newQuality, previousQuality int)) {
	m.onQualityChange = cb
}

// Prime advances to the first network period.
func (m *Model) Prime() {
	m.nextNetworkPeriod()
}

// SustainableQuality returns the highest quality the current period can
// sustain net of latency.
func (m *Model) SustainableQuality() int { return m.sustainableQuality }

// TotalTime returns the cumulative network clock in ms.
func (m *Model) TotalTime() float64 { return m.totalTime }

// CurrentPeriod returns the network period currently in effect.
func (m *Model) CurrentPeriod() domain.NetworkPeriod {
	return m.trace[m.index]
}

func (m *Model) nextNetworkPeriod() {
	m.index++
	if m.index == len(m.trace) {
		m.index = 0
	}
	m.timeToNext = m.trace[m.index].Duration

	latencyFactor := 1 - m.trace[m.index].Latency/m.segmentTime
	effectiveBandwidth := m.trace[m.index].Bandwidth * latencyFactor

	previous := m.sustainableQuality
	m.sustainableQuality = 0
	for i := 1; i < len(m.bitrates); i++ {
		if m.bitrates[i] > effectiveBandwidth {
			break
		}
		m.sustainableQuality = i
	}

	if m.sustainableQuality != previous && m.onQualityChange != nil {
		m.onQualityChange(m.sustainableQuality, previous)
	}
}

func (m *Model) doLatencyDelay(delayUnits float64) float64 {
	total := 0.0
	for delayUnits > 0 {
		currentLatency := m.trace[m.index].Latency
		t := delayUnits * currentLatency
		if t <= m.timeToNext {
			total += t
			m.totalTime += t
			m.timeToNext -= t
			delayUnits = 0
		} else {
			total += m.timeToNext
			m.totalTime += m.timeToNext
			delayUnits -= m.timeToNext / currentLatency
			m.nextNetworkPeriod()
		}
	}
	return total
}

func (m *Model) doDownload(size float64) float64 {
	total := 0.0
	for size > 0 {
		bw := m.trace[m.index].Bandwidth
		if size <= m.timeToNext*bw {
			t := size / bw
			total += t
			m.totalTime += t
			m.timeToNext -= t
			size = 0
		} else {
			total += m.timeToNext
			m.totalTime += m.timeToNext
			size -= m.timeToNext * bw
			m.nextNetworkPeriod()
		}
	}
	return total
}

func (m *Model) doMinimalLatencyDelay(delayUnits, minTime float64) (float64, float64) {
	totalUnits := 0.0
	totalTime := 0.0
	for delayUnits > 0 && minTime > 0 {
		currentLatency := m.trace[m.index].Latency
		t := delayUnits * currentLatency
		var units, time float64
		switch {
		case t <= minTime && t <= m.timeToNext:
			units = delayUnits
			time = t
			m.timeToNext -= time
			m.totalTime += time
		case minTime <= m.timeToNext:
			time = minTime
			units = time / currentLatency
			m.timeToNext -= time
			m.totalTime += time
		default:
			time = m.timeToNext
			units = time / currentLatency
			m.totalTime += time
			m.nextNetworkPeriod()
		}
		totalUnits += units
		totalTime += time
		delayUnits -= units
		minTime -= time
	}
	return totalUnits, totalTime
}

func (m *Model) doMinimalDownload(size, minSize, minTime float64) (float64, float64) {
	totalSize := 0.0
	totalTime := 0.0
	for size > 0 && (minSize > 0 || minTime > 0) {
		bw := m.trace[m.index].Bandwidth
		var bits, time float64
		if bw > 0 {
			minBits := maxFloat(minSize, minTime*bw)
			bitsToNext := m.timeToNext * bw
			switch {
			case size <= minBits && size <= bitsToNext:
				bits = size
				time = bits / bw
				minSize = 0
				minTime = 0
				m.timeToNext -= time
				m.totalTime += time
			case minBits <= bitsToNext:
				bits = minBits
				time = bits / bw
				minSize = 0
				minTime = 0
				m.timeToNext -= time
				m.totalTime += time
			default:
				bits = bitsToNext
				time = m.timeToNext
				m.totalTime += time
				m.nextNetworkPeriod()
			}
		} else {
			bits = 0
			if minSize > 0 || minTime > m.timeToNext {
				time = m.timeToNext
				m.totalTime += time
				m.nextNetworkPeriod()
			} else {
				time = minTime
				m.timeToNext -= time
				m.totalTime += time
			}
		}
		totalSize += bits
		totalTime += time
		size -= bits
		minSize -= bits
		minTime -= time
	}
	return totalSize, totalTime
}

// Delay advances the network clock by ms without downloading.
func (m *Model) Delay(ms float64) {
	for ms > m.timeToNext {
		ms -= m.timeToNext
		m.totalTime += m.timeToNext
		m.nextNetworkPeriod()
	}
	m.timeToNext -= ms
	m.totalTime += ms
}

// Download transfers size bits for segment index at quality. With
// checkAbandon nil (abandonment disabled), it charges one latency delay
// then transfers the whole size, crossing period boundaries as needed.
// With checkAbandon set, it enforces progress checkpoints at
// minProgressSize bits / minProgressTime ms and offers the callback a
// chance to abort the transfer after each one (spec.md §4.1).
func (m *Model) Download(size float64, index, quality int, bufferLevel float64, checkAbandon ports.CheckAbandonFunc) domain.DownloadProgress {
	if size <= 0 {
		return domain.DownloadProgress{Index: index, Quality: quality}
	}

	if checkAbandon == nil || (m.minProgressTime <= 0 && m.minProgressSize <= 0) {
		latency := m.doLatencyDelay(1)
		t := latency + m.doDownload(size)
		return domain.DownloadProgress{
			Index: index, Quality: quality,
			Size: size, Downloaded: size,
			Time: t, TimeToFirstBit: latency,
		}
	}

	totalDownloadTime := 0.0
	totalDownloadSize := 0.0
	minTimeToProgress := m.minProgressTime
	minSizeToProgress := m.minProgressSize

	var latency float64
	var delayUnits float64
	if m.minProgressSize > 0 {
		latency = m.doLatencyDelay(1)
		totalDownloadTime += latency
		minTimeToProgress -= totalDownloadTime
		delayUnits = 0
	} else {
		delayUnits = 1
	}

	var abandonQuality *int
	for totalDownloadSize < size && abandonQuality == nil {
		if delayUnits > 0 {
			units, t := m.doMinimalLatencyDelay(delayUnits, minTimeToProgress)
			totalDownloadTime += t
			delayUnits -= units
			minTimeToProgress -= t
			if delayUnits <= 0 {
				latency = totalDownloadTime
			}
		}

		if delayUnits <= 0 {
			bits, t := m.doMinimalDownload(size-totalDownloadSize, minSizeToProgress, minTimeToProgress)
			totalDownloadTime += t
			totalDownloadSize += bits
		}

		dp := domain.DownloadProgress{
			Index: index, Quality: quality,
			Size: size, Downloaded: totalDownloadSize,
			Time: totalDownloadTime, TimeToFirstBit: latency,
		}
		if totalDownloadSize < size {
			bl := bufferLevel - totalDownloadTime
			if bl < 0 {
				bl = 0
			}
			abandonQuality = checkAbandon(dp, bl)
			minTimeToProgress = m.minProgressTime
			minSizeToProgress = m.minProgressSize
		}
	}

	return domain.DownloadProgress{
		Index: index, Quality: quality,
		Size: size, Downloaded: totalDownloadSize,
		Time: totalDownloadTime, TimeToFirstBit: latency,
		AbandonToQuality: abandonQuality,
	}
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
