package abr

import (
	"math"

	"sabre/internal/domain"
	"sabre/internal/domain/ports"
)

const (
	bolaEnhMinimumBuffer          = 10000.0
	bolaEnhMinimumBufferPerLevel  = 2000.0
	bolaEnhLowBufferSafetyFactor  = 0.5
	bolaEnhLowBufferSafetyInitial = 0.9
)

type bolaEnhState int

const (
	bolaEnhStartup bolaEnhState = iota
	bolaEnhSteady
)

// BolaEnh is the two-state (STARTUP/STEADY) enhanced BOLA strategy with a
// placeholder virtual buffer and an insufficient-buffer rule, grounded on
// abr_algorithms.py's BolaEnh class.
type BolaEnh struct {
	view ports.SessionView

	abrOsc bool
	noIBR  bool

	utilities []float64
	gp        float64
	vp        float64

	state       bolaEnhState
	placeholder float64
	ibrSafety   float64

	lastQuality   int
	lastSeekIndex int
}

// NewBolaEnh constructs a BolaEnh strategy bound to view.
func NewBolaEnh(view ports.SessionView, cfg Config) *BolaEnh {
	m := view.Manifest()

	utilities := make([]float64, len(m.Utilities))
	for i, u := range m.Utilities {
		utilities[i] = u + 1 // BolaEnh's own offset yields utilities[0] = 1
	}

	var gp, vp float64
	if cfg.NoIBR {
		gp = cfg.Gp - 1 // match BOLA Basic
		vp = (cfg.BufferSize - m.SegmentTime) / (utilities[len(utilities)-1] + gp)
	} else {
		buffer := bolaEnhMinimumBuffer + bolaEnhMinimumBufferPerLevel*float64(len(m.Bitrates))
		if cfg.BufferSize > buffer {
			buffer = cfg.BufferSize
		}
		gp = (utilities[len(utilities)-1] - 1) / (buffer/bolaEnhMinimumBuffer - 1)
		vp = bolaEnhMinimumBuffer / gp
	}

	return &BolaEnh{
		view:      view,
		abrOsc:    cfg.AbrOsc,
		noIBR:     cfg.NoIBR,
		utilities: utilities,
		gp:        gp,
		vp:        vp,
		state:     bolaEnhStartup,
	}
}

func (b *BolaEnh) FirstQuality() int { return 0 }

func (b *BolaEnh) qualityFromBuffer(level float64) int {
	m := b.view.Manifest()
	quality := 0
	var score float64
	first := true
	for q := range m.Bitrates {
		s := (b.vp*(b.utilities[q]+b.gp) - level) / m.Bitrates[q]
		if first || s > score {
			quality = q
			score = s
		}
		first = false
	}
	return quality
}

func (b *BolaEnh) qualityFromBufferPlaceholder() int {
	return b.qualityFromBuffer(b.view.BufferLevel() + b.placeholder)
}

func (b *BolaEnh) minBufferForQuality(quality int) float64 {
	m := b.view.Manifest()
	bitrate := m.Bitrates[quality]
	utility := b.utilities[quality]

	level := 0.0
	for q := 0; q < quality; q++ {
		if b.utilities[q] < utility {
			bb := m.Bitrates[q]
			u := b.utilities[q]
			l := b.vp * (b.gp + (bitrate*u-bb*utility)/(bitrate-bb))
			if l > level {
				level = l
			}
		}
	}
	return level
}

func (b *BolaEnh) maxBufferForQuality(quality int) float64 {
	return b.vp * (b.utilities[quality] + b.gp)
}

// GetQualityDelay dispatches to the STARTUP or STEADY computation; see
// abr_algorithms.py's BolaEnh.get_quality_delay. The Python "gs.throughput
// == None" warm-up check is modeled by treating a zero estimator reading
// (no Push has occurred yet) as "no sample".
func (b *BolaEnh) GetQualityDelay(segmentIndex int) (int, float64) {
	m := b.view.Manifest()
	bufferLevel := b.view.BufferLevel()

	if b.state == bolaEnhStartup {
		if b.view.Throughput() <= 0 {
			return b.lastQuality, 0
		}
		b.state = bolaEnhSteady
		b.ibrSafety = bolaEnhLowBufferSafetyInitial
		quality := qualityFromThroughput(b.view, b.view.Throughput())
		b.placeholder = math.Max(0, b.minBufferForQuality(quality)-bufferLevel)
		return quality, 0
	}

	quality := b.qualityFromBufferPlaceholder()
	qualityT := qualityFromThroughput(b.view, b.view.Throughput())
	if quality > b.lastQuality && quality > qualityT {
		quality = maxInt(b.lastQuality, qualityT)
		if !b.abrOsc {
			quality++
		}
	}

	maxLevel := b.maxBufferForQuality(quality)

	delay := bufferLevel + b.placeholder - maxLevel
	if delay > 0 {
		if delay <= b.placeholder {
			b.placeholder -= delay
			delay = 0
		} else {
			delay -= b.placeholder
			b.placeholder = 0
		}
	} else {
		delay = 0
	}

	if quality == m.TopQuality() {
		delay = 0
	}

	if !b.noIBR {
		safeSize := b.ibrSafety * (bufferLevel - b.view.Latency()) * b.view.Throughput()
		b.ibrSafety *= bolaEnhLowBufferSafetyInitial
		b.ibrSafety = math.Max(b.ibrSafety, bolaEnhLowBufferSafetyFactor)
		for q := 0; q < quality; q++ {
			if m.Bitrates[q+1]*m.SegmentTime > safeSize {
				quality = q
				delay = 0
				minLevel := b.minBufferForQuality(quality)
				maxPlaceholder := math.Max(0, minLevel-bufferLevel)
				b.placeholder = math.Min(b.placeholder, maxPlaceholder)
				break
			}
		}
	}

	return quality, delay
}

func (b *BolaEnh) ReportDelay(delayMs float64) {
	b.placeholder += delayMs
}

func (b *BolaEnh) ReportDownload(progress domain.DownloadProgress, isReplacement bool) {
	b.lastQuality = progress.Quality
	level := b.view.BufferLevel()

	if !progress.Abandoned() {
		if isReplacement {
			b.placeholder += b.view.Manifest().SegmentTime
			return
		}
		levelWas := level + progress.Time
		maxEffectiveLevel := b.maxBufferForQuality(progress.Quality)
		maxPlaceholder := math.Max(0, maxEffectiveLevel-levelWas)
		b.placeholder = math.Min(b.placeholder, maxPlaceholder)

		if level > 0 {
			minEffectiveLevel := b.minBufferForQuality(progress.Quality)
			minPlaceholder := minEffectiveLevel - levelWas
			b.placeholder = math.Max(b.placeholder, minPlaceholder)
		}
		return
	}

	if isReplacement {
		return
	}
	var wantLevel float64
	if *progress.AbandonToQuality > 0 {
		wantLevel = b.minBufferForQuality(*progress.AbandonToQuality)
	} else {
		wantLevel = bolaEnhMinimumBuffer
	}
	maxPlaceholder := math.Max(0, wantLevel-level)
	b.placeholder = math.Min(b.placeholder, maxPlaceholder)
}

func (b *BolaEnh) ReportSeek(whereMs float64) {
	b.state = bolaEnhStartup
	b.placeholder = 0
	b.lastQuality = b.FirstQuality()
	b.lastSeekIndex = int(math.Floor(whereMs / b.view.Manifest().SegmentTime))
}

func (b *BolaEnh) CheckAbandon(progress domain.DownloadProgress, bufferLevel float64) *int {
	remain := progress.Size - progress.Downloaded
	if progress.Downloaded <= 0 || remain <= 0 {
		return nil
	}

	bl := math.Max(0, bufferLevel+b.placeholder-progress.TimeToFirstBit)
	tp := progress.Downloaded / (progress.Time - progress.TimeToFirstBit)
	sz := remain - progress.TimeToFirstBit*tp
	if sz <= 0 {
		return nil
	}

	m := b.view.Manifest()
	score := (b.vp*(b.gp+b.utilities[progress.Quality]) - bl) / sz

	var abandonTo *int
	for q := 0; q < progress.Quality; q++ {
		otherSize := progress.Size * m.Bitrates[q] / m.Bitrates[progress.Quality]
		otherScore := (b.vp*(b.gp+b.utilities[q]) - bl) / otherSize
		if otherSize < sz && otherScore > score {
			score = otherScore
			qq := q
			abandonTo = &qq
		}
	}
	return abandonTo
}
