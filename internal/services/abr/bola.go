package abr

import (
	"math"

	"sabre/internal/domain"
	"sabre/internal/domain/ports"
)

// Bola implements the Lyapunov buffer-based strategy, grounded on
// abr_algorithms.py's Bola class.
type Bola struct {
	view ports.SessionView

	gp         float64
	bufferSize float64
	abrOsc     bool
	abrBasic   bool
	vp         float64
	utilities  []float64

	lastSeekIndex int
	lastQuality   int
}

// NewBola constructs a Bola strategy bound to view. The manifest's derived
// utilities already satisfy utilities[0] = 0, matching Bola.__init__'s own
// utility_offset.
func NewBola(view ports.SessionView, cfg Config) *Bola {
	m := view.Manifest()
	utilities := m.Utilities
	vp := (cfg.BufferSize - m.SegmentTime) / (utilities[len(utilities)-1] + cfg.Gp)
	return &Bola{
		view:       view,
		gp:         cfg.Gp,
		bufferSize: cfg.BufferSize,
		abrOsc:     cfg.AbrOsc,
		abrBasic:   cfg.AbrBasic,
		vp:         vp,
		utilities:  utilities,
	}
}

func (b *Bola) FirstQuality() int { return 0 }

func (b *Bola) qualityFromBuffer() int {
	level := b.view.BufferLevel()
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

func (b *Bola) GetQualityDelay(segmentIndex int) (int, float64) {
	m := b.view.Manifest()

	if !b.abrBasic {
		t := math.Min(float64(segmentIndex-b.lastSeekIndex), float64(m.NumSegments()-segmentIndex))
		t = math.Max(t/2, 3)
		t *= m.SegmentTime
		bufferSize := math.Min(b.bufferSize, t)
		b.vp = (bufferSize - m.SegmentTime) / (b.utilities[len(b.utilities)-1] + b.gp)
	}

	quality := b.qualityFromBuffer()
	delay := 0.0

	if quality > b.lastQuality {
		qualityT := qualityFromThroughput(b.view, b.view.Throughput())
		switch {
		case quality <= qualityT:
			delay = 0
		case b.lastQuality > qualityT:
			quality = b.lastQuality
			delay = 0
		case !b.abrOsc:
			quality = qualityT + 1
		default:
			quality = qualityT
			u := b.utilities[quality]
			l := b.vp * (b.gp + u)
			delay = math.Max(0, b.view.BufferLevel()-l)
			if quality == m.TopQuality() {
				delay = 0
			}
		}
	}

	b.lastQuality = quality
	return quality, delay
}

func (b *Bola) ReportDelay(float64) {}

func (b *Bola) ReportDownload(domain.DownloadProgress, bool) {}

func (b *Bola) ReportSeek(whereMs float64) {
	b.lastSeekIndex = int(math.Floor(whereMs / b.view.Manifest().SegmentTime))
	b.lastQuality = b.FirstQuality()
}

func (b *Bola) CheckAbandon(progress domain.DownloadProgress, bufferLevel float64) *int {
	if b.abrBasic {
		return nil
	}
	remain := progress.Size - progress.Downloaded
	if progress.Downloaded <= 0 || remain <= 0 {
		return nil
	}

	score := (b.vp*(b.gp+b.utilities[progress.Quality]) - bufferLevel) / remain
	if score < 0 {
		return nil
	}

	m := b.view.Manifest()
	var abandonTo *int
	for q := 0; q < progress.Quality; q++ {
		otherSize := progress.Size * m.Bitrates[q] / m.Bitrates[progress.Quality]
		otherScore := (b.vp*(b.gp+b.utilities[q]) - bufferLevel) / otherSize
		if otherSize < remain && otherScore > score {
			score = otherScore
			qq := q
			abandonTo = &qq
		}
	}

	if abandonTo != nil {
		b.lastQuality = *abandonTo
	}
	return abandonTo
}
