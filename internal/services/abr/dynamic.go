package abr

import (
	"sabre/internal/domain"
	"sabre/internal/domain/ports"
)

const dynamicLowBufferThreshold = 10000.0

// Dynamic hybridizes Bola and ThroughputRule via buffer-level hysteresis,
// grounded on abr_algorithms.py's Dynamic class. Unlike the source, which
// tracks the active arm on the process-global GlobalState, the arm flag is
// ordinary struct state here (Design Notes §9: no global session state).
type Dynamic struct {
	view ports.SessionView

	bola *Bola
	tput *ThroughputRule

	isBola bool
}

// NewDynamic constructs a Dynamic strategy bound to view.
func NewDynamic(view ports.SessionView, cfg Config) *Dynamic {
	return &Dynamic{
		view: view,
		bola: NewBola(view, cfg),
		tput: NewThroughputRule(view, cfg),
	}
}

// IsBola reports which arm is currently active, for the graph trace.
func (d *Dynamic) IsBola() bool { return d.isBola }

func (d *Dynamic) FirstQuality() int {
	if d.isBola {
		return d.bola.FirstQuality()
	}
	return d.tput.FirstQuality()
}

func (d *Dynamic) GetQualityDelay(segmentIndex int) (int, float64) {
	level := d.view.BufferLevel()
	bq, bd := d.bola.GetQualityDelay(segmentIndex)
	tq, td := d.tput.GetQualityDelay(segmentIndex)

	if d.isBola {
		if level < dynamicLowBufferThreshold && bq < tq {
			d.isBola = false
		}
	} else if level > dynamicLowBufferThreshold && bq >= tq {
		d.isBola = true
	}

	if d.isBola {
		return bq, bd
	}
	return tq, td
}

func (d *Dynamic) ReportDelay(delayMs float64) {
	d.bola.ReportDelay(delayMs)
	d.tput.ReportDelay(delayMs)
}

func (d *Dynamic) ReportDownload(progress domain.DownloadProgress, isReplacement bool) {
	d.bola.ReportDownload(progress, isReplacement)
	d.tput.ReportDownload(progress, isReplacement)
	if isReplacement {
		d.isBola = false
	}
}

func (d *Dynamic) ReportSeek(whereMs float64) {
	d.bola.ReportSeek(whereMs)
	d.tput.ReportSeek(whereMs)
}

// CheckAbandon always defers to the throughput arm: the source guards its
// BOLA branch with a literal "if False and is_bola", making it permanently
// dead. Preserved here as the open question it is rather than "fixed".
func (d *Dynamic) CheckAbandon(progress domain.DownloadProgress, bufferLevel float64) *int {
	return d.tput.CheckAbandon(progress, bufferLevel)
}
