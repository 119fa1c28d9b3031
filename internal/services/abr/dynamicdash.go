package abr

import (
	"sabre/internal/domain"
	"sabre/internal/domain/ports"
)

// DynamicDash hybridizes BolaEnh and ThroughputRule via fixed buffer-level
// thresholds, grounded on abr_algorithms.py's DynamicDash class. The
// source computes low/high thresholds from buffer_size and then
// immediately overwrites both with literal constants (5000/10000); the
// computation has no effect, so only the literals are kept here.
type DynamicDash struct {
	view ports.SessionView

	bola *BolaEnh
	tput *ThroughputRule

	isBola                      bool
	lowThreshold, highThreshold float64
}

// NewDynamicDash constructs a DynamicDash strategy bound to view.
func NewDynamicDash(view ports.SessionView, cfg Config) *DynamicDash {
	return &DynamicDash{
		view:          view,
		bola:          NewBolaEnh(view, cfg),
		tput:          NewThroughputRule(view, cfg),
		lowThreshold:  5000,
		highThreshold: 10000,
	}
}

// IsBola reports which arm is currently active, for the graph trace.
func (d *DynamicDash) IsBola() bool { return d.isBola }

func (d *DynamicDash) FirstQuality() int {
	if d.isBola {
		return d.bola.FirstQuality()
	}
	return d.tput.FirstQuality()
}

func (d *DynamicDash) GetQualityDelay(segmentIndex int) (int, float64) {
	level := d.view.BufferLevel()
	switch {
	case d.isBola && level < d.lowThreshold:
		d.isBola = false
	case !d.isBola && level > d.highThreshold:
		d.isBola = true
	}

	if d.isBola {
		return d.bola.GetQualityDelay(segmentIndex)
	}
	return d.tput.GetQualityDelay(segmentIndex)
}

func (d *DynamicDash) ReportDelay(delayMs float64) {
	d.bola.ReportDelay(delayMs)
	d.tput.ReportDelay(delayMs)
}

func (d *DynamicDash) ReportDownload(progress domain.DownloadProgress, isReplacement bool) {
	d.bola.ReportDownload(progress, isReplacement)
	d.tput.ReportDownload(progress, isReplacement)
}

func (d *DynamicDash) ReportSeek(whereMs float64) {
	d.bola.ReportSeek(whereMs)
	d.tput.ReportSeek(whereMs)
}

func (d *DynamicDash) CheckAbandon(progress domain.DownloadProgress, bufferLevel float64) *int {
	if d.isBola {
		return d.bola.CheckAbandon(progress, bufferLevel)
	}
	return d.tput.CheckAbandon(progress, bufferLevel)
}
