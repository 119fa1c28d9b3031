package abr

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sabre/internal/domain"
)

func TestBolaFirstQualityIsZero(t *testing.T) {
	view := &fakeView{manifest: testManifest(t)}
	b := NewBola(view, Config{Gp: 5000, BufferSize: 25000})
	assert.Equal(t, 0, b.FirstQuality())
}

func TestBolaPrefersHigherQualityAtHighBuffer(t *testing.T) {
	view := &fakeView{manifest: testManifest(t), bufferLevel: 24000, throughput: 20_000}
	b := NewBola(view, Config{Gp: 5000, BufferSize: 25000})

	quality, _ := b.GetQualityDelay(0)

	assert.Greater(t, quality, 0)
}

func TestBolaStaysLowAtEmptyBuffer(t *testing.T) {
	view := &fakeView{manifest: testManifest(t), bufferLevel: 0, throughput: 20_000}
	b := NewBola(view, Config{Gp: 5000, BufferSize: 25000})

	quality, _ := b.GetQualityDelay(0)

	assert.Equal(t, 0, quality)
}

func TestBolaReportSeekResetsState(t *testing.T) {
	view := &fakeView{manifest: testManifest(t), bufferLevel: 24000, throughput: 20_000}
	b := NewBola(view, Config{Gp: 5000, BufferSize: 25000})
	b.GetQualityDelay(0)

	b.ReportSeek(8000)

	assert.Equal(t, b.FirstQuality(), b.lastQuality)
	assert.Equal(t, 2, b.lastSeekIndex)
}

func TestBolaCheckAbandonNoProgressYieldsNoAbandon(t *testing.T) {
	view := &fakeView{manifest: testManifest(t), bufferLevel: 5000}
	b := NewBola(view, Config{Gp: 5000, BufferSize: 25000})

	progress := domain.DownloadProgress{Quality: 3, Size: 10000, Downloaded: 0}

	assert.Nil(t, b.CheckAbandon(progress, 5000))
}
