package abr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBolaEnhStartsInStartupUntilThroughputSample(t *testing.T) {
	view := &fakeView{manifest: testManifest(t), throughput: 0}
	b := NewBolaEnh(view, Config{Gp: 5000, BufferSize: 25000})

	quality, delay := b.GetQualityDelay(0)

	assert.Equal(t, 0.0, delay)
	assert.Equal(t, b.FirstQuality(), quality)
	assert.Equal(t, bolaEnhStartup, b.state)
}

func TestBolaEnhTransitionsToSteadyOnceThroughputKnown(t *testing.T) {
	view := &fakeView{manifest: testManifest(t), throughput: 20_000, bufferLevel: 0}
	b := NewBolaEnh(view, Config{Gp: 5000, BufferSize: 25000})

	b.GetQualityDelay(0)

	assert.Equal(t, bolaEnhSteady, b.state)
}

func TestBolaEnhReportSeekResetsToStartup(t *testing.T) {
	view := &fakeView{manifest: testManifest(t), throughput: 20_000, bufferLevel: 8000}
	b := NewBolaEnh(view, Config{Gp: 5000, BufferSize: 25000})
	b.GetQualityDelay(0)

	b.ReportSeek(4000)

	assert.Equal(t, bolaEnhStartup, b.state)
	assert.Equal(t, 0.0, b.placeholder)
	assert.Equal(t, 1, b.lastSeekIndex)
}

func TestBolaEnhReportDelayAccumulatesPlaceholder(t *testing.T) {
	view := &fakeView{manifest: testManifest(t)}
	b := NewBolaEnh(view, Config{Gp: 5000, BufferSize: 25000})

	b.ReportDelay(500)
	b.ReportDelay(250)

	assert.Equal(t, 750.0, b.placeholder)
}
