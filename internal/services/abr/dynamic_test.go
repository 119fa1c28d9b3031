package abr

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sabre/internal/domain"
)

func TestDynamicStartsOnThroughputArm(t *testing.T) {
	view := &fakeView{manifest: testManifest(t), throughput: 20_000, bufferLevel: 0}
	d := NewDynamic(view, Config{Gp: 5000, BufferSize: 25000})

	assert.False(t, d.IsBola())
	assert.Equal(t, d.tput.FirstQuality(), d.FirstQuality())
}

func TestDynamicSwitchesToBolaAboveThreshold(t *testing.T) {
	view := &fakeView{manifest: testManifest(t), throughput: 20_000, bufferLevel: 20000}
	d := NewDynamic(view, Config{Gp: 5000, BufferSize: 25000})

	d.GetQualityDelay(0)

	assert.True(t, d.IsBola())
}

func TestDynamicReplacementForcesThroughputArm(t *testing.T) {
	view := &fakeView{manifest: testManifest(t), throughput: 20_000, bufferLevel: 20000}
	d := NewDynamic(view, Config{Gp: 5000, BufferSize: 25000})
	d.GetQualityDelay(0)
	assert.True(t, d.IsBola())

	d.ReportDownload(domain.DownloadProgress{Quality: 2}, true)

	assert.False(t, d.IsBola())
}
