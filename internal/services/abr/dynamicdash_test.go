package abr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDynamicDashSwitchesArmsAtFixedThresholds(t *testing.T) {
	view := &fakeView{manifest: testManifest(t), throughput: 20_000, bufferLevel: 3000}
	d := NewDynamicDash(view, Config{Gp: 5000, BufferSize: 25000})
	assert.False(t, d.IsBola())

	view.bufferLevel = 12000
	d.GetQualityDelay(1)
	assert.True(t, d.IsBola())

	view.bufferLevel = 4000
	d.GetQualityDelay(2)
	assert.False(t, d.IsBola())
}

func TestDynamicDashStaysOnArmBetweenThresholds(t *testing.T) {
	view := &fakeView{manifest: testManifest(t), throughput: 20_000, bufferLevel: 12000}
	d := NewDynamicDash(view, Config{Gp: 5000, BufferSize: 25000})
	d.GetQualityDelay(0)
	assert.True(t, d.IsBola())

	view.bufferLevel = 7000 // between low (5000) and high (10000) thresholds
	d.GetQualityDelay(1)
	assert.True(t, d.IsBola())
}
