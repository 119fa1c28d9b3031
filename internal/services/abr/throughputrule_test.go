package abr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sabre/internal/domain"
)

func TestThroughputRulePicksQualityBelowSafetyFactor(t *testing.T) {
	view := &fakeView{manifest: testManifest(t), throughput: 20_000, bufferLevel: 20000}
	r := NewThroughputRule(view, Config{NoIBR: true})

	quality, delay := r.GetQualityDelay(0)

	assert.Equal(t, 0.0, delay)
	assert.Equal(t, qualityFromThroughput(view, 20_000*throughputRuleSafetyFactor), quality)
}

func TestThroughputRuleReportSeekResetsSafety(t *testing.T) {
	view := &fakeView{manifest: testManifest(t), throughput: 20_000, bufferLevel: 20000}
	r := NewThroughputRule(view, Config{})
	r.GetQualityDelay(0)

	r.ReportSeek(0)

	assert.Equal(t, throughputRuleLowBufferSafetyInit, r.ibrSafety)
}

func TestThroughputRuleCheckAbandonGraceTime(t *testing.T) {
	view := &fakeView{manifest: testManifest(t), throughput: 20_000}
	r := NewThroughputRule(view, Config{})

	progress := domain.DownloadProgress{Quality: 3, Size: 10000, Downloaded: 1000, Time: 100, TimeToFirstBit: 0}

	assert.Nil(t, r.CheckAbandon(progress, 0))
}

func TestThroughputRuleCheckAbandonTriggersOnSlowDownload(t *testing.T) {
	view := &fakeView{manifest: testManifest(t), throughput: 20_000}
	r := NewThroughputRule(view, Config{})

	// Quality 4 (4000 kbps) downloading very slowly: only 100,000 of
	// 16,000,000 bits transferred after 1000ms, well past the grace time.
	progress := domain.DownloadProgress{
		Quality: 4, Size: 16_000_000, Downloaded: 100_000, Time: 1000, TimeToFirstBit: 0,
	}

	abandonTo := r.CheckAbandon(progress, 0)

	require.NotNil(t, abandonTo)
	assert.Less(t, *abandonTo, progress.Quality)
}
