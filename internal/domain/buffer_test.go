package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaybackBufferLevel(t *testing.T) {
	b := NewPlaybackBuffer(4000)
	assert.True(t, b.Empty())
	assert.Equal(t, 0.0, b.Level())

	b.PushTail(BufferEntry{SegmentIndex: 0, Quality: 1})
	b.PushTail(BufferEntry{SegmentIndex: 1, Quality: 2})
	assert.Equal(t, 8000.0, b.Level())
	assert.Equal(t, 2, b.Len())

	b.SetFCC(1500)
	assert.Equal(t, 6500.0, b.Level())
}

func TestPlaybackBufferPopHead(t *testing.T) {
	b := NewPlaybackBuffer(4000)
	b.PushTail(BufferEntry{SegmentIndex: 0, Quality: 1})
	b.PushTail(BufferEntry{SegmentIndex: 1, Quality: 2})

	head := b.PopHead()
	assert.Equal(t, 0, head.SegmentIndex)
	assert.Equal(t, 1, b.Len())
	assert.Equal(t, 1, b.Head().SegmentIndex)
}

func TestPlaybackBufferSetQualityAt(t *testing.T) {
	b := NewPlaybackBuffer(4000)
	b.PushTail(BufferEntry{SegmentIndex: 0, Quality: 1})
	b.SetQualityAt(0, 3)
	assert.Equal(t, 3, b.At(0).Quality)
}

func TestPlaybackBufferContentsIsDefensiveCopy(t *testing.T) {
	b := NewPlaybackBuffer(4000)
	b.PushTail(BufferEntry{SegmentIndex: 0, Quality: 1})

	contents := b.Contents()
	contents[0].Quality = 99

	require.Equal(t, 1, b.Len())
	assert.Equal(t, 1, b.At(0).Quality)
}

func TestPlaybackBufferKeepSuffixFrom(t *testing.T) {
	b := NewPlaybackBuffer(4000)
	for i := 0; i < 5; i++ {
		b.PushTail(BufferEntry{SegmentIndex: i, Quality: 1})
	}

	b.KeepSuffixFrom(3)

	require.Equal(t, 2, b.Len())
	assert.Equal(t, 3, b.At(0).SegmentIndex)
	assert.Equal(t, 4, b.At(1).SegmentIndex)
}

func TestPlaybackBufferKeepSuffixFromDropsAll(t *testing.T) {
	b := NewPlaybackBuffer(4000)
	b.PushTail(BufferEntry{SegmentIndex: 0, Quality: 1})
	b.PushTail(BufferEntry{SegmentIndex: 1, Quality: 1})

	b.KeepSuffixFrom(10)

	assert.True(t, b.Empty())
}

func TestPlaybackBufferClear(t *testing.T) {
	b := NewPlaybackBuffer(4000)
	b.PushTail(BufferEntry{SegmentIndex: 0, Quality: 1})
	b.SetFCC(500)

	b.Clear()

	assert.True(t, b.Empty())
	assert.Equal(t, 0.0, b.FCC())
	assert.Equal(t, 0.0, b.Level())
}
