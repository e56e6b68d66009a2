package clientaudio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constantFrame(n int, value int16) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = value
	}
	return out
}

func TestPlaybackQueueFIFOOrder(t *testing.T) {
	q := NewPlaybackQueue()
	q.Enqueue(constantFrame(100, 1000))
	q.Enqueue(constantFrame(100, 2000))

	first, ok := q.Dequeue()
	require.True(t, ok)
	second, ok := q.Dequeue()
	require.True(t, ok)

	assert.Greater(t, second[50], first[50])
	_, ok = q.Dequeue()
	assert.False(t, ok)
}

func TestPlaybackQueueAppliesFadeAtChunkEdges(t *testing.T) {
	q := NewPlaybackQueue()
	q.Enqueue(constantFrame(2000, 10000))

	samples, ok := q.Dequeue()
	require.True(t, ok)

	assert.Less(t, samples[0], samples[len(samples)/2])
	assert.Less(t, samples[len(samples)-1], samples[len(samples)/2])
	assert.InDelta(t, 0, samples[0], 0.01)
	assert.InDelta(t, 0, samples[len(samples)-1], 0.01)
}

func TestPlaybackQueueClearDropsAllPending(t *testing.T) {
	q := NewPlaybackQueue()
	q.Enqueue(constantFrame(10, 1))
	q.Enqueue(constantFrame(10, 2))
	q.Enqueue(constantFrame(10, 3))

	assert.Equal(t, 3, q.Len())
	dropped := q.Clear()
	assert.Equal(t, 3, dropped)
	assert.Equal(t, 0, q.Len())

	_, ok := q.Dequeue()
	assert.False(t, ok)
}

func TestSilenceSamplesReturnsZeroedBuffer(t *testing.T) {
	silence := SilenceSamples(2400)
	require.Len(t, silence, 2400)
	for _, s := range silence {
		assert.Equal(t, 0.0, s)
	}
}
