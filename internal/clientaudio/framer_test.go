package clientaudio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeSamples(n int, start int16) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = start + int16(i)
	}
	return out
}

func TestFramerEmitsExactlyFullFrames(t *testing.T) {
	f := NewFramer()
	frames := f.Push(makeSamples(FrameSamples*2, 0))
	require.Len(t, frames, 2)
	for _, frame := range frames {
		assert.Len(t, frame, FrameSamples)
	}
	assert.Empty(t, f.Flush())
}

func TestFramerCarriesPartialRemainderAcrossPushes(t *testing.T) {
	f := NewFramer()
	frames := f.Push(makeSamples(FrameSamples-10, 0))
	assert.Empty(t, frames)

	frames = f.Push(makeSamples(20, 100))
	require.Len(t, frames, 1)
	assert.Len(t, frames[0], FrameSamples)

	remainder := f.Flush()
	assert.Len(t, remainder, 10)
}

func TestFramerFlushOnEmptyBufferReturnsNil(t *testing.T) {
	f := NewFramer()
	assert.Nil(t, f.Flush())
}

func TestFramerPreservesSampleOrder(t *testing.T) {
	f := NewFramer()
	samples := makeSamples(FrameSamples, 7)
	frames := f.Push(samples)
	require.Len(t, frames, 1)
	assert.Equal(t, samples, frames[0])
}
