package clientaudio

import (
	"math"
	"sync"
)

// maxFadeSamples bounds the fade-in/fade-out window applied to each
// playback chunk (spec.md §4.7 step 2: min(50 samples, 5% of chunk)).
const maxFadeSamples = 50

// PlaybackQueue is the browser-side FIFO of down-frames awaiting
// playback. Dequeue decodes a frame to float and applies a short
// sine-curve fade at both ends to suppress inter-chunk clicks; Clear
// implements barge-in by dropping everything still queued.
type PlaybackQueue struct {
	mu    sync.Mutex
	queue [][]int16
}

// NewPlaybackQueue returns an empty queue.
func NewPlaybackQueue() *PlaybackQueue {
	return &PlaybackQueue{}
}

// Enqueue places a PCM16 down-frame at the tail of the queue.
func (q *PlaybackQueue) Enqueue(frame []int16) {
	q.mu.Lock()
	defer q.mu.Unlock()
	cp := make([]int16, len(frame))
	copy(cp, frame)
	q.queue = append(q.queue, cp)
}

// Dequeue removes and decodes the head frame, applying fade shaping. ok
// is false when the queue is empty.
func (q *PlaybackQueue) Dequeue() (samples []float64, ok bool) {
	q.mu.Lock()
	if len(q.queue) == 0 {
		q.mu.Unlock()
		return nil, false
	}
	frame := q.queue[0]
	q.queue = q.queue[1:]
	q.mu.Unlock()

	return applyFade(PCM16ToFloats(frame)), true
}

// Clear drops every queued frame without decoding it — the barge-in
// response to an upstream input_audio_buffer.speech_started event. It
// returns how many frames were dropped.
func (q *PlaybackQueue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.queue)
	q.queue = nil
	return n
}

// Len reports how many frames are currently queued.
func (q *PlaybackQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queue)
}

// applyFade shapes the first and last fadeLen samples of chunk with a
// quarter sine-curve ramp, where fadeLen = min(50, 5% of len(chunk)).
func applyFade(chunk []float64) []float64 {
	if len(chunk) == 0 {
		return chunk
	}
	fadeLen := maxFadeSamples
	if tenth := len(chunk) * 5 / 100; tenth < fadeLen {
		fadeLen = tenth
	}
	if fadeLen <= 0 {
		return chunk
	}

	out := make([]float64, len(chunk))
	copy(out, chunk)
	for i := 0; i < fadeLen; i++ {
		gain := math.Sin(float64(i) / float64(fadeLen) * math.Pi / 2)
		out[i] *= gain
		tailIdx := len(out) - 1 - i
		out[tailIdx] *= gain
	}
	return out
}

// SilenceSamples returns n zero samples, used to flush the output on
// barge-in (spec.md §4.7: "plays ≤ 100 ms of silence to flush the
// output").
func SilenceSamples(n int) []float64 {
	return make([]float64, n)
}
