package clientaudio

// FrameSamples is the target frame size spec.md §4.7 step 5 names:
// roughly 4800 PCM16 samples at 24 kHz, i.e. ~200ms.
const FrameSamples = 4800

// Framer accumulates resampled PCM16 samples and emits fixed-size frames
// as they fill, carrying any partial remainder across calls.
type Framer struct {
	buf []int16
}

// NewFramer returns an empty Framer.
func NewFramer() *Framer {
	return &Framer{}
}

// Push appends samples and returns zero or more complete FrameSamples-
// sized frames. Partial remainder is retained for the next call.
func (f *Framer) Push(samples []int16) [][]int16 {
	f.buf = append(f.buf, samples...)

	var frames [][]int16
	for len(f.buf) >= FrameSamples {
		frame := make([]int16, FrameSamples)
		copy(frame, f.buf[:FrameSamples])
		frames = append(frames, frame)
		f.buf = f.buf[FrameSamples:]
	}
	return frames
}

// Flush returns any buffered partial frame (shorter than FrameSamples)
// and clears the buffer, used when a session ends mid-frame.
func (f *Framer) Flush() []int16 {
	if len(f.buf) == 0 {
		return nil
	}
	out := f.buf
	f.buf = nil
	return out
}
