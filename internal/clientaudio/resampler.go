package clientaudio

// Resampler converts a mono float sample stream at an arbitrary source
// rate to the 24 kHz the upstream realtime endpoint expects, by linear
// interpolation (spec.md §4.7 step 3). It carries the fractional source
// position across successive Process calls so there is no boundary
// discontinuity between buffers.
type Resampler struct {
	srcRate    float64
	dstRate    float64
	posCarry   float64
	tailSample float64
	hasTail    bool
}

// NewResampler constructs a Resampler from srcRate to 24000 Hz.
func NewResampler(srcRate float64) *Resampler {
	return &Resampler{srcRate: srcRate, dstRate: 24000}
}

// Process resamples one buffer of input, returning the resampled output.
// The last input sample is retained as the next call's synthetic
// "x[i+1]" when the interpolation window would otherwise run past the
// end of this buffer.
func (r *Resampler) Process(input []float64) []float64 {
	if len(input) == 0 {
		return nil
	}

	step := r.srcRate / r.dstRate
	extended := input
	if r.hasTail {
		extended = append([]float64{r.tailSample}, input...)
	}

	var out []float64
	pos := r.posCarry
	// extended[0] corresponds to source index -1 when hasTail is set, so
	// shift pos to match when indexing into extended.
	offset := 0.0
	if r.hasTail {
		offset = 1.0
	}

	for {
		srcIdx := pos + offset
		idx0 := int(srcIdx)
		if idx0+1 >= len(extended) {
			break
		}
		frac := srcIdx - float64(idx0)
		sample := extended[idx0] + (extended[idx0+1]-extended[idx0])*frac
		out = append(out, sample)
		pos += step
	}

	r.posCarry = pos - float64(len(input))
	r.tailSample = input[len(input)-1]
	r.hasTail = true

	return out
}
