// Package filter provides the second-order IIR filters behind the analyzer's
// weighting and band-splitting stages.
package filter

import "math"

// Biquad is a second-order IIR filter in Direct Form I with independent state
// per channel. Coefficients are shared across channels, so one instance
// filters a whole multichannel stream through the same response. Design
// methods follow the RBJ cookbook formulas.
type Biquad struct {
	a0, a1, a2 float32 // denominator, a0 normalized to 1
	b0, b1, b2 float32 // numerator

	x1, x2 []float32 // input delay line per channel
	y1, y2 []float32 // output delay line per channel
}

// NewBiquad creates a pass-through biquad for the given channel count.
func NewBiquad(channels int) *Biquad {
	return &Biquad{
		a0: 1.0,
		b0: 1.0,
		x1: make([]float32, channels),
		x2: make([]float32, channels),
		y1: make([]float32, channels),
		y2: make([]float32, channels),
	}
}

// Reset clears the delay lines of every channel.
func (b *Biquad) Reset() {
	for i := range b.x1 {
		b.x1[i] = 0
		b.x2[i] = 0
		b.y1[i] = 0
		b.y2[i] = 0
	}
}

// SetCoefficients installs raw transfer-function coefficients, normalizing
// everything by a0.
func (b *Biquad) SetCoefficients(b0, b1, b2, a0, a1, a2 float64) {
	inv := 1.0 / a0
	b.b0 = float32(b0 * inv)
	b.b1 = float32(b1 * inv)
	b.b2 = float32(b2 * inv)
	b.a0 = 1.0
	b.a1 = float32(a1 * inv)
	b.a2 = float32(a2 * inv)
}

// Process filters buffer in place using the delay line of the given channel.
// No allocations.
func (b *Biquad) Process(buffer []float32, channel int) {
	x1 := b.x1[channel]
	x2 := b.x2[channel]
	y1 := b.y1[channel]
	y2 := b.y2[channel]

	for i := range buffer {
		x0 := buffer[i]

		// Direct Form I
		y0 := b.b0*x0 + b.b1*x1 + b.b2*x2 - b.a1*y1 - b.a2*y2

		x2 = x1
		x1 = x0
		y2 = y1
		y1 = y0

		buffer[i] = y0
	}

	b.x1[channel] = x1
	b.x2[channel] = x2
	b.y1[channel] = y1
	b.y2[channel] = y2
}

// ProcessMulti filters each channel buffer in place with its own state.
func (b *Biquad) ProcessMulti(buffers [][]float32) {
	for ch, buffer := range buffers {
		if ch < len(b.x1) {
			b.Process(buffer, ch)
		}
	}
}

// angles computes the shared trigonometric terms of the RBJ designs.
func angles(sampleRate, frequency, q float64) (sinOmega, cosOmega, alpha float64) {
	omega := 2.0 * math.Pi * frequency / sampleRate
	sinOmega = math.Sin(omega)
	cosOmega = math.Cos(omega)
	alpha = sinOmega / (2.0 * q)
	return
}

// SetLowpass configures a lowpass at the given corner frequency. Used for the
// low and mid legs of the waveform band splitter.
func (b *Biquad) SetLowpass(sampleRate, frequency, q float64) {
	_, cosOmega, alpha := angles(sampleRate, frequency, q)

	b.SetCoefficients(
		(1.0-cosOmega)/2.0,
		1.0-cosOmega,
		(1.0-cosOmega)/2.0,
		1.0+alpha,
		-2.0*cosOmega,
		1.0-alpha,
	)
}

// SetHighpass configures a highpass at the given corner frequency. Used for
// the band splitter and for the low-cut stage of the loudness prefilter.
func (b *Biquad) SetHighpass(sampleRate, frequency, q float64) {
	_, cosOmega, alpha := angles(sampleRate, frequency, q)

	b.SetCoefficients(
		(1.0+cosOmega)/2.0,
		-(1.0 + cosOmega),
		(1.0+cosOmega)/2.0,
		1.0+alpha,
		-2.0*cosOmega,
		1.0-alpha,
	)
}

// SetHighShelf configures a high shelf with the given gain in dB. Used for
// the head-response stage of the loudness prefilter.
func (b *Biquad) SetHighShelf(sampleRate, frequency, q, gainDB float64) {
	_, cosOmega, alpha := angles(sampleRate, frequency, q)
	A := math.Pow(10.0, gainDB/40.0)

	sqrtAAlpha := 2.0 * math.Sqrt(A) * alpha

	b.SetCoefficients(
		A*((A+1)+(A-1)*cosOmega+sqrtAAlpha),
		-2.0*A*((A-1)+(A+1)*cosOmega),
		A*((A+1)+(A-1)*cosOmega-sqrtAAlpha),
		(A+1)-(A-1)*cosOmega+sqrtAAlpha,
		2.0*((A-1)-(A+1)*cosOmega),
		(A+1)-(A-1)*cosOmega-sqrtAAlpha,
	)
}
