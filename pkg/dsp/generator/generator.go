// Package generator provides deterministic test signals: a sine oscillator
// and seeded white noise. The tone source feeds them to the meters so levels
// can be checked against known values.
package generator

import "math"

// Sine is a phase-accumulator sine oscillator. Phase lives in [0, 1) and
// advances by frequency/sampleRate per sample.
type Sine struct {
	rate  float64
	phase float64
	inc   float64
}

// NewSine creates an oscillator at the given frequency.
func NewSine(sampleRate, frequency float64) *Sine {
	s := &Sine{rate: sampleRate}
	s.SetFrequency(frequency)
	return s
}

// SetFrequency retunes the oscillator without resetting the phase.
func (s *Sine) SetFrequency(frequency float64) {
	if s.rate <= 0 {
		s.inc = 0
		return
	}
	s.inc = frequency / s.rate
}

// Next returns the next sample in [-1, 1].
func (s *Sine) Next() float64 {
	v := math.Sin(2 * math.Pi * s.phase)
	s.phase += s.inc
	if s.phase >= 1 {
		s.phase -= math.Floor(s.phase)
	}
	return v
}

// Reset returns the phase to zero.
func (s *Sine) Reset() {
	s.phase = 0
}

// Noise is a linear congruential white noise source. Identical seeds produce
// identical sequences, so level checks can be exact; different seeds stay
// decorrelated, which keeps a stereo noise pair from collapsing to mono.
type Noise struct {
	state uint32
}

// NewNoise creates a noise source from a seed.
func NewNoise(seed uint32) *Noise {
	return &Noise{state: seed}
}

// Next returns the next uniform sample, spanning [-1, 1].
func (n *Noise) Next() float64 {
	n.state = n.state*1664525 + 1013904223
	return float64(int32(n.state)) / float64(math.MaxInt32)
}
