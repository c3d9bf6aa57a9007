// Package ballistics provides one-pole meter ballistics: symmetric smoothers
// for averaged levels and an asymmetric peak follower with fast rise and slow
// fall.
package ballistics

import "math"

// Coef returns the one-pole coefficient for a time constant in seconds at the
// given sample rate. Larger coefficients mean slower response. A time constant
// that is not positive yields 0, which makes the smoother track its input
// instantly.
func Coef(seconds, sampleRate float64) float64 {
	if seconds <= 0 || sampleRate <= 0 {
		return 0
	}
	return math.Exp(-1.0 / (seconds * sampleRate))
}

// Smoother is a symmetric one-pole lowpass on a scalar signal, typically a
// mean-square level. It can advance sample by sample or fast-forward a whole
// block at once.
type Smoother struct {
	coef  float64
	state float64
}

// NewSmoother creates a smoother with the given time constant in seconds.
func NewSmoother(seconds, sampleRate float64) *Smoother {
	return &Smoother{coef: Coef(seconds, sampleRate)}
}

// SetTimeConstant recalculates the coefficient, keeping the current state.
func (s *Smoother) SetTimeConstant(seconds, sampleRate float64) {
	s.coef = Coef(seconds, sampleRate)
}

// Next advances one sample towards input and returns the new state.
func (s *Smoother) Next(input float64) float64 {
	s.state = input + (s.state-input)*s.coef
	return s.state
}

// NextBlock advances n samples in one step, holding input constant over the
// block. Raising the coefficient to the block length keeps the result
// identical to n calls of Next regardless of how the host slices its blocks.
func (s *Smoother) NextBlock(input float64, n int) float64 {
	if n <= 0 {
		return s.state
	}
	k := math.Pow(s.coef, float64(n))
	s.state = input + (s.state-input)*k
	return s.state
}

// Value returns the current state without advancing.
func (s *Smoother) Value() float64 { return s.state }

// SetValue forces the state, used to seed energy meters away from hard zero.
func (s *Smoother) SetValue(v float64) { s.state = v }

// Reset clears the state to zero.
func (s *Smoother) Reset() { s.state = 0 }

// PeakFollower tracks the absolute level of a signal with separate rise and
// fall time constants. Rise is much faster than fall so transients register
// immediately and decay readably.
type PeakFollower struct {
	riseCoef float64
	fallCoef float64
	state    float64
}

// NewPeakFollower creates a follower with the given rise and fall time
// constants in seconds.
func NewPeakFollower(rise, fall, sampleRate float64) *PeakFollower {
	return &PeakFollower{
		riseCoef: Coef(rise, sampleRate),
		fallCoef: Coef(fall, sampleRate),
	}
}

// SetTimeConstants recalculates both coefficients, keeping the current state.
func (p *PeakFollower) SetTimeConstants(rise, fall, sampleRate float64) {
	p.riseCoef = Coef(rise, sampleRate)
	p.fallCoef = Coef(fall, sampleRate)
}

// Next advances one sample using the absolute value of input and returns the
// new state.
func (p *PeakFollower) Next(input float64) float64 {
	level := math.Abs(input)
	if level > p.state {
		p.state = level + (p.state-level)*p.riseCoef
	} else {
		p.state = level + (p.state-level)*p.fallCoef
	}
	return p.state
}

// NextBlock fast-forwards n samples of a constant input level, picking the
// rise or fall coefficient once for the whole block. Equivalent to n Next
// calls with the same input.
func (p *PeakFollower) NextBlock(input float64, n int) float64 {
	if n <= 0 {
		return p.state
	}
	level := math.Abs(input)
	coef := p.fallCoef
	if level > p.state {
		coef = p.riseCoef
	}
	k := math.Pow(coef, float64(n))
	p.state = level + (p.state-level)*k
	return p.state
}

// Value returns the current state without advancing.
func (p *PeakFollower) Value() float64 { return p.state }

// Reset clears the state to zero.
func (p *PeakFollower) Reset() { p.state = 0 }
