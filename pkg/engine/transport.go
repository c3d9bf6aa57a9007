package engine

import "math"

// HostPosition is the musical position supplied by the block source. All
// fields are optional from the host's point of view; the tracker guards
// against unusable values field by field.
type HostPosition struct {
	BPM         float64
	Numerator   int
	Denominator int
	PPQ         float64 // position in quarter notes
	BarStartPPQ float64 // quarter-note position of the last bar start
	Playing     bool
}

// transportTracker keeps the last known host position and extrapolates it
// across blocks the host skips, so the displayed position never freezes
// mid-playback.
type transportTracker struct {
	pos     HostPosition
	hasInfo bool
}

func newTransportTracker() *transportTracker {
	t := &transportTracker{}
	t.Reset()
	return t
}

// Reset returns the tracker to a neutral 120 BPM, 4/4, stopped position.
func (t *transportTracker) Reset() {
	t.pos = HostPosition{BPM: 120.0, Numerator: 4, Denominator: 4}
	t.hasInfo = false
}

// Update adopts a freshly supplied position, or extrapolates the previous
// one across blockSeconds when the host went quiet mid-playback. Malformed
// fields (NaN, non-positive) leave the corresponding previous value in
// place rather than poisoning the state.
func (t *transportTracker) Update(host *HostPosition, blockSeconds float64) {
	if host != nil {
		t.adopt(host)
		return
	}
	if !t.hasInfo || !t.pos.Playing {
		return
	}

	t.pos.PPQ += blockSeconds * t.pos.BPM / 60.0

	barLength := t.barLengthQuarters()
	bars := math.Floor((t.pos.PPQ - t.pos.BarStartPPQ) / barLength)
	if bars > 0 {
		t.pos.BarStartPPQ += bars * barLength
	}
}

func (t *transportTracker) adopt(host *HostPosition) {
	if usableRate(host.BPM) {
		t.pos.BPM = host.BPM
	}
	if host.Numerator > 0 {
		t.pos.Numerator = host.Numerator
	}
	if host.Denominator > 0 {
		t.pos.Denominator = host.Denominator
	}
	if usablePosition(host.PPQ) {
		t.pos.PPQ = host.PPQ
	}
	if usablePosition(host.BarStartPPQ) {
		t.pos.BarStartPPQ = host.BarStartPPQ
	}
	t.pos.Playing = host.Playing
	t.hasInfo = true
}

// barLengthQuarters converts the time signature into quarter notes per bar.
func (t *transportTracker) barLengthQuarters() float64 {
	numerator := t.pos.Numerator
	if numerator < 1 {
		numerator = 1
	}
	denominator := t.pos.Denominator
	if denominator < 1 {
		denominator = 4
	}
	return float64(numerator) * 4.0 / float64(denominator)
}

// Position returns the current (possibly extrapolated) position.
func (t *transportTracker) Position() HostPosition { return t.pos }

func usableRate(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

func usablePosition(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
