package engine

import (
	"math"
	"testing"
)

func TestTransportAdoptsHostPosition(t *testing.T) {
	tr := newTransportTracker()
	tr.Update(&HostPosition{
		BPM:         128.0,
		Numerator:   3,
		Denominator: 8,
		PPQ:         16.5,
		BarStartPPQ: 15.0,
		Playing:     true,
	}, 0.01)

	pos := tr.Position()
	if pos.BPM != 128.0 || pos.Numerator != 3 || pos.Denominator != 8 {
		t.Errorf("expected 128 BPM in 3/8, got %f BPM in %d/%d",
			pos.BPM, pos.Numerator, pos.Denominator)
	}
	if pos.PPQ != 16.5 || pos.BarStartPPQ != 15.0 {
		t.Errorf("expected ppq 16.5 from bar 15, got %f from %f", pos.PPQ, pos.BarStartPPQ)
	}
	if !pos.Playing {
		t.Error("expected playing flag adopted")
	}
}

func TestTransportExtrapolatesWhilePlaying(t *testing.T) {
	tr := newTransportTracker()
	tr.Update(&HostPosition{BPM: 120.0, Numerator: 4, Denominator: 4, Playing: true}, 0.01)

	// 120 BPM is two quarter notes per second.
	for i := 0; i < 4; i++ {
		tr.Update(nil, 0.5)
	}
	pos := tr.Position()
	if math.Abs(pos.PPQ-4.0) > 1e-9 {
		t.Errorf("expected ppq 4.0 after two seconds, got %f", pos.PPQ)
	}
	if math.Abs(pos.BarStartPPQ-4.0) > 1e-9 {
		t.Errorf("expected bar start advanced to 4.0, got %f", pos.BarStartPPQ)
	}
}

func TestTransportOddMeterBarWrap(t *testing.T) {
	tr := newTransportTracker()
	tr.Update(&HostPosition{BPM: 120.0, Numerator: 7, Denominator: 8, Playing: true}, 0.01)

	// A 7/8 bar is 3.5 quarter notes long.
	tr.Update(nil, 2.0)
	pos := tr.Position()
	if math.Abs(pos.PPQ-4.0) > 1e-9 {
		t.Errorf("expected ppq 4.0, got %f", pos.PPQ)
	}
	if math.Abs(pos.BarStartPPQ-3.5) > 1e-9 {
		t.Errorf("expected bar start 3.5, got %f", pos.BarStartPPQ)
	}
}

func TestTransportHoldsWhenStopped(t *testing.T) {
	tr := newTransportTracker()
	tr.Update(&HostPosition{BPM: 120.0, Numerator: 4, Denominator: 4, PPQ: 2.0}, 0.01)

	tr.Update(nil, 1.0)
	if pos := tr.Position(); pos.PPQ != 2.0 {
		t.Errorf("expected paused position to hold at 2.0, got %f", pos.PPQ)
	}
}

func TestTransportHoldsWithoutInfo(t *testing.T) {
	tr := newTransportTracker()
	tr.Update(nil, 1.0)

	pos := tr.Position()
	if pos.PPQ != 0 || pos.BPM != 120.0 {
		t.Errorf("expected neutral defaults, got ppq %f at %f BPM", pos.PPQ, pos.BPM)
	}
}

func TestTransportRejectsMalformedFields(t *testing.T) {
	tr := newTransportTracker()
	tr.Update(&HostPosition{BPM: 90.0, Numerator: 4, Denominator: 4, PPQ: 8.0, BarStartPPQ: 8.0}, 0.01)

	tr.Update(&HostPosition{
		BPM:         math.NaN(),
		Numerator:   -1,
		Denominator: 0,
		PPQ:         math.Inf(1),
		BarStartPPQ: math.NaN(),
		Playing:     true,
	}, 0.01)

	pos := tr.Position()
	if pos.BPM != 90.0 || pos.Numerator != 4 || pos.Denominator != 4 {
		t.Errorf("expected tempo fields preserved, got %f BPM in %d/%d",
			pos.BPM, pos.Numerator, pos.Denominator)
	}
	if pos.PPQ != 8.0 || pos.BarStartPPQ != 8.0 {
		t.Errorf("expected position preserved at 8.0, got %f from %f", pos.PPQ, pos.BarStartPPQ)
	}
	if !pos.Playing {
		t.Error("expected playing flag adopted despite bad numeric fields")
	}
}
