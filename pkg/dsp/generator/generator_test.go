package generator

import (
	"math"
	"testing"
)

func TestSineFrequency(t *testing.T) {
	const rate = 48000.0
	const freq = 1000.0
	s := NewSine(rate, freq)

	// Count positive-going zero crossings over one second.
	crossings := 0
	prev := s.Next()
	for i := 1; i < int(rate); i++ {
		v := s.Next()
		if prev < 0 && v >= 0 {
			crossings++
		}
		prev = v
	}
	if crossings < 999 || crossings > 1001 {
		t.Errorf("1 kHz sine crossed zero %d times in 1 s, want about 1000", crossings)
	}
}

func TestSineFullScaleRMS(t *testing.T) {
	s := NewSine(48000, 441)
	var sum float64
	const n = 48000
	for i := 0; i < n; i++ {
		v := s.Next()
		sum += v * v
	}
	rms := math.Sqrt(sum / n)
	if math.Abs(rms-math.Sqrt2/2) > 0.001 {
		t.Errorf("sine RMS = %v, want %v", rms, math.Sqrt2/2)
	}
}

func TestSineResetAndRetune(t *testing.T) {
	s := NewSine(48000, 440)
	s.Next()
	second := s.Next()
	for i := 0; i < 100; i++ {
		s.Next()
	}
	s.Reset()
	s.Next()
	if got := s.Next(); got != second {
		t.Errorf("second sample after reset = %v, want %v", got, second)
	}

	s.SetFrequency(0)
	s.Reset()
	s.Next()
	if got := s.Next(); got != 0 {
		t.Errorf("0 Hz oscillator produced %v, want 0", got)
	}
}

func TestNoiseDeterministic(t *testing.T) {
	a := NewNoise(12345)
	b := NewNoise(12345)
	for i := 0; i < 1000; i++ {
		if a.Next() != b.Next() {
			t.Fatalf("same seed diverged at sample %d", i)
		}
	}
}

func TestNoiseStatistics(t *testing.T) {
	n := NewNoise(0x2545F491)
	var sum, sumSq float64
	const count = 100000
	for i := 0; i < count; i++ {
		v := n.Next()
		if v < -1.001 || v > 1.001 {
			t.Fatalf("sample %d = %v outside unit range", i, v)
		}
		sum += v
		sumSq += v * v
	}
	mean := sum / count
	if math.Abs(mean) > 0.02 {
		t.Errorf("noise mean = %v, want near 0", mean)
	}
	// Uniform noise on [-1, 1] has RMS 1/sqrt(3).
	rms := math.Sqrt(sumSq / count)
	if math.Abs(rms-1/math.Sqrt(3)) > 0.02 {
		t.Errorf("noise RMS = %v, want %v", rms, 1/math.Sqrt(3))
	}
}

func TestNoiseSeedsDecorrelated(t *testing.T) {
	a := NewNoise(0x2545F491)
	b := NewNoise(0x9E3779B9)
	var dot, aSq, bSq float64
	for i := 0; i < 100000; i++ {
		va := a.Next()
		vb := b.Next()
		dot += va * vb
		aSq += va * va
		bSq += vb * vb
	}
	corr := dot / math.Sqrt(aSq*bSq)
	if math.Abs(corr) > 0.02 {
		t.Errorf("different seeds correlate at %v, want near 0", corr)
	}
}
