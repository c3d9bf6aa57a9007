package analysis

import (
	"math"
	"testing"
)

func TestEnergyToLoudness(t *testing.T) {
	if got := energyToLoudness(1.0); math.Abs(got-(-0.691)) > 1e-9 {
		t.Errorf("expected -0.691 for unit energy, got %f", got)
	}
	if got := energyToLoudness(0.0); got != LoudnessFloor {
		t.Errorf("expected floor for zero energy, got %f", got)
	}
	if got := energyToLoudness(1.0e-13); got != LoudnessFloor {
		t.Errorf("expected floor below epsilon, got %f", got)
	}
}

func TestLoudnessSilence(t *testing.T) {
	la := NewLoudnessAnalyzer(testSampleRate, 512)

	// Digital silence for a full short-term history window.
	block := make([]float32, 512)
	for i := 0; i < 20*48000/512; i++ {
		la.Process(block)
	}

	if la.Momentary() != LoudnessFloor {
		t.Errorf("expected momentary at floor, got %f", la.Momentary())
	}
	if la.ShortTerm() != LoudnessFloor {
		t.Errorf("expected short-term at floor, got %f", la.ShortTerm())
	}
	if la.MaxMomentary() != LoudnessFloor {
		t.Errorf("expected max momentary at floor, got %f", la.MaxMomentary())
	}
	if la.Integrated() != LoudnessFloor {
		t.Errorf("expected integrated at floor, got %f", la.Integrated())
	}
	if la.Range() != 0 {
		t.Errorf("expected zero loudness range, got %f", la.Range())
	}
}

func TestLoudnessSineTone(t *testing.T) {
	la := NewLoudnessAnalyzer(testSampleRate, 512)

	// A full-scale 1 kHz sine reads close to -3 LUFS: the K filter lifts
	// it by the 0.691 dB the offset takes back, and a unit sine carries
	// half the energy of full-scale DC. Sixteen seconds settles both
	// smoothing windows. Process weights in place, so the signal is
	// generated up front and consumed once.
	signal := monoSine(1000.0, 1.0, 16*48000)
	for off := 0; off+512 <= len(signal); off += 512 {
		la.Process(signal[off : off+512])
	}

	if math.Abs(la.Momentary()-(-3.0)) > 0.5 {
		t.Errorf("expected momentary near -3 LUFS, got %f", la.Momentary())
	}
	if math.Abs(la.ShortTerm()-(-3.0)) > 0.5 {
		t.Errorf("expected short-term near -3 LUFS, got %f", la.ShortTerm())
	}
	if math.Abs(la.Integrated()-(-3.0)) > 0.5 {
		t.Errorf("expected integrated near -3 LUFS, got %f", la.Integrated())
	}

	// Steady input means the running maximum is the current reading.
	if math.Abs(la.MaxMomentary()-la.Momentary()) > 1e-9 {
		t.Errorf("expected max momentary %f, got %f", la.Momentary(), la.MaxMomentary())
	}
}

func TestIntegratedRelativeGate(t *testing.T) {
	la := NewLoudnessAnalyzer(testSampleRate, 512)

	// Eight loud blocks and two much quieter ones. The quiet pair sits
	// below average minus 10 LU, so the integrated figure is the mean
	// energy of the loud blocks alone.
	for i := 0; i < 8; i++ {
		la.pushBlockEnergy(0.1)
	}
	for i := 0; i < 2; i++ {
		la.pushBlockEnergy(0.001)
	}

	want := -0.691 + 10.0*math.Log10(0.1)
	if math.Abs(la.Integrated()-want) > 1e-3 {
		t.Errorf("expected integrated %f, got %f", want, la.Integrated())
	}

	// Including the quiet blocks would read roughly a decibel lower.
	ungated := -0.691 + 10.0*math.Log10(0.0802)
	if la.Integrated() < ungated+0.5 {
		t.Errorf("expected quiet blocks gated out, got %f", la.Integrated())
	}
}

func TestIntegratedRelativeGateKeepsBoundaryBlock(t *testing.T) {
	la := NewLoudnessAnalyzer(testSampleRate, 512)

	// With energies 19/128 and 1/128, the valid mean is 10/128 and the
	// relative gate lands bit-exactly on the quiet block (all values and the
	// divide-by-ten are exact in float32). A block at the gate is kept, so
	// the integrated figure is the mean of both energies, not just the loud
	// one.
	la.pushBlockEnergy(19.0 / 128.0)
	la.pushBlockEnergy(1.0 / 128.0)

	want := -0.691 + 10.0*math.Log10(10.0/128.0)
	if math.Abs(la.Integrated()-want) > 1e-3 {
		t.Errorf("expected integrated %f, got %f", want, la.Integrated())
	}

	loudOnly := -0.691 + 10.0*math.Log10(19.0/128.0)
	if math.Abs(la.Integrated()-loudOnly) < 1.0 {
		t.Errorf("boundary block was gated out, got %f", la.Integrated())
	}
}

func TestIntegratedAbsoluteGate(t *testing.T) {
	la := NewLoudnessAnalyzer(testSampleRate, 512)

	// Energies below -70 LUFS never enter the measurement.
	for i := 0; i < 5; i++ {
		la.pushBlockEnergy(1.0e-8)
	}
	if la.Integrated() != LoudnessFloor {
		t.Errorf("expected floor with only sub-gate blocks, got %f", la.Integrated())
	}

	// One audible block and the measurement snaps to it.
	la.pushBlockEnergy(0.1)
	want := -0.691 + 10.0*math.Log10(0.1)
	if math.Abs(la.Integrated()-want) > 1e-3 {
		t.Errorf("expected integrated %f, got %f", want, la.Integrated())
	}
}

func TestLoudnessRangePercentiles(t *testing.T) {
	la := NewLoudnessAnalyzer(testSampleRate, 512)
	la.integrated = -10.0

	// An even ramp of short-term values: the 95th and 10th percentiles
	// land at -5.5 and -14, a spread of 8.5 LU.
	for i := 0; i <= 100; i++ {
		la.history.Push(-15.0 + float64(i)*0.1)
	}
	la.updateRange()
	if math.Abs(la.Range()-8.5) > 1e-9 {
		t.Errorf("expected loudness range 8.5, got %f", la.Range())
	}

	// Values more than 20 LU below the integrated level are ignored.
	for i := 0; i < 50; i++ {
		la.history.Push(-80.0)
	}
	la.updateRange()
	if math.Abs(la.Range()-8.5) > 1e-9 {
		t.Errorf("expected gated loudness range 8.5, got %f", la.Range())
	}
}

func TestLoudnessHistoryCadence(t *testing.T) {
	la := NewLoudnessAnalyzer(testSampleRate, 8192)

	la.Process(nil)
	if len(la.PendingHistory()) != 0 {
		t.Errorf("expected no history from empty block, got %d", len(la.PendingHistory()))
	}

	// One entry per 50 ms of input, carried over block boundaries.
	la.Process(make([]float32, 2399))
	if len(la.PendingHistory()) != 0 {
		t.Errorf("expected no history one sample early, got %d", len(la.PendingHistory()))
	}
	la.Process(make([]float32, 1))
	if len(la.PendingHistory()) != 1 {
		t.Errorf("expected 1 history value, got %d", len(la.PendingHistory()))
	}
	la.Process(make([]float32, 4800))
	if len(la.PendingHistory()) != 2 {
		t.Errorf("expected 2 history values, got %d", len(la.PendingHistory()))
	}
	if v := la.PendingHistory()[0]; v != LoudnessFloor {
		t.Errorf("expected silent history at floor, got %f", v)
	}
}

func TestResetStatistics(t *testing.T) {
	la := NewLoudnessAnalyzer(testSampleRate, 512)

	signal := monoSine(1000.0, 0.5, 2*48000)
	for off := 0; off+512 <= len(signal); off += 512 {
		la.Process(signal[off : off+512])
	}

	momentary := la.Momentary()
	integrated := la.Integrated()
	la.ResetStatistics()

	// Maxima and the history clear; the measurement itself survives.
	if la.MaxMomentary() != LoudnessFloor {
		t.Errorf("expected max momentary reset to floor, got %f", la.MaxMomentary())
	}
	if la.MaxShortTerm() != LoudnessFloor {
		t.Errorf("expected max short-term reset to floor, got %f", la.MaxShortTerm())
	}
	if la.Integrated() != integrated {
		t.Errorf("expected integrated preserved at %f, got %f", integrated, la.Integrated())
	}
	if la.Momentary() != momentary {
		t.Errorf("expected momentary preserved at %f, got %f", momentary, la.Momentary())
	}

	// The smoothers keep their state, so the next block continues from
	// the pre-reset level instead of spiking from silence.
	tail := monoSine(1000.0, 0.5, 512)
	la.Process(tail)
	if math.Abs(la.Momentary()-momentary) > 0.2 {
		t.Errorf("expected momentary near %f after reset, got %f", momentary, la.Momentary())
	}
}

func BenchmarkLoudnessAnalyzer(b *testing.B) {
	la := NewLoudnessAnalyzer(testSampleRate, 512)
	block := monoSine(1000.0, 0.5, 512)
	scratch := make([]float32, 512)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		copy(scratch, block)
		la.Process(scratch)
	}
}
