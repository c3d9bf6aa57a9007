package analysis

import (
	"math"
	"sort"

	"github.com/viterin/vek/vek32"

	"github.com/meterdeck/meterdeck/pkg/dsp/ballistics"
	"github.com/meterdeck/meterdeck/pkg/dsp/filter"
	"github.com/meterdeck/meterdeck/pkg/dsp/ring"
)

// LoudnessFloor is the sentinel reported when no measurable signal exists.
const LoudnessFloor = -100.0

// Loudness model constants.
const (
	momentarySeconds = 0.4
	shortTermSeconds = 3.0

	integratedBlockSeconds  = 0.4
	integratedWindowSeconds = 600.0

	absoluteGateLUFS = -70.0
	relativeGateLU   = 10.0

	lraGateLU         = 20.0
	lraLowPercentile  = 0.10
	lraHighPercentile = 0.95

	// HistoryIntervalSeconds is the cadence at which short-term loudness is
	// sampled into the history ring; HistorySpanSeconds is the span that
	// ring covers.
	HistoryIntervalSeconds = 0.05
	HistorySpanSeconds     = 20.0
)

// HistoryCapacity is the entry count of the loudness history ring.
const HistoryCapacity = int(HistorySpanSeconds / HistoryIntervalSeconds)

const energyEpsilon = 1.0e-12

// energyToLoudness converts a mean-square energy to loudness units, with the
// energy floor-clamped so the logarithm stays finite.
func energyToLoudness(energy float64) float64 {
	if energy < energyEpsilon {
		energy = energyEpsilon
	}
	return -0.691 + 10.0*math.Log10(energy)
}

// LoudnessAnalyzer measures momentary, short-term, gated integrated
// loudness, and loudness range of the mono mixdown. All input is K-weighted
// in place before any energy is accumulated, so downstream consumers of the
// same buffer see the weighted signal.
type LoudnessAnalyzer struct {
	weighting *filter.KWeighting

	momentary *ballistics.Smoother
	shortTerm *ballistics.Smoother

	momentaryLUFS float64
	shortTermLUFS float64
	maxMomentary  float64
	maxShortTerm  float64

	integrated         float64
	loudnessRange      float64
	absoluteGateEnergy float32

	blockEnergies          *ring.Buffer[float32]
	integratedBlockSamples int
	integratedAccum        float64
	integratedCounter      int

	validScratch []float32
	gatedScratch []float32
	boolScratch  []bool

	history                *ring.Buffer[float64]
	historyIntervalSamples int
	historyCounter         int
	historyScratch         []float64
	pendingHistory         []float64
}

// NewLoudnessAnalyzer creates an analyzer for the given sample rate, sized
// for blocks up to maxBlockSize samples.
func NewLoudnessAnalyzer(sampleRate float64, maxBlockSize int) *LoudnessAnalyzer {
	if maxBlockSize < 1 {
		maxBlockSize = 1
	}

	integratedBlocks := int(integratedWindowSeconds / integratedBlockSeconds)

	la := &LoudnessAnalyzer{
		weighting: filter.NewKWeighting(1),
		momentary: ballistics.NewSmoother(momentarySeconds, sampleRate),
		shortTerm: ballistics.NewSmoother(shortTermSeconds, sampleRate),

		momentaryLUFS: LoudnessFloor,
		shortTermLUFS: LoudnessFloor,
		maxMomentary:  LoudnessFloor,
		maxShortTerm:  LoudnessFloor,
		integrated:    LoudnessFloor,

		absoluteGateEnergy: float32(math.Pow(10.0, (absoluteGateLUFS+0.691)/10.0)),

		blockEnergies:          ring.New[float32](integratedBlocks),
		integratedBlockSamples: atLeastOne(math.Round(sampleRate * integratedBlockSeconds)),

		validScratch: make([]float32, integratedBlocks),
		gatedScratch: make([]float32, integratedBlocks),
		boolScratch:  make([]bool, integratedBlocks),

		history:                ring.New[float64](HistoryCapacity),
		historyIntervalSamples: atLeastOne(math.Round(sampleRate * HistoryIntervalSeconds)),
		historyScratch:         make([]float64, 0, HistoryCapacity),
	}

	la.weighting.SetSampleRate(sampleRate)

	// Seed the energy smoothers just above silence so the first loudness
	// readings start at a quiet floor instead of negative infinity.
	la.momentary.SetValue(1.0e-9)
	la.shortTerm.SetValue(1.0e-9)

	la.pendingHistory = make([]float64, 0, maxBlockSize/la.historyIntervalSamples+2)
	return la
}

func atLeastOne(v float64) int {
	n := int(v)
	if n < 1 {
		return 1
	}
	return n
}

// Process weights mono in place and folds it into every loudness measure.
// The buffer holds the K-weighted signal afterwards.
func (la *LoudnessAnalyzer) Process(mono []float32) {
	la.pendingHistory = la.pendingHistory[:0]
	n := len(mono)
	if n == 0 {
		return
	}

	la.weighting.Process(mono, 0)

	var blockEnergy float64
	for _, s := range mono {
		sq := float64(s) * float64(s)
		blockEnergy += sq

		la.integratedAccum += sq
		la.integratedCounter++
		if la.integratedCounter >= la.integratedBlockSamples {
			la.pushBlockEnergy(la.integratedAccum / float64(la.integratedBlockSamples))
			la.integratedAccum = 0
			la.integratedCounter = 0
		}
	}
	blockEnergy /= float64(n)

	la.momentary.NextBlock(blockEnergy, n)
	la.shortTerm.NextBlock(blockEnergy, n)

	// A block of pure digital silence reads as the floor regardless of how
	// much energy the smoothers still carry.
	if blockEnergy > 0 {
		la.momentaryLUFS = -0.691 + 10.0*math.Log10(la.momentary.Value()+energyEpsilon)
		la.shortTermLUFS = -0.691 + 10.0*math.Log10(la.shortTerm.Value()+energyEpsilon)
	} else {
		la.momentaryLUFS = LoudnessFloor
		la.shortTermLUFS = LoudnessFloor
	}

	if la.momentaryLUFS > la.maxMomentary {
		la.maxMomentary = la.momentaryLUFS
	}
	if la.shortTermLUFS > la.maxShortTerm {
		la.maxShortTerm = la.shortTermLUFS
	}

	la.historyCounter += n
	for la.historyCounter >= la.historyIntervalSamples {
		la.historyCounter -= la.historyIntervalSamples
		la.history.Push(clamp(la.shortTermLUFS, LoudnessFloor, 10.0))
		la.pendingHistory = append(la.pendingHistory, la.shortTermLUFS)
	}
	if len(la.pendingHistory) > 0 {
		la.updateRange()
	}
}

// pushBlockEnergy records one averaged energy block and regates the
// integrated measures.
func (la *LoudnessAnalyzer) pushBlockEnergy(energy float64) {
	if energy < energyEpsilon {
		energy = energyEpsilon
	}
	la.blockEnergies.Push(float32(energy))
	la.updateIntegrated()
	la.updateRange()
}

// updateIntegrated recomputes gated integrated loudness: drop blocks below
// the absolute gate, average the rest, then average only the blocks within
// relativeGateLU of that average. Gating works directly in the energy
// domain, where "10 LU below" is a factor of ten.
func (la *LoudnessAnalyzer) updateIntegrated() {
	energies := la.blockEnergies.Filled()
	if len(energies) == 0 {
		la.integrated = LoudnessFloor
		return
	}

	mask := vek32.GtNumber_Into(la.boolScratch[:len(energies)], energies, la.absoluteGateEnergy)
	valid := vek32.Select_Into(la.validScratch, energies, mask)
	if len(valid) == 0 {
		la.integrated = LoudnessFloor
		return
	}

	averageEnergy := vek32.Mean(valid)
	relativeGate := averageEnergy / float32(math.Pow(10.0, relativeGateLU/10.0))

	// Blocks sitting exactly on the relative gate stay in the measurement.
	mask = vek32.GteNumber_Into(la.boolScratch[:len(valid)], valid, relativeGate)
	gated := vek32.Select_Into(la.gatedScratch, valid, mask)
	if len(gated) == 0 {
		la.integrated = energyToLoudness(float64(averageEnergy))
		return
	}
	la.integrated = energyToLoudness(float64(vek32.Mean(gated)))
}

// updateRange recomputes loudness range as the spread between the 95th and
// 10th percentile of gated history values.
func (la *LoudnessAnalyzer) updateRange() {
	if la.history.Len() < 2 {
		la.loudnessRange = 0
		return
	}

	threshold := la.integrated - lraGateLU
	values := la.historyScratch[:0]
	for _, v := range la.history.Filled() {
		if v >= threshold {
			values = append(values, v)
		}
	}
	if len(values) < 2 {
		la.loudnessRange = 0
		return
	}

	sort.Float64s(values)
	spread := percentile(values, lraHighPercentile) - percentile(values, lraLowPercentile)
	if spread < 0 {
		spread = 0
	}
	la.loudnessRange = spread
}

// percentile interpolates linearly between the order statistics of a sorted
// slice.
func percentile(sorted []float64, p float64) float64 {
	index := float64(len(sorted)-1) * p
	lower := int(math.Floor(index))
	upper := lower + 1
	if upper > len(sorted)-1 {
		upper = len(sorted) - 1
	}
	fraction := index - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*fraction
}

// Momentary returns the momentary loudness of the last processed block.
func (la *LoudnessAnalyzer) Momentary() float64 { return la.momentaryLUFS }

// ShortTerm returns the short-term loudness of the last processed block.
func (la *LoudnessAnalyzer) ShortTerm() float64 { return la.shortTermLUFS }

// MaxMomentary returns the running maximum momentary loudness.
func (la *LoudnessAnalyzer) MaxMomentary() float64 { return la.maxMomentary }

// MaxShortTerm returns the running maximum short-term loudness.
func (la *LoudnessAnalyzer) MaxShortTerm() float64 { return la.maxShortTerm }

// Integrated returns the gated integrated loudness.
func (la *LoudnessAnalyzer) Integrated() float64 { return la.integrated }

// Range returns the loudness range in loudness units.
func (la *LoudnessAnalyzer) Range() float64 { return la.loudnessRange }

// PendingHistory returns the short-term values sampled into the history ring
// by the most recent Process call, for mirroring into shared display state.
func (la *LoudnessAnalyzer) PendingHistory() []float64 { return la.pendingHistory }

// HistoryIntervalSamples returns the history sampling cadence in samples.
func (la *LoudnessAnalyzer) HistoryIntervalSamples() int { return la.historyIntervalSamples }

// ResetStatistics clears the running maxima and the loudness history without
// touching the momentary/short-term smoothing state or the integrated
// energy window.
func (la *LoudnessAnalyzer) ResetStatistics() {
	la.maxMomentary = LoudnessFloor
	la.maxShortTerm = LoudnessFloor
	la.history.Reset()
}
