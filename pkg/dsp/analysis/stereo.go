package analysis

import (
	"math"

	"github.com/viterin/vek/vek32"
)

// LissajousPoints is the capacity of the per-block decimated scope capture.
const LissajousPoints = 512

// StereoMetrics holds the per-block stereo field measurements.
type StereoMetrics struct {
	Correlation float64 // -1 opposite .. +1 identical, 0 for mono or silence
	Width       float64 // 0 mono .. 1 fully decorrelated
	BalanceDB   float64 // right minus left level, clamped to +-24 dB
	LeftRMS     float64
	RightRMS    float64
	MidRMS      float64
	SideRMS     float64
}

// StereoAnalyzer measures the relationship between the left and right
// channels of each block and captures a decimated (L, R) pair trace for
// scope display. The capture is replaced wholesale every block.
type StereoAnalyzer struct {
	metrics StereoMetrics

	lissajous [LissajousPoints][2]float32
	lissCount int

	prod []float32 // elementwise product scratch
	mix  []float32 // mid/side construction scratch
}

// NewStereoAnalyzer creates an analyzer able to handle blocks up to
// maxBlockSize samples.
func NewStereoAnalyzer(maxBlockSize int) *StereoAnalyzer {
	if maxBlockSize < 1 {
		maxBlockSize = 1
	}
	return &StereoAnalyzer{
		prod: make([]float32, maxBlockSize),
		mix:  make([]float32, maxBlockSize),
	}
}

const sqrtHalf = 0.7071067811865476

// Process analyzes one block. right may be nil for mono input, in which case
// the left channel stands in for both sides: correlation stays 0, the side
// signal vanishes, and the capture collapses onto the diagonal.
func (sa *StereoAnalyzer) Process(left, right []float32) {
	n := len(left)
	if n == 0 {
		return
	}

	mono := right == nil
	if mono {
		right = left
	}

	prod := sa.prod[:n]
	mix := sa.mix[:n]

	energyL := float64(vek32.Mean(vek32.Mul_Into(prod, left, left))) * float64(n)
	energyR := float64(vek32.Mean(vek32.Mul_Into(prod, right, right))) * float64(n)

	sa.metrics.LeftRMS = math.Sqrt(energyL / float64(n))
	sa.metrics.RightRMS = math.Sqrt(energyR / float64(n))

	// Correlation is only meaningful with two distinct channels. Near-silent
	// magnitudes would turn the quotient into noise, so they report 0.
	corr := 0.0
	if !mono {
		dot := float64(vek32.Mean(vek32.Mul_Into(prod, left, right))) * float64(n)
		magL := math.Sqrt(energyL)
		magR := math.Sqrt(energyR)
		if magL > 1.0e-9 && magR > 1.0e-9 {
			corr = clamp(dot/(magL*magR), -1.0, 1.0)
		}
	}
	sa.metrics.Correlation = corr
	sa.metrics.Width = clamp(0.5*(1.0-corr), 0.0, 1.0)

	sa.metrics.BalanceDB = clamp(
		dbWithFloor(sa.metrics.RightRMS+1.0e-6)-dbWithFloor(sa.metrics.LeftRMS+1.0e-6),
		-24.0, 24.0)

	// Mid/side RMS from the power-preserving sum and difference.
	copy(mix, left)
	vek32.Add_Inplace(mix, right)
	vek32.MulNumber_Inplace(mix, sqrtHalf)
	sa.metrics.MidRMS = math.Sqrt(float64(vek32.Mean(vek32.Mul_Into(prod, mix, mix))))

	vek32.MulNumber_Into(mix, right, -1.0)
	vek32.Add_Inplace(mix, left)
	vek32.MulNumber_Inplace(mix, sqrtHalf)
	sa.metrics.SideRMS = math.Sqrt(float64(vek32.Mean(vek32.Mul_Into(prod, mix, mix))))

	// Decimated scope capture: a fixed stride through the block, always
	// written from index 0 so the previous block's trace is fully replaced.
	stride := n / LissajousPoints
	if stride < 1 {
		stride = 1
	}
	count := 0
	for i := 0; i < n && count < LissajousPoints; i += stride {
		sa.lissajous[count][0] = clamp32(left[i], -1.0, 1.0)
		sa.lissajous[count][1] = clamp32(right[i], -1.0, 1.0)
		count++
	}
	sa.lissCount = count
}

// Metrics returns the measurements of the most recent block.
func (sa *StereoAnalyzer) Metrics() StereoMetrics { return sa.metrics }

// Lissajous returns the capture of the most recent block. The backing array
// is reused across blocks; callers copy what they keep.
func (sa *StereoAnalyzer) Lissajous() ([][2]float32, int) {
	return sa.lissajous[:], sa.lissCount
}

// Reset clears the measurements and the capture.
func (sa *StereoAnalyzer) Reset() {
	sa.metrics = StereoMetrics{}
	sa.lissCount = 0
}

// dbWithFloor converts a linear gain to decibels, flooring at -80 dB so
// silence stays finite.
func dbWithFloor(gain float64) float64 {
	if gain <= 0 {
		return -80.0
	}
	db := 20.0 * math.Log10(gain)
	if db < -80.0 {
		return -80.0
	}
	return db
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
