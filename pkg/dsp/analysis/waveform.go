package analysis

import (
	"math"

	"github.com/meterdeck/meterdeck/pkg/dsp/filter"
)

// WaveformResolution is the fixed bucket count of the waveform display. The
// bucket count never changes with history duration; bucket duration scales
// instead.
const WaveformResolution = 512

// Crossover corners of the three-band split.
const (
	waveformLowCrossoverHz  = 160.0
	waveformHighCrossoverHz = 4000.0
	waveformCrossoverQ      = 0.707
)

// Frequency band indices of a waveform bucket.
const (
	BandLow = iota
	BandMid
	BandHigh
	bandCount
)

// WaveformBucket is one completed bucket: the raw min/max envelope and the
// RMS of the low, mid, and high band per channel, plus the ring index it
// belongs at.
type WaveformBucket struct {
	Index int
	Min   [2]float32
	Max   [2]float32
	Bands [2][bandCount]float32
}

// WaveformRecorder condenses the raw sample stream into a fixed number of
// min/max buckets with per-band RMS, spanning the same window as the raw
// history ring. Completed buckets are queued for the engine to publish; the
// recorder itself keeps only the accumulators of the bucket in progress.
type WaveformRecorder struct {
	samplesPerBucket int
	writeIndex       int
	filled           int
	sampleCounter    int

	currentMin [2]float32
	currentMax [2]float32
	bandAccum  [2][bandCount]float64

	lowPass  *filter.Biquad // below the low crossover
	midHigh  *filter.Biquad // mid band entry highpass
	midLow   *filter.Biquad // mid band exit lowpass
	highPass *filter.Biquad // above the high crossover

	bandScratch [2][bandCount][]float32
	completed   []WaveformBucket
}

// NewWaveformRecorder creates a recorder whose WaveformResolution buckets
// span historySamples, with crossover filters designed for sampleRate,
// sized for blocks up to maxBlockSize samples.
func NewWaveformRecorder(sampleRate float64, historySamples, maxBlockSize int) *WaveformRecorder {
	if maxBlockSize < 1 {
		maxBlockSize = 1
	}
	w := &WaveformRecorder{
		lowPass:  filter.NewBiquad(2),
		midHigh:  filter.NewBiquad(2),
		midLow:   filter.NewBiquad(2),
		highPass: filter.NewBiquad(2),
	}
	for ch := 0; ch < 2; ch++ {
		for band := 0; band < bandCount; band++ {
			w.bandScratch[ch][band] = make([]float32, maxBlockSize)
		}
	}

	w.samplesPerBucket = historySamples / WaveformResolution
	if w.samplesPerBucket < 1 {
		w.samplesPerBucket = 1
	}

	w.lowPass.SetLowpass(sampleRate, waveformLowCrossoverHz, waveformCrossoverQ)
	w.midHigh.SetHighpass(sampleRate, waveformLowCrossoverHz, waveformCrossoverQ)
	w.midLow.SetLowpass(sampleRate, waveformHighCrossoverHz, waveformCrossoverQ)
	w.highPass.SetHighpass(sampleRate, waveformHighCrossoverHz, waveformCrossoverQ)

	// The worst case is one bucket per sample when the history window is
	// shorter than the resolution.
	w.completed = make([]WaveformBucket, 0, maxBlockSize/w.samplesPerBucket+1)
	w.resetAccumulators()
	return w
}

// resetAccumulators inverts min/max so the next sample establishes a valid
// bound immediately.
func (w *WaveformRecorder) resetAccumulators() {
	for ch := 0; ch < 2; ch++ {
		w.currentMin[ch] = 1.0
		w.currentMax[ch] = -1.0
		for band := 0; band < bandCount; band++ {
			w.bandAccum[ch][band] = 0
		}
	}
}

// Process consumes one block and queues every bucket it completes. right may
// be nil for mono input; the left channel then feeds both sides. The queue
// is valid until the next Process call.
func (w *WaveformRecorder) Process(left, right []float32) {
	w.completed = w.completed[:0]
	n := len(left)
	if n == 0 || w.samplesPerBucket < 1 {
		return
	}
	if right == nil {
		right = left
	}

	// Run the whole block through the crossover network first; the
	// per-sample loop then only accumulates.
	for ch, src := range [2][]float32{left, right} {
		low := w.bandScratch[ch][BandLow][:n]
		mid := w.bandScratch[ch][BandMid][:n]
		high := w.bandScratch[ch][BandHigh][:n]

		copy(low, src)
		w.lowPass.Process(low, ch)

		copy(mid, src)
		w.midHigh.Process(mid, ch)
		w.midLow.Process(mid, ch)

		copy(high, src)
		w.highPass.Process(high, ch)
	}

	lowL := w.bandScratch[0][BandLow]
	midL := w.bandScratch[0][BandMid]
	highL := w.bandScratch[0][BandHigh]
	lowR := w.bandScratch[1][BandLow]
	midR := w.bandScratch[1][BandMid]
	highR := w.bandScratch[1][BandHigh]

	for i := 0; i < n; i++ {
		sl := left[i]
		sr := right[i]

		if sl < w.currentMin[0] {
			w.currentMin[0] = sl
		}
		if sl > w.currentMax[0] {
			w.currentMax[0] = sl
		}
		if sr < w.currentMin[1] {
			w.currentMin[1] = sr
		}
		if sr > w.currentMax[1] {
			w.currentMax[1] = sr
		}

		w.bandAccum[0][BandLow] += float64(lowL[i]) * float64(lowL[i])
		w.bandAccum[0][BandMid] += float64(midL[i]) * float64(midL[i])
		w.bandAccum[0][BandHigh] += float64(highL[i]) * float64(highL[i])
		w.bandAccum[1][BandLow] += float64(lowR[i]) * float64(lowR[i])
		w.bandAccum[1][BandMid] += float64(midR[i]) * float64(midR[i])
		w.bandAccum[1][BandHigh] += float64(highR[i]) * float64(highR[i])

		w.sampleCounter++
		if w.sampleCounter >= w.samplesPerBucket {
			w.finishBucket()
		}
	}
}

func (w *WaveformRecorder) finishBucket() {
	bucket := WaveformBucket{Index: w.writeIndex}
	inv := 1.0 / float64(w.samplesPerBucket)
	for ch := 0; ch < 2; ch++ {
		bucket.Min[ch] = w.currentMin[ch]
		bucket.Max[ch] = w.currentMax[ch]
		for band := 0; band < bandCount; band++ {
			e := w.bandAccum[ch][band] * inv
			if e < 0 {
				e = 0
			}
			bucket.Bands[ch][band] = float32(math.Sqrt(e))
		}
	}
	w.completed = append(w.completed, bucket)

	w.writeIndex = (w.writeIndex + 1) % WaveformResolution
	if w.filled < WaveformResolution {
		w.filled++
	}
	w.sampleCounter = 0
	w.resetAccumulators()
}

// Completed returns the buckets finished by the most recent Process call.
func (w *WaveformRecorder) Completed() []WaveformBucket { return w.completed }

// SamplesPerBucket returns the configured bucket length in samples.
func (w *WaveformRecorder) SamplesPerBucket() int { return w.samplesPerBucket }

// WriteIndex returns the ring index the next completed bucket will take.
func (w *WaveformRecorder) WriteIndex() int { return w.writeIndex }

// Filled returns the number of valid buckets, saturating at the resolution.
func (w *WaveformRecorder) Filled() int { return w.filled }
