// Package engine ties the analyzers together behind the two-thread contract:
// a real-time producer feeds audio blocks through Process, and a display-rate
// consumer copies results out through FillSnapshot without ever stalling the
// producer.
package engine

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/viterin/vek/vek32"

	"github.com/meterdeck/meterdeck/pkg/dsp/analysis"
	"github.com/meterdeck/meterdeck/pkg/dsp/ballistics"
	"github.com/meterdeck/meterdeck/pkg/dsp/ring"
)

const (
	audioHistorySeconds = 10.0
	oscilloscopeSamples = 2048
	spectrogramSeconds  = 3.0

	clipThreshold = 0.999

	peakRiseSeconds = 0.010
	peakFallSeconds = 0.300
	vuSeconds       = 0.3
	rmsFastSeconds  = 0.3
	rmsSlowSeconds  = 1.0

	displayEnergyFloor = 1.0e-12
)

// Block is one producer callback's worth of audio: one or two equal-length
// channel buffers, plus the host transport position when the source has one.
type Block struct {
	Samples [][]float32
	Host    *HostPosition
}

// Engine runs the full analysis chain. All internal state is owned by the
// producer; the only structure both threads touch is the shared record, and
// only under its mutex. Prepare and Process must not run concurrently.
type Engine struct {
	sampleRate   float64
	maxBlockSize int

	transport *transportTracker

	stereo   *analysis.StereoAnalyzer
	waveform *analysis.WaveformRecorder
	spectral *analysis.SpectralAnalyzer
	loudness *analysis.LoudnessAnalyzer

	peak    [2]*ballistics.PeakFollower
	vu      [2]*ballistics.Smoother
	rmsFast *ballistics.Smoother
	rmsSlow *ballistics.Smoother

	maxPeak [2]float64
	clip    [2]bool

	mono     []float32
	weighted []float32
	prod     []float32
	absBuf   []float32

	resetPending atomic.Bool

	shared sharedState
}

// sharedState is the single record visible to both threads. The producer
// copies completed results in under the mutex; FillSnapshot copies them out
// under a try-acquire. Nothing is computed while the mutex is held.
type sharedState struct {
	mu sync.Mutex

	sampleRate float64
	channels   int

	waveform         *ring.Buffer[analysis.WaveformBucket]
	samplesPerBucket int

	osc *ring.Buffer[float32]

	spectrum    []float32
	spectrumAvg []float32
	spectrogram *ring.Buffer[[]float32]

	loudness        LoudnessReading
	loudnessHistory *ring.Buffer[float64]

	stereo    analysis.StereoMetrics
	lissajous [analysis.LissajousPoints][2]float32
	lissCount int

	meters    ChannelMeters
	transport HostPosition

	audio [2]*ring.Buffer[float32]

	loudnessCfg LoudnessDisplayConfig
	stereoCfg   StereoDisplayConfig
}

// New creates an engine prepared for 48 kHz and 2048-sample blocks. Call
// Prepare again to match the real stream before processing.
func New() *Engine {
	e := &Engine{transport: newTransportTracker()}
	e.shared.loudnessCfg = DefaultLoudnessDisplay()
	e.shared.stereoCfg = DefaultStereoDisplay()
	e.Prepare(48000.0, 2048)
	return e
}

// Prepare sizes every buffer for the given stream format and recomputes all
// ballistics coefficients. It must be called before the first Process and
// again whenever the sample rate or maximum block size changes, never
// concurrently with Process. Display configs survive; measurements reset.
func (e *Engine) Prepare(sampleRate float64, maxBlockSize int) {
	if sampleRate <= 0 {
		sampleRate = 48000.0
	}
	if maxBlockSize < 1 {
		maxBlockSize = 1
	}
	e.sampleRate = sampleRate
	e.maxBlockSize = maxBlockSize

	historySamples := int(math.Round(sampleRate * audioHistorySeconds))

	e.stereo = analysis.NewStereoAnalyzer(maxBlockSize)
	e.waveform = analysis.NewWaveformRecorder(sampleRate, historySamples, maxBlockSize)
	e.spectral = analysis.NewSpectralAnalyzer(maxBlockSize)
	e.loudness = analysis.NewLoudnessAnalyzer(sampleRate, maxBlockSize)

	for ch := 0; ch < 2; ch++ {
		e.peak[ch] = ballistics.NewPeakFollower(peakRiseSeconds, peakFallSeconds, sampleRate)
		e.vu[ch] = ballistics.NewSmoother(vuSeconds, sampleRate)
	}
	e.rmsFast = ballistics.NewSmoother(rmsFastSeconds, sampleRate)
	e.rmsSlow = ballistics.NewSmoother(rmsSlowSeconds, sampleRate)

	e.maxPeak = [2]float64{}
	e.clip = [2]bool{}

	e.mono = make([]float32, maxBlockSize)
	e.weighted = make([]float32, maxBlockSize)
	e.prod = make([]float32, maxBlockSize)
	e.absBuf = make([]float32, maxBlockSize)

	e.transport.Reset()

	columns := int(math.Ceil(spectrogramSeconds * sampleRate / analysis.HopSize))

	sh := &e.shared
	sh.mu.Lock()
	sh.sampleRate = sampleRate
	sh.channels = 0
	sh.waveform = ring.New[analysis.WaveformBucket](analysis.WaveformResolution)
	sh.samplesPerBucket = e.waveform.SamplesPerBucket()
	sh.osc = ring.New[float32](oscilloscopeSamples)
	sh.spectrum = make([]float32, analysis.SpectrumBins)
	sh.spectrumAvg = make([]float32, analysis.SpectrumBins)
	sh.spectrogram = ring.New[[]float32](columns)
	for i := 0; i < columns; i++ {
		*sh.spectrogram.Slot(i) = make([]float32, analysis.SpectrumBins)
	}
	sh.loudness = emptyLoudnessReading()
	sh.loudnessHistory = ring.New[float64](analysis.HistoryCapacity)
	sh.stereo = analysis.StereoMetrics{}
	sh.lissCount = 0
	sh.meters = ChannelMeters{}
	sh.transport = e.transport.Position()
	sh.audio[0] = ring.New[float32](historySamples)
	sh.audio[1] = ring.New[float32](historySamples)
	sh.mu.Unlock()
}

func emptyLoudnessReading() LoudnessReading {
	return LoudnessReading{
		Momentary:    analysis.LoudnessFloor,
		ShortTerm:    analysis.LoudnessFloor,
		MaxMomentary: analysis.LoudnessFloor,
		MaxShortTerm: analysis.LoudnessFloor,
		Integrated:   analysis.LoudnessFloor,
	}
}

// Process analyzes one block and publishes the results. It runs on the
// producer thread, allocates nothing, and holds the shared mutex only for
// the final copy-in.
func (e *Engine) Process(block Block) {
	if len(block.Samples) == 0 {
		return
	}
	left := block.Samples[0]
	var right []float32
	if len(block.Samples) > 1 {
		right = block.Samples[1]
	}

	n := len(left)
	if n == 0 {
		return
	}
	if n > e.maxBlockSize {
		n = e.maxBlockSize
		left = left[:n]
		if right != nil {
			right = right[:n]
		}
	}

	if e.resetPending.Swap(false) {
		e.loudness.ResetStatistics()
		e.maxPeak = [2]float64{}
		e.clip = [2]bool{}
	}

	e.transport.Update(block.Host, float64(n)/e.sampleRate)

	// The single channel of a mono stream feeds both meter channels; only
	// the clip latch stays honest about which channels exist.
	meterRight := right
	if meterRight == nil {
		meterRight = left
	}

	var meanSquare [2]float64
	for ch, src := range [2][]float32{left, meterRight} {
		abs := e.absBuf[:n]
		copy(abs, src)
		vek32.Abs_Inplace(abs)
		blockPeak := float64(vek32.Max(abs))

		if blockPeak > e.maxPeak[ch] {
			e.maxPeak[ch] = blockPeak
		}
		if blockPeak >= clipThreshold && (ch == 0 || right != nil) {
			e.clip[ch] = true
		}

		e.peak[ch].NextBlock(blockPeak, n)

		ms := float64(vek32.Mean(vek32.Mul_Into(e.prod[:n], src, src)))
		meanSquare[ch] = ms
		e.vu[ch].NextBlock(ms, n)
	}

	combined := (meanSquare[0] + meanSquare[1]) / 2.0
	e.rmsFast.NextBlock(combined, n)
	e.rmsSlow.NextBlock(combined, n)

	e.stereo.Process(left, right)
	e.waveform.Process(left, right)

	mono := e.mono[:n]
	copy(mono, left)
	if right != nil {
		vek32.Add_Inplace(mono, right)
		vek32.MulNumber_Inplace(mono, 0.5)
	}

	// The loudness analyzer K-weights in place, so the spectrum is measured
	// on the weighted signal while the oscilloscope keeps the raw mix.
	weighted := e.weighted[:n]
	copy(weighted, mono)
	e.loudness.Process(weighted)
	e.spectral.Push(weighted)

	channels := 1
	if right != nil {
		channels = 2
	}
	meters := ChannelMeters{
		Peak:    [2]float64{e.peak[0].Value(), e.peak[1].Value()},
		MaxPeak: e.maxPeak,
		Clip:    e.clip,
		VU:      [2]float64{displayRMS(e.vu[0].Value()), displayRMS(e.vu[1].Value())},
		RMSFast: displayRMS(e.rmsFast.Value()),
		RMSSlow: displayRMS(e.rmsSlow.Value()),
	}
	reading := LoudnessReading{
		Momentary:    e.loudness.Momentary(),
		ShortTerm:    e.loudness.ShortTerm(),
		MaxMomentary: e.loudness.MaxMomentary(),
		MaxShortTerm: e.loudness.MaxShortTerm(),
		Integrated:   e.loudness.Integrated(),
		Range:        e.loudness.Range(),
	}
	stereoMetrics := e.stereo.Metrics()
	lissajous, lissCount := e.stereo.Lissajous()
	position := e.transport.Position()

	sh := &e.shared
	sh.mu.Lock()
	sh.channels = channels
	sh.audio[0].PushSlice(left)
	sh.audio[1].PushSlice(meterRight)
	sh.osc.PushSlice(mono)
	for _, bucket := range e.waveform.Completed() {
		*sh.waveform.Slot(sh.waveform.Cursor()) = bucket
		sh.waveform.Advance()
	}
	for _, frame := range e.spectral.Frames() {
		copy(*sh.spectrogram.Slot(sh.spectrogram.Cursor()), frame)
		sh.spectrogram.Advance()
	}
	copy(sh.spectrum, e.spectral.Current())
	copy(sh.spectrumAvg, e.spectral.Average())
	sh.loudness = reading
	for _, v := range e.loudness.PendingHistory() {
		sh.loudnessHistory.Push(v)
	}
	sh.stereo = stereoMetrics
	copy(sh.lissajous[:lissCount], lissajous[:lissCount])
	sh.lissCount = lissCount
	sh.meters = meters
	sh.transport = position
	sh.mu.Unlock()
}

func displayRMS(energy float64) float64 {
	if energy < displayEnergyFloor {
		energy = displayEnergyFloor
	}
	return math.Sqrt(energy)
}

// FillSnapshot copies the shared record into dst. It tries the mutex once:
// on contention it returns false and dst keeps its previous contents. With
// includeRawHistory false the large audio-history rings are skipped, which
// is the cheap mode for display-rate polling.
func (e *Engine) FillSnapshot(dst *Snapshot, includeRawHistory bool) bool {
	sh := &e.shared
	if !sh.mu.TryLock() {
		return false
	}
	defer sh.mu.Unlock()

	dst.SampleRate = sh.sampleRate
	dst.Channels = sh.channels

	dst.Waveform = sh.waveform.Linearize(ensureLen(dst.Waveform, sh.waveform.Len()))
	dst.SamplesPerBucket = sh.samplesPerBucket

	dst.Oscilloscope = sh.osc.Linearize(ensureLen(dst.Oscilloscope, sh.osc.Len()))

	dst.Spectrum = ensureLen(dst.Spectrum, len(sh.spectrum))
	copy(dst.Spectrum, sh.spectrum)
	dst.SpectrumAverage = ensureLen(dst.SpectrumAverage, len(sh.spectrumAvg))
	copy(dst.SpectrumAverage, sh.spectrumAvg)

	columns := sh.spectrogram.Raw()
	dst.Spectrogram = ensureLen(dst.Spectrogram, len(columns))
	for i, col := range columns {
		dst.Spectrogram[i] = ensureLen(dst.Spectrogram[i], len(col))
		copy(dst.Spectrogram[i], col)
	}
	dst.SpectrogramCursor = sh.spectrogram.Cursor()
	dst.SpectrogramWrapped = sh.spectrogram.Wrapped()

	dst.Loudness = sh.loudness
	dst.LoudnessHistory = sh.loudnessHistory.Linearize(
		ensureLen(dst.LoudnessHistory, sh.loudnessHistory.Len()))
	dst.HistoryIntervalSeconds = analysis.HistoryIntervalSeconds

	dst.Stereo = sh.stereo
	dst.Lissajous = ensureLen(dst.Lissajous, sh.lissCount)
	copy(dst.Lissajous, sh.lissajous[:sh.lissCount])

	dst.Meters = sh.meters
	dst.Transport = sh.transport

	if includeRawHistory {
		for ch := 0; ch < 2; ch++ {
			raw := sh.audio[ch].Raw()
			dst.AudioHistory[ch] = ensureLen(dst.AudioHistory[ch], len(raw))
			copy(dst.AudioHistory[ch], raw)
		}
		dst.AudioHistoryCursor = sh.audio[0].Cursor()
		dst.AudioHistoryWrapped = sh.audio[0].Wrapped()
	}

	return true
}

// ResetStatistics clears running maxima, clip latches, and the loudness
// history, leaving the momentary/short-term smoothing state and the
// integrated measurement untouched. The producer applies its share at the
// start of its next block.
func (e *Engine) ResetStatistics() {
	e.resetPending.Store(true)

	sh := &e.shared
	sh.mu.Lock()
	sh.meters.MaxPeak = [2]float64{}
	sh.meters.Clip = [2]bool{}
	sh.loudness.MaxMomentary = analysis.LoudnessFloor
	sh.loudness.MaxShortTerm = analysis.LoudnessFloor
	sh.loudnessHistory.Reset()
	sh.mu.Unlock()
}

// SampleRate returns the rate the engine was last prepared for.
func (e *Engine) SampleRate() float64 { return e.sampleRate }

// SetLoudnessDisplay stores a sanitized copy of the loudness view config.
func (e *Engine) SetLoudnessDisplay(c LoudnessDisplayConfig) {
	c = c.sanitize()
	e.shared.mu.Lock()
	e.shared.loudnessCfg = c
	e.shared.mu.Unlock()
}

// LoudnessDisplay returns the current loudness view config.
func (e *Engine) LoudnessDisplay() LoudnessDisplayConfig {
	e.shared.mu.Lock()
	defer e.shared.mu.Unlock()
	return e.shared.loudnessCfg
}

// SetStereoDisplay stores a sanitized copy of the stereo view config.
func (e *Engine) SetStereoDisplay(c StereoDisplayConfig) {
	c = c.sanitize()
	e.shared.mu.Lock()
	e.shared.stereoCfg = c
	e.shared.mu.Unlock()
}

// StereoDisplay returns the current stereo view config.
func (e *Engine) StereoDisplay() StereoDisplayConfig {
	e.shared.mu.Lock()
	defer e.shared.mu.Unlock()
	return e.shared.stereoCfg
}
