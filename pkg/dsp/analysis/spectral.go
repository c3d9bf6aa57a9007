package analysis

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Transform geometry. Frames overlap by FFTSize - HopSize samples, so a new
// spectrum appears every HopSize samples once the first window has filled.
const (
	FFTSize      = 2048
	HopSize      = FFTSize / 4
	SpectrumBins = FFTSize / 2
)

// spectrumSmoothing is the exponential averaging factor applied per frame.
const spectrumSmoothing = 0.6

// SpectralAnalyzer performs overlapped Hann-windowed FFT analysis of the
// weighted mono signal. Frame production is tied to sample count, not block
// boundaries: every HopSize consumed samples yield exactly one frame. Fresh
// frames are queued as spectrogram columns for the engine to publish.
type SpectralAnalyzer struct {
	fft    *fourier.FFT
	window []float64

	accum    []float32
	writePos int

	windowed []float64
	coeffs   []complex128

	current []float32
	average []float32

	frames     [][]float32
	frameCount int
}

// NewSpectralAnalyzer creates an analyzer able to consume blocks up to
// maxBlockSize samples per Push.
func NewSpectralAnalyzer(maxBlockSize int) *SpectralAnalyzer {
	if maxBlockSize < 1 {
		maxBlockSize = 1
	}

	window := make([]float64, FFTSize)
	for i := range window {
		window[i] = 0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(i)/float64(FFTSize-1)))
	}

	maxFrames := maxBlockSize/HopSize + 2
	frames := make([][]float32, maxFrames)
	for i := range frames {
		frames[i] = make([]float32, SpectrumBins)
	}

	return &SpectralAnalyzer{
		fft:      fourier.NewFFT(FFTSize),
		window:   window,
		accum:    make([]float32, FFTSize),
		windowed: make([]float64, FFTSize),
		coeffs:   make([]complex128, FFTSize/2+1),
		current:  make([]float32, SpectrumBins),
		average:  make([]float32, SpectrumBins),
		frames:   frames,
	}
}

// Push consumes one block of mono samples, producing a frame each time the
// accumulator fills. The frame queue is valid until the next Push call.
func (sa *SpectralAnalyzer) Push(mono []float32) {
	sa.frameCount = 0

	for len(mono) > 0 {
		n := copy(sa.accum[sa.writePos:], mono)
		sa.writePos += n
		mono = mono[n:]

		if sa.writePos >= FFTSize {
			sa.produceFrame()

			// Slide the analysis window forward by one hop.
			copy(sa.accum, sa.accum[HopSize:])
			sa.writePos = FFTSize - HopSize
		}
	}
}

func (sa *SpectralAnalyzer) produceFrame() {
	for i := range sa.windowed {
		sa.windowed[i] = float64(sa.accum[i]) * sa.window[i]
	}
	sa.fft.Coefficients(sa.coeffs, sa.windowed)

	var frame []float32
	if sa.frameCount < len(sa.frames) {
		frame = sa.frames[sa.frameCount]
		sa.frameCount++
	} else {
		// Queue exhausted; reuse the newest slot so current/average stay
		// correct.
		frame = sa.frames[len(sa.frames)-1]
	}

	for bin := 0; bin < SpectrumBins; bin++ {
		re := real(sa.coeffs[bin])
		im := imag(sa.coeffs[bin])
		frame[bin] = float32(math.Sqrt(re*re+im*im) / float64(FFTSize))
	}

	copy(sa.current, frame)
	for i := range sa.average {
		sa.average[i] = spectrumSmoothing*sa.average[i] + (1.0-spectrumSmoothing)*frame[i]
	}
}

// Frames returns the spectrogram columns produced by the most recent Push,
// oldest first. The backing arrays are reused across pushes.
func (sa *SpectralAnalyzer) Frames() [][]float32 {
	return sa.frames[:sa.frameCount]
}

// Current returns the most recent frame's magnitude spectrum.
func (sa *SpectralAnalyzer) Current() []float32 { return sa.current }

// Average returns the exponentially smoothed magnitude spectrum.
func (sa *SpectralAnalyzer) Average() []float32 { return sa.average }

// Reset clears the accumulator, spectra, and frame queue.
func (sa *SpectralAnalyzer) Reset() {
	for i := range sa.accum {
		sa.accum[i] = 0
	}
	sa.writePos = 0
	for i := range sa.current {
		sa.current[i] = 0
		sa.average[i] = 0
	}
	sa.frameCount = 0
}
