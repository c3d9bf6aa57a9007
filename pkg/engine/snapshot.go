package engine

import "github.com/meterdeck/meterdeck/pkg/dsp/analysis"

// LoudnessReading is the set of loudness scalars published every block.
type LoudnessReading struct {
	Momentary    float64
	ShortTerm    float64
	MaxMomentary float64
	MaxShortTerm float64
	Integrated   float64
	Range        float64
}

// ChannelMeters carries the per-channel level meters and the combined RMS
// pair. Peak and VU are ballistically smoothed linear amplitudes; MaxPeak is
// the raw running maximum since the last statistics reset.
type ChannelMeters struct {
	Peak    [2]float64
	MaxPeak [2]float64
	Clip    [2]bool
	VU      [2]float64
	RMSFast float64
	RMSSlow float64
}

// Snapshot is the consumer's point-in-time copy of the engine state. A
// Snapshot is filled by FillSnapshot and owned exclusively by the caller;
// its slices are reused across fills to keep the UI tick allocation-free
// once warm.
//
// Waveform, Oscilloscope, and LoudnessHistory are linearized oldest to
// newest during the copy. The spectrogram and raw audio history stay in ring
// order, described by their cursor and wrapped flag, because their consumers
// (column renderer, WAV export) index them directly.
type Snapshot struct {
	SampleRate float64
	Channels   int

	Waveform         []analysis.WaveformBucket
	SamplesPerBucket int

	Oscilloscope []float32

	Spectrum        []float32
	SpectrumAverage []float32

	Spectrogram        [][]float32
	SpectrogramCursor  int
	SpectrogramWrapped bool

	Loudness               LoudnessReading
	LoudnessHistory        []float64
	HistoryIntervalSeconds float64

	Stereo    analysis.StereoMetrics
	Lissajous [][2]float32

	Meters ChannelMeters

	Transport HostPosition

	AudioHistory        [2][]float32
	AudioHistoryCursor  int
	AudioHistoryWrapped bool
}

// ensureLen returns s resized to n elements, reallocating only when the
// capacity is short.
func ensureLen[T any](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n)
	}
	return s[:n]
}
