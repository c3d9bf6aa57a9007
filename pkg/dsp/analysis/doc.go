// Package analysis provides the per-block analyzers behind the metering
// engine.
//
// Each analyzer owns its filters, accumulators, and scratch buffers, and is
// driven from a single producer goroutine; none of them lock. The engine
// calls them once per audio block and copies their results into shared state
// itself.
//
// Analyzers:
//
//   - StereoAnalyzer: correlation, stereo width, balance, left/right and
//     mid/side RMS, plus a decimated Lissajous capture per block.
//   - WaveformRecorder: fixed-resolution min/max envelope with low/mid/high
//     band RMS per bucket, spanning the raw history window.
//   - SpectralAnalyzer: overlapped Hann-windowed FFT frames with magnitude
//     spectra, exponential averaging, and spectrogram columns.
//   - LoudnessAnalyzer: K-weighted momentary, short-term, and gated
//     integrated loudness with loudness range, after ITU-R BS.1770 / EBU
//     R128 practice.
//
// All analyzers pre-allocate at configuration time and do no allocation in
// the block path.
package analysis
