// Package audiofile reads and writes the audio files meterdeck understands:
// WAV and FLAC decoding for offline analysis, 16-bit WAV for history exports.
package audiofile

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Clip holds a fully decoded audio file, one slice per channel.
type Clip struct {
	SampleRate int
	Channels   [][]float32
}

func (c *Clip) Frames() int {
	if len(c.Channels) == 0 {
		return 0
	}
	return len(c.Channels[0])
}

func (c *Clip) Duration() float64 {
	if c.SampleRate <= 0 {
		return 0
	}
	return float64(c.Frames()) / float64(c.SampleRate)
}

// Read decodes an audio file, picking the decoder from the extension.
func Read(path string) (*Clip, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return ReadWAV(path)
	case ".flac":
		return ReadFLAC(path)
	default:
		return nil, fmt.Errorf("unsupported audio file %q (want .wav or .flac)", filepath.Base(path))
	}
}
