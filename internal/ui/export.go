package ui

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/meterdeck/meterdeck/internal/audiofile"
	"github.com/meterdeck/meterdeck/pkg/engine"
)

// writeHistoryWAV linearizes the snapshot's raw audio ring and writes it to
// dir as a 16-bit WAV named after the moment of export. Returns the path and
// the exported duration in seconds.
func writeHistoryWAV(snap *engine.Snapshot, dir string, now time.Time) (string, float64, error) {
	channels := snap.Channels
	if channels < 1 {
		channels = 1
	} else if channels > 2 {
		channels = 2
	}

	var planar [][]float32
	for ch := 0; ch < channels; ch++ {
		planar = append(planar, linearizeRing(snap.AudioHistory[ch], snap.AudioHistoryCursor, snap.AudioHistoryWrapped))
	}
	frames := len(planar[0])
	if frames == 0 || snap.SampleRate <= 0 {
		return "", 0, fmt.Errorf("no audio captured yet")
	}

	path := filepath.Join(dir, "meterdeck-"+now.Format("20060102-150405")+".wav")
	if err := audiofile.WriteWAV(path, planar, int(snap.SampleRate)); err != nil {
		return "", 0, err
	}
	return path, float64(frames) / snap.SampleRate, nil
}

// linearizeRing copies ring contents out oldest to newest.
func linearizeRing(ring []float32, cursor int, wrapped bool) []float32 {
	if !wrapped {
		if cursor > len(ring) {
			cursor = len(ring)
		}
		out := make([]float32, cursor)
		copy(out, ring[:cursor])
		return out
	}
	out := make([]float32, 0, len(ring))
	out = append(out, ring[cursor:]...)
	out = append(out, ring[:cursor]...)
	return out
}
