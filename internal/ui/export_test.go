package ui

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/meterdeck/meterdeck/internal/audiofile"
	"github.com/meterdeck/meterdeck/pkg/engine"
)

func TestLinearizeRing(t *testing.T) {
	ring := []float32{3, 4, 0, 1, 2}

	got := linearizeRing(ring, 2, true)
	want := []float32{0, 1, 2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("wrapped ring linearized to %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("wrapped ring sample %d = %v, want %v", i, got[i], want[i])
		}
	}

	got = linearizeRing([]float32{5, 6, 7, 0, 0}, 3, false)
	if len(got) != 3 || got[0] != 5 || got[2] != 7 {
		t.Errorf("partial ring linearized to %v, want [5 6 7]", got)
	}
}

func TestWriteHistoryWAVRoundTrip(t *testing.T) {
	const frames = 2000
	snap := &engine.Snapshot{
		SampleRate:          48000,
		Channels:            2,
		AudioHistoryCursor:  500,
		AudioHistoryWrapped: true,
	}
	for ch := 0; ch < 2; ch++ {
		ring := make([]float32, frames)
		for i := range ring {
			// Ring order: the oldest sample lives at the cursor.
			logical := (i - 500 + frames) % frames
			ring[i] = float32(0.4 * math.Sin(2*math.Pi*float64(logical)/100))
		}
		snap.AudioHistory[ch] = ring
	}

	dir := t.TempDir()
	stamp := time.Date(2026, 3, 9, 14, 30, 5, 0, time.UTC)
	path, seconds, err := writeHistoryWAV(snap, dir, stamp)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if base := filepath.Base(path); base != "meterdeck-20260309-143005.wav" {
		t.Errorf("export name = %q", base)
	}
	if math.Abs(seconds-float64(frames)/48000) > 1e-9 {
		t.Errorf("export duration = %v, want %v", seconds, float64(frames)/48000)
	}

	clip, err := audiofile.ReadWAV(path)
	if err != nil {
		t.Fatalf("reading export back: %v", err)
	}
	if clip.SampleRate != 48000 || len(clip.Channels) != 2 {
		t.Fatalf("export format = %d Hz %d ch", clip.SampleRate, len(clip.Channels))
	}
	if len(clip.Channels[0]) != frames {
		t.Fatalf("export has %d frames, want %d", len(clip.Channels[0]), frames)
	}

	// Samples must come back in logical order, oldest first.
	const tol = 2.0 / 32768
	for i := 0; i < frames; i += 37 {
		want := 0.4 * math.Sin(2*math.Pi*float64(i)/100)
		if diff := math.Abs(float64(clip.Channels[0][i]) - want); diff > tol {
			t.Fatalf("sample %d = %v, want %v", i, clip.Channels[0][i], want)
		}
	}
}

func TestWriteHistoryWAVEmpty(t *testing.T) {
	snap := &engine.Snapshot{SampleRate: 48000, Channels: 1}
	if _, _, err := writeHistoryWAV(snap, t.TempDir(), time.Now()); err == nil {
		t.Error("expected an error for an empty history")
	}
}
