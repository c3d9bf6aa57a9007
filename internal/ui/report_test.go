package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/meterdeck/meterdeck/pkg/dsp/analysis"
	"github.com/meterdeck/meterdeck/pkg/engine"
)

func TestBuildReportContainsMeasurements(t *testing.T) {
	snap := &engine.Snapshot{
		SampleRate: 48000,
		Channels:   2,
		Loudness: engine.LoudnessReading{
			Momentary:    -12.5,
			ShortTerm:    -13.1,
			MaxMomentary: -9.8,
			MaxShortTerm: -11.2,
			Integrated:   -14.2,
			Range:        4.1,
		},
		Meters: engine.ChannelMeters{
			Peak:    [2]float64{0.5, 0.25},
			MaxPeak: [2]float64{0.9, 0.8},
			Clip:    [2]bool{true, false},
			RMSFast: 0.1,
			RMSSlow: 0.12,
		},
		Stereo: analysis.StereoMetrics{
			Correlation: 0.85,
			Width:       0.42,
			BalanceDB:   -0.3,
			MidRMS:      0.2,
			SideRMS:     0.05,
		},
	}
	cfg := engine.DefaultLoudnessDisplay()
	stamp := time.Date(2026, 3, 9, 14, 30, 5, 0, time.UTC)

	out := buildReport(snap, cfg, "test tone", stamp)

	for _, want := range []string{
		"2026-03-09 14:30:05",
		"source: test tone · 48000 Hz · 2 ch",
		"integrated      -14.2 LUFS",
		"delta -0.2 LU",
		"range           4.1 LU",
		"momentary max   -9.8 LUFS",
		"CLIP",
		"correlation +0.85 · width 42% · balance -0.3 dB",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}

	// Only the clipped channel gets the marker.
	if strings.Count(out, "CLIP") != 1 {
		t.Errorf("report shows %d CLIP markers, want 1", strings.Count(out, "CLIP"))
	}
}

func TestBuildReportSilence(t *testing.T) {
	snap := &engine.Snapshot{SampleRate: 48000, Channels: 2}
	snap.Loudness = engine.LoudnessReading{
		Momentary:    analysis.LoudnessFloor,
		ShortTerm:    analysis.LoudnessFloor,
		MaxMomentary: analysis.LoudnessFloor,
		MaxShortTerm: analysis.LoudnessFloor,
		Integrated:   analysis.LoudnessFloor,
	}

	out := buildReport(snap, engine.DefaultLoudnessDisplay(), "silence", time.Now())

	if !strings.Contains(out, "integrated      -inf LUFS") {
		t.Errorf("silent report shows a loudness value:\n%s", out)
	}
	if strings.Contains(out, "delta") {
		t.Error("silent report should not show a target delta")
	}
	if !strings.Contains(out, "peak L  -inf dBFS") {
		t.Errorf("silent report peak line wrong:\n%s", out)
	}
}
