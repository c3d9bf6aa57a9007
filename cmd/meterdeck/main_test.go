package main

import (
	"math"
	"strings"
	"testing"
)

func TestBuildSourceRejectsNonPositiveSampleRate(t *testing.T) {
	for _, rate := range []int{0, -48000} {
		cli := &CLI{Tone: 440, ToneLevel: -20, Noise: 1, SampleRate: rate}
		src, cleanup, err := buildSource(cli)
		if err == nil {
			if cleanup != nil {
				cleanup()
			}
			t.Errorf("rate %d: expected error, got source %v", rate, src)
			continue
		}
		if !strings.Contains(err.Error(), "sample-rate") {
			t.Errorf("rate %d: expected sample-rate error, got: %v", rate, err)
		}
	}
}

func TestBuildSourceFileAndGeneratorConflict(t *testing.T) {
	cli := &CLI{File: "input.wav", Tone: 440, Noise: 1, SampleRate: 48000}
	_, _, err := buildSource(cli)
	if err == nil {
		t.Fatal("expected error for --file with --tone")
	}
	if !strings.Contains(err.Error(), "mutually exclusive") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestBuildSourceTone(t *testing.T) {
	cli := &CLI{Tone: 1000, ToneLevel: -20, Noise: 1, SampleRate: 44100}
	src, cleanup, err := buildSource(cli)
	if err != nil {
		t.Fatalf("buildSource: %v", err)
	}
	if cleanup != nil {
		t.Error("generator source should not need cleanup")
	}
	if src.SampleRate() != 44100 {
		t.Errorf("expected 44100 Hz, got %f", src.SampleRate())
	}
	if src.Channels() != 2 {
		t.Errorf("expected 2 channels, got %d", src.Channels())
	}
	if !strings.Contains(src.Describe(), "1000 Hz") {
		t.Errorf("unexpected description: %q", src.Describe())
	}
}

func TestSourceKind(t *testing.T) {
	cases := []struct {
		name string
		cli  CLI
		want string
	}{
		{"file", CLI{File: "in.wav", Noise: 1}, "file"},
		{"tone", CLI{Tone: 440, Noise: 1}, "generator"},
		{"noise", CLI{Noise: -30}, "generator"},
		{"capture", CLI{Noise: 1}, "capture"},
	}
	for _, tc := range cases {
		if got := sourceKind(&tc.cli); got != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestDBToAmp(t *testing.T) {
	if math.Abs(dbToAmp(0)-1.0) > 1e-12 {
		t.Errorf("0 dB should be unity, got %f", dbToAmp(0))
	}
	if math.Abs(dbToAmp(-20)-0.1) > 1e-12 {
		t.Errorf("-20 dB should be 0.1, got %f", dbToAmp(-20))
	}
}
