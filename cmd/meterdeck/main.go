package main

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/alecthomas/kong"

	"github.com/meterdeck/meterdeck/internal/capture"
	"github.com/meterdeck/meterdeck/internal/config"
	"github.com/meterdeck/meterdeck/internal/logging"
	"github.com/meterdeck/meterdeck/internal/source"
	"github.com/meterdeck/meterdeck/internal/ui"
	"github.com/meterdeck/meterdeck/pkg/engine"
)

var version = "dev"

// CLI defines the command-line interface.
type CLI struct {
	Device     string  `short:"d" help:"Capture device ID or name substring."`
	File       string  `short:"f" type:"existingfile" help:"Analyze a .wav or .flac file instead of capturing."`
	Loop       bool    `help:"Loop file playback instead of ending in silence."`
	Tone       float64 `help:"Generate a sine test tone at this frequency in Hz."`
	ToneLevel  float64 `default:"-20" help:"Test tone level in dBFS."`
	Noise      float64 `default:"1" help:"Add white noise at this level in dBFS (levels are <= 0)."`
	SampleRate int     `default:"48000" help:"Sample rate for capture and generated sources."`
	StateDir   string  `type:"path" help:"Directory for settings, diagnostics, and exports."`
	Version    bool    `short:"v" help:"Show version information."`
}

const maxBlockSize = 2048

func main() {
	cli := &CLI{}
	kong.Parse(cli,
		kong.Name("meterdeck"),
		kong.Description("Real-time audio analyzer for the terminal"),
		kong.UsageOnError(),
	)

	if cli.Version {
		fmt.Println("meterdeck " + version)
		os.Exit(0)
	}

	stateDir := cli.StateDir
	if stateDir == "" {
		stateDir = config.DefaultStateDir()
	}
	logging.SetDir(stateDir)
	if err := logging.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "meterdeck: %v\n", err)
		os.Exit(1)
	}
	if err := logging.Init(); err != nil {
		// Diagnostics are best effort; the meters work without them.
		fmt.Fprintf(os.Stderr, "meterdeck: opening diagnostics log: %v\n", err)
	}
	logging.SessionStart(version)

	src, cleanup, err := buildSource(cli)
	if err != nil {
		logging.Close()
		if errors.Is(err, capture.ErrSelectionCancelled) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "meterdeck: %v\n", err)
		os.Exit(1)
	}

	eng := engine.New()
	eng.Prepare(src.SampleRate(), maxBlockSize)
	logging.EnginePrepared(src.SampleRate(), maxBlockSize)

	st := config.LoadFile(stateDir)
	p := ui.NewProgram(ui.NewModel(eng, stateDir, st))

	kind := sourceKind(cli)
	if err := src.Start(eng.Process); err != nil {
		fmt.Fprintf(os.Stderr, "meterdeck: starting source: %v\n", err)
		if cleanup != nil {
			cleanup()
		}
		logging.Close()
		os.Exit(1)
	}
	logging.SourceStart(kind, src.Describe(), src.SampleRate(), src.Channels())

	go p.Send(ui.SourceInfoMsg{
		Desc:       src.Describe(),
		SampleRate: src.SampleRate(),
		Channels:   src.Channels(),
	})

	_, runErr := p.Run()

	src.Stop()
	logging.SourceStop(kind)
	if cleanup != nil {
		cleanup()
	}
	logging.SessionEnd()
	logging.Close()

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "meterdeck: %v\n", runErr)
		os.Exit(1)
	}
}

// buildSource picks the audio source from the flags: a file, a generator, or
// a capture device. The returned cleanup releases the capture context and is
// nil for the other source kinds.
func buildSource(cli *CLI) (source.Source, func(), error) {
	if cli.SampleRate <= 0 {
		return nil, nil, fmt.Errorf("--sample-rate must be positive (got %d)", cli.SampleRate)
	}

	wantGenerator := cli.Tone > 0 || cli.Noise <= 0

	if cli.File != "" {
		if wantGenerator {
			return nil, nil, fmt.Errorf("--file and --tone/--noise are mutually exclusive")
		}
		src, err := source.NewFile(cli.File, cli.Loop)
		return src, nil, err
	}

	if wantGenerator {
		amp := 0.0
		if cli.Tone > 0 {
			amp = dbToAmp(cli.ToneLevel)
		}
		noise := 0.0
		if cli.Noise <= 0 {
			noise = dbToAmp(cli.Noise)
		}
		return source.NewTone(float64(cli.SampleRate), cli.Tone, amp, noise), nil, nil
	}

	ctx, err := capture.NewContext()
	if err != nil {
		return nil, nil, err
	}
	var dev *capture.DeviceInfo
	if cli.Device != "" {
		dev, err = capture.FindDevice(ctx, cli.Device)
	} else {
		dev, err = capture.SelectDevice(ctx)
	}
	if err != nil {
		ctx.Close()
		return nil, nil, err
	}
	src, err := source.NewDevice(ctx, dev, uint32(cli.SampleRate), 2)
	if err != nil {
		ctx.Close()
		return nil, nil, err
	}
	return src, ctx.Close, nil
}

func sourceKind(cli *CLI) string {
	switch {
	case cli.File != "":
		return "file"
	case cli.Tone > 0 || cli.Noise <= 0:
		return "generator"
	default:
		return "capture"
	}
}

func dbToAmp(db float64) float64 {
	return math.Pow(10, db/20)
}
