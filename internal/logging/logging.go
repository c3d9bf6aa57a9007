// Package logging writes the diagnostics log. The TUI owns the terminal,
// so everything goes to a file in the state directory instead of stderr.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

var (
	diagLog  zerolog.Logger
	diagFile *os.File
	logMu    sync.Mutex
	logReady bool
	pid      int
	dir      string
)

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	f, err := os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	diagFile = f

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Infof(format string, args ...any) {
	if logReady {
		diagLog.Info().Msg(fmt.Sprintf(format, args...))
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

func SessionStart(version string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("version", version).
		Msg("session_start")
}

func SessionEnd() {
	if !logReady {
		return
	}
	diagLog.Info().Msg("session_end")
}

// SourceStart records which input is feeding the analysis engine.
func SourceStart(kind, detail string, sampleRate float64, channels int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("kind", kind).
		Str("detail", detail).
		Float64("sample_rate", sampleRate).
		Int("channels", channels).
		Msg("source_start")
}

func SourceStop(kind string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("kind", kind).
		Msg("source_stop")
}

func EnginePrepared(sampleRate float64, maxBlock int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Float64("sample_rate", sampleRate).
		Int("max_block", maxBlock).
		Msg("engine_prepared")
}

// Export records a history export, whether it landed on disk or failed.
func Export(path string, seconds float64, channels int, err error) {
	if !logReady {
		return
	}
	if err != nil {
		diagLog.Error().
			Str("path", path).
			Err(err).
			Msg("export_failed")
		return
	}
	diagLog.Info().
		Str("path", path).
		Float64("seconds", seconds).
		Int("channels", channels).
		Msg("export")
}
