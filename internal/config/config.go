// Package config persists display settings between sessions using a small
// versioned binary format in the state directory.
package config

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/meterdeck/meterdeck/pkg/engine"
)

const (
	settingsVersion = 1
	settingsFile    = "settings.bin"
)

var settingsMagic = []byte("MTRDCK")

// State carries everything meterdeck remembers between sessions.
type State struct {
	ActiveView int
	Loudness   engine.LoudnessDisplayConfig
	Stereo     engine.StereoDisplayConfig
}

func Default() State {
	return State{
		Loudness: engine.DefaultLoudnessDisplay(),
		Stereo:   engine.DefaultStereoDisplay(),
	}
}

// DefaultStateDir returns the per-user directory for settings and logs.
func DefaultStateDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ".meterdeck"
	}
	return filepath.Join(base, "meterdeck")
}

// Save writes the state to w.
func (s State) Save(w io.Writer) error {
	if _, err := w.Write(settingsMagic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(settingsVersion)); err != nil {
		return err
	}

	fields := []any{
		int32(s.ActiveView),
		s.Loudness.TargetLoudness,
		s.Loudness.ShowRMSOverlay,
		int32(s.Loudness.HistoryWindowSeconds),
		int32(s.Stereo.ViewMode),
		int32(s.Stereo.DisplayMode),
		s.Stereo.ScopeScale,
		int32(s.Stereo.HistoryWindowSeconds),
		s.Stereo.Freeze,
		s.Stereo.TrailSeconds,
	}
	for _, f := range fields {
		if err := binary.Write(w, binary.LittleEndian, f); err != nil {
			return err
		}
	}
	return nil
}

// Load reads a previously saved state from r. Loaded values still pass
// through the engine's sanitizers on apply, so an out-of-range number in a
// stale file cannot wedge the display.
func Load(r io.Reader) (State, error) {
	s := Default()

	header := make([]byte, len(settingsMagic))
	if _, err := io.ReadFull(r, header); err != nil {
		return s, err
	}
	if string(header) != string(settingsMagic) {
		return s, fmt.Errorf("invalid settings format")
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return s, err
	}
	if version > settingsVersion {
		return s, fmt.Errorf("settings version %d is newer than supported version %d", version, settingsVersion)
	}

	var activeView, loudHistory, viewMode, displayMode, stereoHistory int32
	fields := []any{
		&activeView,
		&s.Loudness.TargetLoudness,
		&s.Loudness.ShowRMSOverlay,
		&loudHistory,
		&viewMode,
		&displayMode,
		&s.Stereo.ScopeScale,
		&stereoHistory,
		&s.Stereo.Freeze,
		&s.Stereo.TrailSeconds,
	}
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return s, err
		}
	}
	s.ActiveView = int(activeView)
	s.Loudness.HistoryWindowSeconds = int(loudHistory)
	s.Stereo.ViewMode = int(viewMode)
	s.Stereo.DisplayMode = int(displayMode)
	s.Stereo.HistoryWindowSeconds = int(stereoHistory)
	return s, nil
}

// SaveFile writes the settings atomically into dir.
func SaveFile(dir string, s State) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	path := filepath.Join(dir, settingsFile)
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := s.Save(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// LoadFile reads saved settings, falling back to defaults when the file is
// missing or unreadable.
func LoadFile(dir string) State {
	f, err := os.Open(filepath.Join(dir, settingsFile))
	if err != nil {
		return Default()
	}
	defer f.Close()
	s, err := Load(f)
	if err != nil {
		return Default()
	}
	return s
}
