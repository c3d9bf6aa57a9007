// Package capture provides microphone and line input across platforms.
// Linux talks to PulseAudio natively; everything else goes through malgo.
// Both backends deliver interleaved signed 16-bit little-endian frames.
package capture

import (
	"fmt"
	"strings"
)

type DataCallback func(data []byte, frameCount uint32)

type Config struct {
	SampleRate uint32
	Channels   uint32
}

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, config Config) (Device, error)
	Close()
}

type Device interface {
	Start() error
	Stop()
	Close()
	SetCallback(cb DataCallback)
	ClearCallback()
}

func clampChannels(config Config) Config {
	if config.Channels < 1 {
		config.Channels = 1
	} else if config.Channels > 2 {
		config.Channels = 2
	}
	return config
}

// FindDevice resolves a --device flag value against the enumerated inputs,
// first by exact ID, then by case-insensitive name substring.
func FindDevice(ctx Context, query string) (*DeviceInfo, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	for i, d := range devices {
		if d.ID == query {
			return &devices[i], nil
		}
	}
	lower := strings.ToLower(query)
	for i, d := range devices {
		if strings.Contains(strings.ToLower(d.Name), lower) {
			return &devices[i], nil
		}
	}
	return nil, fmt.Errorf("no capture device matches %q", query)
}
