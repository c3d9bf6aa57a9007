// Package source feeds audio blocks into the analysis engine from capture
// devices, decoded files, or a built-in test oscillator.
package source

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/meterdeck/meterdeck/internal/capture"
	"github.com/meterdeck/meterdeck/pkg/engine"
)

const blockFrames = 512

// BlockFunc receives each block on the source's feed goroutine, or on the
// platform audio callback for device sources. It must not retain the
// sample slices.
type BlockFunc func(block engine.Block)

type Source interface {
	Start(fn BlockFunc) error
	Stop()
	// Describe returns a short label for the status line.
	Describe() string
	SampleRate() float64
	Channels() int
}

// DeviceSource adapts a capture device into analysis blocks, converting
// the interleaved S16LE callback data to planar float32.
type DeviceSource struct {
	dev    capture.Device
	info   *capture.DeviceInfo
	config capture.Config

	mu      sync.Mutex
	left    []float32
	right   []float32
	samples [2][]float32
}

func NewDevice(ctx capture.Context, info *capture.DeviceInfo, sampleRate, channels uint32) (*DeviceSource, error) {
	config := capture.Config{SampleRate: sampleRate, Channels: channels}
	dev, err := ctx.NewCapture(info, config)
	if err != nil {
		return nil, fmt.Errorf("opening capture device: %w", err)
	}
	return &DeviceSource{
		dev:    dev,
		info:   info,
		config: config,
		left:   make([]float32, blockFrames),
		right:  make([]float32, blockFrames),
	}, nil
}

func (s *DeviceSource) Start(fn BlockFunc) error {
	s.dev.SetCallback(func(data []byte, frameCount uint32) {
		s.deliver(fn, data, frameCount)
	})
	return s.dev.Start()
}

// deliver splits a callback buffer into analysis blocks. Capture backends
// can hand over far more than one block at a time, so the buffer is walked
// in blockFrames steps.
func (s *DeviceSource) deliver(fn BlockFunc, data []byte, frameCount uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	channels := int(s.config.Channels)
	if channels < 1 {
		channels = 1
	}
	frames := int(frameCount)
	if n := len(data) / (2 * channels); n < frames {
		frames = n
	}

	for off := 0; off < frames; off += blockFrames {
		n := frames - off
		if n > blockFrames {
			n = blockFrames
		}
		for i := 0; i < n; i++ {
			base := (off + i) * channels * 2
			s.left[i] = float32(int16(binary.LittleEndian.Uint16(data[base:]))) / 32768
			if channels == 2 {
				s.right[i] = float32(int16(binary.LittleEndian.Uint16(data[base+2:]))) / 32768
			}
		}

		s.samples[0] = s.left[:n]
		count := 1
		if channels == 2 {
			s.samples[1] = s.right[:n]
			count = 2
		}
		fn(engine.Block{Samples: s.samples[:count]})
	}
}

func (s *DeviceSource) Stop() {
	s.dev.ClearCallback()
	s.dev.Stop()
	s.dev.Close()
}

func (s *DeviceSource) Describe() string {
	if s.info != nil {
		return s.info.Name
	}
	return "default input"
}

func (s *DeviceSource) SampleRate() float64 {
	return float64(s.config.SampleRate)
}

func (s *DeviceSource) Channels() int {
	if s.config.Channels >= 2 {
		return 2
	}
	return 1
}
