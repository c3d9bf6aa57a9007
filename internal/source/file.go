package source

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/meterdeck/meterdeck/internal/audiofile"
	"github.com/meterdeck/meterdeck/pkg/engine"
)

// FileSource replays a decoded audio file in real time. After the last
// frame it keeps feeding silence so the meters decay naturally, unless
// loop is set.
type FileSource struct {
	clip *audiofile.Clip
	name string
	loop bool

	stop chan struct{}
	done chan struct{}
}

func NewFile(path string, loop bool) (*FileSource, error) {
	clip, err := audiofile.Read(path)
	if err != nil {
		return nil, err
	}
	if clip.Frames() == 0 {
		return nil, fmt.Errorf("%s: no audio frames", path)
	}
	// The analysis chain handles at most two channels.
	if len(clip.Channels) > 2 {
		clip.Channels = clip.Channels[:2]
	}
	return &FileSource{
		clip: clip,
		name: filepath.Base(path),
		loop: loop,
	}, nil
}

func (s *FileSource) Start(fn BlockFunc) error {
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	interval := time.Duration(blockFrames) * time.Second / time.Duration(s.clip.SampleRate)
	channels := len(s.clip.Channels)
	frames := s.clip.Frames()

	go func() {
		defer close(s.done)

		silence := make([]float32, blockFrames)
		var samples [2][]float32
		pos := 0

		for {
			if pos < frames {
				end := pos + blockFrames
				if end > frames {
					end = frames
				}
				for ch := 0; ch < channels; ch++ {
					samples[ch] = s.clip.Channels[ch][pos:end]
				}
				pos = end
			} else if s.loop {
				pos = 0
				continue
			} else {
				for ch := 0; ch < channels; ch++ {
					samples[ch] = silence
				}
			}
			fn(engine.Block{Samples: samples[:channels]})

			select {
			case <-s.stop:
				return
			case <-time.After(interval):
			}
		}
	}()

	return nil
}

func (s *FileSource) Stop() {
	if s.stop == nil {
		return
	}
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	<-s.done
}

func (s *FileSource) Describe() string {
	return fmt.Sprintf("%s (%.1fs)", s.name, s.clip.Duration())
}

func (s *FileSource) SampleRate() float64 {
	return float64(s.clip.SampleRate)
}

func (s *FileSource) Channels() int {
	return len(s.clip.Channels)
}
