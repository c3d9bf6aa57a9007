package source

import (
	"fmt"
	"math"
	"time"

	"github.com/meterdeck/meterdeck/pkg/dsp/generator"
	"github.com/meterdeck/meterdeck/pkg/engine"
)

// ToneSource generates a stereo sine plus optional white noise, for
// checking the meters against known levels. Amplitudes are linear; zero
// disables that component. The noise runs one seeded generator per channel
// so the pair stays decorrelated.
type ToneSource struct {
	rate     float64
	freq     float64
	amp      float64
	noiseAmp float64

	stop chan struct{}
	done chan struct{}
}

func NewTone(sampleRate, freq, amp, noiseAmp float64) *ToneSource {
	return &ToneSource{
		rate:     sampleRate,
		freq:     freq,
		amp:      amp,
		noiseAmp: noiseAmp,
	}
}

func (s *ToneSource) Start(fn BlockFunc) error {
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	interval := time.Duration(blockFrames) * time.Second / time.Duration(s.rate)

	go func() {
		defer close(s.done)

		left := make([]float32, blockFrames)
		right := make([]float32, blockFrames)
		osc := generator.NewSine(s.rate, s.freq)
		noiseL := generator.NewNoise(0x2545F491)
		noiseR := generator.NewNoise(0x9E3779B9)

		for {
			for i := range left {
				v := float32(s.amp * osc.Next())
				l, r := v, v
				if s.noiseAmp > 0 {
					l += float32(s.noiseAmp * noiseL.Next())
					r += float32(s.noiseAmp * noiseR.Next())
				}
				left[i], right[i] = l, r
			}
			fn(engine.Block{Samples: [][]float32{left, right}})

			select {
			case <-s.stop:
				return
			case <-time.After(interval):
			}
		}
	}()

	return nil
}

func (s *ToneSource) Stop() {
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

func (s *ToneSource) Describe() string {
	switch {
	case s.amp > 0 && s.noiseAmp > 0:
		return fmt.Sprintf("tone %.0f Hz @ %.1f dBFS + noise", s.freq, ampToDB(s.amp))
	case s.amp > 0:
		return fmt.Sprintf("tone %.0f Hz @ %.1f dBFS", s.freq, ampToDB(s.amp))
	case s.noiseAmp > 0:
		return fmt.Sprintf("noise @ %.1f dBFS", ampToDB(s.noiseAmp))
	default:
		return "silence"
	}
}

func (s *ToneSource) SampleRate() float64 {
	return s.rate
}

func (s *ToneSource) Channels() int {
	return 2
}

func ampToDB(amp float64) float64 {
	if amp <= 0 {
		return -144
	}
	return 20 * math.Log10(amp)
}
