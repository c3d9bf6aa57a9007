package audiofile

import (
	"fmt"
	"io"

	"github.com/mewkiz/flac"
)

// ReadFLAC decodes an entire FLAC file into float32 channels.
func ReadFLAC(path string) (*Clip, error) {
	stream, err := flac.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening flac: %w", err)
	}
	defer stream.Close()

	info := stream.Info
	if info.NChannels == 0 {
		return nil, fmt.Errorf("%s: stream reports no channels", path)
	}
	if info.SampleRate == 0 {
		return nil, fmt.Errorf("%s: stream reports no sample rate", path)
	}
	if info.BitsPerSample == 0 || info.BitsPerSample > 32 {
		return nil, fmt.Errorf("%s: unsupported bit depth %d", path, info.BitsPerSample)
	}
	scale := float32(1.0 / float64(uint64(1)<<(info.BitsPerSample-1)))

	channels := make([][]float32, info.NChannels)
	for ch := range channels {
		channels[ch] = make([]float32, 0, info.NSamples)
	}

	for {
		f, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding flac frame: %w", err)
		}
		for ch, sub := range f.Subframes {
			if ch >= len(channels) {
				break
			}
			for _, s := range sub.Samples {
				channels[ch] = append(channels[ch], float32(s)*scale)
			}
		}
	}

	return &Clip{SampleRate: int(info.SampleRate), Channels: channels}, nil
}
