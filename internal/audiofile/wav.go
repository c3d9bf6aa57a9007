package audiofile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

const (
	waveFormatPCM        = 1
	waveFormatIEEEFloat  = 3
	waveFormatExtensible = 0xFFFE
)

// ReadWAV decodes a RIFF/WAVE file into float32 channels. PCM at 16, 24 or
// 32 bits and 32-bit IEEE float are accepted, including the extensible
// header variant DAWs write for those encodings.
func ReadWAV(path string) (*Clip, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(raw) < 12 || string(raw[0:4]) != "RIFF" || string(raw[8:12]) != "WAVE" {
		return nil, fmt.Errorf("%s: not a RIFF/WAVE file", path)
	}

	var (
		format        uint16
		channels      int
		sampleRate    int
		bitsPerSample int
		haveFmt       bool
		data          []byte
	)

	off := 12
	for off+8 <= len(raw) {
		id := string(raw[off : off+4])
		size := int(binary.LittleEndian.Uint32(raw[off+4 : off+8]))
		body := raw[off+8:]
		if size > len(body) {
			// Tolerate a truncated final chunk; some writers never fix up
			// the size after an interrupted recording.
			size = len(body)
		}
		body = body[:size]

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("%s: fmt chunk too short", path)
			}
			format = binary.LittleEndian.Uint16(body[0:2])
			channels = int(binary.LittleEndian.Uint16(body[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(body[14:16]))
			if format == waveFormatExtensible {
				if size < 40 {
					return nil, fmt.Errorf("%s: extensible fmt chunk too short", path)
				}
				// The leading bytes of the SubFormat GUID carry the real
				// format code.
				format = binary.LittleEndian.Uint16(body[24:26])
			}
			haveFmt = true
		case "data":
			data = body
		}

		off += 8 + size
		if size%2 == 1 {
			off++ // chunks are word aligned
		}
	}

	if !haveFmt {
		return nil, fmt.Errorf("%s: missing fmt chunk", path)
	}
	if data == nil {
		return nil, fmt.Errorf("%s: missing data chunk", path)
	}
	if channels < 1 || sampleRate <= 0 {
		return nil, fmt.Errorf("%s: malformed fmt chunk (%d channels, %d Hz)", path, channels, sampleRate)
	}

	switch {
	case format == waveFormatPCM && bitsPerSample == 16:
	case format == waveFormatPCM && bitsPerSample == 24:
	case format == waveFormatPCM && bitsPerSample == 32:
	case format == waveFormatIEEEFloat && bitsPerSample == 32:
	default:
		return nil, fmt.Errorf("%s: unsupported WAV encoding (format %d, %d bits)", path, format, bitsPerSample)
	}

	bytesPer := bitsPerSample / 8
	frameSize := bytesPer * channels
	frames := len(data) / frameSize

	chans := make([][]float32, channels)
	for ch := range chans {
		chans[ch] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		base := i * frameSize
		for ch := 0; ch < channels; ch++ {
			p := data[base+ch*bytesPer:]
			var v float32
			switch {
			case bitsPerSample == 16:
				v = float32(int16(binary.LittleEndian.Uint16(p))) / 32768
			case bitsPerSample == 24:
				s := int32(p[0]) | int32(p[1])<<8 | int32(p[2])<<16
				if s&0x800000 != 0 {
					s -= 0x1000000
				}
				v = float32(s) / 8388608
			case format == waveFormatIEEEFloat:
				v = math.Float32frombits(binary.LittleEndian.Uint32(p))
			default: // 32-bit PCM
				v = float32(float64(int32(binary.LittleEndian.Uint32(p))) / 2147483648)
			}
			chans[ch][i] = v
		}
	}

	return &Clip{SampleRate: sampleRate, Channels: chans}, nil
}

// WriteWAV writes channels as interleaved 16-bit PCM. Channels of unequal
// length are truncated to the shortest.
func WriteWAV(path string, channels [][]float32, sampleRate int) error {
	if len(channels) == 0 {
		return fmt.Errorf("no channels to write")
	}
	frames := len(channels[0])
	for _, ch := range channels[1:] {
		if len(ch) < frames {
			frames = len(ch)
		}
	}

	dataSize := frames * len(channels) * 2

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(waveFormatPCM))
	binary.Write(&buf, binary.LittleEndian, uint16(len(channels)))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*len(channels)*2))
	binary.Write(&buf, binary.LittleEndian, uint16(len(channels)*2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	for i := 0; i < frames; i++ {
		for _, ch := range channels {
			binary.Write(&buf, binary.LittleEndian, pcm16(ch[i]))
		}
	}

	return os.WriteFile(path, buf.Bytes(), 0644)
}

func pcm16(s float32) int16 {
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	return int16(s * 32767)
}
