package audio

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"

	apperrors "github.com/kbukum/voicepulse/errors"
)

// Format identifies an audio container.
type Format string

const (
	FormatUnknown Format = ""
	FormatWAV     Format = "wav"
	FormatFLAC    Format = "flac"
)

// DetectFormat sniffs the container from the leading bytes of a file.
func DetectFormat(header []byte) Format {
	switch {
	case len(header) >= 12 && string(header[0:4]) == "RIFF" && string(header[8:12]) == "WAVE":
		return FormatWAV
	case len(header) >= 4 && string(header[0:4]) == "fLaC":
		return FormatFLAC
	default:
		return FormatUnknown
	}
}

// DecodeFile reads and decodes a WAV or FLAC file.
func DecodeFile(path string) (*Clip, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read audio file: %w", err)
	}
	clip, err := Decode(data)
	if err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok {
			return nil, appErr.WithDetail("path", filepath.Base(path))
		}
		return nil, err
	}
	return clip, nil
}

// Decode decodes an in-memory WAV or FLAC file into a mono clip.
func Decode(data []byte) (*Clip, error) {
	switch f := DetectFormat(data); f {
	case FormatWAV:
		return decodeWAV(bytes.NewReader(data))
	case FormatFLAC:
		return decodeFLAC(bytes.NewReader(data))
	default:
		return nil, apperrors.UnsupportedFormat("unknown")
	}
}

func decodeWAV(r io.ReadSeeker) (*Clip, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, apperrors.UnsupportedFormat(string(FormatWAV)).
			WithDetail("reason", "invalid wav header")
	}
	if d.WavAudioFormat != 1 {
		return nil, apperrors.UnsupportedFormat(string(FormatWAV)).
			WithDetail("reason", fmt.Sprintf("wav audio format %d is not PCM", d.WavAudioFormat))
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, apperrors.UnsupportedFormat(string(FormatWAV)).WithCause(err)
	}

	channels := int(d.NumChans)
	if buf.Format != nil && buf.Format.NumChannels > 0 {
		channels = buf.Format.NumChannels
	}
	bitDepth := int(d.BitDepth)
	return &Clip{
		Samples:        mixdown(buf.Data, channels, bitDepth),
		SampleRate:     int(d.SampleRate),
		SourceChannels: channels,
		SourceBitDepth: bitDepth,
	}, nil
}

func decodeFLAC(r io.Reader) (*Clip, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, apperrors.UnsupportedFormat(string(FormatFLAC)).WithCause(err)
	}
	defer stream.Close()

	channels := int(stream.Info.NChannels)
	bitDepth := int(stream.Info.BitsPerSample)
	data := make([]int, 0, int(stream.Info.NSamples)*channels)
	for {
		f, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.UnsupportedFormat(string(FormatFLAC)).WithCause(err)
		}
		n := len(f.Subframes[0].Samples)
		for i := 0; i < n; i++ {
			for _, sub := range f.Subframes {
				data = append(data, int(sub.Samples[i]))
			}
		}
	}

	return &Clip{
		Samples:        mixdown(data, channels, bitDepth),
		SampleRate:     int(stream.Info.SampleRate),
		SourceChannels: channels,
		SourceBitDepth: bitDepth,
	}, nil
}

// FormatFromPath guesses the container from a file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return FormatWAV
	case ".flac":
		return FormatFLAC
	default:
		return FormatUnknown
	}
}
