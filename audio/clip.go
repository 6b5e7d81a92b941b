package audio

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
)

// Clip is a decoded mono waveform with samples normalized to [-1, 1].
type Clip struct {
	Samples    []float64
	SampleRate int
	// SourceChannels is the channel count before the mono mixdown.
	SourceChannels int
	// SourceBitDepth is the bit depth of the encoded input.
	SourceBitDepth int
}

// Duration returns the clip length.
func (c *Clip) Duration() time.Duration {
	if c == nil || c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(c.Samples)) / float64(c.SampleRate) * float64(time.Second))
}

// Seconds returns the clip length in seconds.
func (c *Clip) Seconds() float64 {
	if c == nil || c.SampleRate <= 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.SampleRate)
}

// Resample converts samples between rates by piecewise-linear
// interpolation. The input slice is returned unchanged when the rates match.
// Positions past the last input sample hold its value.
func Resample(samples []float64, from, to int) []float64 {
	if from == to || from <= 0 || to <= 0 || len(samples) == 0 {
		return samples
	}
	n := int(float64(len(samples)) * float64(to) / float64(from))
	if n == 0 {
		return nil
	}
	out := make([]float64, n)
	if len(samples) == 1 {
		floats.AddConst(samples[0], out)
		return out
	}

	xs := make([]float64, len(samples))
	floats.Span(xs, 0, float64(len(samples)-1))
	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, samples); err != nil {
		// Unreachable: xs is strictly increasing.
		return samples
	}
	step := float64(from) / float64(to)
	for i := range out {
		out[i] = pl.Predict(float64(i) * step)
	}
	return out
}

// mixdown averages interleaved integer frames into normalized mono floats.
func mixdown(data []int, channels, bitDepth int) []float64 {
	if channels < 1 {
		channels = 1
	}
	scale := float64(int64(1) << (bitDepth - 1))
	offset := 0
	if bitDepth == 8 {
		// 8-bit PCM is unsigned.
		offset = 128
	}
	out := make([]float64, len(data)/channels)
	for i := range out {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sum += float64(data[i*channels+ch] - offset)
		}
		out[i] = sum / float64(channels) / scale
	}
	return out
}

func toPCM16(v float64) int16 {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int16(v * 32767)
}
