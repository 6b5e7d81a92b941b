package dsp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// loudCeiling is the rms_mean treated as fully loud speech.
const loudCeiling = 0.5

// EnergyStats holds loudness statistics over the frames of a chunk.
type EnergyStats struct {
	RMSMean          float64 `json:"rms_mean" yaml:"rms_mean"`
	RMSMax           float64 `json:"rms_max" yaml:"rms_max"`
	RMSStd           float64 `json:"rms_std" yaml:"rms_std"`
	EnergyNormalized float64 `json:"energy_normalized" yaml:"energy_normalized"`
	Error            string  `json:"error,omitempty" yaml:"error,omitempty"`
}

// AnalyzeEnergy computes frame-wise RMS loudness statistics.
func AnalyzeEnergy(samples []float64, sampleRate int) (stats EnergyStats) {
	defer func() {
		if r := recover(); r != nil {
			stats = EnergyStats{Error: fmt.Sprint(r)}
		}
	}()

	if len(samples) == 0 {
		return EnergyStats{Error: "empty waveform"}
	}
	if sampleRate <= 0 {
		return EnergyStats{Error: fmt.Sprintf("invalid sample rate %d", sampleRate)}
	}
	if err := checkFinite(samples); err != nil {
		return EnergyStats{Error: err.Error()}
	}

	rms := FrameRMS(samples)
	if len(rms) == 0 || floats.Max(rms) == 0 {
		return EnergyStats{}
	}

	mean := stat.Mean(rms, nil)
	return EnergyStats{
		RMSMean:          mean,
		RMSMax:           floats.Max(rms),
		RMSStd:           stat.PopStdDev(rms, nil),
		EnergyNormalized: math.Min(mean/loudCeiling, 1),
	}
}

// FrameRMS returns the root-mean-square of every centered frame.
func FrameRMS(samples []float64) []float64 {
	n := frameCount(len(samples))
	out := make([]float64, n)
	frame := make([]float64, FrameLength)
	for i := 0; i < n; i++ {
		centeredFrame(frame, samples, i)
		var sum float64
		for _, v := range frame {
			sum += v * v
		}
		out[i] = math.Sqrt(sum / FrameLength)
	}
	return out
}
