package dsp

import (
	"fmt"
	"math"
)

const (
	// FrameLength is the analysis frame size in samples.
	FrameLength = 2048
	// HopLength is the distance between frame starts in samples.
	HopLength = 512
)

// frameCount returns the number of centered frames for n samples.
func frameCount(n int) int {
	if n <= 0 {
		return 0
	}
	return 1 + n/HopLength
}

// centeredFrame copies frame i of samples, zero padded by FrameLength/2 on
// both sides, into dst.
func centeredFrame(dst, samples []float64, i int) {
	start := i*HopLength - FrameLength/2
	for j := range dst {
		k := start + j
		if k < 0 || k >= len(samples) {
			dst[j] = 0
			continue
		}
		dst[j] = samples[k]
	}
}

// checkFinite returns an error naming the first NaN or infinite sample.
func checkFinite(samples []float64) error {
	for i, v := range samples {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite sample %v at index %d", v, i)
		}
	}
	return nil
}
