package dsp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// MinPitchHz is C2, the lower bound of the tracked voice band.
	MinPitchHz = 65.406
	// MaxPitchHz is C7, the upper bound of the tracked voice band.
	MaxPitchHz = 2093.005

	// monotoneVarianceCeiling is the pitch variance (Hz²) at and above which
	// delivery is scored fully varied.
	monotoneVarianceCeiling = 800.0

	yinWindow         = FrameLength / 2
	nThresholds       = 100
	betaAlpha         = 2.0
	betaBeta          = 18.0
	boltzmannLambda   = 2.0
	noTroughProb      = 0.01
	voicingSwitchProb = 0.01
)

// PitchStats holds fundamental-frequency statistics over the voiced frames
// of a chunk.
type PitchStats struct {
	PitchVariance   float64 `json:"pitch_variance" yaml:"pitch_variance"`
	PitchRange      float64 `json:"pitch_range" yaml:"pitch_range"`
	PitchStd        float64 `json:"pitch_std" yaml:"pitch_std"`
	ValidPitchRatio float64 `json:"valid_pitch_ratio" yaml:"valid_pitch_ratio"`
	AveragePitchHz  float64 `json:"average_pitch" yaml:"average_pitch"`
	MonotoneScore   float64 `json:"monotone_score" yaml:"monotone_score"`
	Error           string  `json:"error,omitempty" yaml:"error,omitempty"`
}

// silence is the result for chunks without voiced frames.
func silence() PitchStats {
	return PitchStats{MonotoneScore: 1.0}
}

// MonotoneScore maps pitch variance to [0, 1], where 1 is flat delivery.
func MonotoneScore(variance float64) float64 {
	return 1 - math.Min(variance/monotoneVarianceCeiling, 1)
}

// AnalyzePitch tracks the fundamental frequency of samples and summarizes
// its variation.
func AnalyzePitch(samples []float64, sampleRate int) (stats PitchStats) {
	defer func() {
		if r := recover(); r != nil {
			stats = silence()
			stats.Error = fmt.Sprint(r)
		}
	}()

	if len(samples) == 0 {
		stats = silence()
		stats.Error = "empty waveform"
		return stats
	}

	f0, voiced, err := TrackPitch(samples, sampleRate)
	if err != nil {
		stats = silence()
		stats.Error = err.Error()
		return stats
	}

	var pitches []float64
	for i, v := range voiced {
		if v {
			pitches = append(pitches, f0[i])
		}
	}
	if len(pitches) == 0 {
		return silence()
	}

	variance := stat.PopVariance(pitches, nil)
	return PitchStats{
		PitchVariance:   variance,
		PitchRange:      floats.Max(pitches) - floats.Min(pitches),
		PitchStd:        stat.PopStdDev(pitches, nil),
		ValidPitchRatio: float64(len(pitches)) / float64(len(f0)),
		AveragePitchHz:  stat.Mean(pitches, nil),
		MonotoneScore:   MonotoneScore(variance),
	}
}

// TrackPitch runs a probabilistic YIN tracker over centered frames and
// returns the per-frame f0 estimate in Hz and the decoded voicing flags.
func TrackPitch(samples []float64, sampleRate int) (f0 []float64, voiced []bool, err error) {
	if sampleRate <= 0 {
		return nil, nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	minPeriod := int(math.Floor(float64(sampleRate) / MaxPitchHz))
	maxPeriod := min(int(math.Ceil(float64(sampleRate)/MinPitchHz)), FrameLength-yinWindow-1)
	if minPeriod < 1 || maxPeriod-minPeriod < 2 {
		return nil, nil, fmt.Errorf("sample rate %d too low for the voice band", sampleRate)
	}
	if err := checkFinite(samples); err != nil {
		return nil, nil, err
	}

	n := frameCount(len(samples))
	f0 = make([]float64, n)
	voicedProb := make([]float64, n)

	thresholdProbs := betaThresholdProbs()
	frame := make([]float64, FrameLength)
	cmnd := make([]float64, maxPeriod-minPeriod+1)

	for i := 0; i < n; i++ {
		centeredFrame(frame, samples, i)
		normalizedDifference(cmnd, frame, minPeriod, maxPeriod)

		probs := troughProbabilities(cmnd, thresholdProbs)
		best, total := -1, 0.0
		for j, p := range probs {
			total += p
			if p > 0 && (best < 0 || p > probs[best]) {
				best = j
			}
		}
		if best < 0 {
			continue
		}
		voicedProb[i] = math.Min(total, 1)
		period := float64(minPeriod+best) + parabolicShift(cmnd, best)
		f0[i] = float64(sampleRate) / period
	}

	return f0, decodeVoicing(voicedProb), nil
}

// betaThresholdProbs spreads probability mass over the YIN thresholds.
func betaThresholdProbs() []float64 {
	prior := distuv.Beta{Alpha: betaAlpha, Beta: betaBeta}
	probs := make([]float64, nThresholds)
	prev := prior.CDF(0)
	for k := range probs {
		cdf := prior.CDF(float64(k+1) / nThresholds)
		probs[k] = cdf - prev
		prev = cdf
	}
	return probs
}

// normalizedDifference fills dst with the cumulative mean normalized
// difference for lags minPeriod..maxPeriod.
func normalizedDifference(dst, frame []float64, minPeriod, maxPeriod int) {
	var cumulative float64
	for tau := 1; tau <= maxPeriod; tau++ {
		var d float64
		for j := 0; j < yinWindow; j++ {
			delta := frame[j] - frame[j+tau]
			d += delta * delta
		}
		cumulative += d
		if tau < minPeriod {
			continue
		}
		if cumulative == 0 {
			dst[tau-minPeriod] = 1
			continue
		}
		dst[tau-minPeriod] = d * float64(tau) / cumulative
	}
}

// troughProbabilities assigns each local minimum of cmnd the probability
// that it is the period, integrated over all thresholds.
func troughProbabilities(cmnd, thresholdProbs []float64) []float64 {
	probs := make([]float64, len(cmnd))

	var troughs []int
	for j := range cmnd {
		if isTrough(cmnd, j) {
			troughs = append(troughs, j)
		}
	}
	if len(troughs) == 0 {
		return probs
	}

	globalMin := troughs[0]
	for _, t := range troughs[1:] {
		if cmnd[t] < cmnd[globalMin] {
			globalMin = t
		}
	}

	var belowMinMass float64
	for k, mass := range thresholdProbs {
		threshold := float64(k+1) / nThresholds
		var below []int
		for _, t := range troughs {
			if cmnd[t] < threshold {
				below = append(below, t)
			}
		}
		if cmnd[globalMin] >= threshold {
			belowMinMass += mass
		}
		for pos, t := range below {
			probs[t] += boltzmannPMF(pos, boltzmannLambda, len(below)) * mass
		}
	}
	probs[globalMin] += noTroughProb * belowMinMass
	return probs
}

func isTrough(x []float64, j int) bool {
	last := len(x) - 1
	switch {
	case last == 0:
		return false
	case j == 0:
		return x[0] < x[1]
	case j == last:
		return x[j] < x[j-1]
	default:
		return x[j] < x[j-1] && x[j] <= x[j+1]
	}
}

// boltzmannPMF is the truncated exponential prior on trough order.
func boltzmannPMF(k int, lambda float64, n int) float64 {
	if k < 0 || k >= n {
		return 0
	}
	return (1 - math.Exp(-lambda)) * math.Exp(-lambda*float64(k)) / (1 - math.Exp(-lambda*float64(n)))
}

// parabolicShift refines the minimum at j by fitting a parabola through its
// neighbours.
func parabolicShift(x []float64, j int) float64 {
	if j <= 0 || j >= len(x)-1 {
		return 0
	}
	a := x[j+1] + x[j-1] - 2*x[j]
	b := (x[j+1] - x[j-1]) / 2
	if math.Abs(b) >= math.Abs(a) {
		return 0
	}
	return -b / a
}

// decodeVoicing runs a two-state Viterbi over the voiced probabilities.
func decodeVoicing(voicedProb []float64) []bool {
	n := len(voicedProb)
	if n == 0 {
		return nil
	}
	const eps = 1e-10
	stay := math.Log(1 - voicingSwitchProb)
	switchP := math.Log(voicingSwitchProb)

	// state 0 is unvoiced, state 1 is voiced
	score := [2]float64{
		math.Log(0.5) + math.Log(1-voicedProb[0]+eps),
		math.Log(0.5) + math.Log(voicedProb[0]+eps),
	}
	back := make([][2]int, n)
	for i := 1; i < n; i++ {
		emit := [2]float64{math.Log(1 - voicedProb[i] + eps), math.Log(voicedProb[i] + eps)}
		var next [2]float64
		for s := 0; s < 2; s++ {
			fromSame := score[s] + stay
			fromOther := score[1-s] + switchP
			if fromSame >= fromOther {
				next[s], back[i][s] = fromSame+emit[s], s
			} else {
				next[s], back[i][s] = fromOther+emit[s], 1-s
			}
		}
		score = next
	}

	voiced := make([]bool, n)
	state := 0
	if score[1] > score[0] {
		state = 1
	}
	for i := n - 1; i >= 0; i-- {
		voiced[i] = state == 1
		state = back[i][state]
	}
	return voiced
}
