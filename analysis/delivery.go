package analysis

import "math"

// Delivery is the 0-100 presentation of a chunk's metrics.
type Delivery struct {
	Volume  float64 `json:"volume" yaml:"volume"`
	Clarity float64 `json:"clarity" yaml:"clarity"`
	Pace    float64 `json:"pace" yaml:"pace"`
	Pitch   float64 `json:"pitch" yaml:"pitch"`
}

// DeliveryScores maps loudness, filler rate, speaking rate and pitch
// variation onto percentages rounded to one decimal.
func DeliveryScores(m FastMetrics) Delivery {
	return Delivery{
		Volume:  percent(m.Energy.EnergyNormalized * 100),
		Clarity: percent((1 - m.Filler.FillerRate) * 100),
		Pace:    percent(PaceScore(m.WPM.WPM)),
		Pitch:   percent((1 - m.Pitch.MonotoneScore) * 100),
	}
}

// PaceScore rates a speaking rate: 120-180 wpm maps to 70-100, slower
// speech scales down to 0 and faster speech loses 20 points per 20 wpm.
func PaceScore(wpm int) float64 {
	w := float64(wpm)
	switch {
	case wpm <= 0:
		return 0
	case wpm < 120:
		return w / 120 * 70
	case wpm <= 180:
		return 70 + (w-120)/60*30
	default:
		return math.Max(100-(w-180)/20*20, 0)
	}
}

func percent(v float64) float64 {
	v = math.Min(math.Max(v, 0), 100)
	return math.Round(v*10) / 10
}
