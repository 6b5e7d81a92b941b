package speech

import (
	"math"
	"strings"
)

// WordTiming is a recognized word with offsets in seconds from the start of
// the audio it was transcribed from.
type WordTiming struct {
	Word  string  `json:"word" yaml:"word"`
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
}

// RateStats holds speaking-rate metrics. ActualSpeechDuration and
// PausesDuration are only set when word timings refined the estimate.
type RateStats struct {
	WPM                  int      `json:"wpm" yaml:"wpm"`
	WordsCount           int      `json:"words_count" yaml:"words_count"`
	DurationSeconds      float64  `json:"duration_seconds" yaml:"duration_seconds"`
	WordsPerSecond       float64  `json:"words_per_second" yaml:"words_per_second"`
	ActualSpeechDuration *float64 `json:"actual_speech_duration,omitempty" yaml:"actual_speech_duration,omitempty"`
	PausesDuration       *float64 `json:"pauses_duration,omitempty" yaml:"pauses_duration,omitempty"`
}

// CalculateRate computes words per minute over durationSeconds. When timings
// are given, the span from the first word start to the last word end
// replaces the chunk duration so pauses do not dilute the rate.
func CalculateRate(transcript string, durationSeconds float64, timings []WordTiming) RateStats {
	if math.IsNaN(durationSeconds) || math.IsInf(durationSeconds, 0) {
		durationSeconds = 0
	}
	if strings.TrimSpace(transcript) == "" {
		return RateStats{DurationSeconds: durationSeconds}
	}

	words := len(strings.Fields(transcript))
	if durationSeconds <= 0 {
		return RateStats{WordsCount: words, DurationSeconds: durationSeconds}
	}

	if len(timings) > 0 {
		actual := timings[len(timings)-1].End - timings[0].Start
		if actual > 0 {
			wps := float64(words) / actual
			pauses := durationSeconds - actual
			return RateStats{
				WPM:                  int(wps * 60),
				WordsCount:           words,
				DurationSeconds:      durationSeconds,
				WordsPerSecond:       wps,
				ActualSpeechDuration: &actual,
				PausesDuration:       &pauses,
			}
		}
	}

	wps := float64(words) / durationSeconds
	return RateStats{
		WPM:             int(wps * 60),
		WordsCount:      words,
		DurationSeconds: durationSeconds,
		WordsPerSecond:  wps,
	}
}
