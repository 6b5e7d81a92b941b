package analysis

import (
	"time"

	"github.com/kbukum/voicepulse/dsp"
	"github.com/kbukum/voicepulse/speech"
)

// DefaultSampleRate is assumed when a chunk does not carry a sample rate.
const DefaultSampleRate = 22050

// Chunk is one unit of fast-path input: mono samples plus a transcript that
// may still be empty.
type Chunk struct {
	Samples         []float64
	SampleRate      int
	DurationSeconds float64
	Transcript      string
	WordTimings     []speech.WordTiming
}

// FastMetrics is the per-chunk feature vector. Index and Timestamp are
// assigned by the session pipeline.
type FastMetrics struct {
	Index           int                `json:"index" yaml:"index"`
	Timestamp       time.Time          `json:"timestamp" yaml:"timestamp"`
	DurationSeconds float64            `json:"duration_seconds" yaml:"duration_seconds"`
	Pitch           dsp.PitchStats     `json:"pitch" yaml:"pitch"`
	Energy          dsp.EnergyStats    `json:"energy" yaml:"energy"`
	Filler          speech.FillerStats `json:"filler" yaml:"filler"`
	WPM             speech.RateStats   `json:"wpm" yaml:"wpm"`
}

// AnalyzeChunk runs the pitch, energy, filler and rate analyzers on a chunk.
func AnalyzeChunk(c Chunk) FastMetrics {
	rate := c.SampleRate
	if rate == 0 {
		rate = DefaultSampleRate
	}
	filler, wpm := Rescore(c.Transcript, c.DurationSeconds, c.WordTimings)
	return FastMetrics{
		DurationSeconds: c.DurationSeconds,
		Pitch:           dsp.AnalyzePitch(c.Samples, rate),
		Energy:          dsp.AnalyzeEnergy(c.Samples, rate),
		Filler:          filler,
		WPM:             wpm,
	}
}

// Rescore recomputes only the transcript-derived metrics, for transcripts
// that arrive after their chunks were analyzed.
func Rescore(transcript string, durationSeconds float64, timings []speech.WordTiming) (speech.FillerStats, speech.RateStats) {
	return speech.ScoreFillers(transcript), speech.CalculateRate(transcript, durationSeconds, timings)
}
