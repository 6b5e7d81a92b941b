package session

import (
	"time"

	"github.com/kbukum/voicepulse/tone"
)

// State is the lifecycle state of a pipeline.
type State int

const (
	// StateIdle means no chunk has been processed yet.
	StateIdle State = iota
	// StateRunning means at least one chunk was processed and the checkpoint
	// timer is armed.
	StateRunning
	// StateReset means history was cleared; it behaves like StateIdle.
	StateReset
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateReset:
		return "reset"
	default:
		return "unknown"
	}
}

// TranscriptSegment is one piece of buffered transcript used to build
// checkpoint windows.
type TranscriptSegment struct {
	Text            string    `json:"transcript" yaml:"transcript"`
	Timestamp       time.Time `json:"timestamp" yaml:"timestamp"`
	DurationSeconds float64   `json:"duration" yaml:"duration"`
}

// Checkpoint is a completed tone evaluation over a transcript window.
type Checkpoint struct {
	Timestamp         time.Time `json:"timestamp" yaml:"timestamp"`
	tone.Judgment     `yaml:",inline"`
	TranscriptSegment string `json:"transcript_segment" yaml:"transcript_segment"`
	SegmentLength     int    `json:"segment_length" yaml:"segment_length"`
}

// Summary aggregates the history of a pipeline.
type Summary struct {
	TotalChunks          int         `json:"total_chunks" yaml:"total_chunks"`
	AveragePitchVariance float64     `json:"average_pitch_variance" yaml:"average_pitch_variance"`
	AverageEnergy        float64     `json:"average_energy" yaml:"average_energy"`
	AverageFillerRate    float64     `json:"average_filler_rate" yaml:"average_filler_rate"`
	AverageWPM           float64     `json:"average_wpm" yaml:"average_wpm"`
	SentimentCheckpoints int         `json:"sentiment_checkpoints" yaml:"sentiment_checkpoints"`
	LastSentiment        *Checkpoint `json:"last_sentiment,omitempty" yaml:"last_sentiment,omitempty"`
	// TalkTimeSeconds sums the duration of chunks loud enough to be speech.
	TalkTimeSeconds float64 `json:"talk_time_seconds" yaml:"talk_time_seconds"`
}
