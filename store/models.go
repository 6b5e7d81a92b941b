package store

import (
	"time"

	"github.com/kbukum/voicepulse/analysis"
	"github.com/kbukum/voicepulse/session"
	"github.com/kbukum/voicepulse/tone"
)

// Status is the archive state of a lecture.
type Status string

const (
	// StatusActive marks a lecture whose session is still running.
	StatusActive Status = "active"
	// StatusEnded marks a lecture whose chunk history and summary are stored.
	StatusEnded Status = "ended"
)

// Lecture is an archived analysis session.
type Lecture struct {
	SessionID       string                 `json:"session_id" yaml:"session_id"`
	Source          string                 `json:"source" yaml:"source"`
	Status          Status                 `json:"status" yaml:"status"`
	StartedAt       time.Time              `json:"started_at" yaml:"started_at"`
	FinishedAt      *time.Time             `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	SampleRate      int                    `json:"sample_rate" yaml:"sample_rate"`
	DurationSeconds float64                `json:"duration_seconds" yaml:"duration_seconds"`
	Summary         session.Summary        `json:"summary" yaml:"summary"`
	Transcript      string                 `json:"transcript,omitempty" yaml:"transcript,omitempty"`
	Chunks          []analysis.FastMetrics `json:"chunks,omitempty" yaml:"chunks,omitempty"`
	Feedback        []session.Checkpoint   `json:"feedback,omitempty" yaml:"feedback,omitempty"`
}

// Start describes a lecture when its session opens.
type Start struct {
	SessionID  string
	Source     string
	StartedAt  time.Time
	SampleRate int
}

// Result is what a finished session contributes to its lecture.
type Result struct {
	DurationSeconds float64
	Summary         session.Summary
	Transcript      string
	Chunks          []analysis.FastMetrics
}

type lectureRow struct {
	SessionID       string          `gorm:"column:session_id;primaryKey"`
	Source          string          `gorm:"column:source"`
	Status          string          `gorm:"column:status"`
	StartedAt       time.Time       `gorm:"column:started_at"`
	FinishedAt      *time.Time      `gorm:"column:finished_at"`
	SampleRate      int             `gorm:"column:sample_rate"`
	DurationSeconds float64         `gorm:"column:duration_seconds"`
	TotalChunks     int             `gorm:"column:total_chunks"`
	AverageWPM      float64         `gorm:"column:average_wpm"`
	TalkTimeSeconds float64         `gorm:"column:talk_time_seconds"`
	Summary         session.Summary `gorm:"column:summary;serializer:json"`
	Transcript      string          `gorm:"column:transcript"`
	CreatedAt       time.Time       `gorm:"column:created_at"`
	UpdatedAt       time.Time       `gorm:"column:updated_at"`

	Chunks   []chunkRow    `gorm:"foreignKey:SessionID;references:SessionID"`
	Feedback []feedbackRow `gorm:"foreignKey:SessionID;references:SessionID"`
}

func (lectureRow) TableName() string { return "lectures" }

type chunkRow struct {
	ID         uint                 `gorm:"column:id;primaryKey"`
	SessionID  string               `gorm:"column:session_id"`
	ChunkIndex int                  `gorm:"column:chunk_index"`
	Timestamp  time.Time            `gorm:"column:timestamp"`
	Metrics    analysis.FastMetrics `gorm:"column:metrics;serializer:json"`
}

func (chunkRow) TableName() string { return "chunk_metrics" }

type feedbackRow struct {
	ID              uint      `gorm:"column:id;primaryKey"`
	SessionID       string    `gorm:"column:session_id"`
	Timestamp       time.Time `gorm:"column:timestamp"`
	SentimentLabel  string    `gorm:"column:sentiment_label"`
	SentimentScore  float64   `gorm:"column:sentiment_score"`
	Confidence      float64   `gorm:"column:confidence"`
	ToneDescription string    `gorm:"column:tone_description"`
	Engagement      []string  `gorm:"column:engagement;serializer:json"`
	Segment         string    `gorm:"column:segment"`
	SegmentLength   int       `gorm:"column:segment_length"`
	Error           string    `gorm:"column:error"`
}

func (feedbackRow) TableName() string { return "feedback" }

func newFeedbackRow(sessionID string, cp session.Checkpoint) feedbackRow {
	return feedbackRow{
		SessionID:       sessionID,
		Timestamp:       cp.Timestamp.UTC(),
		SentimentLabel:  cp.SentimentLabel,
		SentimentScore:  cp.SentimentScore,
		Confidence:      cp.Confidence,
		ToneDescription: cp.ToneDescription,
		Engagement:      cp.EngagementIndicators,
		Segment:         cp.TranscriptSegment,
		SegmentLength:   cp.SegmentLength,
		Error:           cp.Error,
	}
}

func (r feedbackRow) checkpoint() session.Checkpoint {
	engagement := r.Engagement
	if engagement == nil {
		engagement = []string{}
	}
	return session.Checkpoint{
		Timestamp: r.Timestamp,
		Judgment: tone.Judgment{
			SentimentScore:       r.SentimentScore,
			SentimentLabel:       r.SentimentLabel,
			Confidence:           r.Confidence,
			ToneDescription:      r.ToneDescription,
			EngagementIndicators: engagement,
			Error:                r.Error,
		},
		TranscriptSegment: r.Segment,
		SegmentLength:     r.SegmentLength,
	}
}

func (r lectureRow) lecture() Lecture {
	l := Lecture{
		SessionID:       r.SessionID,
		Source:          r.Source,
		Status:          Status(r.Status),
		StartedAt:       r.StartedAt,
		FinishedAt:      r.FinishedAt,
		SampleRate:      r.SampleRate,
		DurationSeconds: r.DurationSeconds,
		Summary:         r.Summary,
		Transcript:      r.Transcript,
	}
	if len(r.Chunks) > 0 {
		l.Chunks = make([]analysis.FastMetrics, len(r.Chunks))
		for i, c := range r.Chunks {
			l.Chunks[i] = c.Metrics
		}
	}
	if len(r.Feedback) > 0 {
		l.Feedback = make([]session.Checkpoint, len(r.Feedback))
		for i, f := range r.Feedback {
			l.Feedback[i] = f.checkpoint()
		}
	}
	return l
}
