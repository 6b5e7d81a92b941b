package tone

import (
	"context"
	"math"
	"strings"
)

// Sentiment labels.
const (
	LabelPositive = "positive"
	LabelNegative = "negative"
	LabelNeutral  = "neutral"
)

// Judgment is the structured tone evaluation of a transcript window.
type Judgment struct {
	SentimentScore       float64  `json:"sentiment_score" yaml:"sentiment_score"`
	SentimentLabel       string   `json:"sentiment_label" yaml:"sentiment_label"`
	Confidence           float64  `json:"confidence" yaml:"confidence"`
	ToneDescription      string   `json:"tone_description" yaml:"tone_description"`
	EngagementIndicators []string `json:"engagement_indicators" yaml:"engagement_indicators"`
	Error                string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// Neutral returns a zero-confidence neutral judgment with the given
// description.
func Neutral(description string) Judgment {
	return Judgment{
		SentimentLabel:       LabelNeutral,
		ToneDescription:      description,
		EngagementIndicators: []string{},
	}
}

// Failed returns the neutral judgment recorded when evaluation fails.
func Failed(err error) Judgment {
	j := Neutral("Error analyzing sentiment: " + err.Error())
	j.Error = err.Error()
	return j
}

// Normalize clamps the numeric fields into range and maps unknown labels to
// neutral.
func (j Judgment) Normalize() Judgment {
	j.SentimentScore = clamp(j.SentimentScore, -1, 1)
	j.Confidence = clamp(j.Confidence, 0, 1)
	switch label := strings.ToLower(strings.TrimSpace(j.SentimentLabel)); label {
	case LabelPositive, LabelNegative, LabelNeutral:
		j.SentimentLabel = label
	default:
		j.SentimentLabel = LabelNeutral
	}
	if j.EngagementIndicators == nil {
		j.EngagementIndicators = []string{}
	}
	return j
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(math.Max(v, lo), hi)
}

// Evaluator judges the tone of a transcript window.
type Evaluator interface {
	Evaluate(ctx context.Context, text string) Judgment
}

// EvaluatorFunc adapts a plain function to an Evaluator.
type EvaluatorFunc func(ctx context.Context, text string) Judgment

// Evaluate calls f(ctx, text).
func (f EvaluatorFunc) Evaluate(ctx context.Context, text string) Judgment {
	return f(ctx, text)
}

// emptyWindow reports whether there is nothing to evaluate.
func emptyWindow(text string) bool {
	return strings.TrimSpace(text) == ""
}
