package session

import (
	"time"

	"github.com/kbukum/voicepulse/analysis"
	"github.com/kbukum/voicepulse/logger"
	"github.com/kbukum/voicepulse/observability"
)

type options struct {
	sessionID    string
	log          *logger.Logger
	metrics      *observability.Metrics
	clock        func() time.Time
	onFast       func(analysis.FastMetrics)
	onCheckpoint func(Checkpoint)
	fastCh       chan<- analysis.FastMetrics
	checkpointCh chan<- Checkpoint
}

// Option configures a Pipeline, or every pipeline created by a Registry.
type Option func(*options)

func newOptions(opts []Option) options {
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.GetGlobalLogger()
	}
	return o
}

// WithSessionID tags logs, spans and metrics with the session id.
func WithSessionID(id string) Option {
	return func(o *options) { o.sessionID = id }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics records chunk, checkpoint and session instruments.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithClock replaces time.Now for chunk timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.clock = now }
}

// WithFastMetricsCallback registers a listener for every processed chunk.
// Panics in fn are recovered and logged.
func WithFastMetricsCallback(fn func(analysis.FastMetrics)) Option {
	return func(o *options) { o.onFast = fn }
}

// WithCheckpointCallback registers a listener for completed checkpoints.
// Panics in fn are recovered and logged.
func WithCheckpointCallback(fn func(Checkpoint)) Option {
	return func(o *options) { o.onCheckpoint = fn }
}

// WithFastMetricsChannel publishes processed chunks on ch. Sends never
// block; values are dropped when ch is full.
func WithFastMetricsChannel(ch chan<- analysis.FastMetrics) Option {
	return func(o *options) { o.fastCh = ch }
}

// WithCheckpointChannel publishes completed checkpoints on ch. Sends never
// block; values are dropped when ch is full.
func WithCheckpointChannel(ch chan<- Checkpoint) Option {
	return func(o *options) { o.checkpointCh = ch }
}

// ChunkOption configures a single ProcessChunk or Flush call.
type ChunkOption func(*chunkOptions)

type chunkOptions struct {
	at time.Time
}

// AtTime stamps the chunk with t instead of the pipeline clock.
func AtTime(t time.Time) ChunkOption {
	return func(o *chunkOptions) { o.at = t }
}
