package session

import "time"

// talkEnergyThreshold is the normalized energy above which a chunk counts
// as talk time.
const talkEnergyThreshold = 0.1

// PipelineConfig configures the dual-cadence pipeline.
type PipelineConfig struct {
	// SentimentInterval is the chunk-time distance between checkpoint
	// triggers.
	SentimentInterval time.Duration `yaml:"sentiment_interval" mapstructure:"sentiment_interval"`
	// TranscriptBufferChars caps the transcript ring buffer.
	TranscriptBufferChars int `yaml:"transcript_buffer_chars" mapstructure:"transcript_buffer_chars"`
	// CheckpointWindow is how much recent transcript a checkpoint evaluates.
	CheckpointWindow time.Duration `yaml:"checkpoint_window" mapstructure:"checkpoint_window"`
}

// DefaultPipelineConfig returns the lecture defaults.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		SentimentInterval:     12 * time.Second,
		TranscriptBufferChars: 1000,
		CheckpointWindow:      15 * time.Second,
	}
}

// ApplyDefaults fills zero values with the lecture defaults.
func (c *PipelineConfig) ApplyDefaults() {
	d := DefaultPipelineConfig()
	if c.SentimentInterval <= 0 {
		c.SentimentInterval = d.SentimentInterval
	}
	if c.TranscriptBufferChars <= 0 {
		c.TranscriptBufferChars = d.TranscriptBufferChars
	}
	if c.CheckpointWindow <= 0 {
		c.CheckpointWindow = d.CheckpointWindow
	}
}
