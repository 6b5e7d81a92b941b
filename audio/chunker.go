package audio

import (
	"context"
	"time"

	"github.com/kbukum/voicepulse/analysis"
)

// Chunk is one fixed-duration slice of a clip.
type Chunk struct {
	Index      int
	Samples    []float64
	SampleRate int
	// Offset is the start of the chunk in seconds from the clip start.
	Offset float64
	// DurationSeconds is the real length of the slice; the final chunk may
	// be shorter than the nominal duration.
	DurationSeconds float64
}

// AnalysisChunk converts the slice into analyzer input with an optional
// transcript.
func (c Chunk) AnalysisChunk(transcript string) analysis.Chunk {
	return analysis.Chunk{
		Samples:         c.Samples,
		SampleRate:      c.SampleRate,
		DurationSeconds: c.DurationSeconds,
		Transcript:      transcript,
	}
}

// Chunker provides pull-based access to consecutive chunks of a clip.
type Chunker struct {
	clip   *Clip
	size   int
	pos    int
	index  int
	closed bool
}

// NewChunker creates an iterator over chunks of the given duration.
func NewChunker(clip *Clip, chunkDuration time.Duration) *Chunker {
	size := int(chunkDuration.Seconds() * float64(clip.SampleRate))
	if size <= 0 {
		size = len(clip.Samples)
	}
	return &Chunker{clip: clip, size: size}
}

// Next returns the next chunk. Returns (zero, false, nil) when exhausted.
func (c *Chunker) Next(ctx context.Context) (Chunk, bool, error) {
	if err := ctx.Err(); err != nil {
		return Chunk{}, false, err
	}
	if c.closed || c.pos >= len(c.clip.Samples) {
		return Chunk{}, false, nil
	}

	end := min(c.pos+c.size, len(c.clip.Samples))
	chunk := Chunk{
		Index:           c.index,
		Samples:         c.clip.Samples[c.pos:end],
		SampleRate:      c.clip.SampleRate,
		Offset:          float64(c.pos) / float64(c.clip.SampleRate),
		DurationSeconds: float64(end-c.pos) / float64(c.clip.SampleRate),
	}
	c.pos = end
	c.index++
	return chunk, true, nil
}

// Remaining reports how many chunks are left.
func (c *Chunker) Remaining() int {
	if c.closed || c.size == 0 {
		return 0
	}
	left := len(c.clip.Samples) - c.pos
	return (left + c.size - 1) / c.size
}

// Close stops the iteration.
func (c *Chunker) Close() error {
	c.closed = true
	return nil
}
