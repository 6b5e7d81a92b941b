package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/voicepulse/analysis"
	"github.com/kbukum/voicepulse/audio"
	"github.com/kbukum/voicepulse/errors"
	"github.com/kbukum/voicepulse/logger"
	"github.com/kbukum/voicepulse/observability"
	"github.com/kbukum/voicepulse/resilience"
	"github.com/kbukum/voicepulse/speech"
	"github.com/kbukum/voicepulse/transcription"
)

// BatcherConfig configures transcription batching.
type BatcherConfig struct {
	// ChunkDuration is the nominal chunk length used to size transcript
	// segments.
	ChunkDuration time.Duration
	// BatchDuration is how much audio is accumulated per transcription call.
	BatchDuration time.Duration
	// Language and Prompt are forwarded to the transcription backend.
	Language string
	Prompt   string
	// WordTimings enables rate calculation from per-word timings when the
	// backend returns them.
	WordTimings bool
	// MaxInFlight bounds concurrent transcription calls.
	MaxInFlight int
	// QueueTimeout is how long a batch waits for a transcription slot
	// before it is dropped.
	QueueTimeout time.Duration
}

// ApplyDefaults fills zero values.
func (c *BatcherConfig) ApplyDefaults() {
	if c.ChunkDuration <= 0 {
		c.ChunkDuration = 2 * time.Second
	}
	if c.BatchDuration <= 0 {
		c.BatchDuration = 10 * time.Second
	}
	if c.MaxInFlight <= 0 {
		c.MaxInFlight = 1
	}
	if c.QueueTimeout <= 0 {
		c.QueueTimeout = 30 * time.Second
	}
}

type batch struct {
	seq int
	// generation is the pipeline generation the batch's chunks belong to.
	generation uint64
	samples    []float64
	sampleRate int
	indices    []int
	seconds    float64
	timestamp  time.Time
}

// Batcher groups chunk audio into batches, transcribes them and back-fills
// the transcript-derived metrics of the chunks in each batch. Batches are
// transcribed concurrently up to MaxInFlight but applied in order.
type Batcher struct {
	pipeline    *Pipeline
	transcriber transcription.Provider
	cfg         BatcherConfig
	log         *logger.Logger
	bulkhead    *resilience.Bulkhead

	mu      sync.Mutex
	current *batch
	seq     int
	prev    chan struct{}
	pending sync.WaitGroup

	textMu     sync.Mutex
	textGen    uint64
	transcript []string
}

// NewBatcher creates a batcher feeding p from tp.
func NewBatcher(p *Pipeline, tp transcription.Provider, cfg BatcherConfig, opts ...Option) *Batcher {
	cfg.ApplyDefaults()
	o := newOptions(opts)
	log := o.log.WithComponent("batcher")
	if id := p.SessionID(); id != "" {
		log = log.WithSession(id)
	}
	return &Batcher{
		pipeline:    p,
		transcriber: tp,
		cfg:         cfg,
		log:         log,
		bulkhead: resilience.NewBulkhead(resilience.BulkheadConfig{
			Name:          "transcription",
			MaxConcurrent: cfg.MaxInFlight,
			MaxWait:       cfg.QueueTimeout,
			OnReject: func(name string) {
				log.Warn("transcription slot unavailable", logger.Fields(logger.FieldOperation, name))
			},
		}),
	}
}

// Add appends a processed chunk's audio to the current batch. When the
// batch reaches BatchDuration it is submitted for transcription and Add
// returns true. A partial batch left over from before a pipeline reset is
// dropped.
func (b *Batcher) Add(ctx context.Context, m analysis.FastMetrics, samples []float64, sampleRate int) bool {
	if sampleRate <= 0 {
		sampleRate = analysis.DefaultSampleRate
	}
	gen := b.pipeline.Generation()
	b.mu.Lock()
	defer b.mu.Unlock()

	b.dropStaleLocked(gen)
	if b.current == nil {
		b.current = &batch{sampleRate: sampleRate, generation: gen}
	}
	cur := b.current
	if sampleRate != cur.sampleRate {
		samples = audio.Resample(samples, sampleRate, cur.sampleRate)
	}
	cur.samples = append(cur.samples, samples...)
	cur.indices = append(cur.indices, m.Index)
	cur.seconds += m.DurationSeconds
	cur.timestamp = m.Timestamp

	if cur.seconds < b.cfg.BatchDuration.Seconds() {
		return false
	}
	b.submitLocked(ctx)
	return true
}

// Flush submits the partial batch, if any, and waits until every submitted
// batch has been applied or ctx ends.
func (b *Batcher) Flush(ctx context.Context) error {
	gen := b.pipeline.Generation()
	b.mu.Lock()
	b.dropStaleLocked(gen)
	if b.current != nil && len(b.current.indices) > 0 {
		b.submitLocked(ctx)
	}
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Timeout("flush transcription batches").WithCause(ctx.Err())
	}
}

func (b *Batcher) dropStaleLocked(gen uint64) {
	if b.current == nil || b.current.generation == gen {
		return
	}
	b.log.Debug("dropping partial batch from before reset", logger.Fields(
		"chunks", len(b.current.indices),
		logger.FieldGeneration, b.current.generation,
	))
	b.current = nil
}

// Transcript returns the lecture transcript assembled since the last
// pipeline reset.
func (b *Batcher) Transcript() string {
	b.textMu.Lock()
	defer b.textMu.Unlock()
	return strings.Join(b.transcript, " ")
}

func (b *Batcher) submitLocked(ctx context.Context) {
	bt := b.current
	b.current = nil
	b.seq++
	bt.seq = b.seq

	prev := b.prev
	done := make(chan struct{})
	b.prev = done
	b.pending.Add(1)

	// The batch outlives the caller's request.
	jobCtx := context.WithoutCancel(ctx)
	go func() {
		defer b.pending.Done()
		defer close(done)
		b.process(jobCtx, bt, prev)
	}()
}

func (b *Batcher) process(ctx context.Context, bt *batch, prev <-chan struct{}) {
	log := b.log.WithFields(logger.Fields(
		logger.FieldBatchSeconds, bt.seconds,
		"batch", bt.seq,
	))
	resp, err := resilience.ExecuteWithResult(ctx, b.bulkhead, func() (*transcription.TranscriptionResponse, error) {
		return b.transcribe(ctx, bt)
	})
	if prev != nil {
		<-prev
	}
	if err != nil {
		log.Error("transcription failed; dropping batch", logger.ErrorFields("transcribe", err))
		return
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		log.Debug("empty transcription")
		return
	}

	var timings []speech.WordTiming
	if b.cfg.WordTimings && len(resp.Words) > 0 {
		timings = make([]speech.WordTiming, len(resp.Words))
		for i, w := range resp.Words {
			timings[i] = speech.WordTiming{Word: w.Word, Start: w.Start, End: w.End}
		}
	}
	nominal := float64(len(bt.indices)) * b.cfg.ChunkDuration.Seconds()
	applied, err := b.pipeline.applyBatch(bt.generation, bt.indices, text, bt.seconds, nominal, bt.timestamp, timings)
	if !applied {
		log.Info("discarding transcript from previous generation", logger.Fields(logger.FieldGeneration, bt.generation))
		return
	}
	if err != nil {
		log.Warn("transcript covers unknown chunks", logger.ErrorFields("apply_transcript", err))
	}

	b.textMu.Lock()
	if b.textGen != bt.generation {
		b.textGen = bt.generation
		b.transcript = nil
	}
	b.transcript = append(b.transcript, text)
	b.textMu.Unlock()
	log.Info("batch transcribed", logger.Fields("chunks", len(bt.indices), logger.FieldWindowChars, len([]rune(text))))
}

func (b *Batcher) transcribe(ctx context.Context, bt *batch) (*transcription.TranscriptionResponse, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanTranscribe)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrSessionID, b.pipeline.SessionID())

	data, err := audio.EncodeFLAC(bt.samples, bt.sampleRate)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return nil, err
	}
	name := fmt.Sprintf("batch-%d.flac", bt.seq)
	if id := b.pipeline.SessionID(); id != "" {
		name = id + "-" + name
	}
	resp, err := b.transcriber.Transcribe(ctx, transcription.TranscriptionRequest{
		Audio:       data,
		FileName:    name,
		ContentType: "audio/flac",
		Language:    b.cfg.Language,
		Prompt:      b.cfg.Prompt,
	})
	if err != nil {
		observability.SetSpanError(ctx, err)
		return nil, err
	}
	if resp == nil {
		return nil, errors.TranscriptionFailed(b.transcriber.Name(), fmt.Errorf("empty response"))
	}
	return resp, nil
}
