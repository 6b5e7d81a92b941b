package session

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"gonum.org/v1/gonum/stat"

	"github.com/kbukum/voicepulse/analysis"
	"github.com/kbukum/voicepulse/errors"
	"github.com/kbukum/voicepulse/logger"
	"github.com/kbukum/voicepulse/observability"
	"github.com/kbukum/voicepulse/speech"
	"github.com/kbukum/voicepulse/tone"
)

// Pipeline is the per-session orchestrator. Chunks are analyzed on the
// caller's goroutine; tone checkpoints run in the background and are
// discarded if the pipeline was reset while they were in flight.
type Pipeline struct {
	cfg  PipelineConfig
	eval tone.Evaluator
	opts options
	log  *logger.Logger

	mu          sync.Mutex
	state       State
	closed      bool
	generation  uint64
	history     []analysis.FastMetrics
	buffer      []rune
	segments    []TranscriptSegment
	checkpoints []Checkpoint
	talkTime    float64
	start       time.Time
	last        time.Time
	lastChunk   time.Time

	// jobCtx is cancelled on Reset and Close to abandon in-flight checkpoints.
	jobCtx    context.Context
	cancelJob context.CancelFunc
	inflight  sync.WaitGroup
}

// NewPipeline creates an idle pipeline. A nil evaluator yields neutral
// checkpoints.
func NewPipeline(cfg PipelineConfig, eval tone.Evaluator, opts ...Option) *Pipeline {
	cfg.ApplyDefaults()
	if eval == nil {
		eval = tone.EvaluatorFunc(func(context.Context, string) tone.Judgment {
			return tone.Neutral("Tone evaluation disabled")
		})
	}
	o := newOptions(opts)
	log := o.log.WithComponent("session")
	if o.sessionID != "" {
		log = log.WithSession(o.sessionID)
	}
	p := &Pipeline{
		cfg:   cfg,
		eval:  eval,
		opts:  o,
		log:   log,
		state: StateIdle,
	}
	p.jobCtx, p.cancelJob = context.WithCancel(context.Background())
	return p
}

// SessionID returns the id the pipeline was created with.
func (p *Pipeline) SessionID() string { return p.opts.sessionID }

// Config returns the effective configuration.
func (p *Pipeline) Config() PipelineConfig { return p.cfg }

// ProcessChunk analyzes one chunk and records it. When the audio received
// since the last checkpoint, counted to the end of this chunk, reaches the
// sentiment interval, a checkpoint over the recent transcript is started in
// the background. The returned metrics are never affected by the
// checkpoint.
//
// Timestamps earlier than the previous chunk are clamped to it. After
// Close the metrics are still computed but not recorded.
func (p *Pipeline) ProcessChunk(ctx context.Context, chunk analysis.Chunk, opts ...ChunkOption) analysis.FastMetrics {
	ctx, span := observability.StartSpan(ctx, observability.SpanProcessChunk)
	defer span.End()

	co := chunkOptions{}
	for _, opt := range opts {
		opt(&co)
	}
	ts := co.at
	if ts.IsZero() {
		ts = p.opts.clock()
	}

	began := time.Now()
	m := analysis.AnalyzeChunk(chunk)
	elapsed := time.Since(began)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		m.Timestamp = ts
		p.log.Warn("chunk received after close; not recorded")
		return m
	}
	if !p.lastChunk.IsZero() && ts.Before(p.lastChunk) {
		ts = p.lastChunk
	}
	p.lastChunk = ts
	m.Index = len(p.history)
	m.Timestamp = ts

	dur := chunkSeconds(chunk.DurationSeconds)
	m.DurationSeconds = dur
	if text := strings.TrimSpace(chunk.Transcript); text != "" {
		p.appendTranscriptLocked(text, dur, ts)
	}
	p.history = append(p.history, m)
	if m.Energy.EnergyNormalized > talkEnergyThreshold {
		p.talkTime += dur
	}

	if p.state != StateRunning {
		p.state = StateRunning
		p.start = ts
		p.last = ts
	}
	end := ts.Add(time.Duration(dur * float64(time.Second)))

	var (
		window string
		gen    uint64
		fire   bool
		jobCtx context.Context
	)
	if end.Sub(p.last) >= p.cfg.SentimentInterval {
		p.last = end
		window = p.windowLocked()
		gen = p.generation
		if window != "" {
			fire = true
			jobCtx = p.jobCtx
			p.inflight.Add(1)
		}
	}
	p.mu.Unlock()

	observability.SetSpanAttribute(ctx, observability.AttrSessionID, p.opts.sessionID)
	observability.SetSpanAttribute(ctx, observability.AttrChunkIndex, m.Index)
	if p.opts.metrics != nil {
		p.opts.metrics.RecordChunk(ctx, p.opts.sessionID, elapsed)
	}
	p.log.Debug("chunk processed", logger.Fields(
		logger.FieldChunkIndex, m.Index,
		logger.FieldDuration, elapsed.Milliseconds(),
	))
	p.emitFast(m)

	if fire {
		link := trace.LinkFromContext(ctx)
		go func() {
			defer p.inflight.Done()
			p.runCheckpoint(jobCtx, link, window, gen, ts)
		}()
	}
	return m
}

// chunkSeconds treats negative and non-finite durations as zero.
func chunkSeconds(d float64) float64 {
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return 0
	}
	return d
}

// Flush evaluates the current transcript window synchronously, regardless
// of the interval. It reports false when the window is empty, the pipeline
// is closed, or a reset happened during evaluation. Reset and Close cancel
// the evaluation like a background checkpoint, and Close waits for it.
func (p *Pipeline) Flush(ctx context.Context, opts ...ChunkOption) (Checkpoint, bool) {
	co := chunkOptions{}
	for _, opt := range opts {
		opt(&co)
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return Checkpoint{}, false
	}
	ts := co.at
	if ts.IsZero() {
		ts = p.lastChunk
		if ts.IsZero() {
			ts = p.opts.clock()
		}
	}
	window := p.windowLocked()
	if window == "" {
		p.mu.Unlock()
		return Checkpoint{}, false
	}
	gen := p.generation
	jobCtx := p.jobCtx
	p.last = ts
	p.inflight.Add(1)
	p.mu.Unlock()
	defer p.inflight.Done()

	evalCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(jobCtx, cancel)
	defer stop()
	return p.runCheckpoint(evalCtx, trace.LinkFromContext(ctx), window, gen, ts)
}

func (p *Pipeline) runCheckpoint(ctx context.Context, link trace.Link, window string, gen uint64, ts time.Time) (cp Checkpoint, kept bool) {
	ctx, span := observability.StartSpan(ctx, observability.SpanCheckpoint, trace.WithLinks(link))
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrSessionID, p.opts.sessionID)
	observability.SetSpanAttribute(ctx, observability.AttrGeneration, int64(gen))
	observability.SetSpanAttribute(ctx, observability.AttrWindowChars, len([]rune(window)))

	log := p.log.WithContext(ctx).WithFields(logger.Fields(logger.FieldGeneration, gen))
	began := time.Now()
	j := p.evaluate(ctx, window, log)
	elapsed := time.Since(began)

	cp = Checkpoint{
		Timestamp:         ts,
		Judgment:          j,
		TranscriptSegment: window,
		SegmentLength:     len([]rune(window)),
	}

	p.mu.Lock()
	if p.closed || gen != p.generation {
		p.mu.Unlock()
		if p.opts.metrics != nil {
			p.opts.metrics.RecordDiscardedCheckpoint(ctx, p.opts.sessionID)
		}
		log.Info("discarding checkpoint from previous generation")
		return Checkpoint{}, false
	}
	p.checkpoints = append(p.checkpoints, cp)
	p.mu.Unlock()

	status := "ok"
	if j.Error != "" {
		status = "fallback"
		observability.SetSpanError(ctx, fmt.Errorf("%s", j.Error))
	}
	if p.opts.metrics != nil {
		p.opts.metrics.RecordCheckpoint(ctx, p.opts.sessionID, status, elapsed)
	}
	log.Info("checkpoint recorded", logger.Fields(
		logger.FieldStatus, status,
		logger.FieldWindowChars, cp.SegmentLength,
		logger.FieldDuration, elapsed.Milliseconds(),
	))
	p.emitCheckpoint(cp)
	return cp, true
}

// evaluate shields the pipeline from evaluator panics.
func (p *Pipeline) evaluate(ctx context.Context, window string, log *logger.Logger) (j tone.Judgment) {
	defer func() {
		if r := recover(); r != nil {
			err := errors.CheckpointFailed(fmt.Errorf("evaluator panic: %v", r))
			log.Error("tone evaluator panicked", logger.ErrorFields("evaluate", err))
			j = tone.Failed(err)
		}
	}()
	return p.eval.Evaluate(ctx, window).Normalize()
}

// Reset clears history, transcript and checkpoints. In-flight checkpoints
// are cancelled and their results discarded.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generation++
	p.cancelJob()
	p.jobCtx, p.cancelJob = context.WithCancel(context.Background())
	p.history = nil
	p.buffer = nil
	p.segments = nil
	p.checkpoints = nil
	p.talkTime = 0
	p.start = time.Time{}
	p.last = time.Time{}
	p.lastChunk = time.Time{}
	p.state = StateReset
	p.log.Info("pipeline reset", logger.Fields(logger.FieldGeneration, p.generation))
}

// Close stops accepting work, cancels in-flight checkpoints and waits for
// them to return or for ctx to end.
func (p *Pipeline) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.generation++
	p.cancelJob()
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Timeout("close session").WithCause(ctx.Err())
	}
}

// Wait blocks until all in-flight checkpoints have finished.
func (p *Pipeline) Wait() {
	p.inflight.Wait()
}

// State returns the lifecycle state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Generation returns the reset counter. Checkpoints started under an older
// generation are discarded.
func (p *Pipeline) Generation() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation
}

// FastMetrics returns a copy of the chunk history.
func (p *Pipeline) FastMetrics() []analysis.FastMetrics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]analysis.FastMetrics(nil), p.history...)
}

// Checkpoints returns a copy of the recorded checkpoints.
func (p *Pipeline) Checkpoints() []Checkpoint {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Checkpoint(nil), p.checkpoints...)
}

// TranscriptBuffer returns the bounded rolling transcript.
func (p *Pipeline) TranscriptBuffer() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return string(p.buffer)
}

// TranscriptWindow returns the text the next checkpoint would evaluate.
func (p *Pipeline) TranscriptWindow() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.windowLocked()
}

// Summary aggregates the chunk history and checkpoints.
func (p *Pipeline) Summary() Summary {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Summary{
		TotalChunks:          len(p.history),
		SentimentCheckpoints: len(p.checkpoints),
		TalkTimeSeconds:      p.talkTime,
	}
	if n := len(p.checkpoints); n > 0 {
		last := p.checkpoints[n-1]
		s.LastSentiment = &last
	}
	if len(p.history) == 0 {
		return s
	}

	pitch := make([]float64, len(p.history))
	energy := make([]float64, len(p.history))
	filler := make([]float64, len(p.history))
	var wpm []float64
	for i, m := range p.history {
		pitch[i] = m.Pitch.PitchVariance
		energy[i] = m.Energy.RMSMean
		filler[i] = m.Filler.FillerRate
		if m.WPM.WPM > 0 {
			wpm = append(wpm, float64(m.WPM.WPM))
		}
	}
	s.AveragePitchVariance = stat.Mean(pitch, nil)
	s.AverageEnergy = stat.Mean(energy, nil)
	s.AverageFillerRate = stat.Mean(filler, nil)
	if len(wpm) > 0 {
		s.AverageWPM = stat.Mean(wpm, nil)
	}
	return s
}

// ApplyTranscript back-fills the filler and rate metrics of already
// processed chunks from a transcript that covers all of them. Pitch and
// energy are left untouched. Unknown indices are reported in a
// CHUNK_NOT_FOUND error after the known ones are updated.
func (p *Pipeline) ApplyTranscript(indices []int, transcript string, durationSeconds float64, timings []speech.WordTiming) error {
	filler, wpm := analysis.Rescore(transcript, durationSeconds, timings)

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.applyLocked(indices, filler, wpm)
}

// applyBatch back-fills the chunks of a transcription batch and appends its
// text as one segment, both only if the pipeline is still in generation gen.
// It reports false when the batch was started before a Reset or Close.
func (p *Pipeline) applyBatch(gen uint64, indices []int, text string, batchSeconds, segmentSeconds float64, ts time.Time, timings []speech.WordTiming) (bool, error) {
	filler, wpm := analysis.Rescore(text, batchSeconds, timings)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || gen != p.generation {
		return false, nil
	}
	err := p.applyLocked(indices, filler, wpm)
	p.appendTranscriptLocked(text, segmentSeconds, ts)
	return true, err
}

func (p *Pipeline) applyLocked(indices []int, filler speech.FillerStats, wpm speech.RateStats) error {
	var missing []int
	for _, i := range indices {
		if i < 0 || i >= len(p.history) {
			missing = append(missing, i)
			continue
		}
		p.history[i].Filler = filler
		p.history[i].WPM = wpm
	}
	if len(missing) > 0 {
		sort.Ints(missing)
		return errors.ChunkNotFound(missing, len(p.history))
	}
	return nil
}

// AppendTranscript adds late transcript text to the rolling buffer and the
// checkpoint segments. Blank text is ignored.
func (p *Pipeline) AppendTranscript(text string, durationSeconds float64, ts time.Time) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.appendTranscriptLocked(text, durationSeconds, ts)
}

func (p *Pipeline) appendTranscriptLocked(text string, durationSeconds float64, ts time.Time) {
	if len(p.buffer) > 0 {
		p.buffer = append(p.buffer, ' ')
	}
	p.buffer = append(p.buffer, []rune(text)...)
	if over := len(p.buffer) - p.cfg.TranscriptBufferChars; over > 0 {
		p.buffer = append([]rune(nil), p.buffer[over:]...)
	}
	p.segments = append(p.segments, TranscriptSegment{
		Text:            text,
		Timestamp:       ts,
		DurationSeconds: durationSeconds,
	})
}

// windowLocked walks segments newest first until their durations cover the
// checkpoint window. The newest segment is always included.
func (p *Pipeline) windowLocked() string {
	limit := p.cfg.CheckpointWindow.Seconds()
	var (
		parts []string
		total float64
	)
	for i := len(p.segments) - 1; i >= 0; i-- {
		if total >= limit {
			break
		}
		parts = append(parts, p.segments[i].Text)
		total += p.segments[i].DurationSeconds
	}
	for l, r := 0, len(parts)-1; l < r; l, r = l+1, r-1 {
		parts[l], parts[r] = parts[r], parts[l]
	}
	return strings.Join(parts, " ")
}

func (p *Pipeline) emitFast(m analysis.FastMetrics) {
	if p.opts.onFast != nil {
		p.safeCall("fast_metrics_callback", func() { p.opts.onFast(m) })
	}
	if p.opts.fastCh != nil {
		select {
		case p.opts.fastCh <- m:
		default:
			p.log.Warn("fast metrics channel full; dropping", logger.Fields(logger.FieldChunkIndex, m.Index))
		}
	}
}

func (p *Pipeline) emitCheckpoint(cp Checkpoint) {
	if p.opts.onCheckpoint != nil {
		p.safeCall("checkpoint_callback", func() { p.opts.onCheckpoint(cp) })
	}
	if p.opts.checkpointCh != nil {
		select {
		case p.opts.checkpointCh <- cp:
		default:
			p.log.Warn("checkpoint channel full; dropping")
		}
	}
}

func (p *Pipeline) safeCall(op string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("listener panicked", logger.Fields(
				logger.FieldOperation, op,
				logger.FieldError, fmt.Sprint(r),
			))
		}
	}()
	fn()
}
