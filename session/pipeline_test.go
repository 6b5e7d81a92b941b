package session

import (
	"context"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/voicepulse/analysis"
	"github.com/kbukum/voicepulse/errors"
	"github.com/kbukum/voicepulse/logger"
	"github.com/kbukum/voicepulse/tone"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type countingEvaluator struct {
	calls   atomic.Int32
	mu      sync.Mutex
	windows []string
}

func (e *countingEvaluator) Evaluate(_ context.Context, text string) tone.Judgment {
	e.calls.Add(1)
	e.mu.Lock()
	e.windows = append(e.windows, text)
	e.mu.Unlock()
	return tone.Judgment{SentimentScore: 0.6, SentimentLabel: "Positive", Confidence: 0.9, ToneDescription: "warm"}
}

func tone220(seconds float64) []float64 {
	n := int(seconds * analysis.DefaultSampleRate)
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.5 * math.Sin(2*math.Pi*220*float64(i)/analysis.DefaultSampleRate)
	}
	return out
}

func chunk(transcript string) analysis.Chunk {
	return analysis.Chunk{
		Samples:         make([]float64, 2048),
		SampleRate:      analysis.DefaultSampleRate,
		DurationSeconds: 2,
		Transcript:      transcript,
	}
}

func newTestPipeline(eval tone.Evaluator, opts ...Option) *Pipeline {
	opts = append([]Option{WithLogger(logger.Nop())}, opts...)
	return NewPipeline(DefaultPipelineConfig(), eval, opts...)
}

func TestPipeline_CheckpointTrigger(t *testing.T) {
	eval := &countingEvaluator{}
	p := newTestPipeline(eval)
	ctx := context.Background()

	// Five 2s chunks cover 10s of audio.
	for i := 0; i < 5; i++ {
		p.ProcessChunk(ctx, chunk("so today we talk"), AtTime(t0.Add(time.Duration(2*i)*time.Second)))
	}
	p.Wait()
	if n := eval.calls.Load(); n != 0 {
		t.Fatalf("expected no checkpoint before the interval, got %d", n)
	}

	// The sixth chunk ends at 12s.
	p.ProcessChunk(ctx, chunk("about entropy"), AtTime(t0.Add(10*time.Second)))
	p.Wait()

	cps := p.Checkpoints()
	if len(cps) != 1 {
		t.Fatalf("expected 1 checkpoint, got %d", len(cps))
	}
	cp := cps[0]
	if !cp.Timestamp.Equal(t0.Add(10 * time.Second)) {
		t.Errorf("expected checkpoint at trigger chunk time, got %v", cp.Timestamp)
	}
	if cp.SentimentLabel != tone.LabelPositive {
		t.Errorf("expected normalized label positive, got %q", cp.SentimentLabel)
	}
	if !strings.HasSuffix(cp.TranscriptSegment, "about entropy") {
		t.Errorf("expected window to end with newest segment, got %q", cp.TranscriptSegment)
	}
	if cp.SegmentLength != len([]rune(cp.TranscriptSegment)) {
		t.Errorf("expected segment length %d, got %d", len([]rune(cp.TranscriptSegment)), cp.SegmentLength)
	}

	// Timer restarts from the end of the trigger chunk.
	p.ProcessChunk(ctx, chunk("more"), AtTime(t0.Add(20*time.Second)))
	p.Wait()
	if n := eval.calls.Load(); n != 1 {
		t.Errorf("expected 1 evaluation 10s after the checkpoint, got %d", n)
	}
	p.ProcessChunk(ctx, chunk("more"), AtTime(t0.Add(22*time.Second)))
	p.Wait()
	if n := eval.calls.Load(); n != 2 {
		t.Errorf("expected 2 evaluations, got %d", n)
	}
}

func TestPipeline_IntervalOfAudioTriggersCheckpoint(t *testing.T) {
	interval := DefaultPipelineConfig().SentimentInterval.Seconds()
	for _, d := range []float64{2, 2.5, 3, 3.5, 12, 20} {
		n := int(math.Ceil(interval / d))
		eval := &countingEvaluator{}
		p := newTestPipeline(eval)
		ctx := context.Background()
		for i := 0; i < n; i++ {
			c := chunk("and that is the key idea")
			c.DurationSeconds = d
			p.ProcessChunk(ctx, c, AtTime(t0.Add(time.Duration(float64(i)*d*float64(time.Second)))))
		}
		p.Wait()
		if got := eval.calls.Load(); got < 1 {
			t.Errorf("%d chunks of %vs: expected at least one checkpoint, got %d", n, d, got)
		}
		if got := p.Summary().TotalChunks; got != n {
			t.Errorf("%d chunks of %vs: expected %d total chunks, got %d", n, d, n, got)
		}
	}
}

func TestPipeline_NonFiniteDuration(t *testing.T) {
	p := newTestPipeline(nil)
	c := chunk("hello there")
	c.DurationSeconds = math.NaN()
	m := p.ProcessChunk(context.Background(), c, AtTime(t0))
	if m.DurationSeconds != 0 || m.WPM.DurationSeconds != 0 {
		t.Errorf("expected NaN duration to degrade to zero, got %v and %v", m.DurationSeconds, m.WPM.DurationSeconds)
	}
	if s := p.Summary(); math.IsNaN(s.TalkTimeSeconds) || math.IsNaN(s.AverageEnergy) {
		t.Errorf("expected finite summary, got %+v", s)
	}
}

func TestPipeline_WindowCoversCheckpointDuration(t *testing.T) {
	p := newTestPipeline(nil)
	for i := 0; i < 10; i++ {
		p.AppendTranscript(string(rune('a'+i)), 2, t0)
	}
	// 15s of 2s segments needs the newest eight.
	if got := p.TranscriptWindow(); got != "c d e f g h i j" {
		t.Errorf("unexpected window %q", got)
	}

	long := newTestPipeline(nil)
	long.AppendTranscript("older", 2, t0)
	long.AppendTranscript("a whole batch", 30, t0)
	if got := long.TranscriptWindow(); got != "a whole batch" {
		t.Errorf("expected newest segment alone, got %q", got)
	}
}

func TestPipeline_EmptyWindowSkipsCheckpoint(t *testing.T) {
	eval := &countingEvaluator{}
	p := newTestPipeline(eval)
	ctx := context.Background()
	for i := 0; i <= 10; i++ {
		p.ProcessChunk(ctx, chunk(""), AtTime(t0.Add(time.Duration(2*i)*time.Second)))
	}
	p.Wait()
	if n := eval.calls.Load(); n != 0 {
		t.Errorf("expected no evaluation for silent lecture, got %d", n)
	}
	if _, ok := p.Flush(ctx); ok {
		t.Error("expected Flush to report nothing to evaluate")
	}
}

func TestPipeline_ResetDiscardsInFlightCheckpoint(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	eval := tone.EvaluatorFunc(func(ctx context.Context, text string) tone.Judgment {
		close(started)
		<-release
		return tone.Judgment{SentimentLabel: "negative", Confidence: 1}
	})
	var delivered atomic.Int32
	p := newTestPipeline(eval, WithCheckpointCallback(func(Checkpoint) { delivered.Add(1) }))
	ctx := context.Background()

	p.ProcessChunk(ctx, chunk("first words"), AtTime(t0))
	p.ProcessChunk(ctx, chunk("later words"), AtTime(t0.Add(12*time.Second)))
	<-started

	genBefore := p.Generation()
	p.Reset()
	close(release)
	p.Wait()

	if p.Generation() != genBefore+1 {
		t.Errorf("expected generation %d, got %d", genBefore+1, p.Generation())
	}
	if n := len(p.Checkpoints()); n != 0 {
		t.Errorf("expected stale checkpoint to be discarded, got %d", n)
	}
	if delivered.Load() != 0 {
		t.Error("expected no callback for discarded checkpoint")
	}
	if s := p.Summary(); s.TotalChunks != 0 || s.SentimentCheckpoints != 0 || s.LastSentiment != nil {
		t.Errorf("expected empty summary after reset, got %+v", s)
	}
	if p.State() != StateReset {
		t.Errorf("expected state reset, got %s", p.State())
	}
	if p.TranscriptBuffer() != "" {
		t.Errorf("expected empty buffer, got %q", p.TranscriptBuffer())
	}
}

func TestPipeline_ResetRestartsTimer(t *testing.T) {
	eval := &countingEvaluator{}
	p := newTestPipeline(eval)
	ctx := context.Background()

	p.ProcessChunk(ctx, chunk("one"), AtTime(t0))
	p.Reset()
	p.ProcessChunk(ctx, chunk("two"), AtTime(t0.Add(20*time.Second)))
	p.Wait()
	if n := eval.calls.Load(); n != 0 {
		t.Errorf("expected first chunk after reset to arm the timer, got %d evaluations", n)
	}
	if p.State() != StateRunning {
		t.Errorf("expected running, got %s", p.State())
	}
}

func TestPipeline_ApplyTranscriptKeepsAcoustics(t *testing.T) {
	p := newTestPipeline(nil)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		p.ProcessChunk(ctx, analysis.Chunk{
			Samples:         tone220(0.5),
			SampleRate:      analysis.DefaultSampleRate,
			DurationSeconds: 2,
		}, AtTime(t0.Add(time.Duration(2*i)*time.Second)))
	}
	before := p.FastMetrics()

	if err := p.ApplyTranscript([]int{0, 1, 2}, "um so like the gradient points", 6, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	after := p.FastMetrics()
	for i := range after {
		if after[i].Pitch != before[i].Pitch {
			t.Errorf("chunk %d: pitch changed after transcript update", i)
		}
		if after[i].Energy != before[i].Energy {
			t.Errorf("chunk %d: energy changed after transcript update", i)
		}
		if after[i].Filler.FillerCount == 0 {
			t.Errorf("chunk %d: expected filler count from transcript", i)
		}
		if after[i].WPM.WPM != 60 {
			t.Errorf("chunk %d: expected 60 wpm over 6s, got %d", i, after[i].WPM.WPM)
		}
	}
}

func TestPipeline_ApplyTranscriptUnknownChunks(t *testing.T) {
	p := newTestPipeline(nil)
	ctx := context.Background()
	p.ProcessChunk(ctx, chunk(""), AtTime(t0))
	p.ProcessChunk(ctx, chunk(""), AtTime(t0.Add(2*time.Second)))

	err := p.ApplyTranscript([]int{9, 1, -1}, "um right", 2, nil)
	if !errors.HasCode(err, errors.ErrCodeChunkNotFound) {
		t.Fatalf("expected CHUNK_NOT_FOUND, got %v", err)
	}
	if got := p.FastMetrics()[1].Filler.FillerCount; got == 0 {
		t.Error("expected known index to be updated despite error")
	}
	if got := p.FastMetrics()[0].Filler.FillerCount; got != 0 {
		t.Errorf("expected untouched chunk 0, got %d", got)
	}
}

func TestPipeline_SummaryAveragesSpokenChunks(t *testing.T) {
	p := newTestPipeline(nil)
	ctx := context.Background()
	p.ProcessChunk(ctx, chunk("one two three four"), AtTime(t0))
	p.ProcessChunk(ctx, chunk(""), AtTime(t0.Add(2*time.Second)))
	p.ProcessChunk(ctx, chunk("one two"), AtTime(t0.Add(4*time.Second)))

	s := p.Summary()
	if s.TotalChunks != 3 {
		t.Errorf("expected 3 chunks, got %d", s.TotalChunks)
	}
	if s.AverageWPM != 90 {
		t.Errorf("expected average wpm 90 over spoken chunks, got %v", s.AverageWPM)
	}
	if s.LastSentiment != nil {
		t.Error("expected no last sentiment without checkpoints")
	}
}

func TestPipeline_EmptySummary(t *testing.T) {
	s := newTestPipeline(nil).Summary()
	if s != (Summary{}) {
		t.Errorf("expected zero summary, got %+v", s)
	}
}

func TestPipeline_TalkTime(t *testing.T) {
	p := newTestPipeline(nil)
	ctx := context.Background()
	p.ProcessChunk(ctx, analysis.Chunk{Samples: tone220(0.5), DurationSeconds: 2}, AtTime(t0))
	p.ProcessChunk(ctx, chunk(""), AtTime(t0.Add(2*time.Second)))
	if got := p.Summary().TalkTimeSeconds; got != 2 {
		t.Errorf("expected 2s of talk time, got %v", got)
	}
}

func TestPipeline_TranscriptBufferBounded(t *testing.T) {
	p := NewPipeline(PipelineConfig{TranscriptBufferChars: 10}, nil, WithLogger(logger.Nop()))
	p.AppendTranscript("abcdef", 2, t0)
	p.AppendTranscript("ghijkl", 2, t0)
	if got := p.TranscriptBuffer(); got != "def ghijkl" {
		t.Errorf("expected last 10 runes, got %q", got)
	}
}

func TestPipeline_TimestampsClamped(t *testing.T) {
	p := newTestPipeline(nil)
	ctx := context.Background()
	p.ProcessChunk(ctx, chunk(""), AtTime(t0.Add(10*time.Second)))
	m := p.ProcessChunk(ctx, chunk(""), AtTime(t0))
	if !m.Timestamp.Equal(t0.Add(10 * time.Second)) {
		t.Errorf("expected clamped timestamp, got %v", m.Timestamp)
	}
	if m.Index != 1 {
		t.Errorf("expected index 1, got %d", m.Index)
	}
}

func TestPipeline_ListenersNeverBlock(t *testing.T) {
	fast := make(chan analysis.FastMetrics)
	p := newTestPipeline(nil,
		WithFastMetricsCallback(func(analysis.FastMetrics) { panic("listener bug") }),
		WithFastMetricsChannel(fast),
	)
	done := make(chan struct{})
	go func() {
		p.ProcessChunk(context.Background(), chunk("hello"), AtTime(t0))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("ProcessChunk blocked on a listener")
	}
	if n := len(p.FastMetrics()); n != 1 {
		t.Errorf("expected chunk recorded despite listener panic, got %d", n)
	}
}

func TestPipeline_CheckpointChannel(t *testing.T) {
	ch := make(chan Checkpoint, 1)
	p := newTestPipeline(&countingEvaluator{}, WithCheckpointChannel(ch))
	ctx := context.Background()
	p.ProcessChunk(ctx, chunk("hello class"), AtTime(t0))
	cp, ok := p.Flush(ctx)
	if !ok {
		t.Fatal("expected flush checkpoint")
	}
	select {
	case got := <-ch:
		if got.TranscriptSegment != cp.TranscriptSegment {
			t.Errorf("expected %q, got %q", cp.TranscriptSegment, got.TranscriptSegment)
		}
	default:
		t.Error("expected checkpoint on channel")
	}
}

func TestPipeline_EvaluatorPanicFallsBack(t *testing.T) {
	p := newTestPipeline(tone.EvaluatorFunc(func(context.Context, string) tone.Judgment {
		panic("provider bug")
	}))
	p.AppendTranscript("some words", 2, t0)
	cp, ok := p.Flush(context.Background())
	if !ok {
		t.Fatal("expected fallback checkpoint to be recorded")
	}
	if cp.SentimentLabel != tone.LabelNeutral || cp.Confidence != 0 {
		t.Errorf("expected neutral fallback, got %+v", cp.Judgment)
	}
	if !strings.Contains(cp.Error, "provider bug") {
		t.Errorf("expected error to mention panic, got %q", cp.Error)
	}
}

func TestPipeline_Close(t *testing.T) {
	p := newTestPipeline(nil)
	ctx := context.Background()
	p.ProcessChunk(ctx, chunk("hello"), AtTime(t0))
	if err := p.Close(ctx); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	m := p.ProcessChunk(ctx, chunk("ignored"), AtTime(t0.Add(time.Second)))
	if m.Filler.TotalWords != 1 {
		t.Errorf("expected metrics still computed after close, got %+v", m.Filler)
	}
	if n := len(p.FastMetrics()); n != 1 {
		t.Errorf("expected history unchanged after close, got %d", n)
	}
	if err := p.Close(ctx); err != nil {
		t.Errorf("expected idempotent close, got %v", err)
	}
}

func TestPipeline_CloseWaitsForFlush(t *testing.T) {
	started := make(chan struct{})
	cancelled := make(chan struct{})
	eval := tone.EvaluatorFunc(func(ctx context.Context, text string) tone.Judgment {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return tone.Failed(ctx.Err())
	})
	p := newTestPipeline(eval)
	p.AppendTranscript("closing remarks", 2, t0)

	flushed := make(chan bool)
	go func() {
		_, ok := p.Flush(context.Background())
		flushed <- ok
	}()
	<-started

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Close(closeCtx); err != nil {
		t.Fatalf("close: %v", err)
	}
	select {
	case <-cancelled:
	default:
		t.Error("expected Close to return only after the flush evaluation ended")
	}
	if ok := <-flushed; ok {
		t.Error("expected flush result to be discarded after close")
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "idle"},
		{StateRunning, "running"},
		{StateReset, "reset"},
		{State(42), "unknown"},
	}
	for _, tc := range tests {
		if got := tc.state.String(); got != tc.want {
			t.Errorf("expected %q, got %q", tc.want, got)
		}
	}
}
