package session

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/voicepulse/analysis"
	"github.com/kbukum/voicepulse/logger"
	"github.com/kbukum/voicepulse/provider"
	"github.com/kbukum/voicepulse/transcription"
)

type fakeTranscriber struct {
	mu       sync.Mutex
	requests []transcription.TranscriptionRequest
	respond  func(req transcription.TranscriptionRequest) (*transcription.TranscriptionResponse, error)
	calls    atomic.Int32
}

func (f *fakeTranscriber) asProvider() transcription.Provider {
	return transcription.FromRequestResponse(provider.Func("fake",
		func(ctx context.Context, req transcription.TranscriptionRequest) (*transcription.TranscriptionResponse, error) {
			f.calls.Add(1)
			f.mu.Lock()
			f.requests = append(f.requests, req)
			f.mu.Unlock()
			return f.respond(req)
		}))
}

func feed(t *testing.T, p *Pipeline, b *Batcher, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		c := chunk("")
		m := p.ProcessChunk(ctx, c, AtTime(t0.Add(time.Duration(2*i)*time.Second)))
		b.Add(ctx, m, c.Samples, c.SampleRate)
	}
}

func TestBatcher_BackfillsChunks(t *testing.T) {
	ft := &fakeTranscriber{respond: func(req transcription.TranscriptionRequest) (*transcription.TranscriptionResponse, error) {
		if strings.HasSuffix(req.FileName, "batch-1.flac") {
			return &transcription.TranscriptionResponse{Text: "  um so the the the gradient points  "}, nil
		}
		return &transcription.TranscriptionResponse{Text: "right"}, nil
	}}
	p := newTestPipeline(nil, WithSessionID("lecture-7"))
	b := NewBatcher(p, ft.asProvider(), BatcherConfig{}, WithLogger(logger.Nop()))

	feed(t, p, b, 6)
	if err := b.Flush(context.Background()); err != nil {
		t.Fatalf("unexpected flush error: %v", err)
	}

	if n := ft.calls.Load(); n != 2 {
		t.Fatalf("expected 2 transcription calls, got %d", n)
	}
	if got := b.Transcript(); got != "um so the the the gradient points right" {
		t.Errorf("unexpected lecture transcript %q", got)
	}

	metrics := p.FastMetrics()
	for i := 0; i < 5; i++ {
		if metrics[i].Filler.RepetitionPenalty == 0 {
			t.Errorf("chunk %d: expected repetition from batch transcript", i)
		}
		// 7 words over 10s.
		if metrics[i].WPM.WPM != 42 {
			t.Errorf("chunk %d: expected 42 wpm, got %d", i, metrics[i].WPM.WPM)
		}
	}
	if metrics[5].Filler.TotalWords != 1 {
		t.Errorf("expected final batch on chunk 5, got %+v", metrics[5].Filler)
	}

	if got := p.TranscriptBuffer(); got != "um so the the the gradient points right" {
		t.Errorf("unexpected buffer %q", got)
	}

	ft.mu.Lock()
	defer ft.mu.Unlock()
	req := ft.requests[0]
	if req.FileName != "lecture-7-batch-1.flac" {
		req = ft.requests[1]
	}
	if req.FileName != "lecture-7-batch-1.flac" {
		t.Errorf("unexpected file name %q", req.FileName)
	}
	if !bytes.HasPrefix(req.Audio, []byte("fLaC")) {
		t.Error("expected FLAC encoded batch audio")
	}
}

func TestBatcher_PreservesOrder(t *testing.T) {
	ft := &fakeTranscriber{respond: func(req transcription.TranscriptionRequest) (*transcription.TranscriptionResponse, error) {
		var seq int
		if _, err := fmt.Sscanf(req.FileName, "batch-%d.flac", &seq); err != nil {
			return nil, err
		}
		if seq == 1 {
			time.Sleep(50 * time.Millisecond)
		}
		return &transcription.TranscriptionResponse{Text: fmt.Sprintf("part%d", seq)}, nil
	}}
	p := newTestPipeline(nil)
	b := NewBatcher(p, ft.asProvider(), BatcherConfig{
		BatchDuration: 2 * time.Second,
		MaxInFlight:   3,
	}, WithLogger(logger.Nop()))

	feed(t, p, b, 3)
	if err := b.Flush(context.Background()); err != nil {
		t.Fatalf("unexpected flush error: %v", err)
	}
	if got := b.Transcript(); got != "part1 part2 part3" {
		t.Errorf("expected batches applied in order, got %q", got)
	}
}

func TestBatcher_FailureDropsBatch(t *testing.T) {
	ft := &fakeTranscriber{respond: func(req transcription.TranscriptionRequest) (*transcription.TranscriptionResponse, error) {
		if req.FileName == "batch-1.flac" {
			return nil, fmt.Errorf("backend down")
		}
		return &transcription.TranscriptionResponse{Text: "like okay"}, nil
	}}
	p := newTestPipeline(nil)
	b := NewBatcher(p, ft.asProvider(), BatcherConfig{BatchDuration: 4 * time.Second}, WithLogger(logger.Nop()))

	feed(t, p, b, 4)
	if err := b.Flush(context.Background()); err != nil {
		t.Fatalf("unexpected flush error: %v", err)
	}
	metrics := p.FastMetrics()
	if metrics[0].Filler.TotalWords != 0 || metrics[1].Filler.TotalWords != 0 {
		t.Error("expected failed batch to leave chunks 0-1 untouched")
	}
	if metrics[2].Filler.FillerCount == 0 {
		t.Error("expected second batch to be applied")
	}
	if got := b.Transcript(); got != "like okay" {
		t.Errorf("unexpected transcript %q", got)
	}
}

func TestBatcher_EmptyTranscriptSkipped(t *testing.T) {
	ft := &fakeTranscriber{respond: func(transcription.TranscriptionRequest) (*transcription.TranscriptionResponse, error) {
		return &transcription.TranscriptionResponse{Text: "   "}, nil
	}}
	p := newTestPipeline(nil)
	b := NewBatcher(p, ft.asProvider(), BatcherConfig{}, WithLogger(logger.Nop()))
	feed(t, p, b, 2)
	if err := b.Flush(context.Background()); err != nil {
		t.Fatalf("unexpected flush error: %v", err)
	}
	if b.Transcript() != "" || p.TranscriptBuffer() != "" {
		t.Error("expected blank transcription to be ignored")
	}
	if ft.calls.Load() != 1 {
		t.Errorf("expected a single partial batch, got %d calls", ft.calls.Load())
	}
}

func TestBatcher_Add(t *testing.T) {
	ft := &fakeTranscriber{respond: func(transcription.TranscriptionRequest) (*transcription.TranscriptionResponse, error) {
		return &transcription.TranscriptionResponse{Text: "ok"}, nil
	}}
	p := newTestPipeline(nil)
	b := NewBatcher(p, ft.asProvider(), BatcherConfig{BatchDuration: 4 * time.Second}, WithLogger(logger.Nop()))
	ctx := context.Background()

	m := p.ProcessChunk(ctx, chunk(""), AtTime(t0))
	if b.Add(ctx, m, make([]float64, 100), analysis.DefaultSampleRate) {
		t.Error("expected first chunk to stay buffered")
	}
	m = p.ProcessChunk(ctx, chunk(""), AtTime(t0.Add(2*time.Second)))
	if !b.Add(ctx, m, make([]float64, 100), 16000) {
		t.Error("expected second chunk to complete the batch")
	}
	if err := b.Flush(ctx); err != nil {
		t.Fatalf("unexpected flush error: %v", err)
	}
}

func TestBatcher_DiscardsBatchFromBeforeReset(t *testing.T) {
	release := make(chan struct{})
	ft := &fakeTranscriber{respond: func(req transcription.TranscriptionRequest) (*transcription.TranscriptionResponse, error) {
		if strings.HasSuffix(req.FileName, "batch-1.flac") {
			<-release
			return &transcription.TranscriptionResponse{Text: "um um um like so well basically"}, nil
		}
		return &transcription.TranscriptionResponse{Text: "fresh start"}, nil
	}}
	p := newTestPipeline(nil)
	b := NewBatcher(p, ft.asProvider(), BatcherConfig{}, WithLogger(logger.Nop()))
	ctx := context.Background()

	// Five 2s chunks fill the first batch, which blocks in transcription.
	feed(t, p, b, 5)
	p.Reset()
	c := chunk("")
	m := p.ProcessChunk(ctx, c, AtTime(t0.Add(time.Minute)))
	b.Add(ctx, m, c.Samples, c.SampleRate)
	close(release)
	if err := b.Flush(ctx); err != nil {
		t.Fatalf("unexpected flush error: %v", err)
	}

	metrics := p.FastMetrics()
	if len(metrics) != 1 {
		t.Fatalf("expected 1 chunk after reset, got %d", len(metrics))
	}
	if got := metrics[0].Filler; got.FillerCount != 0 || got.TotalWords != 2 {
		t.Errorf("expected chunk 0 scored from the new batch only, got %+v", got)
	}
	if got := p.TranscriptWindow(); got != "fresh start" {
		t.Errorf("expected window without pre-reset text, got %q", got)
	}
	if got := b.Transcript(); got != "fresh start" {
		t.Errorf("expected lecture transcript without pre-reset text, got %q", got)
	}
}

func TestBatcher_DropsPartialBatchOnReset(t *testing.T) {
	ft := &fakeTranscriber{respond: func(req transcription.TranscriptionRequest) (*transcription.TranscriptionResponse, error) {
		return &transcription.TranscriptionResponse{Text: "hello again"}, nil
	}}
	p := newTestPipeline(nil)
	b := NewBatcher(p, ft.asProvider(), BatcherConfig{}, WithLogger(logger.Nop()))
	ctx := context.Background()

	feed(t, p, b, 2)
	p.Reset()
	feed(t, p, b, 1)
	if err := b.Flush(ctx); err != nil {
		t.Fatalf("unexpected flush error: %v", err)
	}

	if n := ft.calls.Load(); n != 1 {
		t.Fatalf("expected only the post-reset batch to be transcribed, got %d calls", n)
	}
	// The batch is the single 2s chunk fed after the reset.
	if got := p.FastMetrics()[0].WPM.WPM; got != 60 {
		t.Errorf("expected 2 words over 2s, got %d wpm", got)
	}
}
