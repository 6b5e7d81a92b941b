package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kbukum/voicepulse/analysis"
	"github.com/kbukum/voicepulse/audio"
	"github.com/kbukum/voicepulse/logger"
	"github.com/kbukum/voicepulse/session"
	"github.com/kbukum/voicepulse/store"
)

type analyzeOptions struct {
	root          *rootOptions
	output        string
	sessionID     string
	startAt       string
	chunkDuration time.Duration
	noTranscribe  bool
	noTone        bool
	noFlush       bool
	noArchive     bool
}

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	opts := &analyzeOptions{root: root}
	cmd := &cobra.Command{
		Use:   "analyze <audio-file>",
		Short: "Analyze a WAV or FLAC lecture recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, opts, args[0])
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", formatYAML, "report format: yaml or json")
	f.StringVar(&opts.sessionID, "session", "", "session id (random when empty)")
	f.StringVar(&opts.startAt, "start", "", "RFC3339 wall time of the first sample (now when empty)")
	f.DurationVar(&opts.chunkDuration, "chunk", 0, "chunk duration (config pipeline.chunk_duration when zero)")
	f.BoolVar(&opts.noTranscribe, "no-transcribe", false, "skip transcription even when configured")
	f.BoolVar(&opts.noTone, "no-tone", false, "skip LLM tone evaluation even when configured")
	f.BoolVar(&opts.noFlush, "no-final-checkpoint", false, "do not evaluate the trailing transcript window")
	f.BoolVar(&opts.noArchive, "no-archive", false, "do not store the lecture even when store.enabled is set")
	return cmd
}

func runAnalyze(cmd *cobra.Command, opts *analyzeOptions, path string) error {
	if err := validateFormat(opts.output); err != nil {
		return err
	}
	start := time.Now().UTC()
	if opts.startAt != "" {
		t, err := time.Parse(time.RFC3339, opts.startAt)
		if err != nil {
			return fmt.Errorf("parse --start: %w", err)
		}
		start = t
	}

	a, err := newApp(opts.root)
	if err != nil {
		return err
	}
	if opts.noTranscribe {
		a.cfg.Transcription.Enabled = false
	}
	if opts.noTone {
		a.cfg.LLM.Enabled = false
	}
	chunkDur := a.cfg.Pipeline.ChunkDuration
	if opts.chunkDuration > 0 {
		chunkDur = opts.chunkDuration
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	clip, err := audio.DecodeFile(path)
	if err != nil {
		return err
	}
	if want := a.cfg.Pipeline.SampleRate; clip.SampleRate != want {
		a.log.Debug("resampling", logger.Fields("from", clip.SampleRate, "to", want))
		clip.Samples = audio.Resample(clip.Samples, clip.SampleRate, want)
		clip.SampleRate = want
	}

	eval, err := a.evaluator()
	if err != nil {
		return err
	}
	tp, err := a.transcriber()
	if err != nil {
		return err
	}

	if a.cfg.Store.Enabled && !opts.noArchive {
		if err := a.enableArchive(); err != nil {
			return err
		}
	}
	sessions := session.NewRegistry(a.pipelineConfig(), eval,
		session.WithLogger(a.log),
		session.WithMetrics(a.metrics),
	)
	if err := a.components.Register(sessions); err != nil {
		return err
	}
	if err := a.start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		a.stop(stopCtx)
	}()
	sessionID := opts.sessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	var sessionOpts []session.Option
	if a.archive != nil {
		sessionOpts = append(sessionOpts, a.archiveFeedback(ctx, sessionID))
	}
	p, err := sessions.Create(ctx, sessionID, sessionOpts...)
	if err != nil {
		return err
	}
	if a.archive != nil {
		if err := a.archive.Store().BeginLecture(ctx, store.Start{
			SessionID:  sessionID,
			Source:     path,
			StartedAt:  start,
			SampleRate: clip.SampleRate,
		}); err != nil {
			return err
		}
	}

	var batcher *session.Batcher
	if tp != nil {
		batcher = session.NewBatcher(p, tp, session.BatcherConfig{
			ChunkDuration: chunkDur,
			BatchDuration: a.cfg.Pipeline.BatchDuration,
			Language:      a.cfg.Transcription.Language,
			WordTimings:   a.cfg.Transcription.WordTimings,
			MaxInFlight:   a.cfg.Transcription.MaxInFlight,
		}, session.WithLogger(a.log))
	}

	chunker := audio.NewChunker(clip, chunkDur)
	defer chunker.Close()
	a.log.Info("analyzing", logger.Fields(
		logger.FieldSessionID, p.SessionID(),
		"file", path,
		"seconds", clip.Seconds(),
		"chunks", chunker.Remaining(),
	))

	offsets := make(map[int]float64)
	for {
		c, ok, err := chunker.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		at := start.Add(time.Duration(c.Offset * float64(time.Second)))
		m := p.ProcessChunk(ctx, c.AnalysisChunk(""), session.AtTime(at))
		offsets[m.Index] = c.Offset
		if batcher != nil {
			batcher.Add(ctx, m, c.Samples, c.SampleRate)
		}
	}

	var transcript string
	if batcher != nil {
		if err := batcher.Flush(ctx); err != nil {
			return err
		}
		transcript = batcher.Transcript()
	}
	p.Wait()
	if !opts.noFlush {
		end := start.Add(clip.Duration())
		p.Flush(ctx, session.AtTime(end))
	}

	rep := buildReport(p, path, clip, offsets, transcript)
	if a.archive != nil {
		if err := a.archive.Store().FinishLecture(ctx, sessionID, store.Result{
			DurationSeconds: rep.DurationSeconds,
			Summary:         rep.Summary,
			Transcript:      transcript,
			Chunks:          p.FastMetrics(),
		}); err != nil {
			return err
		}
	}
	return render(cmd.OutOrStdout(), opts.output, rep)
}

func buildReport(p *session.Pipeline, path string, clip *audio.Clip, offsets map[int]float64, transcript string) report {
	history := p.FastMetrics()
	chunks := make([]chunkReport, len(history))
	for i, m := range history {
		chunks[i] = chunkReport{
			StartSeconds: offsets[m.Index],
			Metrics:      m,
			Delivery:     analysis.DeliveryScores(m),
		}
	}
	return report{
		Session:         p.SessionID(),
		File:            path,
		DurationSeconds: clip.Seconds(),
		SampleRate:      clip.SampleRate,
		Chunks:          chunks,
		Checkpoints:     p.Checkpoints(),
		Summary:         p.Summary(),
		Transcript:      transcript,
	}
}
