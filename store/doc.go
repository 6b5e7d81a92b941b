// Package store archives analysed lectures in SQLite through gorm.
//
// A lecture is recorded as active when its session opens, collects tone
// feedback while it runs and is marked ended once its chunk history and
// summary are written. The schema is versioned with golang-migrate using
// SQL files embedded in the binary.
//
//	s, err := store.Open(ctx, store.Config{Path: "voicepulse.db"}, log)
//	err = s.BeginLecture(ctx, store.Start{SessionID: id, StartedAt: t0})
//	err = s.AppendFeedback(ctx, id, checkpoint)
//	err = s.FinishLecture(ctx, id, store.Result{Summary: p.Summary(), Chunks: p.FastMetrics()})
package store
