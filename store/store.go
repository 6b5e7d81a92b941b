package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kbukum/voicepulse/errors"
	"github.com/kbukum/voicepulse/logger"
	"github.com/kbukum/voicepulse/session"
)

// Store archives lectures in SQLite. It is safe for concurrent use; writes
// go through a single connection.
type Store struct {
	db  *gorm.DB
	cfg Config
	log *logger.Logger

	mu     sync.Mutex
	closed bool
}

// Open connects to the database at cfg.Path and applies pending schema
// migrations.
func Open(ctx context.Context, cfg Config, log *logger.Logger) (*Store, error) {
	cfg.applyDefaults()
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	log = log.WithComponent("store")

	db, err := gorm.Open(sqlite.Open(cfg.dsn()), &gorm.Config{
		Logger:         newGormLog(log, cfg),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Path, err)
	}
	// SQLite has one writer; a single connection also keeps ":memory:"
	// databases from splitting across connections.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Path, err)
	}

	version, err := migrateUp(sqlDB)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	log.Info("lecture archive ready", logger.Fields("path", cfg.Path, "schema_version", version))
	return &Store{db: db, cfg: cfg, log: log}, nil
}

// Close releases the database. Safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// BeginLecture records an active lecture. Archiving the same session id
// twice fails with LECTURE_EXISTS.
func (s *Store) BeginLecture(ctx context.Context, st Start) error {
	if st.SessionID == "" {
		return errors.InvalidInput("session_id", "must not be empty")
	}
	row := lectureRow{
		SessionID:  st.SessionID,
		Source:     st.Source,
		Status:     string(StatusActive),
		StartedAt:  st.StartedAt.UTC(),
		SampleRate: st.SampleRate,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return s.translate("begin lecture", st.SessionID, err)
	}
	return nil
}

// AppendFeedback stores one tone checkpoint of an archived lecture.
func (s *Store) AppendFeedback(ctx context.Context, sessionID string, cp session.Checkpoint) error {
	row := newFeedbackRow(sessionID, cp)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return s.translate("append feedback", sessionID, err)
	}
	return nil
}

// FinishLecture stores the chunk history and summary of a session and marks
// the lecture ended. Chunks stored by an earlier call are replaced.
func (s *Store) FinishLecture(ctx context.Context, sessionID string, res Result) error {
	now := time.Now().UTC()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row lectureRow
		if err := tx.Select("session_id").Take(&row, "session_id = ?", sessionID).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", sessionID).Delete(&chunkRow{}).Error; err != nil {
			return err
		}
		if len(res.Chunks) > 0 {
			rows := make([]chunkRow, len(res.Chunks))
			for i, m := range res.Chunks {
				rows[i] = chunkRow{SessionID: sessionID, ChunkIndex: m.Index, Timestamp: m.Timestamp.UTC(), Metrics: m}
			}
			if err := tx.CreateInBatches(rows, 200).Error; err != nil {
				return err
			}
		}
		return tx.Model(&lectureRow{SessionID: sessionID}).
			Select("status", "finished_at", "duration_seconds", "total_chunks",
				"average_wpm", "talk_time_seconds", "summary", "transcript", "updated_at").
			Updates(lectureRow{
				Status:          string(StatusEnded),
				FinishedAt:      &now,
				DurationSeconds: res.DurationSeconds,
				TotalChunks:     res.Summary.TotalChunks,
				AverageWPM:      res.Summary.AverageWPM,
				TalkTimeSeconds: res.Summary.TalkTimeSeconds,
				Summary:         res.Summary,
				Transcript:      res.Transcript,
			}).Error
	})
	if err != nil {
		return s.translate("finish lecture", sessionID, err)
	}
	s.log.Debug("lecture archived", logger.Fields(
		logger.FieldSessionID, sessionID,
		"chunks", len(res.Chunks),
	))
	return nil
}

// Lecture loads an archived lecture with its chunks in index order and its
// feedback in time order.
func (s *Store) Lecture(ctx context.Context, sessionID string) (*Lecture, error) {
	var row lectureRow
	err := s.db.WithContext(ctx).
		Preload("Chunks", func(db *gorm.DB) *gorm.DB { return db.Order("chunk_index") }).
		Preload("Feedback", func(db *gorm.DB) *gorm.DB { return db.Order("timestamp, id") }).
		Take(&row, "session_id = ?", sessionID).Error
	if err != nil {
		return nil, s.translate("load lecture", sessionID, err)
	}
	l := row.lecture()
	return &l, nil
}

// Lectures lists archived lectures, newest first, without chunks or
// feedback. A limit of zero or less returns all of them.
func (s *Store) Lectures(ctx context.Context, limit int) ([]Lecture, error) {
	q := s.db.WithContext(ctx).Order("started_at DESC, session_id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []lectureRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, s.translate("list lectures", "", err)
	}
	out := make([]Lecture, len(rows))
	for i, r := range rows {
		out[i] = r.lecture()
	}
	return out, nil
}

// DeleteLecture removes a lecture together with its chunks and feedback.
func (s *Store) DeleteLecture(ctx context.Context, sessionID string) error {
	res := s.db.WithContext(ctx).Delete(&lectureRow{}, "session_id = ?", sessionID)
	if res.Error != nil {
		return s.translate("delete lecture", sessionID, res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.LectureNotFound(sessionID)
	}
	return nil
}

// translate maps gorm errors onto AppErrors.
func (s *Store) translate(op, sessionID string, err error) error {
	var appErr *errors.AppError
	switch {
	case stderrors.Is(err, gorm.ErrRecordNotFound), stderrors.Is(err, gorm.ErrForeignKeyViolated):
		appErr = errors.LectureNotFound(sessionID)
	case stderrors.Is(err, gorm.ErrDuplicatedKey):
		appErr = errors.LectureExists(sessionID)
	default:
		appErr = errors.StorageError(op, err)
		s.log.Warn("archive operation failed", logger.Fields(
			logger.FieldOperation, op,
			logger.FieldSessionID, sessionID,
			logger.FieldError, err.Error(),
		))
	}
	return appErr.WithCause(err)
}
