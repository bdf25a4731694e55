package services

import (
	"context"
	"errors"
	"fmt"

	"finsight/internal/amqp"
	"finsight/internal/analysis"
	"finsight/internal/ingest"
	"finsight/internal/log"
	"finsight/internal/session"
	"finsight/internal/storage"
)

// EventPublisher announces completed analyses. *amqp.Client implements it.
type EventPublisher interface {
	PublishAnalysisCompleted(ctx context.Context, msg *amqp.AnalysisCompletedMessage) error
	Close() error
}

// Purger drops cached derived artefacts when the active session changes.
type Purger interface {
	Purge() int
}

type Options struct {
	History   storage.HistoryRepository
	Publisher EventPublisher
	Charts    Purger
	Logger    *log.Logger
}

// AnalysisService runs a dataset through the analyzer and publishes the
// result as the active session. History and events are best effort: a
// failure there never rejects an upload that analyzed successfully.
type AnalysisService struct {
	store     *session.Store
	history   storage.HistoryRepository
	publisher EventPublisher
	charts    Purger
	logger    *log.Logger
	events    *log.StructuredLogger
}

func NewAnalysisService(store *session.Store, opts Options) *AnalysisService {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentAnalysis)
	return &AnalysisService{
		store:     store,
		history:   opts.History,
		publisher: opts.Publisher,
		charts:    opts.Charts,
		logger:    logger,
		events:    log.NewStructuredLogger(logger),
	}
}

func (s *AnalysisService) Store() *session.Store {
	return s.store
}

// Ingest reads src, analyzes it and replaces the active session.
func (s *AnalysisService) Ingest(ctx context.Context, src ingest.RowSource) (*session.Session, error) {
	rows, err := src.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src.Name(), err)
	}
	res, err := analysis.Analyze(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", src.Name(), err)
	}

	sess := session.New(src.Name(), len(rows), res.Transactions, res.Report)
	s.store.Replace(sess)
	if s.charts != nil {
		if n := s.charts.Purge(); n > 0 {
			s.logger.DebugContext(ctx, "Chart cache purged", "entries", n)
		}
	}
	s.events.LogAnalysisCompleted(ctx, sess.ID.String(), sess.Source, sess.RowsIn, sess.RowsKept())

	s.recordHistory(ctx, sess)
	s.publish(ctx, sess)
	return sess, nil
}

func (s *AnalysisService) recordHistory(ctx context.Context, sess *session.Session) {
	if s.history == nil {
		return
	}
	rec := storage.UploadRecord{
		ID:        sess.ID,
		Source:    sess.Source,
		RowsIn:    sess.RowsIn,
		RowsKept:  sess.RowsKept(),
		CreatedAt: sess.CreatedAt,
	}
	if err := s.history.Record(ctx, rec); err != nil {
		s.events.LogError(ctx, "Failed to record upload history", err, log.OpAnalyze,
			log.NewFields().WithAnalysis(sess.ID.String(), sess.Source, sess.RowsIn, sess.RowsKept()))
	}
}

func (s *AnalysisService) publish(ctx context.Context, sess *session.Session) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP publisher not configured, skipping analysis event")
		return
	}
	r := sess.Report
	msg := amqp.NewAnalysisCompletedMessage(sess.ID, sess.Source, sess.RowsIn, sess.RowsKept(),
		r.TotalIncome, r.TotalExpenses, r.NetSavings)
	if err := s.publisher.PublishAnalysisCompleted(ctx, msg); err != nil {
		s.events.LogError(ctx, "Failed to publish analysis event", err, log.OpPublish,
			log.NewFields().WithAnalysis(sess.ID.String(), sess.Source, sess.RowsIn, sess.RowsKept()))
	}
}

// Recent lists upload history, newest first. Without a history backend
// the list is empty.
func (s *AnalysisService) Recent(ctx context.Context, limit int) ([]storage.UploadRecord, error) {
	if s.history == nil {
		return []storage.UploadRecord{}, nil
	}
	recs, err := s.history.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	return recs, nil
}

// Close releases the history backend and the publisher.
func (s *AnalysisService) Close() error {
	var errs []error
	if s.history != nil {
		if err := s.history.Close(); err != nil {
			errs = append(errs, fmt.Errorf("history: %w", err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close analysis service: %w", err)
	}
	return nil
}
