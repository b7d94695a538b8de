package monitor

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/Alias1177/Railwatch/internal/alert"
	"github.com/Alias1177/Railwatch/internal/classify"
	"github.com/Alias1177/Railwatch/internal/feed"
	"github.com/Alias1177/Railwatch/models"
)

// Session ties one feed and one alerter into the classification pipeline:
// bulk load, then per-event classify → merge → alert-on-first-sight.
// Feed and alerter are owned by the session, never shared or global.
type Session struct {
	feed    *feed.Feed
	alerter *alert.Alerter
	logger  zerolog.Logger
	stopped atomic.Bool
}

// NewSession creates a session over the given feed and alerter
func NewSession(f *feed.Feed, a *alert.Alerter, logger zerolog.Logger) *Session {
	return &Session{
		feed:    f,
		alerter: a,
		logger:  logger.With().Str("component", "monitor").Logger(),
	}
}

// LoadInitial classifies the bulk snapshot into the feed. Batch items never
// trigger alerts. On failure the feed is left untouched and the error is
// returned for the shell to surface; retry policy lives with the caller.
func (s *Session) LoadInitial(ctx context.Context, source models.TransactionSource) error {
	txs, err := source.FlaggedTransactions(ctx)
	if err != nil {
		return fmt.Errorf("fetching flagged transactions: %w", err)
	}

	// a slow load finishing after Stop must not touch session state
	if s.stopped.Load() {
		return nil
	}

	items := make([]models.Anomaly, 0, len(txs))
	for _, tx := range txs {
		items = append(items, classify.Classify(tx))
	}

	s.feed.LoadBatch(items)
	s.logger.Info().Int("count", len(items)).Msg("anomaly feed loaded")
	return nil
}

// HandleInsert feeds one realtime insert event through the pipeline.
// The subscriber has already parsed and fraud-filtered the record.
func (s *Session) HandleInsert(tx models.Transaction) {
	if s.stopped.Load() {
		return
	}

	item := classify.Classify(tx)
	if s.feed.Ingest(item) {
		s.alerter.Trigger(item)
	} else {
		s.logger.Debug().Str("id", item.ID).Msg("duplicate delivery, alert suppressed")
	}
}

// Stop makes late callbacks no-ops and releases the alert overlay
func (s *Session) Stop() {
	s.stopped.Store(true)
	s.alerter.Close()
}
