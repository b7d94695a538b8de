package alert

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Alias1177/Railwatch/models"
)

// DefaultTTL is how long an alert overlay stays up without manual dismissal
const DefaultTTL = 8 * time.Second

const sendTimeout = 10 * time.Second

// Alerter holds the single currently-visible alert for one session and
// drives the outward notification channel. Overlapping triggers replace
// the visible alert; there is no queue.
type Alerter struct {
	mu      sync.Mutex
	current *models.Anomaly
	timer   *time.Timer
	gen     uint64

	ttl      time.Duration
	notifier models.Notifier
	logger   zerolog.Logger
}

// New creates an alerter. notifier may be notify.Disabled when no outward
// channel is configured; ttl <= 0 falls back to DefaultTTL.
func New(notifier models.Notifier, ttl time.Duration, logger zerolog.Logger) *Alerter {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Alerter{
		ttl:      ttl,
		notifier: notifier,
		logger:   logger.With().Str("component", "alerter").Logger(),
	}
}

// Trigger shows item as the current alert, dispatches the outward
// notification per permission state and arms the dismissal timer.
// Callers invoke it only for first-sight anomalies.
func (a *Alerter) Trigger(item models.Anomaly) {
	a.mu.Lock()
	a.current = &item
	a.gen++
	gen := a.gen
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.ttl, func() {
		a.dismissGen(gen)
	})
	a.mu.Unlock()

	a.logger.Info().
		Str("id", item.ID).
		Str("severity", string(item.Severity)).
		Int("confidence", item.ConfidencePercent).
		Msg("fraud alert raised")

	a.dispatch(item)
}

// Current returns the visible alert, or nil when none is active
func (a *Alerter) Current() *models.Anomaly {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil {
		return nil
	}
	item := *a.current
	return &item
}

// Dismiss clears the visible alert. Manual and timer-driven dismissal may
// race; the second one is a no-op.
func (a *Alerter) Dismiss() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.clearLocked()
}

// Close cancels any pending dismissal timer so it cannot fire after teardown
func (a *Alerter) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.clearLocked()
}

// dismissGen clears the alert only if no newer trigger replaced it
func (a *Alerter) dismissGen(gen uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.gen != gen {
		return
	}
	a.clearLocked()
}

// clearLocked resets alert state; caller holds the lock
func (a *Alerter) clearLocked() {
	a.current = nil
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

// dispatch sends the outward notification without blocking the feed
func (a *Alerter) dispatch(item models.Anomaly) {
	if a.notifier == nil {
		return
	}

	switch a.notifier.Permission() {
	case models.PermissionGranted:
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
			defer cancel()
			if err := a.notifier.Send(ctx, item); err != nil {
				a.logger.Warn().Err(err).Str("id", item.ID).Msg("notification send failed")
			}
		}()
	case models.PermissionDefault:
		// fire-and-forget: this alert goes unnotified, later ones use
		// whatever state the request settles into
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
			defer cancel()
			if err := a.notifier.RequestPermission(ctx); err != nil {
				a.logger.Warn().Err(err).Msg("notification permission request failed")
			}
		}()
	case models.PermissionDenied:
		// nothing further
	}
}
