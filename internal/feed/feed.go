package feed

import (
	"sync"
	"time"

	"github.com/Alias1177/Railwatch/models"
)

// Feed owns the ordered, newest-first list of anomalies for one monitoring
// session, together with the set of ids that already triggered an alert.
// It is never shared between sessions and holds no package-level state.
type Feed struct {
	mu    sync.Mutex
	items []models.Anomaly
	seen  map[string]struct{}

	// maxEntries trims the oldest tail entries when > 0. The reference
	// behavior keeps unbounded history; the cap is an opt-in guard for
	// long-lived sessions.
	maxEntries int
}

// New creates an empty feed. maxEntries <= 0 keeps unbounded history.
func New(maxEntries int) *Feed {
	return &Feed{
		seen:       make(map[string]struct{}),
		maxEntries: maxEntries,
	}
}

// LoadBatch replaces the feed wholesale with the initial bulk load and
// reseeds the seen-id set. Batch items never count as new: the initial
// load must not fire alerts.
func (f *Feed) LoadBatch(items []models.Anomaly) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.items = append([]models.Anomaly(nil), items...)
	f.seen = make(map[string]struct{}, len(items))
	for _, item := range items {
		f.seen[item.ID] = struct{}{}
	}
	f.trim()
}

// Ingest prepends item and reports whether its id was unseen before this
// call. The check happens before the insert and the seen set is updated
// immediately after, so duplicate delivery yields isNew exactly once.
func (f *Feed) Ingest(item models.Anomaly) (isNew bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, dup := f.seen[item.ID]
	f.items = append([]models.Anomaly{item}, f.items...)
	f.seen[item.ID] = struct{}{}
	f.trim()

	return !dup
}

// Items returns a snapshot of the feed, newest first
func (f *Feed) Items() []models.Anomaly {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Anomaly(nil), f.items...)
}

// Len returns the number of entries currently held
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

// Counts tallies the feed by review status in a single pass
func (f *Feed) Counts() models.Counts {
	f.mu.Lock()
	defer f.mu.Unlock()

	var c models.Counts
	for _, item := range f.items {
		switch item.Status {
		case models.StatusActive:
			c.Active++
		case models.StatusInvestigating:
			c.Investigating++
		case models.StatusResolved:
			c.Resolved++
		}
	}
	return c
}

// ResolvedToday counts resolved anomalies whose detection time falls on
// the same Jakarta calendar day as now.
func (f *Feed) ResolvedToday(now time.Time) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, item := range f.items {
		if item.Status != models.StatusResolved || item.DetectedTime.IsZero() {
			continue
		}
		if models.SameJakartaDay(item.DetectedTime, now) {
			count++
		}
	}
	return count
}

// trim drops the oldest entries past the cap; caller holds the lock.
// Seen ids are kept so trimmed entries still cannot re-alert.
func (f *Feed) trim() {
	if f.maxEntries > 0 && len(f.items) > f.maxEntries {
		f.items = f.items[:f.maxEntries]
	}
}
