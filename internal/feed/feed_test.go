package feed

import (
	"testing"
	"time"

	"github.com/Alias1177/Railwatch/models"
)

func anomaly(id string, status models.Status) models.Anomaly {
	return models.Anomaly{
		ID:       id,
		Title:    "Unusual Transaction Pattern",
		Severity: models.SeverityMedium,
		Status:   status,
	}
}

func TestIngestNewestFirst(t *testing.T) {
	f := New(0)
	f.LoadBatch([]models.Anomaly{
		anomaly("a", models.StatusActive),
		anomaly("b", models.StatusActive),
		anomaly("c", models.StatusActive),
	})

	f.Ingest(anomaly("d", models.StatusActive))

	items := f.Items()
	want := []string{"d", "a", "b", "c"}
	if len(items) != len(want) {
		t.Fatalf("feed has %d items, want %d", len(items), len(want))
	}
	for i, id := range want {
		if items[i].ID != id {
			t.Errorf("items[%d].ID = %q, want %q", i, items[i].ID, id)
		}
	}
}

func TestIngestDeduplicatesAlerts(t *testing.T) {
	f := New(0)

	if !f.Ingest(anomaly("x", models.StatusActive)) {
		t.Error("first ingest of x should be new")
	}
	if f.Ingest(anomaly("x", models.StatusActive)) {
		t.Error("duplicate delivery of x should not be new")
	}
	if f.Ingest(anomaly("x", models.StatusActive)) {
		t.Error("third delivery of x should not be new")
	}

	// display continuity: duplicates are still prepended
	if got := f.Len(); got != 3 {
		t.Errorf("feed length = %d, want 3", got)
	}
}

func TestLoadBatchSeedsSeenWithoutAlerts(t *testing.T) {
	f := New(0)
	f.LoadBatch([]models.Anomaly{
		anomaly("a", models.StatusActive),
		anomaly("b", models.StatusResolved),
	})

	// an insert event re-delivering a batch item must not alert
	if f.Ingest(anomaly("a", models.StatusActive)) {
		t.Error("batch item re-delivered via ingest should not be new")
	}
	if !f.Ingest(anomaly("z", models.StatusActive)) {
		t.Error("genuinely new item should be new")
	}
}

func TestLoadBatchReplacesWholesale(t *testing.T) {
	f := New(0)
	f.LoadBatch([]models.Anomaly{anomaly("old", models.StatusActive)})
	f.LoadBatch([]models.Anomaly{
		anomaly("n1", models.StatusActive),
		anomaly("n2", models.StatusActive),
	})

	items := f.Items()
	if len(items) != 2 || items[0].ID != "n1" || items[1].ID != "n2" {
		t.Errorf("feed after reload = %+v, want [n1 n2]", items)
	}
}

func TestCountsConsistent(t *testing.T) {
	tests := []struct {
		name     string
		statuses []models.Status
		expected models.Counts
	}{
		{
			name:     "empty feed",
			statuses: nil,
			expected: models.Counts{},
		},
		{
			name: "mixed statuses",
			statuses: []models.Status{
				models.StatusActive, models.StatusActive,
				models.StatusInvestigating,
				models.StatusResolved, models.StatusResolved, models.StatusResolved,
			},
			expected: models.Counts{Active: 2, Investigating: 1, Resolved: 3},
		},
		{
			name:     "all active",
			statuses: []models.Status{models.StatusActive, models.StatusActive},
			expected: models.Counts{Active: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(0)
			for i, s := range tt.statuses {
				f.Ingest(anomaly(string(rune('a'+i)), s))
			}

			got := f.Counts()
			if got != tt.expected {
				t.Errorf("Counts() = %+v, want %+v", got, tt.expected)
			}
			if got.Total() != f.Len() {
				t.Errorf("Counts total = %d, feed length = %d", got.Total(), f.Len())
			}
		})
	}
}

func TestResolvedToday(t *testing.T) {
	now := time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)

	today := anomaly("today", models.StatusResolved)
	today.DetectedTime = time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

	yesterday := anomaly("yesterday", models.StatusResolved)
	yesterday.DetectedTime = time.Date(2024, 6, 8, 9, 0, 0, 0, time.UTC)

	activeToday := anomaly("active", models.StatusActive)
	activeToday.DetectedTime = now

	f := New(0)
	f.LoadBatch([]models.Anomaly{today, yesterday, activeToday})

	if got := f.ResolvedToday(now); got != 1 {
		t.Errorf("ResolvedToday = %d, want 1", got)
	}
}

func TestMaxEntriesTrimsOldest(t *testing.T) {
	f := New(3)
	f.Ingest(anomaly("a", models.StatusActive))
	f.Ingest(anomaly("b", models.StatusActive))
	f.Ingest(anomaly("c", models.StatusActive))
	f.Ingest(anomaly("d", models.StatusActive))

	items := f.Items()
	if len(items) != 3 {
		t.Fatalf("feed length = %d, want 3", len(items))
	}
	if items[0].ID != "d" || items[2].ID != "b" {
		t.Errorf("feed = %+v, want newest three [d c b]", items)
	}

	// trimmed ids stay in the seen set and cannot re-alert
	if f.Ingest(anomaly("a", models.StatusActive)) {
		t.Error("trimmed id should still be deduplicated")
	}
}
