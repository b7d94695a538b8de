package models

import "time"

// The dashboard is operated from Jakarta; all display timestamps and
// calendar-day comparisons are pinned to WIB regardless of server zone.
var jakarta = mustLoadJakarta()

func mustLoadJakarta() *time.Location {
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		// WIB is UTC+7 with no DST
		return time.FixedZone("WIB", 7*60*60)
	}
	return loc
}

// ParseCreatedAt parses an upstream created_at timestamp. Postgres row_to_json
// and the REST layer disagree on the exact shape, so several layouts are tried.
func ParseCreatedAt(s string) (time.Time, error) {
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.999999",
		"2006-01-02 15:04:05.999999-07",
		"2006-01-02 15:04:05-07",
		"2006-01-02 15:04:05",
	}

	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// FormatDetectedAt renders a timestamp for the anomaly table, Jakarta time
func FormatDetectedAt(t time.Time) string {
	return t.In(jakarta).Format("02 Jan 2006 15:04:05 WIB")
}

// SameJakartaDay reports whether a and b fall on the same calendar day in WIB
func SameJakartaDay(a, b time.Time) bool {
	ay, am, ad := a.In(jakarta).Date()
	by, bm, bd := b.In(jakarta).Date()
	return ay == by && am == bm && ad == bd
}
