package classify

import (
	"math"

	"github.com/Alias1177/Railwatch/models"
)

// Severity thresholds over the upstream anomaly score. Boundaries are
// exclusive on the lower side: a score of exactly 0.8 is medium, 0.5 is low.
const (
	HighScoreThreshold   = 0.8
	MediumScoreThreshold = 0.5
)

// The upstream score is treated as a 0..1 fraction. Historical call sites
// disagreed on this (some passed an already-scaled percentage); confidence
// is clamped so scaled inputs saturate at 100 instead of overflowing.
const confidenceScale = 100

// FallbackTitle is shown when a transaction carries no anomaly label
const FallbackTitle = "Unusual Transaction Pattern"

// Classify maps a raw transaction into the display-ready anomaly view.
// It is total: missing or invalid fields degrade to defaults, never errors.
func Classify(tx models.Transaction) models.Anomaly {
	a := models.Anomaly{
		ID:                tx.ID,
		Title:             title(tx.AnomalyLabelID),
		Severity:          ScoreSeverity(tx.AnomalyScore),
		Status:            status(tx.ReviewStatus),
		ConfidencePercent: ConfidencePercent(tx.AnomalyScore),
		AffectedTickets:   tx.NumTickets,
		FinalPrice:        tx.TotalAmount,
	}

	if t, err := models.ParseCreatedAt(tx.CreatedAt); err == nil {
		a.DetectedTime = t
		a.DetectedAt = models.FormatDetectedAt(t)
	} else {
		// keep the raw string rather than dropping the record
		a.DetectedAt = tx.CreatedAt
	}

	return a
}

// ScoreSeverity buckets an anomaly score into a display tier
func ScoreSeverity(score float64) models.Severity {
	switch {
	case score > HighScoreThreshold:
		return models.SeverityHigh
	case score > MediumScoreThreshold:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// ConfidencePercent converts a 0..1 score into a 0..100 integer
func ConfidencePercent(score float64) int {
	pct := int(math.Round(score * confidenceScale))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

func title(labelID string) string {
	if labelID == "" {
		return FallbackTitle
	}
	return "Pattern: " + labelID
}

func status(reviewStatus string) models.Status {
	s := models.Status(reviewStatus)
	if models.ValidStatus(s) {
		return s
	}
	return models.StatusActive
}
