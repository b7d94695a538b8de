package models

import (
	"time"
)

// Severity is the display tier derived from the upstream anomaly score
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Status is the human review state of an anomaly
type Status string

const (
	StatusActive        Status = "active"
	StatusInvestigating Status = "investigating"
	StatusResolved      Status = "resolved"
)

// ValidStatus reports whether s is one of the three review states
func ValidStatus(s Status) bool {
	return s == StatusActive || s == StatusInvestigating || s == StatusResolved
}

// Transaction is a raw row from the transactions table / insert feed.
// All fields except id and created_at are optional upstream; zero values
// stand in for absent fields.
type Transaction struct {
	ID             string  `json:"id"`
	AnomalyScore   float64 `json:"anomaly_score"`
	ReviewStatus   string  `json:"review_status,omitempty"`
	CreatedAt      string  `json:"created_at"`
	AnomalyLabelID string  `json:"anomaly_label_id,omitempty"`
	NumTickets     int     `json:"num_tickets,omitempty"`
	TotalAmount    int64   `json:"total_amount,omitempty"` // whole IDR, no decimals
	FraudFlag      bool    `json:"fraud_flag"`
}

// Anomaly is the classified, display-ready view of a flagged transaction
type Anomaly struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	Severity          Severity `json:"severity"`
	Status            Status   `json:"status"`
	DetectedAt        string   `json:"detected_at"`
	AffectedTickets   int      `json:"affected_tickets"`
	ConfidencePercent int      `json:"confidence"`
	FinalPrice        int64    `json:"final_price"`

	// DetectedTime is the parsed created_at used for calendar-day math.
	// Zero when the upstream timestamp could not be parsed.
	DetectedTime time.Time `json:"-"`
}

// Counts aggregates the feed by review status
type Counts struct {
	Active        int `json:"active"`
	Investigating int `json:"investigating"`
	Resolved      int `json:"resolved"`
}

// Total returns the number of counted anomalies
func (c Counts) Total() int {
	return c.Active + c.Investigating + c.Resolved
}
