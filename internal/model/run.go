package model

import "time"

// Run is the persisted summary of one batch over an SMS export.
type Run struct {
	StartedAt          time.Time               `json:"started_at"`
	FinishedAt         time.Time               `json:"finished_at"`
	ExclusionBreakdown map[ExclusionReason]int `json:"exclusion_breakdown,omitempty"`
	ID                 string                  `json:"id"`
	Source             string                  `json:"source"`
	Total              int                     `json:"total"`
	Inbound            int                     `json:"inbound"`
	Financial          int                     `json:"financial"`
	Excluded           int                     `json:"excluded"`
	Duplicates         int                     `json:"duplicates"`
	Extracted          int                     `json:"extracted"`
	NeedsReview        int                     `json:"needs_review"`
}

// Duration returns how long the run took.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// StoredTransaction is an extracted transaction as read back from storage.
type StoredTransaction struct {
	ReceivedAt  time.Time `json:"received_at"`
	MessageHash string    `json:"message_hash"`
	RunID       string    `json:"run_id"`
	MessageID   string    `json:"unique_id"`
	Sender      string    `json:"sender"`
	ExtractedTransaction
	NeedsReview bool `json:"needs_review"`
}
