package pipeline

import (
	"math"
	"time"

	"github.com/Veraticus/smsfin/internal/model"
)

// Summary contains statistics about a run.
type Summary struct {
	ExclusionBreakdown  map[model.ExclusionReason]int `json:"exclusion_breakdown"`
	Total               int                           `json:"total_sms"`
	Inbound             int                           `json:"inbound_sms"`
	OutboundSkipped     int                           `json:"outbound_skipped"`
	Duplicates          int                           `json:"duplicates_skipped"`
	Financial           int                           `json:"financial_sms"`
	Excluded            int                           `json:"excluded_sms"`
	Extracted           int                           `json:"extracted"`
	NeedsReview         int                           `json:"needs_review"`
	FinancialPercentage float64                       `json:"financial_percentage"`
	AverageConfidence   float64                       `json:"average_confidence"`
	Duration            time.Duration                 `json:"-"`
	DurationSeconds     float64                       `json:"duration_seconds"`
}

// Result is the output of one run.
type Result struct {
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	RunID      string         `json:"run_id"`
	Source     string         `json:"source,omitempty"`
	Records    []model.Record `json:"-"`
	Summary    Summary        `json:"statistics"`
}

// Financial returns the records that passed the filter, in input order.
func (r *Result) Financial() []model.Record {
	var out []model.Record
	for _, rec := range r.Records {
		if rec.Classification.IsFinancial {
			out = append(out, rec)
		}
	}
	return out
}

// Transactions returns the records that carry an extracted transaction.
func (r *Result) Transactions() []model.Record {
	var out []model.Record
	for _, rec := range r.Records {
		if rec.Transaction != nil {
			out = append(out, rec)
		}
	}
	return out
}

// Run converts the result into the persisted run summary.
func (r *Result) Run() *model.Run {
	s := r.Summary
	return &model.Run{
		ID:                 r.RunID,
		Source:             r.Source,
		StartedAt:          r.StartedAt,
		FinishedAt:         r.FinishedAt,
		Total:              s.Total,
		Inbound:            s.Inbound,
		Financial:          s.Financial,
		Excluded:           s.Excluded,
		Duplicates:         s.Duplicates,
		Extracted:          s.Extracted,
		NeedsReview:        s.NeedsReview,
		ExclusionBreakdown: s.ExclusionBreakdown,
	}
}

// summarize counts outcomes. Percentages are relative to the messages that
// were actually classified (inbound and unique).
func summarize(records []model.Record, elapsed time.Duration) Summary {
	s := Summary{
		Total:              len(records),
		ExclusionBreakdown: make(map[model.ExclusionReason]int),
		Duration:           elapsed,
		DurationSeconds:    round2(elapsed.Seconds()),
	}

	var confidenceSum float64
	for _, rec := range records {
		switch rec.SkipReason {
		case model.SkipOutbound:
			s.OutboundSkipped++
			continue
		case model.SkipDuplicate:
			s.Inbound++
			s.Duplicates++
			continue
		}
		s.Inbound++

		if !rec.Classification.IsFinancial {
			s.Excluded++
			s.ExclusionBreakdown[rec.Classification.ExclusionReason]++
			continue
		}

		s.Financial++
		if rec.Transaction != nil {
			s.Extracted++
			confidenceSum += rec.Transaction.Confidence
		}
		if rec.NeedsReview {
			s.NeedsReview++
		}
	}

	if classified := s.Financial + s.Excluded; classified > 0 {
		s.FinancialPercentage = round2(float64(s.Financial) / float64(classified) * 100)
	}
	if s.Extracted > 0 {
		s.AverageConfidence = round2(confidenceSum / float64(s.Extracted))
	}
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
