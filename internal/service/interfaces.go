// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/smsfin/internal/model"
)

// TransactionFilter defines filtering options for transaction queries.
// Zero values mean "no constraint".
type TransactionFilter struct {
	StartDate     *time.Time
	EndDate       *time.Time
	Type          model.TransactionType
	Bank          string
	Category      model.Category
	RunID         string
	MinConfidence float64
	Limit         int
	Offset        int
	NeedsReview   bool
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Run operations
	SaveRun(ctx context.Context, run *model.Run) error
	GetRun(ctx context.Context, id string) (*model.Run, error)
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)
	GetExclusionBreakdown(ctx context.Context, runID string) (map[model.ExclusionReason]int, error)

	// Message and transaction operations
	SaveRecords(ctx context.Context, runID string, records []model.Record) error
	GetTransactions(ctx context.Context, filter TransactionFilter) ([]model.StoredTransaction, error)
	GetReviewQueue(ctx context.Context, limit int) ([]model.StoredTransaction, error)
	MarkReviewed(ctx context.Context, messageHash string) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RecordSink receives pipeline output. Storage satisfies it.
type RecordSink interface {
	SaveRecords(ctx context.Context, runID string, records []model.Record) error
	SaveRun(ctx context.Context, run *model.Run) error
}
