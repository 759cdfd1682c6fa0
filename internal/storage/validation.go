// Package storage provides the SQLite persistence layer for runs, messages and transactions.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/smsfin/internal/model"
	"github.com/Veraticus/smsfin/internal/service"
)

// Validation errors.
var (
	ErrNilContext       = errors.New("context cannot be nil")
	ErrEmptyString      = errors.New("string parameter cannot be empty")
	ErrNilParameter     = errors.New("parameter cannot be nil")
	ErrEmptySlice       = errors.New("slice cannot be empty")
	ErrInvalidDateRange = errors.New("start date must be before end date")
	ErrInvalidRun       = errors.New("invalid run")
	ErrInvalidRecord    = errors.New("invalid record")
	ErrInvalidFilter    = errors.New("invalid filter")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateRun(run *model.Run) error {
	if run == nil {
		return fmt.Errorf("%w: run", ErrNilParameter)
	}
	if strings.TrimSpace(run.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidRun)
	}
	if run.StartedAt.IsZero() {
		return fmt.Errorf("%w: missing start time", ErrInvalidRun)
	}
	if !run.FinishedAt.IsZero() && run.FinishedAt.Before(run.StartedAt) {
		return fmt.Errorf("%w: finished before it started", ErrInvalidRun)
	}
	return nil
}

func validateRecords(records []model.Record) error {
	if records == nil {
		return fmt.Errorf("%w: records", ErrNilParameter)
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: records", ErrEmptySlice)
	}

	for i := range records {
		if err := validateRecord(&records[i]); err != nil {
			return fmt.Errorf("record at index %d: %w", i, err)
		}
	}
	return nil
}

func validateRecord(rec *model.Record) error {
	if rec.Skipped() {
		return nil
	}
	if rec.Hash == "" {
		return fmt.Errorf("%w: missing hash", ErrInvalidRecord)
	}
	if rec.Message.ID == "" {
		return fmt.Errorf("%w: missing message ID", ErrInvalidRecord)
	}
	if rec.Transaction != nil {
		if !rec.Classification.IsFinancial {
			return fmt.Errorf("%w: transaction on non-financial message", ErrInvalidRecord)
		}
		if c := rec.Transaction.Confidence; c < 0 || c > 1 {
			return fmt.Errorf("%w: confidence must be between 0 and 1", ErrInvalidRecord)
		}
	}
	return nil
}

func validateFilter(filter service.TransactionFilter) error {
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return fmt.Errorf("%w: end date %v is before start date %v", ErrInvalidDateRange, *filter.EndDate, *filter.StartDate)
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return fmt.Errorf("%w: limit and offset must not be negative", ErrInvalidFilter)
	}
	if filter.MinConfidence < 0 || filter.MinConfidence > 1 {
		return fmt.Errorf("%w: min confidence must be between 0 and 1", ErrInvalidFilter)
	}
	return nil
}
