package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Veraticus/smsfin/internal/common"
	"github.com/Veraticus/smsfin/internal/model"
)

// SaveRun inserts or updates a run summary.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run *model.Run) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRun(run); err != nil {
		return err
	}

	breakdown, err := marshalBreakdown(run.ExclusionBreakdown)
	if err != nil {
		return err
	}

	var finished sql.NullTime
	if !run.FinishedAt.IsZero() {
		finished = sql.NullTime{Time: run.FinishedAt.UTC(), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (
			id, source, started_at, finished_at, total, inbound, financial,
			excluded, duplicates, extracted, needs_review, exclusion_breakdown
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source = excluded.source,
			finished_at = excluded.finished_at,
			total = excluded.total,
			inbound = excluded.inbound,
			financial = excluded.financial,
			excluded = excluded.excluded,
			duplicates = excluded.duplicates,
			extracted = excluded.extracted,
			needs_review = excluded.needs_review,
			exclusion_breakdown = excluded.exclusion_breakdown
	`,
		run.ID, run.Source, run.StartedAt.UTC(), finished,
		run.Total, run.Inbound, run.Financial, run.Excluded,
		run.Duplicates, run.Extracted, run.NeedsReview, breakdown,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", classifyError(err))
	}
	return nil
}

// GetRun returns a run by ID.
func (s *SQLiteStorage) GetRun(ctx context.Context, id string) (*model.Run, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getRunTx(ctx, s.db, id)
}

func (s *SQLiteStorage) getRunTx(ctx context.Context, q queryable, id string) (*model.Run, error) {
	row := q.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. A non-positive limit returns all runs.
func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetExclusionBreakdown counts stored non-financial messages by reason. An
// empty runID counts across every run.
func (s *SQLiteStorage) GetExclusionBreakdown(ctx context.Context, runID string) (map[model.ExclusionReason]int, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT exclusion_reason, COUNT(*) FROM messages WHERE is_financial = 0`
	var args []any
	if runID != "" {
		query += ` AND run_id = ?`
		args = append(args, runID)
	}
	query += ` GROUP BY exclusion_reason`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query exclusion breakdown: %w", err)
	}
	defer func() { _ = rows.Close() }()

	breakdown := make(map[model.ExclusionReason]int)
	for rows.Next() {
		var reason sql.NullString
		var count int
		if err := rows.Scan(&reason, &count); err != nil {
			return nil, fmt.Errorf("failed to scan exclusion breakdown: %w", err)
		}
		r := model.ExclusionReason(reason.String)
		if !reason.Valid || r == "" {
			r = model.ReasonNone
		}
		breakdown[r] += count
	}
	return breakdown, rows.Err()
}

const runColumns = `id, source, started_at, finished_at, total, inbound, financial,
	excluded, duplicates, extracted, needs_review, exclusion_breakdown`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*model.Run, error) {
	var run model.Run
	var finished sql.NullTime
	var breakdown sql.NullString

	err := row.Scan(
		&run.ID, &run.Source, &run.StartedAt, &finished,
		&run.Total, &run.Inbound, &run.Financial, &run.Excluded,
		&run.Duplicates, &run.Extracted, &run.NeedsReview, &breakdown,
	)
	if err != nil {
		return nil, err
	}

	if finished.Valid {
		run.FinishedAt = finished.Time
	}
	if breakdown.Valid && breakdown.String != "" {
		if err := json.Unmarshal([]byte(breakdown.String), &run.ExclusionBreakdown); err != nil {
			return nil, fmt.Errorf("corrupt exclusion breakdown for run %s: %w", run.ID, err)
		}
	}
	return &run, nil
}

func marshalBreakdown(breakdown map[model.ExclusionReason]int) (sql.NullString, error) {
	if len(breakdown) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(breakdown)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode exclusion breakdown: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
