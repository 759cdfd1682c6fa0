package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/smsfin/internal/common"
	"github.com/Veraticus/smsfin/internal/model"
	"github.com/Veraticus/smsfin/internal/service"
	"github.com/shopspring/decimal"
)

// SaveRecords stores the classified messages of a run and the transactions
// extracted from them in one SQL transaction. Skipped records are ignored and
// messages already stored under any run are left untouched.
func (s *SQLiteStorage) SaveRecords(ctx context.Context, runID string, records []model.Record) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(runID, "runID"); err != nil {
		return err
	}
	if err := validateRecords(records); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", classifyError(err))
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.saveRecordsTx(ctx, tx, runID, records); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit records: %w", classifyError(err))
	}
	return nil
}

func (s *SQLiteStorage) saveRecordsTx(ctx context.Context, tx *sql.Tx, runID string, records []model.Record) error {
	msgStmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO messages (
			run_id, unique_id, hash, sender, body, received_at,
			is_financial, score, exclusion_reason, excluded_by, matched_groups
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare message statement: %w", classifyError(err))
	}
	defer func() { _ = msgStmt.Close() }()

	txnStmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transactions (
			message_hash, run_id, unique_id, transaction_type, amount, currency,
			transaction_date, date_source, bank, account_number, method,
			reference_id, counterparty, balance, category, intent, tags,
			summary, confidence, needs_review
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare transaction statement: %w", classifyError(err))
	}
	defer func() { _ = txnStmt.Close() }()

	for i := range records {
		rec := &records[i]
		if rec.Skipped() {
			continue
		}

		cls := rec.Classification
		reason := sql.NullString{String: string(cls.ExclusionReason), Valid: !cls.IsFinancial && cls.ExclusionReason != ""}

		_, err = msgStmt.ExecContext(ctx,
			runID,
			rec.Message.ID,
			rec.Hash,
			rec.Message.Sender,
			rec.Message.Body,
			nullTime(rec.Message.Timestamp),
			cls.IsFinancial,
			cls.Score,
			reason,
			nullString(cls.ExcludedBy),
			jsonList(cls.MatchedGroups),
		)
		if err != nil {
			return fmt.Errorf("failed to save message %s: %w", rec.Message.ID, classifyError(err))
		}

		txn := rec.Transaction
		if txn == nil {
			continue
		}

		var txnDate sql.NullTime
		if txn.TransactionDate != nil {
			txnDate = sql.NullTime{Time: txn.TransactionDate.UTC(), Valid: true}
		}

		_, err = txnStmt.ExecContext(ctx,
			rec.Hash,
			runID,
			rec.Message.ID,
			string(txn.Type),
			nullDecimal(txn.Amount),
			nullString(txn.Currency),
			txnDate,
			string(txn.DateSource),
			nullString(txn.Bank),
			nullString(txn.AccountNumber),
			string(txn.Method),
			nullString(txn.ReferenceID),
			nullString(txn.Counterparty),
			nullDecimal(txn.Balance),
			string(txn.Category),
			string(txn.Intent),
			jsonList(txn.Tags),
			nullString(txn.Summary),
			txn.Confidence,
			rec.NeedsReview,
		)
		if err != nil {
			return fmt.Errorf("failed to save transaction for %s: %w", rec.Message.ID, classifyError(err))
		}
	}

	return nil
}

// GetTransactions returns stored transactions matching filter, newest first.
func (s *SQLiteStorage) GetTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.StoredTransaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	return s.getTransactionsTx(ctx, s.db, filter, "COALESCE(t.transaction_date, m.received_at) DESC, t.message_hash")
}

// GetReviewQueue returns transactions flagged for review, least confident first.
func (s *SQLiteStorage) GetReviewQueue(ctx context.Context, limit int) ([]model.StoredTransaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", ErrInvalidFilter)
	}
	filter := service.TransactionFilter{NeedsReview: true, Limit: limit}
	return s.getTransactionsTx(ctx, s.db, filter, "t.confidence ASC, t.message_hash")
}

// MarkReviewed clears the review flag on a transaction.
func (s *SQLiteStorage) MarkReviewed(ctx context.Context, messageHash string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(messageHash, "messageHash"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET needs_review = 0, reviewed_at = ?
		WHERE message_hash = ?
	`, time.Now().UTC(), messageHash)
	if err != nil {
		return fmt.Errorf("failed to mark transaction reviewed: %w", classifyError(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction %s: %w", messageHash, common.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStorage) getTransactionsTx(ctx context.Context, q queryable, filter service.TransactionFilter, orderBy string) ([]model.StoredTransaction, error) {
	var where []string
	var args []any

	if filter.StartDate != nil {
		where = append(where, "COALESCE(t.transaction_date, m.received_at) >= ?")
		args = append(args, filter.StartDate.UTC())
	}
	if filter.EndDate != nil {
		where = append(where, "COALESCE(t.transaction_date, m.received_at) <= ?")
		args = append(args, filter.EndDate.UTC())
	}
	if filter.Type != "" {
		where = append(where, "t.transaction_type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.Bank != "" {
		where = append(where, "t.bank = ? COLLATE NOCASE")
		args = append(args, filter.Bank)
	}
	if filter.Category != "" {
		where = append(where, "t.category = ?")
		args = append(args, string(filter.Category))
	}
	if filter.RunID != "" {
		where = append(where, "t.run_id = ?")
		args = append(args, filter.RunID)
	}
	if filter.MinConfidence > 0 {
		where = append(where, "t.confidence >= ?")
		args = append(args, filter.MinConfidence)
	}
	if filter.NeedsReview {
		where = append(where, "t.needs_review = 1")
	}

	query := `
		SELECT
			t.message_hash, t.run_id, t.unique_id, COALESCE(m.sender, ''), m.received_at,
			t.transaction_type, t.amount, t.currency, t.transaction_date, t.date_source,
			t.bank, t.account_number, t.method, t.reference_id, t.counterparty,
			t.balance, t.category, t.intent, t.tags, t.summary, t.confidence,
			t.needs_review
		FROM transactions t
		LEFT JOIN messages m ON m.hash = t.message_hash`
	if len(where) > 0 {
		query += "\n\t\tWHERE " + strings.Join(where, " AND ")
	}
	query += "\n\t\tORDER BY " + orderBy

	if filter.Limit > 0 || filter.Offset > 0 {
		limit := filter.Limit
		if limit == 0 {
			limit = -1
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, filter.Offset)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.StoredTransaction
	for rows.Next() {
		st, err := scanStoredTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func scanStoredTransaction(row rowScanner) (model.StoredTransaction, error) {
	var (
		st                                       model.StoredTransaction
		received, txnDate                        sql.NullTime
		amount, balance, currency, bank, account sql.NullString
		reference, counterparty, tags, summary   sql.NullString
		txnType, dateSource, method              string
		category, intent                         string
	)

	err := row.Scan(
		&st.MessageHash, &st.RunID, &st.MessageID, &st.Sender, &received,
		&txnType, &amount, &currency, &txnDate, &dateSource,
		&bank, &account, &method, &reference, &counterparty,
		&balance, &category, &intent, &tags, &summary, &st.Confidence,
		&st.NeedsReview,
	)
	if err != nil {
		return st, fmt.Errorf("failed to scan transaction: %w", err)
	}

	if received.Valid {
		st.ReceivedAt = received.Time
	}
	if txnDate.Valid {
		t := txnDate.Time
		st.TransactionDate = &t
	}

	if st.Amount, err = parseNullDecimal(amount); err != nil {
		return st, fmt.Errorf("corrupt amount for %s: %w", st.MessageHash, err)
	}
	if st.Balance, err = parseNullDecimal(balance); err != nil {
		return st, fmt.Errorf("corrupt balance for %s: %w", st.MessageHash, err)
	}
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &st.Tags); err != nil {
			return st, fmt.Errorf("corrupt tags for %s: %w", st.MessageHash, err)
		}
	}

	st.Type = model.TransactionType(txnType)
	st.DateSource = model.DateSource(dateSource)
	st.Method = model.Method(method)
	st.Category = model.Category(category)
	st.Intent = model.Intent(intent)
	st.Currency = currency.String
	st.Bank = bank.String
	st.AccountNumber = account.String
	st.ReferenceID = reference.String
	st.Counterparty = counterparty.String
	st.Summary = summary.String

	return st, nil
}

// queryable is satisfied by both *sql.DB and *sql.Tx.
type queryable interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Times are stored in UTC so that range comparisons on the text column hold.
func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t.UTC(), Valid: !t.IsZero()}
}

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func parseNullDecimal(s sql.NullString) (*decimal.Decimal, error) {
	if !s.Valid || s.String == "" {
		return nil, nil //nolint:nilnil // absent value
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func jsonList(items []string) sql.NullString {
	if len(items) == 0 {
		return sql.NullString{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(data), Valid: true}
}
