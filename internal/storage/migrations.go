package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS runs (
					id TEXT PRIMARY KEY,
					source TEXT NOT NULL DEFAULT '',
					started_at DATETIME NOT NULL,
					finished_at DATETIME,
					total INTEGER NOT NULL DEFAULT 0,
					inbound INTEGER NOT NULL DEFAULT 0,
					financial INTEGER NOT NULL DEFAULT 0,
					excluded INTEGER NOT NULL DEFAULT 0,
					duplicates INTEGER NOT NULL DEFAULT 0,
					extracted INTEGER NOT NULL DEFAULT 0,
					needs_review INTEGER NOT NULL DEFAULT 0,
					exclusion_breakdown TEXT
				)`,
				`CREATE INDEX idx_runs_started ON runs(started_at)`,

				`CREATE TABLE IF NOT EXISTS messages (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					run_id TEXT NOT NULL,
					unique_id TEXT NOT NULL,
					hash TEXT UNIQUE NOT NULL,
					sender TEXT NOT NULL DEFAULT '',
					body TEXT NOT NULL DEFAULT '',
					received_at DATETIME,
					is_financial BOOLEAN NOT NULL DEFAULT 0,
					score INTEGER NOT NULL DEFAULT 0,
					exclusion_reason TEXT,
					excluded_by TEXT,
					matched_groups TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_messages_run ON messages(run_id)`,
				`CREATE INDEX idx_messages_reason ON messages(exclusion_reason)`,

				`CREATE TABLE IF NOT EXISTS transactions (
					message_hash TEXT PRIMARY KEY,
					run_id TEXT NOT NULL,
					unique_id TEXT NOT NULL,
					transaction_type TEXT NOT NULL,
					amount TEXT,
					currency TEXT,
					transaction_date DATETIME,
					date_source TEXT NOT NULL,
					bank TEXT,
					account_number TEXT,
					method TEXT NOT NULL,
					reference_id TEXT,
					counterparty TEXT,
					balance TEXT,
					category TEXT NOT NULL,
					intent TEXT NOT NULL,
					tags TEXT,
					summary TEXT,
					confidence REAL NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (message_hash) REFERENCES messages(hash)
				)`,
				`CREATE INDEX idx_transactions_date ON transactions(transaction_date)`,
				`CREATE INDEX idx_transactions_bank ON transactions(bank)`,
				`CREATE INDEX idx_transactions_category ON transactions(category)`,
			)
		},
	},
	{
		Version:     2,
		Description: "Track low-confidence transactions for review",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`ALTER TABLE transactions ADD COLUMN needs_review BOOLEAN NOT NULL DEFAULT 0`,
				`ALTER TABLE transactions ADD COLUMN reviewed_at DATETIME`,
				`CREATE INDEX idx_transactions_review ON transactions(needs_review, confidence)`,
			)
		},
	},
}

func execAll(tx *sql.Tx, queries ...string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

// SchemaVersion reports the schema version recorded in the database.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
