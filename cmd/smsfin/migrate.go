package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/smsfin/internal/cli"
	"github.com/Veraticus/smsfin/internal/config"
	"github.com/Veraticus/smsfin/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

Other commands migrate automatically; this is useful for checking a database
before pointing a new version at it.`,
		Args: cobra.NoArgs,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	status, _ := cmd.Flags().GetBool("status")
	dbPath := config.ExpandPath(viper.GetString("database.path"))

	slog.Info("Starting database migration",
		"database", dbPath,
		"status_only", status)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	w := cmd.OutOrStdout()
	if status {
		current, err := store.SchemaVersion(ctx)
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}
		fmt.Fprintln(w, cli.FormatTitle("Database Migration Status"))
		fmt.Fprintf(w, "Database:        %s\n", dbPath)
		fmt.Fprintf(w, "Current version: %d\n", current)
		fmt.Fprintf(w, "Latest version:  %d\n", storage.ExpectedSchemaVersion)
		if current < storage.ExpectedSchemaVersion {
			fmt.Fprintln(w, cli.FormatWarning("Migrations pending; run 'smsfin migrate'"))
		}
		return nil
	}

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Fprintln(w, cli.FormatSuccess("Database migrations completed successfully!"))
	return nil
}
