package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/Veraticus/smsfin/internal/classification"
	"github.com/Veraticus/smsfin/internal/cli"
	"github.com/Veraticus/smsfin/internal/common"
	"github.com/Veraticus/smsfin/internal/config"
	"github.com/Veraticus/smsfin/internal/extraction"
	"github.com/Veraticus/smsfin/internal/ingest"
	"github.com/Veraticus/smsfin/internal/model"
	"github.com/Veraticus/smsfin/internal/pipeline"
	"github.com/Veraticus/smsfin/internal/storage"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/viper"
)

var envKeyReplacer = strings.NewReplacer(".", "_", "-", "_")

// initStorage opens and migrates the configured database.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := config.ExpandPath(viper.GetString("database.path"))
	if dbPath == "" {
		dbPath = config.ExpandPath(config.DefaultDatabasePath)
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, common.NewUserError("Failed to open database", err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, common.NewUserError("Failed to migrate database", err)
	}

	slog.Debug("Opened database", "path", dbPath)
	return store, nil
}

// loadEngine layers the rules file and config overrides over the built-in tables.
func loadEngine() (config.Engine, error) {
	engine := config.DefaultEngine()

	if path := viper.GetString("rules.path"); path != "" {
		file, err := config.LoadRules(config.ExpandPath(path))
		if err != nil {
			return engine, common.NewUserError("Failed to load rules file", err)
		}
		if err := file.Apply(&engine); err != nil {
			return engine, common.NewUserError("Failed to apply rules file", err)
		}
		slog.Debug("Loaded rules file", "path", path)
	}

	if threshold := viper.GetInt("filter.threshold"); threshold > 0 {
		engine.Rules.Threshold = threshold
	}
	if currency := viper.GetString("extraction.default_currency"); currency != "" {
		engine.Tables.DefaultCurrency = strings.ToUpper(currency)
	}

	return engine, nil
}

// buildComponents compiles the filter and extractor from the effective engine.
func buildComponents() (*classification.Filter, *extraction.Extractor, error) {
	engine, err := loadEngine()
	if err != nil {
		return nil, nil, err
	}

	filter, err := classification.NewFilter(engine.Rules)
	if err != nil {
		return nil, nil, common.NewUserError("Invalid filter rules", err)
	}
	extractor, err := extraction.NewExtractor(engine.Tables, engine.Banks)
	if err != nil {
		return nil, nil, common.NewUserError("Invalid extraction tables", err)
	}

	slog.Debug("Rules compiled",
		"signal_groups", filter.GroupCount(),
		"threshold", filter.Threshold(),
		"banks", engine.Banks.Len())
	return filter, extractor, nil
}

// loadMessages reads an export and reports how many messages it held.
func loadMessages(path string) ([]model.RawMessage, error) {
	msgs, err := ingest.LoadFile(path)
	if err != nil {
		return nil, common.NewUserError(fmt.Sprintf("Failed to read %s", path), err)
	}
	slog.Info("Loaded messages", "path", path, "count", len(msgs))
	return msgs, nil
}

// defaultOutputPath places output next to the input: inbox.xml becomes inbox_<suffix>.json.
func defaultOutputPath(input, suffix string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + "_" + suffix + ".json"
}

// pipelineOptions builds run options from config. Unless quiet, a progress
// bar is drawn on w for each run.
func pipelineOptions(w io.Writer, source string, quiet bool) pipeline.Options {
	opts := pipeline.DefaultOptions()
	opts.Source = source
	opts.Workers = viper.GetInt("pipeline.workers")
	opts.ReviewThreshold = viper.GetFloat64("pipeline.review_threshold")
	opts.DedupeWindow = viper.GetDuration("pipeline.dedupe_window")

	if !quiet {
		var bar *progressbar.ProgressBar
		opts.Progress = func(done, total int) {
			if bar == nil {
				bar = cli.NewProgressBar(total, w, "Classifying")
			}
			if err := bar.Set(done); err != nil {
				slog.Debug("Failed to update progress bar", "error", err)
			}
			if done >= total {
				bar = nil
			}
		}
	}
	return opts
}
