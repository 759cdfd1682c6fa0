package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/smsfin/internal/cli"
	"github.com/Veraticus/smsfin/internal/common"
	"github.com/Veraticus/smsfin/internal/ingest"
	"github.com/Veraticus/smsfin/internal/model"
	"github.com/Veraticus/smsfin/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type extractOutput struct {
	RunID        string           `json:"run_id"`
	Transactions []model.Record   `json:"transactions"`
	Statistics   pipeline.Summary `json:"statistics"`
}

func extractCmd() *cobra.Command {
	var (
		output string
		save   bool
		quiet  bool
	)

	cmd := &cobra.Command{
		Use:   "extract <export> [export...]",
		Short: "Extract transactions from financial messages",
		Long: `Classify SMS exports and extract amount, type, bank, method, reference,
counterparty, date, balance and category from every financial message.

Transactions whose confidence falls below the review threshold are flagged
for review. With --save, messages, transactions and the run summary are
stored in the database; messages already stored are skipped.

Each export is a separate run. With --dedupe-window, a message seen in an
earlier export of the same invocation is skipped as a duplicate.

Examples:
  smsfin extract inbox.xml
  smsfin extract sms.json --save --workers 8
  smsfin extract phone.xml backup.json --dedupe-window 24h
  smsfin extract sms.json -o txns.json --review-threshold 0.6`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "" && len(args) > 1 {
				return common.NewUserError("--output needs a single export", nil)
			}
			return runExtract(cmd, args, output, save, quiet)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <export>_transactions.json)")
	cmd.Flags().BoolVar(&save, "save", false, "store results in the database")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "hide the progress bar")
	cmd.Flags().Int("workers", 4, "number of parallel workers")
	cmd.Flags().Float64("review-threshold", pipeline.DefaultReviewThreshold, "flag transactions below this confidence (0.0-1.0)")
	cmd.Flags().Duration("dedupe-window", 0, "skip messages repeated across exports within this window (0 disables)")

	_ = viper.BindPFlag("pipeline.workers", cmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("pipeline.review_threshold", cmd.Flags().Lookup("review-threshold"))
	_ = viper.BindPFlag("pipeline.dedupe_window", cmd.Flags().Lookup("dedupe-window"))

	return cmd
}

func runExtract(cmd *cobra.Command, inputs []string, output string, save, quiet bool) error {
	filter, extractor, err := buildComponents()
	if err != nil {
		return err
	}

	opts := pipelineOptions(cmd.ErrOrStderr(), inputs[0], quiet)

	if save {
		store, err := initStorage(cmd.Context())
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := store.Close(); closeErr != nil {
				slog.Error("Failed to close database", "error", closeErr)
			}
		}()
		opts.Sink = store
	}

	p, err := pipeline.New(filter, extractor, opts)
	if err != nil {
		return common.NewUserError("Invalid pipeline settings", err)
	}

	runCtx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	interruptHandler := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx := interruptHandler.HandleInterrupts(runCtx, save)

	for _, input := range inputs {
		target := output
		if target == "" {
			target = defaultOutputPath(input, "transactions")
		}
		if err := extractOne(ctx, cmd, p, input, target, save); err != nil {
			if interruptHandler.WasInterrupted() {
				return common.NewUserError("Extraction interrupted", err)
			}
			return err
		}
	}
	return nil
}

func extractOne(ctx context.Context, cmd *cobra.Command, p *pipeline.Pipeline, input, output string, save bool) error {
	msgs, err := loadMessages(input)
	if err != nil {
		return err
	}

	result, runErr := p.RunSource(ctx, input, msgs)
	if result == nil {
		return fmt.Errorf("extraction of %s failed: %w", input, runErr)
	}

	out := extractOutput{
		RunID:        result.RunID,
		Statistics:   result.Summary,
		Transactions: result.Transactions(),
	}
	if out.Transactions == nil {
		out.Transactions = []model.Record{}
	}

	if err := ingest.WriteJSON(output, out); err != nil {
		return common.NewUserError("Failed to write output", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, cli.RenderSummary(result.Summary))
	fmt.Fprintln(w, cli.FormatSuccess(fmt.Sprintf("Wrote %d transactions to %s", len(out.Transactions), output)))

	if runErr != nil {
		// Output is on disk; only persistence failed.
		if errors.Is(runErr, common.ErrDatabaseBusy) {
			return common.NewUserError("Database is busy, results were not saved", runErr)
		}
		return common.NewUserError("Failed to save results", runErr)
	}

	if save {
		fmt.Fprintln(w, cli.FormatInfo(fmt.Sprintf("Saved run %s", result.RunID)))
	}
	if result.Summary.Duplicates > 0 {
		fmt.Fprintln(w, cli.FormatInfo(fmt.Sprintf("Skipped %d duplicate messages", result.Summary.Duplicates)))
	}
	if result.Summary.NeedsReview > 0 {
		fmt.Fprintln(w, cli.FormatWarning(fmt.Sprintf("%d transactions need review", result.Summary.NeedsReview)))
	}
	return nil
}
