package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/smsfin/internal/cli"
	"github.com/Veraticus/smsfin/internal/common"
	"github.com/Veraticus/smsfin/internal/model"
	"github.com/Veraticus/smsfin/internal/service"
	"github.com/spf13/cobra"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"txns"},
		Short:   "List stored transactions",
		Long: `List transactions saved by 'smsfin extract --save', newest first.

Examples:
  smsfin transactions --type debit --bank "HDFC Bank"
  smsfin transactions --start-date 2024-12-01 --end-date 2024-12-31 --json
  smsfin transactions --run 3f1c... --min-confidence 0.8`,
		Args: cobra.NoArgs,
		RunE: runTransactionsList,
	}

	cmd.Flags().String("start-date", "", "only transactions on or after this date (YYYY-MM-DD)")
	cmd.Flags().String("end-date", "", "only transactions on or before this date (YYYY-MM-DD)")
	cmd.Flags().String("type", "", "transaction type (debit, credit, unknown)")
	cmd.Flags().String("bank", "", "bank name")
	cmd.Flags().String("category", "", "category (investment, loan, atm_withdrawal, bill, food_dining, transfer, other)")
	cmd.Flags().String("run", "", "only transactions from this run")
	cmd.Flags().Float64("min-confidence", 0, "minimum confidence (0.0-1.0)")
	cmd.Flags().Bool("needs-review", false, "only transactions flagged for review")
	cmd.Flags().Int("limit", 50, "maximum number of transactions (0 for all)")
	cmd.Flags().Int("offset", 0, "skip this many transactions")
	cmd.Flags().Bool("json", false, "print JSON instead of a table")

	cmd.AddCommand(reviewCmd())
	cmd.AddCommand(resolveCmd())

	return cmd
}

func parseTransactionFilter(cmd *cobra.Command) (service.TransactionFilter, error) {
	startDateStr, _ := cmd.Flags().GetString("start-date")
	endDateStr, _ := cmd.Flags().GetString("end-date")
	typeStr, _ := cmd.Flags().GetString("type")
	bankName, _ := cmd.Flags().GetString("bank")
	categoryStr, _ := cmd.Flags().GetString("category")
	runID, _ := cmd.Flags().GetString("run")
	minConfidence, _ := cmd.Flags().GetFloat64("min-confidence")
	needsReview, _ := cmd.Flags().GetBool("needs-review")
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")

	filter := service.TransactionFilter{
		Bank:          bankName,
		RunID:         runID,
		MinConfidence: minConfidence,
		NeedsReview:   needsReview,
		Limit:         limit,
		Offset:        offset,
	}

	if startDateStr != "" {
		startDate, err := time.ParseInLocation("2006-01-02", startDateStr, time.Local)
		if err != nil {
			return filter, fmt.Errorf("invalid start date format (use YYYY-MM-DD): %w", err)
		}
		filter.StartDate = &startDate
	}
	if endDateStr != "" {
		endDate, err := time.ParseInLocation("2006-01-02", endDateStr, time.Local)
		if err != nil {
			return filter, fmt.Errorf("invalid end date format (use YYYY-MM-DD): %w", err)
		}
		// Inclusive of the whole day
		endDate = endDate.Add(24*time.Hour - time.Nanosecond)
		filter.EndDate = &endDate
	}

	switch t := model.TransactionType(strings.ToLower(typeStr)); t {
	case "":
	case model.TypeDebit, model.TypeCredit, model.TypeUnknown:
		filter.Type = t
	default:
		return filter, fmt.Errorf("invalid type: %s (valid options: debit, credit, unknown)", typeStr)
	}

	if categoryStr != "" {
		filter.Category = model.Category(strings.ToLower(categoryStr))
	}

	return filter, nil
}

func runTransactionsList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	filter, err := parseTransactionFilter(cmd)
	if err != nil {
		return common.NewUserError("Invalid filter", err)
	}
	asJSON, _ := cmd.Flags().GetBool("json")

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("failed to close storage", "error", closeErr)
		}
	}()

	txns, err := store.GetTransactions(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to get transactions: %w", err)
	}

	w := cmd.OutOrStdout()
	if asJSON {
		return writeJSON(w, txns)
	}

	fmt.Fprintln(w, cli.FormatTitle("Transactions"))
	fmt.Fprintln(w, cli.RenderTransactions(txns))
	return nil
}

func reviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Show low-confidence transactions",
		Long: `List transactions flagged for review, least confident first.

With --interactive each transaction is shown in full and can be accepted,
which clears the review flag, or skipped.`,
		Args: cobra.NoArgs,
		RunE: runReview,
	}

	cmd.Flags().Int("limit", 20, "maximum number of transactions (0 for all)")
	cmd.Flags().BoolP("interactive", "i", false, "step through the queue and accept or skip each transaction")

	return cmd
}

func runReview(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	limit, _ := cmd.Flags().GetInt("limit")
	interactive, _ := cmd.Flags().GetBool("interactive")

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("failed to close storage", "error", closeErr)
		}
	}()

	queue, err := store.GetReviewQueue(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to get review queue: %w", err)
	}

	w := cmd.OutOrStdout()
	if len(queue) == 0 {
		fmt.Fprintln(w, cli.FormatSuccess("Nothing to review"))
		return nil
	}

	if !interactive {
		fmt.Fprintln(w, cli.FormatTitle("Review queue"))
		fmt.Fprintln(w, cli.RenderTransactions(queue))
		return nil
	}

	return reviewInteractively(cmd, store, queue)
}

func reviewInteractively(cmd *cobra.Command, store service.Storage, queue []model.StoredTransaction) error {
	ctx := cmd.Context()
	w := cmd.OutOrStdout()
	reviewer := cli.NewReviewer(cmd.InOrStdin(), w)

	accepted, skipped := 0, 0
	for i, txn := range queue {
		decision, err := reviewer.Review(ctx, txn, i+1, len(queue))
		if err != nil {
			if errors.Is(err, cli.ErrInputCancelled) {
				break
			}
			return fmt.Errorf("review failed: %w", err)
		}

		if decision == cli.DecisionQuit {
			break
		}
		if decision == cli.DecisionSkip {
			skipped++
			continue
		}

		if err := store.MarkReviewed(ctx, txn.MessageHash); err != nil {
			return fmt.Errorf("failed to mark %s reviewed: %w", txn.MessageHash, err)
		}
		accepted++
	}

	fmt.Fprintln(w, cli.FormatInfo(fmt.Sprintf("Accepted %d, skipped %d, %d left in queue",
		accepted, skipped, len(queue)-accepted)))
	return nil
}

func resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <message-hash>",
		Short: "Clear the review flag on a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := store.Close(); closeErr != nil {
					slog.Error("failed to close storage", "error", closeErr)
				}
			}()

			if err := store.MarkReviewed(ctx, args[0]); err != nil {
				if errors.Is(err, common.ErrNotFound) {
					return common.NewUserError(fmt.Sprintf("No transaction with hash %s", args[0]), err)
				}
				return fmt.Errorf("failed to resolve transaction: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Marked reviewed"))
			return nil
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}
