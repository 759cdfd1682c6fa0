package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/smsfin/internal/cli"
	"github.com/Veraticus/smsfin/internal/common"
	"github.com/Veraticus/smsfin/internal/model"
	"github.com/spf13/cobra"
)

func runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List saved extraction runs",
		Long: `List runs saved by 'smsfin extract --save', newest first.

Examples:
  smsfin runs
  smsfin runs show <run-id>
  smsfin runs exclusions`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			limit, _ := cmd.Flags().GetInt("limit")

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := store.Close(); closeErr != nil {
					slog.Error("failed to close storage", "error", closeErr)
				}
			}()

			runs, err := store.ListRuns(ctx, limit)
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, cli.FormatTitle("Runs"))
			fmt.Fprintln(w, cli.RenderRuns(runs))
			return nil
		},
	}

	cmd.Flags().Int("limit", 20, "maximum number of runs (0 for all)")

	cmd.AddCommand(runShowCmd())
	cmd.AddCommand(exclusionsCmd())

	return cmd
}

func runShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the statistics of one run",
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

			run, err := store.GetRun(ctx, args[0])
			if err != nil {
				if errors.Is(err, common.ErrNotFound) {
					return common.NewUserError(fmt.Sprintf("No run with ID %s", args[0]), err)
				}
				return fmt.Errorf("failed to get run: %w", err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, cli.RenderBox("Run "+run.ID, renderRun(run)))
			return nil
		},
	}
}

func exclusionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exclusions",
		Short: "Count stored excluded messages by reason",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			runID, _ := cmd.Flags().GetString("run")

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := store.Close(); closeErr != nil {
					slog.Error("failed to close storage", "error", closeErr)
				}
			}()

			breakdown, err := store.GetExclusionBreakdown(ctx, runID)
			if err != nil {
				return fmt.Errorf("failed to count exclusions: %w", err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, cli.FormatTitle("Exclusions"))
			fmt.Fprint(w, renderBreakdown(breakdown))
			return nil
		},
	}

	cmd.Flags().String("run", "", "only count messages from this run")

	return cmd
}

func renderRun(run *model.Run) string {
	s := fmt.Sprintf("Source:       %s\nStarted:      %s\nDuration:     %s\nTotal:        %d\nInbound:      %d\nDuplicates:   %d\nFinancial:    %d\nExcluded:     %d\nExtracted:    %d\nNeeds review: %d\n",
		run.Source,
		run.StartedAt.Local().Format("2006-01-02 15:04:05"),
		run.Duration().Round(time.Millisecond),
		run.Total,
		run.Inbound,
		run.Duplicates,
		run.Financial,
		run.Excluded,
		run.Extracted,
		run.NeedsReview,
	)
	return s + renderBreakdown(run.ExclusionBreakdown)
}

// renderBreakdown lists reasons in reporting order, skipping empty ones.
func renderBreakdown(breakdown map[model.ExclusionReason]int) string {
	var s string
	for _, reason := range model.ExclusionReasons() {
		if n := breakdown[reason]; n > 0 {
			s += fmt.Sprintf("  %-16s %d\n", reason, n)
		}
	}
	if s == "" {
		return "  (none)\n"
	}
	return s
}
