package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/smsfin/internal/cli"
	"github.com/Veraticus/smsfin/internal/common"
	"github.com/Veraticus/smsfin/internal/ingest"
	"github.com/Veraticus/smsfin/internal/model"
	"github.com/Veraticus/smsfin/internal/pipeline"
	"github.com/spf13/cobra"
)

type filteredMessage struct {
	model.RawMessage
	Hash          string   `json:"hash"`
	MatchedGroups []string `json:"matched_groups,omitempty"`
	Score         int      `json:"score"`
}

type excludedMessage struct {
	model.RawMessage
	Reason     model.ExclusionReason `json:"exclusion_reason"`
	ExcludedBy string                `json:"excluded_by,omitempty"`
}

type filterOutput struct {
	RunID        string            `json:"run_id"`
	FinancialSMS []filteredMessage `json:"financial_sms"`
	ExcludedSMS  []excludedMessage `json:"excluded_sms,omitempty"`
	Statistics   pipeline.Summary  `json:"statistics"`
}

func filterCmd() *cobra.Command {
	var (
		output          string
		includeExcluded bool
		quiet           bool
	)

	cmd := &cobra.Command{
		Use:   "filter <export>",
		Short: "Separate financial messages from the rest",
		Long: `Classify every inbound message of an SMS export and write the financial
ones, with statistics, to a JSON file.

Accepts JSON exports (an array, or an object with an "sms" or "messages" list)
and SMS Backup & Restore XML files.

Examples:
  smsfin filter inbox.xml
  smsfin filter sms.json -o financial.json --include-excluded`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilter(cmd, args[0], output, includeExcluded, quiet)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <export>_financial.json)")
	cmd.Flags().BoolVar(&includeExcluded, "include-excluded", false, "also list excluded messages with their reason")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "hide the progress bar")

	return cmd
}

func runFilter(cmd *cobra.Command, input, output string, includeExcluded, quiet bool) error {
	msgs, err := loadMessages(input)
	if err != nil {
		return err
	}

	filter, extractor, err := buildComponents()
	if err != nil {
		return err
	}

	p, err := pipeline.New(filter, extractor, pipelineOptions(cmd.ErrOrStderr(), input, quiet))
	if err != nil {
		return common.NewUserError("Invalid pipeline settings", err)
	}

	result, err := p.Run(cmd.Context(), msgs)
	if err != nil {
		return fmt.Errorf("filter failed: %w", err)
	}

	out := filterOutput{
		RunID:        result.RunID,
		Statistics:   result.Summary,
		FinancialSMS: make([]filteredMessage, 0, result.Summary.Financial),
	}
	for _, rec := range result.Records {
		switch {
		case rec.Classification.IsFinancial:
			out.FinancialSMS = append(out.FinancialSMS, filteredMessage{
				RawMessage:    rec.Message,
				Hash:          rec.Hash,
				Score:         rec.Classification.Score,
				MatchedGroups: rec.Classification.MatchedGroups,
			})
		case includeExcluded && !rec.Skipped():
			out.ExcludedSMS = append(out.ExcludedSMS, excludedMessage{
				RawMessage: rec.Message,
				Reason:     rec.Classification.ExclusionReason,
				ExcludedBy: rec.Classification.ExcludedBy,
			})
		}
	}

	if output == "" {
		output = defaultOutputPath(input, "financial")
	}
	if err := ingest.WriteJSON(output, out); err != nil {
		return common.NewUserError("Failed to write output", err)
	}
	slog.Info("Wrote financial messages", "path", output, "count", len(out.FinancialSMS))

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, cli.RenderSummary(result.Summary))
	fmt.Fprintln(w, cli.FormatSuccess(fmt.Sprintf("Wrote %d financial messages to %s", len(out.FinancialSMS), output)))
	return nil
}
