package main

import (
	"strings"
	"time"

	"github.com/Veraticus/smsfin/internal/common"
	"github.com/Veraticus/smsfin/internal/ingest"
	"github.com/Veraticus/smsfin/internal/model"
	"github.com/spf13/cobra"
)

type checkOutput struct {
	Transaction    *model.ExtractedTransaction `json:"transaction,omitempty"`
	Classification model.ClassificationResult  `json:"classification"`
}

func checkCmd() *cobra.Command {
	var (
		body    string
		sender  string
		date    string
		extract bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Classify and extract a single message",
		Long: `Run one message through the filter and, when it is financial, the
extractor. Prints the result as JSON. Useful when writing custom rules.

Examples:
  smsfin check --sender VM-HDFCBK --body "Rs 500 debited from a/c XX1234 via UPI"
  smsfin check --body "Your OTP is 123456" --extract`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, body, sender, date, extract)
		},
	}

	cmd.Flags().StringVar(&body, "body", "", "message body (required)")
	cmd.Flags().StringVar(&sender, "sender", "", "sender address or header")
	cmd.Flags().StringVar(&date, "date", "", "receipt time (epoch seconds/ms or a date); defaults to now")
	cmd.Flags().BoolVar(&extract, "extract", false, "extract fields even when the message is not financial")
	_ = cmd.MarkFlagRequired("body")

	return cmd
}

func runCheck(cmd *cobra.Command, body, sender, date string, forceExtract bool) error {
	if strings.TrimSpace(body) == "" {
		return common.NewUserError("Message body is empty", nil)
	}

	received := time.Now()
	if date != "" {
		ts, err := ingest.ParseTimestamp(date)
		if err != nil {
			return common.NewUserError("Could not parse --date", err)
		}
		received = ts
	}

	filter, extractor, err := buildComponents()
	if err != nil {
		return err
	}

	msg := model.RawMessage{Sender: sender, Body: body, Timestamp: received}

	out := checkOutput{Classification: filter.ClassifyMessage(msg)}
	if out.Classification.IsFinancial || forceExtract {
		txn := extractor.ExtractMessage(msg)
		out.Transaction = &txn
	}

	return writeJSON(cmd.OutOrStdout(), out)
}
