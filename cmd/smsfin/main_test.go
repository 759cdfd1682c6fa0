package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/smsfin/internal/ingest"
	"github.com/Veraticus/smsfin/internal/model"
	"github.com/Veraticus/smsfin/internal/storage"
	"github.com/Veraticus/smsfin/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cmdResult struct {
	stdout string
	stderr string
	code   int
}

// execute runs the CLI in-process against an isolated home directory.
func execute(t *testing.T, stdin string, args ...string) cmdResult {
	t.Helper()
	viper.Reset()
	t.Setenv("HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	args = append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...)
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return cmdResult{stdout: stdout.String(), stderr: stderr.String(), code: code}
}

func writeExport(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sms.json")
	require.NoError(t, ingest.WriteJSON(path, testutil.Messages()))
	return path
}

func TestVersionCommand(t *testing.T) {
	res := execute(t, "", "version")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "smsfin dev")
}

func TestFilterCommand(t *testing.T) {
	input := writeExport(t)

	res := execute(t, "", "filter", input, "-q", "--include-excluded")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "financial messages")

	data, err := os.ReadFile(filepath.Join(filepath.Dir(input), "sms_financial.json"))
	require.NoError(t, err)

	var out struct {
		FinancialSMS []struct {
			Sender string `json:"sender"`
			Score  int    `json:"score"`
		} `json:"financial_sms"`
		ExcludedSMS []struct {
			Reason string `json:"exclusion_reason"`
		} `json:"excluded_sms"`
		Statistics struct {
			Total               int     `json:"total_sms"`
			Financial           int     `json:"financial_sms"`
			FinancialPercentage float64 `json:"financial_percentage"`
		} `json:"statistics"`
	}
	require.NoError(t, json.Unmarshal(data, &out))

	assert.Len(t, out.FinancialSMS, testutil.FinancialCount())
	assert.Len(t, out.ExcludedSMS, len(testutil.Messages())-testutil.FinancialCount())
	assert.Equal(t, len(testutil.Messages()), out.Statistics.Total)
	assert.Equal(t, testutil.FinancialCount(), out.Statistics.Financial)
	assert.InDelta(t, 23.53, out.Statistics.FinancialPercentage, 0.001)
	for _, sms := range out.FinancialSMS {
		assert.GreaterOrEqual(t, sms.Score, 2, sms.Sender)
	}
}

func TestFilterCommand_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "unsupported content", content: "hello", want: "Failed to read"},
		{name: "empty list", content: "[]", want: "Failed to read"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "input.txt")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0600))

			res := execute(t, "", "filter", path, "-q")
			assert.Equal(t, 1, res.code)
			assert.Contains(t, res.stderr, tt.want)
		})
	}
}

func TestExtractCommand_SaveAndQuery(t *testing.T) {
	input := writeExport(t)
	dbPath := filepath.Join(t.TempDir(), "smsfin.db")
	output := filepath.Join(t.TempDir(), "out", "txns.json")

	res := execute(t, "", "--db", dbPath, "extract", input, "-q", "--save", "-o", output, "--workers", "2")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Saved run")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	var out extractOutput
	require.NoError(t, json.Unmarshal(data, &out))
	assert.NotEmpty(t, out.RunID)
	assert.Len(t, out.Transactions, testutil.FinancialCount())
	for _, rec := range out.Transactions {
		require.NotNil(t, rec.Transaction)
		assert.True(t, rec.Classification.IsFinancial)
	}

	res = execute(t, "", "--db", dbPath, "transactions", "--json", "--limit", "0")
	require.Equal(t, 0, res.code, res.stderr)
	var stored []model.StoredTransaction
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &stored))
	assert.Len(t, stored, testutil.FinancialCount())

	res = execute(t, "", "--db", dbPath, "transactions", "--json", "--type", "credit")
	require.Equal(t, 0, res.code, res.stderr)
	stored = nil
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &stored))
	for _, txn := range stored {
		assert.Equal(t, model.TypeCredit, txn.Type)
	}

	res = execute(t, "", "--db", dbPath, "runs")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, out.RunID)

	res = execute(t, "", "--db", dbPath, "runs", "show", out.RunID)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "otp")

	res = execute(t, "", "--db", dbPath, "runs", "exclusions")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "promotional")

	// Re-running stores nothing new.
	res = execute(t, "", "--db", dbPath, "extract", input, "-q", "--save", "-o", output)
	require.Equal(t, 0, res.code, res.stderr)
	res = execute(t, "", "--db", dbPath, "transactions", "--json", "--limit", "0")
	require.Equal(t, 0, res.code, res.stderr)
	stored = nil
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &stored))
	assert.Len(t, stored, testutil.FinancialCount())
}

func TestExtractCommand_InvalidReviewThreshold(t *testing.T) {
	input := writeExport(t)

	res := execute(t, "", "extract", input, "-q", "--review-threshold", "1.5", "-o", filepath.Join(t.TempDir(), "x.json"))
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "Invalid pipeline settings")
}

func TestExtractCommand_DedupeWindowAcrossExports(t *testing.T) {
	first := writeExport(t)
	second := writeExport(t)

	res := execute(t, "", "extract", first, second, "-q", "--dedupe-window", "1h")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Skipped")

	readStats := func(input string) extractOutput {
		data, err := os.ReadFile(defaultOutputPath(input, "transactions"))
		require.NoError(t, err)
		var out extractOutput
		require.NoError(t, json.Unmarshal(data, &out))
		return out
	}

	out := readStats(first)
	assert.Zero(t, out.Statistics.Duplicates)
	assert.Len(t, out.Transactions, testutil.FinancialCount())

	out = readStats(second)
	assert.Equal(t, len(testutil.Messages()), out.Statistics.Duplicates)
	assert.Empty(t, out.Transactions)

	// Without a window each export is deduplicated on its own.
	res = execute(t, "", "extract", first, second, "-q")
	require.Equal(t, 0, res.code, res.stderr)
	out = readStats(second)
	assert.Zero(t, out.Statistics.Duplicates)
	assert.Len(t, out.Transactions, testutil.FinancialCount())
}

func TestExtractCommand_OutputNeedsSingleExport(t *testing.T) {
	first := writeExport(t)
	second := writeExport(t)

	res := execute(t, "", "extract", first, second, "-q", "-o", filepath.Join(t.TempDir(), "x.json"))
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "--output needs a single export")
}

func TestCheckCommand(t *testing.T) {
	tests := []struct {
		name       string
		wantAmount string
		wantReason model.ExclusionReason
		args       []string
		financial  bool
		wantTxn    bool
	}{
		{
			name:       "upi debit",
			args:       []string{"--sender", "VM-HDFCBK", "--body", "Rs 500 debited from A/c XX1234 via UPI Ref 123456789012", "--date", "1733049000"},
			financial:  true,
			wantTxn:    true,
			wantAmount: "500",
		},
		{
			name:       "otp",
			args:       []string{"--sender", "VM-HDFCBK", "--body", "123456 is your OTP. Do not share."},
			wantReason: model.ReasonOTP,
		},
		{
			name:       "forced extraction",
			args:       []string{"--body", "Hello there", "--extract"},
			wantReason: model.ReasonNone,
			wantTxn:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := execute(t, "", append([]string{"check"}, tt.args...)...)
			require.Equal(t, 0, res.code, res.stderr)

			var out checkOutput
			require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
			assert.Equal(t, tt.financial, out.Classification.IsFinancial)
			assert.Equal(t, tt.wantReason, out.Classification.ExclusionReason)

			if !tt.wantTxn {
				assert.Nil(t, out.Transaction)
				return
			}
			require.NotNil(t, out.Transaction)
			if tt.wantAmount != "" {
				require.NotNil(t, out.Transaction.Amount)
				assert.True(t, out.Transaction.Amount.Equal(decimal.RequireFromString(tt.wantAmount)))
			}
		})
	}
}

func TestCheckCommand_Errors(t *testing.T) {
	res := execute(t, "", "check")
	assert.Equal(t, 1, res.code)

	res = execute(t, "", "check", "--body", "   ")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "Message body is empty")

	res = execute(t, "", "check", "--body", "Rs 5 debited", "--date", "yesterday-ish")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "Could not parse --date")
}

func TestTransactionsCommand_InvalidFilter(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "smsfin.db")

	tests := []struct {
		name string
		args []string
	}{
		{name: "bad type", args: []string{"--type", "refund"}},
		{name: "bad start date", args: []string{"--start-date", "01/12/2024"}},
		{name: "end before start", args: []string{"--start-date", "2024-12-02", "--end-date", "2024-12-01"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--db", dbPath, "transactions"}, tt.args...)
			res := execute(t, "", args...)
			assert.Equal(t, 1, res.code)
		})
	}
}

func seedReviewQueue(t *testing.T, dbPath string) []model.Record {
	t.Helper()
	ctx := context.Background()

	store, err := storage.NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	require.NoError(t, store.Migrate(ctx))

	var records []model.Record
	for i, body := range []string{"Rs 10 debited", "Rs 20 debited"} {
		msg := model.RawMessage{
			ID:        model.MessageID(i + 1),
			Sender:    "VM-HDFCBK",
			Body:      body,
			Timestamp: testutil.FixtureTime,
			Direction: model.DirectionInbound,
		}
		amount := decimal.NewFromInt(int64(10 * (i + 1)))
		records = append(records, model.Record{
			Message:        msg,
			Hash:           msg.Hash(),
			Classification: model.ClassificationResult{IsFinancial: true, Score: 2},
			Transaction: &model.ExtractedTransaction{
				Amount:     &amount,
				Type:       model.TypeDebit,
				Currency:   "INR",
				Confidence: 0.3 + 0.1*float64(i),
			},
			NeedsReview: true,
		})
	}
	require.NoError(t, store.SaveRecords(ctx, "seed-run", records))
	return records
}

func TestReviewCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "smsfin.db")
	records := seedReviewQueue(t, dbPath)

	res := execute(t, "", "--db", dbPath, "transactions", "review")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Review queue")

	// Accept the least confident, skip the other.
	res = execute(t, "a\ns\n", "--db", dbPath, "transactions", "review", "-i")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Accepted 1, skipped 1, 1 left in queue")

	res = execute(t, "", "--db", dbPath, "transactions", "--needs-review", "--json")
	require.Equal(t, 0, res.code, res.stderr)
	var stored []model.StoredTransaction
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &stored))
	require.Len(t, stored, 1)
	assert.Equal(t, records[1].Hash, stored[0].MessageHash)

	res = execute(t, "", "--db", dbPath, "transactions", "resolve", records[1].Hash)
	require.Equal(t, 0, res.code, res.stderr)

	res = execute(t, "", "--db", dbPath, "transactions", "review")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Nothing to review")

	res = execute(t, "", "--db", dbPath, "transactions", "resolve", "no-such-hash")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "No transaction with hash")
}

func TestMigrateCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "smsfin.db")

	res := execute(t, "", "--db", dbPath, "migrate", "--status")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Current version: 0")
	assert.Contains(t, res.stdout, "Migrations pending")

	res = execute(t, "", "--db", dbPath, "migrate")
	require.Equal(t, 0, res.code, res.stderr)

	res = execute(t, "", "--db", dbPath, "migrate", "--status")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Current version: 2")
	assert.NotContains(t, res.stdout, "Migrations pending")
}

func TestRulesCommand(t *testing.T) {
	rulesPath := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(rulesPath, []byte(`
threshold: 3
default_currency: usd
banks:
  - name: Zeta Cooperative Bank
    sender_codes: [zetacb]
    keywords: [zeta cooperative bank]
`), 0600))

	res := execute(t, "", "rules")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "threshold: 2")
	assert.Contains(t, res.stdout, "HDFC Bank")

	res = execute(t, "", "--rules", rulesPath, "rules")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "threshold: 3")
	assert.Contains(t, res.stdout, "default_currency: USD")
	assert.Contains(t, res.stdout, "Zeta Cooperative Bank")

	res = execute(t, "", "--rules", filepath.Join(t.TempDir(), "missing.yaml"), "rules")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "Failed to load rules file")
}

func TestConfigFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("filter:\n  threshold: 4\n"), 0600))

	res := execute(t, "", "--config", cfgPath, "rules")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "threshold: 4")

	t.Setenv("SMSFIN_EXTRACTION_DEFAULT_CURRENCY", "eur")
	res = execute(t, "", "rules")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "default_currency: EUR")
}

func TestDefaultOutputPath(t *testing.T) {
	tests := []struct {
		input  string
		suffix string
		want   string
	}{
		{input: "inbox.xml", suffix: "financial", want: "inbox_financial.json"},
		{input: "/data/sms.json", suffix: "transactions", want: "/data/sms_transactions.json"},
		{input: "export", suffix: "financial", want: "export_financial.json"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, defaultOutputPath(tt.input, tt.suffix))
	}
}
