package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/smsfin/internal/model"
	"github.com/Veraticus/smsfin/internal/pipeline"
	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"
)

var currencySymbols = map[string]string{
	"INR": "₹",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// FormatAmount renders the transaction amount with its currency, tinted by direction.
func FormatAmount(txn model.ExtractedTransaction) string {
	if txn.Amount == nil {
		return SubtleStyle.Render("-")
	}

	symbol, ok := currencySymbols[txn.Currency]
	if !ok && txn.Currency != "" {
		symbol = txn.Currency + " "
	}
	text := symbol + txn.Amount.StringFixed(2)

	switch txn.Type {
	case model.TypeDebit:
		return DebitStyle.Render("-" + text)
	case model.TypeCredit:
		return CreditStyle.Render("+" + text)
	default:
		return text
	}
}

// FormatConfidence renders a confidence score as a colored percentage.
func FormatConfidence(confidence float64) string {
	text := fmt.Sprintf("%3.0f%%", confidence*100)
	switch {
	case confidence >= 0.8:
		return SuccessStyle.Render(text)
	case confidence >= pipeline.DefaultReviewThreshold:
		return WarningStyle.Render(text)
	default:
		return ErrorStyle.Render(text)
	}
}

// TransactionDetails lists the populated fields of a stored transaction.
func TransactionDetails(txn model.StoredTransaction) string {
	var b strings.Builder
	line := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(&b, "%s %s\n", SubtleStyle.Render(fmt.Sprintf("%-13s", label+":")), value)
	}

	if txn.Summary != "" {
		b.WriteString(BoldStyle.Render(txn.Summary) + "\n\n")
	}
	line("Amount", FormatAmount(txn.ExtractedTransaction))
	if txn.TransactionDate != nil {
		line("Date", txn.TransactionDate.Format("02 Jan 2006 15:04")+" ("+string(txn.DateSource)+")")
	}
	line("Sender", txn.Sender)
	if txn.Bank != "" {
		line("Bank", BankIcon+" "+txn.Bank)
	}
	line("Account", txn.AccountNumber)
	if txn.Method != model.MethodUnknown {
		line("Method", string(txn.Method))
	}
	line("Counterparty", txn.Counterparty)
	line("Reference", txn.ReferenceID)
	if txn.Balance != nil {
		line("Balance", txn.Balance.StringFixed(2))
	}
	line("Category", string(txn.Category))
	line("Confidence", FormatConfidence(txn.Confidence))
	line("Hash", SubtleStyle.Render(txn.MessageHash))

	return strings.TrimRight(b.String(), "\n")
}

// RenderSummary renders run statistics in a box.
func RenderSummary(s pipeline.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Messages:        %d (%d inbound)\n", s.Total, s.Inbound)
	if s.OutboundSkipped > 0 || s.Duplicates > 0 {
		fmt.Fprintf(&b, "Skipped:         %d outbound, %d duplicate\n", s.OutboundSkipped, s.Duplicates)
	}
	fmt.Fprintf(&b, "Financial:       %s (%.2f%%)\n", SuccessStyle.Render(fmt.Sprint(s.Financial)), s.FinancialPercentage)
	fmt.Fprintf(&b, "Excluded:        %d\n", s.Excluded)

	for _, reason := range model.ExclusionReasons() {
		if n := s.ExclusionBreakdown[reason]; n > 0 {
			fmt.Fprintf(&b, "  %-15s %d\n", reason, n)
		}
	}

	if s.Extracted > 0 {
		fmt.Fprintf(&b, "Extracted:       %d (avg confidence %s)\n", s.Extracted, FormatConfidence(s.AverageConfidence))
	}
	if s.NeedsReview > 0 {
		fmt.Fprintf(&b, "Needs review:    %s\n", WarningStyle.Render(fmt.Sprint(s.NeedsReview)))
	}
	fmt.Fprintf(&b, "Duration:        %s", s.Duration.Round(time.Millisecond))

	return RenderBox(ChartIcon+" Run Summary", b.String())
}

// RenderTransactions renders stored transactions as a table.
func RenderTransactions(txns []model.StoredTransaction) string {
	if len(txns) == 0 {
		return FormatInfo("No transactions found")
	}

	header := fmt.Sprintf("%-11s %-14s %-20s %-24s %-14s %5s", "Date", "Amount", "Bank", "Counterparty", "Category", "Conf")
	rows := []string{TableHeaderStyle.Render(header)}

	for _, txn := range txns {
		date := "-"
		if txn.TransactionDate != nil {
			date = txn.TransactionDate.Format("2006-01-02")
		}
		rows = append(rows, fmt.Sprintf("%-11s %s %-20s %-24s %-14s %s",
			date,
			pad(FormatAmount(txn.ExtractedTransaction), 14),
			truncate(txn.Bank, 20),
			truncate(txn.Counterparty, 24),
			truncate(string(txn.Category), 14),
			FormatConfidence(txn.Confidence),
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// RenderRuns renders recorded runs as a table.
func RenderRuns(runs []model.Run) string {
	if len(runs) == 0 {
		return FormatInfo("No runs recorded")
	}

	header := fmt.Sprintf("%-36s %-16s %6s %9s %8s %6s  %s", "Run", "Started", "Total", "Financial", "Excluded", "Review", "Source")
	rows := []string{TableHeaderStyle.Render(header)}
	for _, run := range runs {
		rows = append(rows, fmt.Sprintf("%-36s %-16s %6d %9d %8d %6d  %s",
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			run.Total,
			run.Financial,
			run.Excluded,
			run.NeedsReview,
			run.Source,
		))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// NewProgressBar creates the progress bar used for batch runs.
func NewProgressBar(total int, w io.Writer, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]"+description+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}

// pad right-pads styled text to width visible cells.
func pad(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
