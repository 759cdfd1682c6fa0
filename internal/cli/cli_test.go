package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/smsfin/internal/model"
	"github.com/Veraticus/smsfin/internal/pipeline"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer provides thread-safe access to a bytes.Buffer.
type syncBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (s *syncBuffer) Write(p []byte) (n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func sampleTransaction() model.StoredTransaction {
	amt := decimal.RequireFromString("500")
	date := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	return model.StoredTransaction{
		MessageHash: "abc123",
		Sender:      "VM-HDFCBK-S",
		ExtractedTransaction: model.ExtractedTransaction{
			Amount:          &amt,
			Type:            model.TypeDebit,
			Currency:        "INR",
			TransactionDate: &date,
			DateSource:      model.DateFromBody,
			Bank:            "HDFC Bank",
			Method:          model.MethodUPI,
			Category:        model.CategoryTransfer,
			Summary:         "Paid ₹500.00 via UPI",
			Confidence:      0.42,
		},
		NeedsReview: true,
	}
}

func TestFormatAmount(t *testing.T) {
	txn := sampleTransaction().ExtractedTransaction
	assert.Contains(t, FormatAmount(txn), "-₹500.00")

	txn.Type = model.TypeCredit
	assert.Contains(t, FormatAmount(txn), "+₹500.00")

	txn.Type = model.TypeUnknown
	txn.Currency = "AED"
	assert.Equal(t, "AED 500.00", FormatAmount(txn))

	txn.Amount = nil
	assert.Contains(t, FormatAmount(txn), "-")
}

func TestTransactionDetails(t *testing.T) {
	details := TransactionDetails(sampleTransaction())

	assert.Contains(t, details, "Paid ₹500.00 via UPI")
	assert.Contains(t, details, BankIcon+" HDFC Bank")
	assert.Contains(t, details, "01 Dec 2024")
	assert.Contains(t, details, "abc123")
	assert.NotContains(t, details, "Reference")
	assert.Contains(t, details, "42%")
}

func TestRenderSummary(t *testing.T) {
	out := RenderSummary(pipeline.Summary{
		Total:               10,
		Inbound:             9,
		OutboundSkipped:     1,
		Financial:           3,
		Excluded:            6,
		FinancialPercentage: 33.33,
		Extracted:           3,
		NeedsReview:         1,
		AverageConfidence:   0.71,
		ExclusionBreakdown:  map[model.ExclusionReason]int{model.ReasonOTP: 4, model.ReasonNone: 2},
		Duration:            1500 * time.Millisecond,
	})

	assert.Contains(t, out, "Run Summary")
	assert.Contains(t, out, "33.33%")
	assert.Contains(t, out, "otp")
	assert.Contains(t, out, "Needs review")
	assert.NotContains(t, out, "social")
}

func TestRenderTables(t *testing.T) {
	assert.Contains(t, RenderTransactions(nil), "No transactions found")
	assert.Contains(t, RenderRuns(nil), "No runs recorded")

	table := RenderTransactions([]model.StoredTransaction{sampleTransaction()})
	assert.Contains(t, table, "2024-12-01")
	assert.Contains(t, table, "HDFC Bank")

	runs := RenderRuns([]model.Run{{ID: "run-1", Source: "sms.json", StartedAt: time.Now(), Total: 5, Financial: 2}})
	assert.Contains(t, runs, "run-1")
	assert.Contains(t, runs, "sms.json")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Swiggy Ins…", truncate("Swiggy Instamart", 11))
	assert.Equal(t, "S", truncate("Swiggy", 1))
}

func TestReviewer_Review(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Decision
	}{
		{name: "accept", input: "a\n", want: DecisionAccept},
		{name: "yes", input: "YES\n", want: DecisionAccept},
		{name: "skip on empty line", input: "\n", want: DecisionSkip},
		{name: "quit", input: "q\n", want: DecisionQuit},
		{name: "end of input quits", input: "", want: DecisionQuit},
		{name: "reprompts on unknown", input: "maybe\ns\n", want: DecisionSkip},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &syncBuffer{}
			r := NewReviewer(strings.NewReader(tt.input), out)

			got, err := r.Review(context.Background(), sampleTransaction(), 1, 3)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "Review 1 of 3")
		})
	}
}

func TestReviewer_UnknownChoiceWarns(t *testing.T) {
	out := &syncBuffer{}
	r := NewReviewer(strings.NewReader("maybe\na\n"), out)

	got, err := r.Review(context.Background(), sampleTransaction(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, DecisionAccept, got)
	assert.Contains(t, out.String(), `Unknown choice "maybe"`)
}

func TestReviewer_SequentialReviews(t *testing.T) {
	r := NewReviewer(strings.NewReader("a\ns\n"), &syncBuffer{})
	ctx := context.Background()

	first, err := r.Review(ctx, sampleTransaction(), 1, 2)
	require.NoError(t, err)
	second, err := r.Review(ctx, sampleTransaction(), 2, 2)
	require.NoError(t, err)

	assert.Equal(t, DecisionAccept, first)
	assert.Equal(t, DecisionSkip, second)
}

func TestReviewer_ContextCancelled(t *testing.T) {
	blocking, _ := newBlockingReader()
	r := NewReviewer(blocking, &syncBuffer{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Review(ctx, sampleTransaction(), 1, 1)
	assert.ErrorIs(t, err, ErrInputCancelled)
}

// blockingReader never returns data until closed.
type blockingReader struct {
	done chan struct{}
}

func newBlockingReader() (*blockingReader, func()) {
	b := &blockingReader{done: make(chan struct{})}
	return b, func() { close(b.done) }
}

func (b *blockingReader) Read(_ []byte) (int, error) {
	<-b.done
	return 0, context.Canceled
}

func TestInterruptHandler(t *testing.T) {
	out := &syncBuffer{}
	handler := NewInterruptHandler(out)
	assert.False(t, handler.WasInterrupted())

	parent, cancelParent := context.WithCancel(context.Background())
	ctx := handler.HandleInterrupts(parent, true)

	handler.trigger()
	handler.trigger()

	assert.True(t, handler.WasInterrupted())
	assert.Equal(t, 1, strings.Count(out.String(), "Extraction interrupted!"))
	assert.Contains(t, out.String(), "stored messages are skipped")

	// Cancelling the parent releases the signal watcher without counting as an interrupt.
	cancelParent()
	<-ctx.Done()

	quiet := NewInterruptHandler(&syncBuffer{})
	qctx, qcancel := context.WithCancel(context.Background())
	qctx = quiet.HandleInterrupts(qctx, false)
	qcancel()
	<-qctx.Done()
	assert.False(t, quiet.WasInterrupted())
}
