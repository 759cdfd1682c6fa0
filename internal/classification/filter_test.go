package classification

import (
	"context"
	"strings"
	"testing"

	"github.com/Veraticus/smsfin/internal/bank"
	"github.com/Veraticus/smsfin/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDefaultFilter(t *testing.T) *Filter {
	t.Helper()
	f, err := NewFilter(DefaultRules())
	require.NoError(t, err)
	return f
}

func TestNewFilter(t *testing.T) {
	tests := []struct {
		name    string
		errMsg  string
		rules   Rules
		wantErr bool
	}{
		{
			name:  "default rules",
			rules: DefaultRules(),
		},
		{
			name: "invalid regex",
			rules: Rules{
				Threshold: 2,
				Signals:   []SignalGroup{{Name: "bad", Points: 1, Patterns: []string{`[invalid regex`}}},
			},
			wantErr: true,
			errMsg:  "failed to compile pattern in group bad",
		},
		{
			name:    "zero threshold",
			rules:   Rules{Threshold: 0},
			wantErr: true,
			errMsg:  "threshold must be positive",
		},
		{
			name: "exclusion with none reason",
			rules: Rules{
				Threshold:  2,
				Exclusions: []ExclusionGroup{{Name: "x", Reason: model.ReasonNone, Patterns: []string{`x`}}},
			},
			wantErr: true,
			errMsg:  "has reason",
		},
		{
			name: "negative points",
			rules: Rules{
				Threshold: 2,
				Signals:   []SignalGroup{{Name: "neg", Points: -1, Patterns: []string{`x`}}},
			},
			wantErr: true,
			errMsg:  "negative points",
		},
		{
			name: "unknown target",
			rules: Rules{
				Threshold: 2,
				Signals:   []SignalGroup{{Name: "t", Points: 1, Target: "header", Patterns: []string{`x`}}},
			},
			wantErr: true,
			errMsg:  "unknown target",
		},
		{
			name:  "empty rules",
			rules: Rules{Threshold: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFilter(tt.rules)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Nil(t, f)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, f)
		})
	}
}

func TestFilter_Classify(t *testing.T) {
	f := newDefaultFilter(t)

	tests := []struct {
		name       string
		sender     string
		body       string
		wantReason model.ExclusionReason
		wantFin    bool
	}{
		{
			name:    "upi debit",
			sender:  "VM-HDFCBK-S",
			body:    "A/c *1234 debited for Rs:500.00 on 01-Dec-2024 via UPI Ref 111222333",
			wantFin: true,
		},
		{
			name:    "credit with balance",
			sender:  "AX-SBIINB",
			body:    "Rs.15000.00 credited to A/c *1234 on 22/09/25. Avl Bal: Rs:75000.00",
			wantFin: true,
		},
		{
			name:    "debit alert that warns about otp sharing",
			sender:  "JD-ICICIB",
			body:    "ICICI Bank Acct XX123 debited for Rs 240.00 on 03-Jul-25; Amazon credited. Never share your OTP with anyone.",
			wantFin: true,
		},
		{
			name:    "sip investment",
			sender:  "VK-SBIMF",
			body:    "Your SIP of Rs 5,000 in SBI Bluechip Fund has been processed. Units allotted: 12.345",
			wantFin: true,
		},
		{
			name:       "otp",
			sender:     "VM-HDFCBK",
			body:       "123456 is your OTP. Do not share.",
			wantReason: model.ReasonOTP,
		},
		{
			name:       "otp with financial keywords",
			sender:     "VM-HDFCBK",
			body:       "Your OTP is 482913 to confirm debit of Rs.2000.00 from A/c XX1234 at AMAZON.",
			wantReason: model.ReasonOTP,
		},
		{
			name:       "otp for card txn with amount before code",
			sender:     "VM-HDFCBK",
			body:       "OTP for txn of Rs.500.00 at AMAZON on HDFC Bank card XX1234 is 482913. Valid for 5 mins.",
			wantReason: model.ReasonOTP,
		},
		{
			name:       "code first otp without your",
			sender:     "JD-ICICIB",
			body:       "482913 is OTP for txn of INR 2,000.00 on ICICI Bank card XX1234. Do not share.",
			wantReason: model.ReasonOTP,
		},
		{
			name:       "otp for account transaction",
			sender:     "AX-SBIINB",
			body:       "Dear customer, OTP for transaction of Rs 750 on your SBI account is 93821. Never share it.",
			wantReason: model.ReasonOTP,
		},
		{
			name:       "use code as otp",
			sender:     "VM-KOTAKB",
			body:       "Use 839201 as OTP to complete payment of Rs.1200 to Swiggy. Kotak Bank",
			wantReason: model.ReasonOTP,
		},
		{
			name:    "debit alert with otp warning before balance",
			sender:  "VM-HDFCBK",
			body:    "Rs 2,000.00 debited from A/c XX1234 via UPI. Never share OTP with anyone. Avl bal is Rs 5000.00",
			wantFin: true,
		},
		{
			name:       "payment request",
			sender:     "VM-PAYTM",
			body:       "Rahul has requested money from you on Paytm. Rs 300 will be debited on approving the request.",
			wantReason: model.ReasonPaymentRequest,
		},
		{
			name:       "promotion",
			sender:     "BZ-MYNTRA",
			body:       "Flat 50% off on all brands! Use code SALE50. Limited time offer.",
			wantReason: model.ReasonPromotional,
		},
		{
			name:       "pre-approved loan offer",
			sender:     "VM-HDFCBK",
			body:       "You have a pre-approved personal loan of Rs 5,00,000. Apply now!",
			wantReason: model.ReasonPromotional,
		},
		{
			name:       "data usage",
			sender:     "VM-JIONET",
			body:       "90% of your daily data quota has been used. Data balance: 150 MB.",
			wantReason: model.ReasonDataUsage,
		},
		{
			name:       "shopping",
			sender:     "AD-AMAZON",
			body:       "Your order #402-123 has been shipped and will arrive tomorrow.",
			wantReason: model.ReasonShopping,
		},
		{
			name:       "social",
			sender:     "VM-FBOOK",
			body:       "You have a new friend request on Facebook.",
			wantReason: model.ReasonSocial,
		},
		{
			name:       "maintenance notice",
			sender:     "VM-HDFCBK",
			body:       "Scheduled maintenance: NetBanking will be unavailable from 01:00 to 04:00 on 15-Dec.",
			wantReason: model.ReasonSystem,
		},
		{
			name:       "login alert",
			sender:     "VM-ICICIB",
			body:       "New login detected on your iMobile app from a Chrome browser. Not you? Call 1800-1080.",
			wantReason: model.ReasonSystem,
		},
		{
			name:       "government notice",
			sender:     "VM-DOTGOI",
			body:       "Report suspected fraud calls on Sanchar Saathi. Department of Telecommunications, Government of India.",
			wantReason: model.ReasonGovernment,
		},
		{
			name:       "plain text",
			body:       "Hello there",
			wantReason: model.ReasonNone,
		},
		{
			name:       "empty body",
			sender:     "VM-HDFCBK",
			body:       "",
			wantReason: model.ReasonNone,
		},
		{
			name:       "whitespace body",
			sender:     "VM-HDFCBK",
			body:       "   \n\t ",
			wantReason: model.ReasonNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.Classify(tt.sender, tt.body)
			assert.Equal(t, tt.wantFin, got.IsFinancial, "score=%d groups=%v", got.Score, got.MatchedGroups)
			if tt.wantFin {
				assert.Empty(t, got.ExclusionReason)
				assert.GreaterOrEqual(t, got.Score, f.Threshold())
			} else {
				assert.Equal(t, tt.wantReason, got.ExclusionReason)
			}
		})
	}
}

func TestFilter_EmptyBodyScoresZero(t *testing.T) {
	f := newDefaultFilter(t)
	got := f.Classify("VM-HDFCBK-S", "  ")
	assert.False(t, got.IsFinancial)
	assert.Zero(t, got.Score)
	assert.Empty(t, got.MatchedGroups)
}

func TestFilter_ExclusionOutranksScore(t *testing.T) {
	f := newDefaultFilter(t)
	body := "Your OTP is 482913 for debit of Rs.2000.00 from A/c XX1234 via UPI Ref 123456789012. Avl Bal Rs 100"
	got := f.Classify("VM-HDFCBK-S", body)

	assert.False(t, got.IsFinancial)
	assert.Equal(t, model.ReasonOTP, got.ExclusionReason)
	assert.Equal(t, "otp", got.ExcludedBy)
	assert.Greater(t, got.Score, f.Threshold(), "score is still reported for excluded messages")
}

func TestFilter_OTPOutranksBankAndAmount(t *testing.T) {
	f := newDefaultFilter(t)
	bodies := map[string]string{
		"VM-HDFCBK": "OTP for txn of Rs.500.00 at AMAZON on HDFC Bank card XX1234 is 482913. Valid for 5 mins.",
		"JD-ICICIB": "482913 is OTP for txn of INR 2,000.00 on ICICI Bank card XX1234. Do not share.",
		"VM-KOTAKB": "Use 839201 as OTP to complete payment of Rs.1200 to Swiggy. Kotak Bank",
	}
	for sender, body := range bodies {
		got := f.Classify(sender, body)
		assert.False(t, got.IsFinancial, body)
		assert.Equal(t, "otp", got.ExcludedBy, body)
		assert.GreaterOrEqual(t, got.Score, f.Threshold(), "amount and bank still score: %s", body)
	}
}

func TestFilter_Idempotent(t *testing.T) {
	f := newDefaultFilter(t)
	bodies := []string{
		"A/c *1234 debited for Rs:500.00 on 01-Dec-2024 via UPI Ref 111222333",
		"123456 is your OTP. Do not share.",
		"Hello there",
	}
	for _, body := range bodies {
		first := f.Classify("VM-HDFCBK-S", body)
		for i := 0; i < 3; i++ {
			assert.Equal(t, first, f.Classify("VM-HDFCBK-S", body))
		}
	}
}

func TestFilter_ScoreMonotonic(t *testing.T) {
	f := newDefaultFilter(t)
	base := "Hello there"
	additions := []string{
		" credited",
		" Rs 500",
		" to your a/c",
		" via UPI",
		" ref no 1234",
		" Avl Bal Rs 20",
		" HDFC Bank",
		" EMI",
	}

	prev, _ := f.Score("", base)
	text := base
	for _, add := range additions {
		text += add
		score, _ := f.Score("", text)
		assert.GreaterOrEqual(t, score, prev, "after adding %q", add)
		prev = score
	}

	again, _ := f.Score("", text+" debited debited debited")
	assert.GreaterOrEqual(t, again, prev)
}

func TestFilter_MatchedGroups(t *testing.T) {
	f := newDefaultFilter(t)
	got := f.Classify("VM-HDFCBK-S", "A/c *1234 debited for Rs:500.00 via UPI Ref 111222333")

	assert.Subset(t, got.MatchedGroups, []string{
		"transaction_verb", "currency_amount", "account", "instrument", "reference", "bank_sender",
	})
	assert.NotContains(t, got.MatchedGroups, "bank_name")
}

func TestFilter_ThresholdIsConfigurable(t *testing.T) {
	rules := DefaultRules()
	rules.Threshold = 10
	strict, err := NewFilter(rules)
	require.NoError(t, err)

	body := "Rs 500 debited from your account"
	assert.True(t, newDefaultFilter(t).Classify("", body).IsFinancial)

	got := strict.Classify("", body)
	assert.False(t, got.IsFinancial)
	assert.Equal(t, model.ReasonNone, got.ExclusionReason)
}

func TestFilter_CustomRules(t *testing.T) {
	dir, err := bank.NewDirectory([]bank.Institution{{Name: "Acme", SenderCodes: []string{"acme"}}})
	require.NoError(t, err)

	f, err := NewFilter(Rules{
		Banks:            dir,
		Threshold:        2,
		BankSenderPoints: 1,
		Signals: []SignalGroup{
			{Name: "moved", Points: 1, Patterns: []string{`\bmoved\b`}},
			{Name: "sender_pay", Points: 1, Target: TargetSender, Patterns: []string{`pay`}},
		},
		Exclusions: []ExclusionGroup{
			{Name: "spam", Reason: model.ReasonPromotional, Patterns: []string{`\bfree\b`}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, f.GroupCount())

	got := f.Classify("VM-ACMEPAY", "funds moved")
	assert.True(t, got.IsFinancial)
	assert.Equal(t, 3, got.Score)
	assert.Equal(t, []string{"moved", "sender_pay", "bank_sender"}, got.MatchedGroups)

	got = f.Classify("VM-ACMEPAY", "funds moved for free")
	assert.False(t, got.IsFinancial)
	assert.Equal(t, model.ReasonPromotional, got.ExclusionReason)
	assert.Equal(t, "spam", got.ExcludedBy)
}

func TestFilter_ClassifyBatch(t *testing.T) {
	f := newDefaultFilter(t)
	msgs := []model.RawMessage{
		{Sender: "VM-HDFCBK", Body: "Rs 500 debited from A/c XX1234"},
		{Sender: "VM-HDFCBK", Body: "123456 is your OTP"},
		{Body: strings.Repeat(" ", 3)},
	}

	t.Run("keeps order", func(t *testing.T) {
		results, err := f.ClassifyBatch(context.Background(), msgs)
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.True(t, results[0].IsFinancial)
		assert.Equal(t, model.ReasonOTP, results[1].ExclusionReason)
		assert.Equal(t, model.ReasonNone, results[2].ExclusionReason)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		results, err := f.ClassifyBatch(ctx, msgs)
		require.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, results)
	})
}
