package extraction

import (
	"github.com/Veraticus/smsfin/internal/model"
)

// numberPattern matches an amount with optional thousands separators and decimals.
const numberPattern = `\d[\d,]*(?:\.\d+)?`

// AmountPattern locates a transaction amount. Pattern must contain an
// "amount" group and may contain a "currency" group. Bare marks low
// specificity patterns whose matches must not touch other digits.
type AmountPattern struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
	Bare    bool   `yaml:"bare"`
}

// DirectionRule adds Weight to Type's total when Pattern matches.
type DirectionRule struct {
	Type    model.TransactionType `yaml:"type"`
	Pattern string                `yaml:"pattern"`
	Weight  int                   `yaml:"weight"`
}

// MethodRule maps a keyword pattern to a payment method.
type MethodRule struct {
	Method  model.Method `yaml:"method"`
	Pattern string       `yaml:"pattern"`
}

// DatePattern locates a date with a "date" group and lists the layouts tried, in order.
type DatePattern struct {
	Pattern string   `yaml:"pattern"`
	Layouts []string `yaml:"layouts"`
}

// CounterpartyPattern captures a "party" group. When Type is set the
// pattern only applies to transactions of that type (or of unknown type).
type CounterpartyPattern struct {
	Type    model.TransactionType `yaml:"type"`
	Pattern string                `yaml:"pattern"`
}

// CategoryRule assigns Category when Pattern matches the body or counterparty.
type CategoryRule struct {
	Category model.Category `yaml:"category"`
	Pattern  string         `yaml:"pattern"`
}

// IntentRule assigns Intent when Pattern matches.
type IntentRule struct {
	Intent  model.Intent `yaml:"intent"`
	Pattern string       `yaml:"pattern"`
}

// Weights controls how much each populated field contributes to confidence.
type Weights struct {
	Amount       float64 `yaml:"amount"`
	Type         float64 `yaml:"type"`
	Bank         float64 `yaml:"bank"`
	Method       float64 `yaml:"method"`
	Reference    float64 `yaml:"reference"`
	Date         float64 `yaml:"date"`
	Counterparty float64 `yaml:"counterparty"`
	Balance      float64 `yaml:"balance"`
	Category     float64 `yaml:"category"`
}

// Total returns the sum of all weights.
func (w Weights) Total() float64 {
	return w.Amount + w.Type + w.Bank + w.Method + w.Reference +
		w.Date + w.Counterparty + w.Balance + w.Category
}

// Tables is the complete extraction configuration. Order matters in every
// slice: earlier entries are more specific and are tried first.
type Tables struct {
	Currencies            map[string]string
	DefaultCurrency       string
	BalanceGuard          string
	Amounts               []AmountPattern
	DirectionNeutralizers []string
	Directions            []DirectionRule
	Methods               []MethodRule
	References            []string
	ReferenceFallback     string
	ReferenceNoise        string
	Dates                 []DatePattern
	TimeSuffix            string
	TimeLayouts           []string
	Counterparties        []CounterpartyPattern
	CounterpartyStop      string
	Balances              []string
	Accounts              []string
	Categories            []CategoryRule
	Intents               []IntentRule
	Weights               Weights
	MinYear               int
	MaxYear               int
	MinReferenceLength    int
	MaxTags               int
}

// DefaultWeights returns the default confidence weights. Amount and type
// dominate so that a record missing both stays below 0.5.
func DefaultWeights() Weights {
	return Weights{
		Amount:       0.30,
		Type:         0.25,
		Bank:         0.10,
		Method:       0.08,
		Reference:    0.08,
		Date:         0.07,
		Counterparty: 0.06,
		Balance:      0.03,
		Category:     0.03,
	}
}

// DefaultTables returns the tuned extraction tables for Indian banking SMS.
func DefaultTables() Tables {
	return Tables{
		Currencies: map[string]string{
			"rs":     "INR",
			"inr":    "INR",
			"₹":      "INR",
			"rupees": "INR",
			"usd":    "USD",
			"$":      "USD",
			"eur":    "EUR",
			"€":      "EUR",
			"gbp":    "GBP",
			"£":      "GBP",
			"aed":    "AED",
		},
		DefaultCurrency: "INR",
		BalanceGuard:    `(avl\.?\s*bal(ance)?|available\s+bal(ance)?|\bbal(ance)?|\blimit)\s*(is|:|-)?\s*:?\s*$`,
		Amounts: []AmountPattern{
			{
				Name:    "currency_prefix",
				Pattern: `(?P<currency>\brs\.?|\binr|₹|\busd|\$|\beur|€|\bgbp|£|\baed)\s*[:.]?\s*(?P<amount>` + numberPattern + `)`,
			},
			{
				Name:    "verb_context",
				Pattern: `\b(?:debited|credited|withdrawn|deposited|paid|received|spent|sent|transferred|charged)\s+(?:by|for|of|with)?\s*(?P<amount>` + numberPattern + `)`,
			},
			{
				Name:    "amount_keyword",
				Pattern: `\b(?:txn\s+amt|amount|amt)\s*(?:of)?\s*[:.]?\s*(?P<amount>` + numberPattern + `)`,
			},
			{
				Name:    "currency_suffix",
				Pattern: `(?P<amount>` + numberPattern + `)\s*(?P<currency>rs|rupees|inr)\b`,
			},
			{
				Name:    "bare_decimal",
				Pattern: `\b(?P<amount>\d[\d,]*\.\d{1,2})\b`,
				Bare:    true,
			},
		},
		DirectionNeutralizers: []string{
			`\bcredit\s+card\b`,
			`\bdebit\s+card\b`,
			`\bcredit\s+limit\b`,
			`;\s*[a-z0-9][a-z0-9 .&'_-]{0,40}\s+credited\b`,
			`\band\s+(a/c|ac|acct|account)\s+\S+\s+credited\b`,
		},
		Directions: []DirectionRule{
			{Type: model.TypeDebit, Pattern: `\bdebited\b`, Weight: 3},
			{Type: model.TypeDebit, Pattern: `\bwithdrawn\b`, Weight: 3},
			{Type: model.TypeDebit, Pattern: `\bdebit\b`, Weight: 1},
			{Type: model.TypeDebit, Pattern: `\b(paid|spent|sent|deducted|charged|purchased?|withdrawal)\b`, Weight: 1},
			{Type: model.TypeDebit, Pattern: `\b(trf|transfer(red)?)\s+to\b`, Weight: 1},
			{Type: model.TypeDebit, Pattern: `\bpayment\s+(of|made)\b`, Weight: 1},
			{Type: model.TypeCredit, Pattern: `\bcredited\b`, Weight: 3},
			{Type: model.TypeCredit, Pattern: `\bdeposited\b`, Weight: 3},
			{Type: model.TypeCredit, Pattern: `\b(credit|deposit)\b`, Weight: 1},
			{Type: model.TypeCredit, Pattern: `\b(received|refund(ed)?|cashback|reversed|reversal|salary)\b`, Weight: 1},
			{Type: model.TypeCredit, Pattern: `\b(trf|transfer(red)?|received)\s+from\b`, Weight: 1},
		},
		Methods: []MethodRule{
			{Method: model.MethodUPI, Pattern: `\b(upi|vpa|bhim)\b`},
			{Method: model.MethodUPI, Pattern: `\b[\w.\-]+@(ybl|ibl|axl|apl|upi|paytm|okaxis|okhdfcbank|oksbi|okicici|icici|hdfcbank|sbi|axisbank|kotak|yesbank|fbl|airtel|jio|idfcbank)\b`},
			{Method: model.MethodIMPS, Pattern: `\bimps\b`},
			{Method: model.MethodNEFT, Pattern: `\bneft\b`},
			{Method: model.MethodRTGS, Pattern: `\brtgs\b`},
			{Method: model.MethodATM, Pattern: `\b(atm|cash\s+withdrawal)\b`},
			{Method: model.MethodCard, Pattern: `\b(card|pos|swiped?)\b`},
			{Method: model.MethodCheque, Pattern: `\b(cheque|chq|clg)\b`},
			{Method: model.MethodNetBanking, Pattern: `\b(net\s*banking|internet\s+banking|inb)\b`},
		},
		References: []string{
			`\b(?:upi\s+)?(?:ref(?:erence)?|utr|rrn|txn|transaction)(?:\s*(?:no|num|number|id))?\b\.?\s*[:#.\-]?\s*(?P<ref>[a-z0-9]*\d[a-z0-9]*)`,
			`\brefno\s*[:#.\-]?\s*(?P<ref>[a-z0-9]*\d[a-z0-9]*)`,
		},
		ReferenceFallback:  `\d{8,}`,
		ReferenceNoise:     `\b(call|sms|dial|contact|helpline|mobile|mob|ph|phone|whatsapp)\b\D{0,15}$`,
		MinReferenceLength: 6,
		Dates: []DatePattern{
			{Pattern: `\b(?P<date>\d{1,2}-[a-z]{3}-\d{2,4})\b`, Layouts: []string{"2-Jan-2006", "2-Jan-06"}},
			{Pattern: `\b(?P<date>\d{1,2}\s+[a-z]{3,9},?\s+\d{4})\b`, Layouts: []string{"2 Jan 2006", "2 January 2006"}},
			{Pattern: `\b(?P<date>\d{1,2}[a-z]{3}\d{2,4})\b`, Layouts: []string{"2Jan2006", "2Jan06"}},
			{Pattern: `\b(?P<date>\d{4}-\d{1,2}-\d{1,2})\b`, Layouts: []string{"2006-1-2"}},
			{Pattern: `\b(?P<date>\d{1,2}/\d{1,2}/\d{2,4})\b`, Layouts: []string{"2/1/2006", "2/1/06"}},
			{Pattern: `\b(?P<date>\d{1,2}-\d{1,2}-\d{2,4})\b`, Layouts: []string{"2-1-2006", "2-1-06"}},
			{Pattern: `\b(?P<date>\d{1,2}\.\d{1,2}\.\d{2,4})\b`, Layouts: []string{"2.1.2006", "2.1.06"}},
		},
		TimeSuffix:  `^(?:\s*(?:at|,)?\s*|T)(?P<time>\d{1,2}:\d{2}(?::\d{2})?(?:\s*[ap]m)?)`,
		TimeLayouts: []string{"15:04:05", "15:04", "3:04:05 PM", "3:04 PM", "3:04:05PM", "3:04PM"},
		MinYear:     1990,
		MaxYear:     2100,
		Counterparties: []CounterpartyPattern{
			{Type: model.TypeDebit, Pattern: `;\s*(?P<party>[a-z0-9][a-z0-9 .&'_-]{1,40}?)\s+credited\b`},
			{Pattern: `\b(?:to|vpa|upi\s+id)\s*[:\-]?\s*(?P<party>[\w.\-]+@[a-z]+)\b`},
			{Type: model.TypeDebit, Pattern: `\b(?:trf|transfer(?:red)?|sent|paid|payment)\s+to\s+(?P<party>.+)`},
			{Type: model.TypeDebit, Pattern: `\bat\s+(?P<party>[a-z].+)`},
			{Type: model.TypeDebit, Pattern: `\bto\s+(?P<party>.+)`},
			{Type: model.TypeCredit, Pattern: `\b(?:received|credited|deposit(?:ed)?)\b.{0,40}?\bfrom\s+(?P<party>.+)`},
			{Type: model.TypeCredit, Pattern: `\bfrom\s+(?P<party>.+)`},
			{Type: model.TypeCredit, Pattern: `\bby\s+(?P<party>.+)`},
			{Pattern: `\b(?:merchant|payee|beneficiary|remitter)\s*(?:name)?\s*[:\-]\s*(?P<party>.+)`},
		},
		CounterpartyStop: `\s+(?:on|ref|refno|via|upi|utr|txn|imps|neft|rtgs|avl|bal|a/c|ac|dated|for|at|if|not|info|thru|through|using|by|from|to|with|in|of|is|has|was|and)\b|[,;:()\[\]!|]|\.(?:\s|$)|\s-\s|\s{2,}|\d{1,2}[-/]\d{1,2}|\d{1,2}-[a-z]{3}`,
		Balances: []string{
			`\b(?:avl\.?\s*bal(?:ance)?|available\s+bal(?:ance)?|a/c\s+bal(?:ance)?|clear\s+bal(?:ance)?|closing\s+bal(?:ance)?)\s*(?:is|:|-)?\s*:?\s*(?:rs\.?|inr|₹)?\s*[:.]?\s*(?P<amount>` + numberPattern + `)`,
			`\bbal(?:ance)?\s*(?:is|:|-)?\s*:?\s*(?:rs\.?|inr|₹)?\s*[:.]?\s*(?P<amount>` + numberPattern + `)`,
		},
		Accounts: []string{
			`\b(?:a/c|acct|account|ac)\.?\s*(?:no\.?|number)?\s*[:.]?\s*(?P<account>[x*]+\d{3,6}|\d{3,6}[x*]+\d{2,6}|[x*]*\d{4,6})\b`,
			`\bcard\s+(?:no\.?\s*)?(?:ending\s+(?:with\s+)?)?(?P<account>[x*]*\d{4})\b`,
		},
		Categories: []CategoryRule{
			{Category: model.CategoryInvestment, Pattern: `\b(mutual\s+fund|sip|nav|folio|dividend|units|demat|shares|redemption|fixed\s+deposit|recurring\s+deposit|zerodha|groww)\b`},
			{Category: model.CategoryLoan, Pattern: `\b(emi|loan|installment|instalment)\b`},
			{Category: model.CategoryATMWithdrawal, Pattern: `\b(atm|cash\s+withdrawal)\b`},
			{Category: model.CategoryBill, Pattern: `\b(bill|electricity|recharge|broadband|dth|gas|water|utility|insurance|premium|postpaid|billdesk)\b`},
			{Category: model.CategoryFoodDining, Pattern: `\b(zomato|swiggy|restaurant|cafe|food|dining|dominos|pizza|mcdonalds?|kfc|starbucks)\b`},
			{Category: model.CategoryTransfer, Pattern: `\b(upi|imps|neft|rtgs|transfer|trf|sent|received|vpa|salary)\b`},
		},
		Intents: []IntentRule{
			{Intent: model.IntentPaymentRequest, Pattern: `\b(requested\s+(money|payment)|collect\s+request|will\s+be\s+debited\s+(on|after|upon)\s+approv)`},
			{Intent: model.IntentOTP, Pattern: `\b(otp|one[\s-]*time[\s-]*password|verification\s+code)\b`},
			{Intent: model.IntentPromo, Pattern: `(\b\d{1,2}\s*%\s*off\b|\boffer\b|\bcoupon\b|\bpromo\b|\bpre-?approved\b)`},
			{Intent: model.IntentAlert, Pattern: `\b(due|reminder|alert|statement|will\s+be\s+debited|overdue|low\s+balance)\b`},
		},
		Weights: DefaultWeights(),
		MaxTags: 5,
	}
}
