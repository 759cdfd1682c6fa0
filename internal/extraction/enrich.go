package extraction

import (
	"math"
	"strings"

	"github.com/Veraticus/smsfin/internal/model"
)

var currencySigns = map[string]string{
	"INR": "₹",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// extractIntent labels what the message is for. A message with an amount
// and a direction is a transaction whatever else it mentions.
func (e *Extractor) extractIntent(st *state) {
	for _, r := range e.intents {
		if r.intent == model.IntentPaymentRequest && r.re.MatchString(st.body) {
			st.txn.Intent = model.IntentPaymentRequest
			return
		}
	}

	if st.txn.Amount != nil && st.txn.Type != model.TypeUnknown {
		st.txn.Intent = model.IntentTransaction
		return
	}

	for _, r := range e.intents {
		if r.re.MatchString(st.body) {
			st.txn.Intent = r.intent
			return
		}
	}

	if st.txn.Amount != nil {
		st.txn.Intent = model.IntentTransaction
	}
}

// buildTags collects short labels for filtering, at most maxTags of them.
func (e *Extractor) buildTags(st *state) {
	txn := st.txn
	var tags []string
	add := func(tag string) {
		if tag == "" || len(tags) >= e.maxTags {
			return
		}
		for _, t := range tags {
			if t == tag {
				return
			}
		}
		tags = append(tags, tag)
	}

	if txn.Type != model.TypeUnknown {
		add(string(txn.Type))
	}
	if txn.Method != model.MethodUnknown {
		add(strings.ToLower(string(txn.Method)))
	}
	if txn.Category != model.CategoryOther {
		add(string(txn.Category))
	}
	if txn.Bank != "" {
		add(strings.ReplaceAll(strings.ToLower(txn.Bank), " ", "_"))
	}
	if txn.Balance != nil {
		add("balance")
	}
	if txn.Intent != model.IntentTransaction && txn.Intent != model.IntentOther {
		add(string(txn.Intent))
	}

	txn.Tags = tags
}

// buildSummary writes a one-line description such as "Paid ₹500.00 to Abc Stores via UPI".
func (e *Extractor) buildSummary(st *state) {
	txn := st.txn
	if txn.Amount == nil {
		return
	}

	money := txn.Amount.StringFixed(2)
	if sign, ok := currencySigns[txn.Currency]; ok {
		money = sign + money
	} else if txn.Currency != "" {
		money = txn.Currency + " " + money
	}

	var b strings.Builder
	switch txn.Type {
	case model.TypeDebit:
		b.WriteString("Paid " + money)
		if txn.Counterparty != "" {
			b.WriteString(" to " + txn.Counterparty)
		}
	case model.TypeCredit:
		b.WriteString("Received " + money)
		if txn.Counterparty != "" {
			b.WriteString(" from " + txn.Counterparty)
		}
	default:
		b.WriteString("Transaction of " + money)
		if txn.Counterparty != "" {
			b.WriteString(" with " + txn.Counterparty)
		}
	}
	if txn.Method != model.MethodUnknown {
		b.WriteString(" via " + string(txn.Method))
	}

	txn.Summary = b.String()
}

// confidence is the weighted share of fields that were found, rounded to two places.
func (e *Extractor) confidence(txn *model.ExtractedTransaction) float64 {
	w := e.weights
	score := 0.0

	if txn.Amount != nil {
		score += w.Amount
	}
	if txn.Type != model.TypeUnknown {
		score += w.Type
	}
	if txn.Bank != "" {
		score += w.Bank
	}
	if txn.Method != model.MethodUnknown {
		score += w.Method
	}
	if txn.ReferenceID != "" {
		score += w.Reference
	}
	if txn.DateSource == model.DateFromBody {
		score += w.Date
	}
	if txn.Counterparty != "" {
		score += w.Counterparty
	}
	if txn.Balance != nil {
		score += w.Balance
	}
	if txn.Category != model.CategoryOther {
		score += w.Category
	}

	c := math.Round(score/w.Total()*100) / 100
	return math.Max(0, math.Min(1, c))
}
