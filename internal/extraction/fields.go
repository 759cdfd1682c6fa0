package extraction

import (
	"strings"

	"github.com/Veraticus/smsfin/internal/model"
)

// extractType weighs debit evidence against credit evidence. Phrases such
// as "credit card" are blanked first so they do not count as direction.
func (e *Extractor) extractType(st *state) {
	text := st.body
	for _, re := range e.neutralizers {
		text = re.ReplaceAllString(text, " ")
	}

	var debit, credit int
	for _, r := range e.directions {
		if !r.re.MatchString(text) {
			continue
		}
		switch r.typ {
		case model.TypeDebit:
			debit += r.weight
		case model.TypeCredit:
			credit += r.weight
		}
	}

	switch {
	case debit > credit:
		st.txn.Type = model.TypeDebit
	case credit > debit:
		st.txn.Type = model.TypeCredit
	default:
		st.txn.Type = model.TypeUnknown
	}
}

func (e *Extractor) extractBank(st *state) {
	if e.banks == nil {
		return
	}
	if name, ok := e.banks.Resolve(st.sender, st.body); ok {
		st.txn.Bank = name
	}
}

// extractMethod picks the first method whose keyword appears.
func (e *Extractor) extractMethod(st *state) {
	for _, r := range e.methods {
		if r.re.MatchString(st.body) {
			st.txn.Method = r.method
			return
		}
	}
}

func (e *Extractor) extractBalance(st *state) {
	for _, re := range e.balances {
		for _, loc := range re.FindAllStringSubmatchIndex(st.body, -1) {
			raw, _, _, ok := group(re, st.body, loc, "amount")
			if !ok {
				continue
			}
			if bal, ok := parseAmount(raw); ok {
				st.txn.Balance = &bal
				return
			}
		}
	}
}

// extractCategory matches category buckets against the body and the counterparty.
func (e *Extractor) extractCategory(st *state) {
	text := st.body
	if st.txn.Counterparty != "" {
		text += " " + st.txn.Counterparty
	}
	for _, r := range e.categories {
		if r.re.MatchString(text) {
			st.txn.Category = r.category
			return
		}
	}
}

// extractAccount keeps the masked account or card fragment exactly as masked in the text.
func (e *Extractor) extractAccount(st *state) {
	for _, re := range e.accounts {
		loc := re.FindStringSubmatchIndex(st.body)
		if loc == nil {
			continue
		}
		if acct, _, _, ok := group(re, st.body, loc, "account"); ok {
			st.txn.AccountNumber = strings.ToUpper(acct)
			return
		}
	}
}
