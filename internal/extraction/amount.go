package extraction

import (
	"strings"

	"github.com/shopspring/decimal"
)

// extractAmount takes the first acceptable match of the most specific amount pattern.
func (e *Extractor) extractAmount(st *state) {
	for _, p := range e.amounts {
		for _, loc := range p.re.FindAllStringSubmatchIndex(st.body, -1) {
			raw, start, end, ok := group(p.re, st.body, loc, "amount")
			if !ok {
				continue
			}
			if p.bare && !isolatedNumber(st.body, start, end) {
				continue
			}
			if e.followsBalance(st.body, loc[0]) {
				continue
			}

			amount, ok := parseAmount(raw)
			if !ok || !amount.IsPositive() {
				continue
			}

			currency := e.defaultCurrency
			if sym, _, _, found := group(p.re, st.body, loc, "currency"); found {
				if code, known := e.currencies[normalizeSymbol(sym)]; known {
					currency = code
				}
			}

			st.txn.Amount = &amount
			st.txn.Currency = currency
			st.amountSpan = [2]int{start, end}
			return
		}
	}
}

// followsBalance reports whether the text just before pos names a balance or limit,
// in which case the number that follows is not the transaction amount.
func (e *Extractor) followsBalance(body string, pos int) bool {
	if e.balanceGuard == nil {
		return false
	}
	from := pos - 24
	if from < 0 {
		from = 0
	}
	return e.balanceGuard.MatchString(body[from:pos])
}

// isolatedNumber rejects bare numbers that are part of dates, times,
// masked account numbers or longer digit runs.
func isolatedNumber(body string, start, end int) bool {
	if start > 0 {
		switch prev := body[start-1]; {
		case prev >= '0' && prev <= '9', prev == '.', prev == '/', prev == '-', prev == '*', prev == 'x', prev == 'X':
			return false
		}
	}
	if end < len(body) {
		switch next := body[end]; {
		case next >= '0' && next <= '9', next == '/', next == '-', next == ':':
			return false
		case next == '.' && end+1 < len(body) && body[end+1] >= '0' && body[end+1] <= '9':
			return false
		}
	}
	return true
}

func normalizeSymbol(sym string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(sym), "."))
}

// parseAmount parses a number with thousands separators such as "1,234.50"
// or the Indian grouping "5,00,000". The result is non-negative.
func parseAmount(raw string) (decimal.Decimal, bool) {
	cleaned := strings.ReplaceAll(raw, ",", "")
	cleaned = strings.TrimSpace(strings.TrimSuffix(cleaned, "."))
	if cleaned == "" {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return d.Abs(), true
}
