package extraction

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Veraticus/smsfin/internal/model"
)

const maxCounterpartyLength = 40

var (
	vpaToken = regexp.MustCompile(`^[\w.\-]+@[a-zA-Z]+`)
	maskRun  = regexp.MustCompile(`(?i)^x{2,}`)
)

// nonPartyWords open fragments that name the holder's own account or a payment rail rather than a party.
var nonPartyWords = map[string]bool{
	"a/c": true, "ac": true, "acct": true, "account": true, "your": true,
	"card": true, "the": true, "you": true, "self": true, "block": true,
	"rs": true, "rs.": true, "inr": true, "atm": true, "upi": true,
	"neft": true, "imps": true, "rtgs": true, "cash": true, "cheque": true,
}

// extractCounterparty is best effort: it returns the first candidate that
// survives cleanup from the patterns allowed for the detected type.
func (e *Extractor) extractCounterparty(st *state) {
	for _, p := range e.counterparties {
		if p.typ != "" && st.txn.Type != model.TypeUnknown && p.typ != st.txn.Type {
			continue
		}
		for _, loc := range p.re.FindAllStringSubmatchIndex(st.body, -1) {
			raw, _, _, ok := group(p.re, st.body, loc, "party")
			if !ok {
				continue
			}
			if party := e.cleanCounterparty(raw); party != "" {
				st.txn.Counterparty = party
				return
			}
		}
	}
}

// cleanCounterparty cuts a raw capture at the first noise word or
// separator, drops tokens that carry digits or masks and title-cases the rest.
// UPI addresses are returned verbatim.
func (e *Extractor) cleanCounterparty(raw string) string {
	raw = strings.TrimSpace(raw)
	if vpa := vpaToken.FindString(raw); vpa != "" {
		return strings.ToLower(vpa)
	}

	if e.counterpartyStop != nil {
		if loc := e.counterpartyStop.FindStringIndex(raw); loc != nil {
			raw = raw[:loc[0]]
		}
	}

	var words []string
	for _, w := range strings.Fields(raw) {
		if strings.ContainsFunc(w, unicode.IsDigit) || strings.Contains(w, "*") || maskRun.MatchString(w) {
			continue
		}
		words = append(words, w)
	}
	if len(words) == 0 || nonPartyWords[strings.ToLower(words[0])] {
		return ""
	}

	party := strings.Trim(strings.Join(words, " "), " .-_'&")
	letters := 0
	for _, r := range party {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if letters < 3 {
		return ""
	}

	if utf8.RuneCountInString(party) > maxCounterpartyLength {
		party = strings.TrimSpace(string([]rune(party)[:maxCounterpartyLength]))
	}

	// A Caser keeps state and must not be shared between goroutines.
	return cases.Title(language.English).String(party)
}
