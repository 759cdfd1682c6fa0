package extraction

import (
	"strings"
	"unicode"
)

// extractReference prefers identifiers introduced by a reference keyword
// and falls back to the longest plausible digit run in the message.
func (e *Extractor) extractReference(st *state) {
	for _, re := range e.references {
		for _, loc := range re.FindAllStringSubmatchIndex(st.body, -1) {
			ref, start, end, ok := group(re, st.body, loc, "ref")
			if !ok || st.overlapsAmount(start, end) {
				continue
			}
			if len(ref) >= e.minRefLength && countDigits(ref) >= 4 {
				st.txn.ReferenceID = strings.ToUpper(ref)
				return
			}
		}
	}

	if e.referenceFallback == nil {
		return
	}

	best := ""
	for _, loc := range e.referenceFallback.FindAllStringIndex(st.body, -1) {
		start, end := loc[0], loc[1]
		run := st.body[start:end]
		if st.overlapsAmount(start, end) || isMasked(st.body, start) || isTollFree(run) {
			continue
		}
		if e.referenceNoise != nil && e.referenceNoise.MatchString(st.body[:start]) {
			continue
		}
		if len(run) > len(best) {
			best = run
		}
	}
	if best != "" {
		st.txn.ReferenceID = best
	}
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

// isMasked reports whether the digits at pos are the visible tail of a masked number.
func isMasked(body string, pos int) bool {
	if pos == 0 {
		return false
	}
	switch body[pos-1] {
	case 'x', 'X', '*':
		return true
	}
	return false
}

func isTollFree(run string) bool {
	return (len(run) == 10 || len(run) == 11) &&
		(strings.HasPrefix(run, "1800") || strings.HasPrefix(run, "1860"))
}
