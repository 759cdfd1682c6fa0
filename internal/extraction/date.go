package extraction

import (
	"regexp"
	"strings"
	"time"

	"github.com/Veraticus/smsfin/internal/model"
)

var spaceRun = regexp.MustCompile(`\s+`)

// extractDate reads the first parseable date in the body and falls back to
// the time the message was received.
func (e *Extractor) extractDate(st *state) {
	loc := time.UTC
	if !st.received.IsZero() {
		loc = st.received.Location()
	}

	for _, d := range e.dates {
		for _, m := range d.re.FindAllStringSubmatchIndex(st.body, -1) {
			raw, _, end, ok := group(d.re, st.body, m, "date")
			if !ok {
				continue
			}
			parsed, ok := e.parseDate(raw, d.layouts, loc)
			if !ok {
				continue
			}
			parsed = e.withTime(parsed, st.body[end:])
			st.txn.TransactionDate = &parsed
			st.txn.DateSource = model.DateFromBody
			return
		}
	}

	if !st.received.IsZero() {
		received := st.received
		st.txn.TransactionDate = &received
		st.txn.DateSource = model.DateFromReceived
	}
}

func (e *Extractor) parseDate(raw string, layouts []string, loc *time.Location) (time.Time, bool) {
	value := spaceRun.ReplaceAllString(strings.ReplaceAll(raw, ",", " "), " ")
	for _, layout := range layouts {
		t, err := time.ParseInLocation(layout, value, loc)
		if err != nil {
			continue
		}
		if (e.minYear > 0 && t.Year() < e.minYear) || (e.maxYear > 0 && t.Year() > e.maxYear) {
			continue
		}
		return t, true
	}
	return time.Time{}, false
}

// withTime adds a clock time written directly after the date, if any.
func (e *Extractor) withTime(date time.Time, rest string) time.Time {
	if e.timeSuffix == nil {
		return date
	}
	m := e.timeSuffix.FindStringSubmatchIndex(rest)
	if m == nil {
		return date
	}
	raw, _, _, ok := group(e.timeSuffix, rest, m, "time")
	if !ok {
		return date
	}
	raw = strings.ToUpper(strings.TrimSpace(raw))
	for _, layout := range e.timeLayouts {
		clock, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		return time.Date(date.Year(), date.Month(), date.Day(),
			clock.Hour(), clock.Minute(), clock.Second(), 0, date.Location())
	}
	return date
}
