// Package extraction pulls structured transaction fields out of financial SMS text.
package extraction

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Veraticus/smsfin/internal/bank"
	"github.com/Veraticus/smsfin/internal/common"
	"github.com/Veraticus/smsfin/internal/model"
)

// ErrInvalidTables is returned when extraction tables cannot be compiled.
var ErrInvalidTables = errors.New("invalid extraction tables")

type amountRegex struct {
	re   *regexp.Regexp
	name string
	bare bool
}

type directionRegex struct {
	re     *regexp.Regexp
	typ    model.TransactionType
	weight int
}

type methodRegex struct {
	re     *regexp.Regexp
	method model.Method
}

type dateRegex struct {
	re      *regexp.Regexp
	layouts []string
}

type counterpartyRegex struct {
	re  *regexp.Regexp
	typ model.TransactionType
}

type categoryRegex struct {
	re       *regexp.Regexp
	category model.Category
}

type intentRegex struct {
	re     *regexp.Regexp
	intent model.Intent
}

// step is one field extractor. Steps run in order and each writes only its own fields.
type step struct {
	run  func(*state)
	name string
}

// state carries one extraction in progress.
type state struct {
	received   time.Time
	txn        *model.ExtractedTransaction
	body       string
	sender     string
	amountSpan [2]int
}

func (s *state) overlapsAmount(start, end int) bool {
	return s.amountSpan[0] >= 0 && start < s.amountSpan[1] && end > s.amountSpan[0]
}

// Extractor turns a financial SMS into an ExtractedTransaction. It holds
// only compiled, read-only tables and is safe for concurrent use.
type Extractor struct {
	currencies        map[string]string
	banks             *bank.Directory
	balanceGuard      *regexp.Regexp
	referenceFallback *regexp.Regexp
	referenceNoise    *regexp.Regexp
	timeSuffix        *regexp.Regexp
	counterpartyStop  *regexp.Regexp
	defaultCurrency   string
	amounts           []amountRegex
	neutralizers      []*regexp.Regexp
	directions        []directionRegex
	methods           []methodRegex
	references        []*regexp.Regexp
	dates             []dateRegex
	timeLayouts       []string
	counterparties    []counterpartyRegex
	balances          []*regexp.Regexp
	accounts          []*regexp.Regexp
	categories        []categoryRegex
	intents           []intentRegex
	steps             []step
	weights           Weights
	minYear           int
	maxYear           int
	minRefLength      int
	maxTags           int
}

// NewExtractor compiles the tables. banks may be nil, in which case no
// institution is ever resolved.
func NewExtractor(tables Tables, banks *bank.Directory) (*Extractor, error) {
	if err := validateWeights(tables.Weights); err != nil {
		return nil, err
	}

	e := &Extractor{
		banks:           banks,
		defaultCurrency: strings.ToUpper(strings.TrimSpace(tables.DefaultCurrency)),
		currencies:      make(map[string]string, len(tables.Currencies)),
		timeLayouts:     tables.TimeLayouts,
		weights:         tables.Weights,
		minYear:         tables.MinYear,
		maxYear:         tables.MaxYear,
		minRefLength:    tables.MinReferenceLength,
		maxTags:         tables.MaxTags,
	}
	for k, v := range tables.Currencies {
		e.currencies[strings.ToLower(k)] = strings.ToUpper(v)
	}

	c := compiler{}

	for _, p := range tables.Amounts {
		re := c.compile("amount "+p.Name, p.Pattern, "amount")
		e.amounts = append(e.amounts, amountRegex{re: re, name: p.Name, bare: p.Bare})
	}
	e.balanceGuard = c.compileOptional("balance guard", tables.BalanceGuard)
	for _, p := range tables.DirectionNeutralizers {
		e.neutralizers = append(e.neutralizers, c.compile("direction neutralizer", p))
	}
	for _, r := range tables.Directions {
		e.directions = append(e.directions, directionRegex{re: c.compile("direction", r.Pattern), typ: r.Type, weight: r.Weight})
	}
	for _, r := range tables.Methods {
		e.methods = append(e.methods, methodRegex{re: c.compile("method "+string(r.Method), r.Pattern), method: r.Method})
	}
	for _, p := range tables.References {
		e.references = append(e.references, c.compile("reference", p, "ref"))
	}
	e.referenceFallback = c.compileOptional("reference fallback", tables.ReferenceFallback)
	e.referenceNoise = c.compileOptional("reference noise", tables.ReferenceNoise)
	for _, d := range tables.Dates {
		if len(d.Layouts) == 0 {
			c.fail(fmt.Errorf("%w: date pattern %q has no layouts", ErrInvalidTables, d.Pattern))
		}
		e.dates = append(e.dates, dateRegex{re: c.compile("date", d.Pattern, "date"), layouts: d.Layouts})
	}
	e.timeSuffix = c.compileOptional("time suffix", tables.TimeSuffix)
	for _, p := range tables.Counterparties {
		e.counterparties = append(e.counterparties, counterpartyRegex{re: c.compile("counterparty", p.Pattern, "party"), typ: p.Type})
	}
	e.counterpartyStop = c.compileOptional("counterparty stop", tables.CounterpartyStop)
	for _, p := range tables.Balances {
		e.balances = append(e.balances, c.compile("balance", p, "amount"))
	}
	for _, p := range tables.Accounts {
		e.accounts = append(e.accounts, c.compile("account", p, "account"))
	}
	for _, r := range tables.Categories {
		e.categories = append(e.categories, categoryRegex{re: c.compile("category "+string(r.Category), r.Pattern), category: r.Category})
	}
	for _, r := range tables.Intents {
		e.intents = append(e.intents, intentRegex{re: c.compile("intent "+string(r.Intent), r.Pattern), intent: r.Intent})
	}

	if c.err != nil {
		return nil, c.err
	}

	e.steps = []step{
		{name: "amount", run: e.extractAmount},
		{name: "type", run: e.extractType},
		{name: "bank", run: e.extractBank},
		{name: "method", run: e.extractMethod},
		{name: "reference", run: e.extractReference},
		{name: "date", run: e.extractDate},
		{name: "counterparty", run: e.extractCounterparty},
		{name: "balance", run: e.extractBalance},
		{name: "category", run: e.extractCategory},
		{name: "account", run: e.extractAccount},
		{name: "intent", run: e.extractIntent},
		{name: "tags", run: e.buildTags},
		{name: "summary", run: e.buildSummary},
	}

	return e, nil
}

func validateWeights(w Weights) error {
	for name, v := range map[string]float64{
		"amount": w.Amount, "type": w.Type, "bank": w.Bank, "method": w.Method,
		"reference": w.Reference, "date": w.Date, "counterparty": w.Counterparty,
		"balance": w.Balance, "category": w.Category,
	} {
		if v < 0 {
			return fmt.Errorf("%w: weight %s is negative", ErrInvalidTables, name)
		}
	}
	if w.Total() <= 0 {
		return fmt.Errorf("%w: weights sum to zero", ErrInvalidTables)
	}
	return nil
}

// compiler keeps the first compile error so NewExtractor reads top to bottom.
type compiler struct {
	err error
}

func (c *compiler) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

func (c *compiler) compile(what, pattern string, groups ...string) *regexp.Regexp {
	if !strings.HasPrefix(pattern, "(?i)") {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		c.fail(fmt.Errorf("failed to compile %s pattern: %w", what, err))
		return regexp.MustCompile(`$^`)
	}
	for _, g := range groups {
		if re.SubexpIndex(g) < 0 {
			c.fail(fmt.Errorf("%w: %s pattern %q has no %q group", ErrInvalidTables, what, pattern, g))
		}
	}
	return re
}

func (c *compiler) compileOptional(what, pattern string) *regexp.Regexp {
	if pattern == "" {
		return nil
	}
	return c.compile(what, pattern)
}

// Extract parses one message body. It never fails: fields that cannot be
// found are left empty and lower the confidence. received is the time the
// message arrived and may be zero.
func (e *Extractor) Extract(body, sender string, received time.Time) model.ExtractedTransaction {
	txn := model.ExtractedTransaction{
		Type:       model.TypeUnknown,
		Method:     model.MethodUnknown,
		Category:   model.CategoryOther,
		Intent:     model.IntentOther,
		DateSource: model.DateNone,
	}
	st := &state{
		body:       body,
		sender:     sender,
		received:   received,
		txn:        &txn,
		amountSpan: [2]int{-1, -1},
	}

	if strings.TrimSpace(body) != "" {
		for _, s := range e.steps {
			e.guard(s, st)
		}
	}

	txn.Confidence = e.confidence(&txn)
	return txn
}

// ExtractMessage is Extract for a RawMessage.
func (e *Extractor) ExtractMessage(msg model.RawMessage) model.ExtractedTransaction {
	return e.Extract(msg.Body, msg.Sender, msg.Timestamp)
}

// guard runs a step and contains any panic to that step.
func (e *Extractor) guard(s step, st *state) {
	defer func() {
		if r := recover(); r != nil {
			common.LogDebug("Field extraction failed", common.Fields{
				"field": s.name,
				"panic": fmt.Sprint(r),
			})
		}
	}()
	s.run(st)
}

// group returns the text and byte span of a named submatch, or ok=false.
func group(re *regexp.Regexp, text string, loc []int, name string) (string, int, int, bool) {
	i := re.SubexpIndex(name)
	if i < 0 || 2*i+1 >= len(loc) || loc[2*i] < 0 {
		return "", 0, 0, false
	}
	start, end := loc[2*i], loc[2*i+1]
	return text[start:end], start, end, true
}
