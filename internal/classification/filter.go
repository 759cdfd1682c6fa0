// Package classification decides whether an SMS is a financial transaction message.
package classification

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Veraticus/smsfin/internal/bank"
	"github.com/Veraticus/smsfin/internal/model"
)

// DefaultThreshold is the minimum score a message needs to count as financial.
const DefaultThreshold = 2

// ErrInvalidRules is returned when a rule set cannot be compiled.
var ErrInvalidRules = errors.New("invalid filter rules")

// Target selects which part of the message a signal group inspects.
type Target string

const (
	// TargetBody matches against the message text.
	TargetBody Target = "body"
	// TargetSender matches against the sender header.
	TargetSender Target = "sender"
)

// SignalGroup is a named set of patterns that adds Points to the score
// when any of its patterns match. A group counts once per message.
type SignalGroup struct {
	Name     string   `yaml:"name"`
	Target   Target   `yaml:"target"`
	Patterns []string `yaml:"patterns"`
	Points   int      `yaml:"points"`
}

// ExclusionGroup is a named set of patterns that marks a message non-financial
// regardless of its score.
type ExclusionGroup struct {
	Name     string                `yaml:"name"`
	Reason   model.ExclusionReason `yaml:"reason"`
	Patterns []string              `yaml:"patterns"`
}

// Rules is the complete filter configuration. Exclusions are evaluated in
// order and the first match decides the reported reason.
type Rules struct {
	Banks            *bank.Directory
	Exclusions       []ExclusionGroup
	Signals          []SignalGroup
	Threshold        int
	BankBodyPoints   int
	BankSenderPoints int
}

type compiledGroup struct {
	name    string
	reason  model.ExclusionReason
	target  Target
	regexes []*regexp.Regexp
	points  int
}

func (g compiledGroup) matches(text string) bool {
	for _, re := range g.regexes {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// Filter implements the financial / non-financial decision. It holds only
// compiled, read-only tables and is safe for concurrent use.
type Filter struct {
	banks            *bank.Directory
	exclusions       []compiledGroup
	signals          []compiledGroup
	threshold        int
	bankBodyPoints   int
	bankSenderPoints int
}

// NewFilter compiles a rule set.
func NewFilter(rules Rules) (*Filter, error) {
	if rules.Threshold <= 0 {
		return nil, fmt.Errorf("%w: threshold must be positive, got %d", ErrInvalidRules, rules.Threshold)
	}

	f := &Filter{
		banks:            rules.Banks,
		threshold:        rules.Threshold,
		bankBodyPoints:   rules.BankBodyPoints,
		bankSenderPoints: rules.BankSenderPoints,
	}

	for _, g := range rules.Exclusions {
		if !g.Reason.IsValid() || g.Reason == model.ReasonNone {
			return nil, fmt.Errorf("%w: exclusion group %s has reason %q", ErrInvalidRules, g.Name, g.Reason)
		}
		regexes, err := compilePatterns(g.Name, g.Patterns)
		if err != nil {
			return nil, err
		}
		f.exclusions = append(f.exclusions, compiledGroup{name: g.Name, reason: g.Reason, regexes: regexes})
	}

	for _, g := range rules.Signals {
		if g.Points < 0 {
			return nil, fmt.Errorf("%w: signal group %s has negative points", ErrInvalidRules, g.Name)
		}
		target := g.Target
		if target == "" {
			target = TargetBody
		}
		if target != TargetBody && target != TargetSender {
			return nil, fmt.Errorf("%w: signal group %s has unknown target %q", ErrInvalidRules, g.Name, g.Target)
		}
		regexes, err := compilePatterns(g.Name, g.Patterns)
		if err != nil {
			return nil, err
		}
		f.signals = append(f.signals, compiledGroup{name: g.Name, target: target, points: g.Points, regexes: regexes})
	}

	return f, nil
}

func compilePatterns(group string, patterns []string) ([]*regexp.Regexp, error) {
	if group == "" {
		return nil, fmt.Errorf("%w: group without a name", ErrInvalidRules)
	}
	regexes := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if !strings.HasPrefix(p, "(?i)") {
			p = "(?i)" + p
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to compile pattern in group %s: %w", group, err)
		}
		regexes = append(regexes, re)
	}
	return regexes, nil
}

// Classify decides whether a message is financial.
func (f *Filter) Classify(sender, body string) model.ClassificationResult {
	if strings.TrimSpace(body) == "" {
		return model.ClassificationResult{ExclusionReason: model.ReasonNone}
	}

	score, groups := f.Score(sender, body)
	result := model.ClassificationResult{
		Score:         score,
		MatchedGroups: groups,
	}

	for _, g := range f.exclusions {
		if g.matches(body) {
			result.ExclusionReason = g.reason
			result.ExcludedBy = g.name
			return result
		}
	}

	if score >= f.threshold {
		result.IsFinancial = true
		return result
	}

	result.ExclusionReason = model.ReasonNone
	return result
}

// ClassifyMessage is Classify for a RawMessage.
func (f *Filter) ClassifyMessage(msg model.RawMessage) model.ClassificationResult {
	return f.Classify(msg.Sender, msg.Body)
}

// Score returns the accumulated financial score and the names of the
// groups that contributed to it. Exclusions do not affect the score.
func (f *Filter) Score(sender, body string) (int, []string) {
	score := 0
	var groups []string

	for _, g := range f.signals {
		text := body
		if g.target == TargetSender {
			text = sender
		}
		if text != "" && g.matches(text) {
			score += g.points
			groups = append(groups, g.name)
		}
	}

	if f.banks != nil {
		if _, ok := f.banks.FromBody(body); ok && f.bankBodyPoints > 0 {
			score += f.bankBodyPoints
			groups = append(groups, "bank_name")
		}
		if _, ok := f.banks.FromSender(sender); ok && f.bankSenderPoints > 0 {
			score += f.bankSenderPoints
			groups = append(groups, "bank_sender")
		}
	}

	return score, groups
}

// ClassifyBatch classifies messages in order, stopping early if ctx is cancelled.
func (f *Filter) ClassifyBatch(ctx context.Context, messages []model.RawMessage) ([]model.ClassificationResult, error) {
	results := make([]model.ClassificationResult, 0, len(messages))

	for _, msg := range messages {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
			results = append(results, f.ClassifyMessage(msg))
		}
	}

	return results, nil
}

// Threshold returns the configured score threshold.
func (f *Filter) Threshold() int {
	return f.threshold
}

// GroupCount returns the number of exclusion and signal groups loaded.
func (f *Filter) GroupCount() int {
	return len(f.exclusions) + len(f.signals)
}
