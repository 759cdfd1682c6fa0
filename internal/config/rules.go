package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Veraticus/smsfin/internal/bank"
	"github.com/Veraticus/smsfin/internal/classification"
	"github.com/Veraticus/smsfin/internal/common"
	"github.com/Veraticus/smsfin/internal/extraction"
	"gopkg.in/yaml.v3"
)

// RulesFile is the operator-editable YAML overlay applied on top of the built-in tables.
// Every section is optional.
type RulesFile struct {
	Threshold       *int                            `yaml:"threshold"`
	Weights         *extraction.Weights             `yaml:"weights"`
	DefaultCurrency string                          `yaml:"default_currency"`
	Banks           []bank.Institution              `yaml:"banks"`
	Exclusions      []classification.ExclusionGroup `yaml:"exclusions"`
	Signals         []classification.SignalGroup    `yaml:"signals"`
	Categories      []extraction.CategoryRule       `yaml:"categories"`
}

// Engine bundles the tables needed to construct a filter and an extractor.
type Engine struct {
	Banks  *bank.Directory
	Rules  classification.Rules
	Tables extraction.Tables
}

// DefaultEngine returns the built-in tables.
func DefaultEngine() Engine {
	rules := classification.DefaultRules()
	return Engine{
		Banks:  rules.Banks,
		Rules:  rules,
		Tables: extraction.DefaultTables(),
	}
}

// LoadRules reads and parses a rules file.
func LoadRules(path string) (*RulesFile, error) {
	data, err := os.ReadFile(ExpandPath(path)) //nolint:gosec // operator supplied path
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return ParseRules(bytes.NewReader(data))
}

// ParseRules decodes a rules document. Unknown keys are rejected so typos surface early.
func ParseRules(r io.Reader) (*RulesFile, error) {
	var file RulesFile

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return &file, nil
		}
		return nil, fmt.Errorf("%w: rules file: %w", common.ErrInvalidConfig, err)
	}

	if file.Threshold != nil && *file.Threshold <= 0 {
		return nil, fmt.Errorf("%w: threshold must be positive, got %d", common.ErrInvalidConfig, *file.Threshold)
	}
	return &file, nil
}

// Apply layers the file onto e. Extra groups and banks are added to the
// defaults; threshold, weights and currency replace them.
func (f *RulesFile) Apply(e *Engine) error {
	if f == nil {
		return nil
	}

	if len(f.Banks) > 0 {
		institutions := append(bank.DefaultInstitutions(), f.Banks...)
		dir, err := bank.NewDirectory(institutions)
		if err != nil {
			return fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
		}
		e.Banks = dir
		e.Rules.Banks = dir
	}

	if f.Threshold != nil {
		e.Rules.Threshold = *f.Threshold
	}
	e.Rules.Exclusions = append(e.Rules.Exclusions, f.Exclusions...)
	e.Rules.Signals = append(e.Rules.Signals, f.Signals...)

	if f.Weights != nil {
		e.Tables.Weights = *f.Weights
	}
	if c := strings.TrimSpace(f.DefaultCurrency); c != "" {
		e.Tables.DefaultCurrency = strings.ToUpper(c)
	}
	if len(f.Categories) > 0 {
		// Operator categories are tried before the built-in buckets.
		e.Tables.Categories = append(append([]extraction.CategoryRule{}, f.Categories...), e.Tables.Categories...)
	}

	return nil
}
