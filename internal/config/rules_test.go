package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/smsfin/internal/bank"
	"github.com/Veraticus/smsfin/internal/classification"
	"github.com/Veraticus/smsfin/internal/common"
	"github.com/Veraticus/smsfin/internal/extraction"
	"github.com/Veraticus/smsfin/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRules = `
threshold: 3
default_currency: usd
weights:
  amount: 0.5
  type: 0.5
banks:
  - name: Zeta Cooperative Bank
    sender_codes: [ZETACB]
    keywords: [Zeta Cooperative]
exclusions:
  - name: society_raffle
    reason: promotional
    patterns: ['\bsociety\s+raffle\b']
signals:
  - name: wallet
    target: body
    points: 1
    patterns: ['\bwallet\b']
categories:
  - category: food_dining
    pattern: '\bchai\s+point\b'
`

func TestParseRules(t *testing.T) {
	file, err := ParseRules(strings.NewReader(sampleRules))
	require.NoError(t, err)

	require.NotNil(t, file.Threshold)
	assert.Equal(t, 3, *file.Threshold)
	assert.Equal(t, "usd", file.DefaultCurrency)
	require.NotNil(t, file.Weights)
	assert.InDelta(t, 1.0, file.Weights.Total(), 1e-9)
	require.Len(t, file.Banks, 1)
	assert.Equal(t, []string{"ZETACB"}, file.Banks[0].SenderCodes)
	require.Len(t, file.Exclusions, 1)
	assert.Equal(t, model.ReasonPromotional, file.Exclusions[0].Reason)
	require.Len(t, file.Signals, 1)
	assert.Equal(t, classification.TargetBody, file.Signals[0].Target)
}

func TestParseRules_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "unknown key", input: "thresold: 2\n"},
		{name: "non positive threshold", input: "threshold: 0\n"},
		{name: "malformed yaml", input: "banks: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRules(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}
}

func TestParseRules_Empty(t *testing.T) {
	file, err := ParseRules(strings.NewReader(""))
	require.NoError(t, err)

	engine := DefaultEngine()
	require.NoError(t, file.Apply(&engine))
	assert.Equal(t, classification.DefaultThreshold, engine.Rules.Threshold)
}

func TestRulesFile_Apply(t *testing.T) {
	file, err := ParseRules(strings.NewReader(sampleRules))
	require.NoError(t, err)

	engine := DefaultEngine()
	defaults := DefaultEngine()
	require.NoError(t, file.Apply(&engine))

	assert.Equal(t, 3, engine.Rules.Threshold)
	assert.Equal(t, "USD", engine.Tables.DefaultCurrency)
	assert.Len(t, engine.Rules.Exclusions, len(defaults.Rules.Exclusions)+1)
	assert.Len(t, engine.Rules.Signals, len(defaults.Rules.Signals)+1)
	assert.Equal(t, defaults.Banks.Len()+1, engine.Banks.Len())
	assert.Same(t, engine.Banks, engine.Rules.Banks)
	assert.Equal(t, model.CategoryFoodDining, engine.Tables.Categories[0].Category)

	filter, err := classification.NewFilter(engine.Rules)
	require.NoError(t, err)
	extractor, err := extraction.NewExtractor(engine.Tables, engine.Banks)
	require.NoError(t, err)

	promo := filter.Classify("VM-ZETACB", "Rs 5000 debited for your society raffle ticket")
	assert.False(t, promo.IsFinancial)
	assert.Equal(t, model.ReasonPromotional, promo.ExclusionReason)
	assert.Equal(t, "society_raffle", promo.ExcludedBy)

	txn := extractor.Extract("Rs 120 debited from your a/c at Chai Point", "VM-ZETACB-S", time.Now())
	assert.Equal(t, "Zeta Cooperative Bank", txn.Bank)
	assert.Equal(t, model.CategoryFoodDining, txn.Category)
	assert.Equal(t, "INR", txn.Currency)
}

func TestRulesFile_ApplyInvalidBank(t *testing.T) {
	file := &RulesFile{Banks: []bank.Institution{{Name: ""}}}
	engine := DefaultEngine()
	assert.ErrorIs(t, file.Apply(&engine), common.ErrInvalidConfig)
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleRules), 0o600))

	file, err := LoadRules(path)
	require.NoError(t, err)
	assert.Len(t, file.Banks, 1)

	_, err = LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
