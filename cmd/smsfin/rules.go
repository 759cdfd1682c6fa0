package main

import (
	"fmt"

	"github.com/Veraticus/smsfin/internal/classification"
	"github.com/Veraticus/smsfin/internal/extraction"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// rulesListing is the effective configuration as shown by 'smsfin rules'.
type rulesListing struct {
	DefaultCurrency  string                          `yaml:"default_currency"`
	Banks            []string                        `yaml:"banks"`
	Exclusions       []classification.ExclusionGroup `yaml:"exclusions"`
	Signals          []classification.SignalGroup    `yaml:"signals"`
	Categories       []extraction.CategoryRule       `yaml:"categories"`
	Weights          extraction.Weights              `yaml:"weights"`
	Threshold        int                             `yaml:"threshold"`
	BankBodyPoints   int                             `yaml:"bank_body_points"`
	BankSenderPoints int                             `yaml:"bank_sender_points"`
}

func rulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Print the effective classification rules",
		Long: `Print the rules in effect after layering --rules and config overrides over
the built-in tables, as YAML.

Rules files extend the built-in tables, so copy only the groups you want to
add into your own file rather than the whole listing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := loadEngine()
			if err != nil {
				return err
			}

			listing := rulesListing{
				Threshold:        engine.Rules.Threshold,
				BankBodyPoints:   engine.Rules.BankBodyPoints,
				BankSenderPoints: engine.Rules.BankSenderPoints,
				DefaultCurrency:  engine.Tables.DefaultCurrency,
				Weights:          engine.Tables.Weights,
				Banks:            engine.Banks.Names(),
				Exclusions:       engine.Rules.Exclusions,
				Signals:          engine.Rules.Signals,
				Categories:       engine.Tables.Categories,
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(listing); err != nil {
				return fmt.Errorf("failed to encode rules: %w", err)
			}
			return enc.Close()
		},
	}
}
