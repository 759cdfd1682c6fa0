// Package main contains the smsfin CLI commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Veraticus/smsfin/internal/cli"
	"github.com/Veraticus/smsfin/internal/common"
	"github.com/Veraticus/smsfin/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	var cfgFile, envFile string

	rootCmd := &cobra.Command{
		Use:   "smsfin",
		Short: "📱 Financial SMS filter and transaction extractor",
		Long: `smsfin reads SMS exports, separates bank and payment alerts from OTPs,
promotions and chatter, and extracts structured transactions from what is left.

Rules are deterministic regular expressions; the same message always produces
the same result.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return initConfig(cfgFile, envFile)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/smsfin/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("rules", "", "YAML rules file layered over the built-in tables")
	rootCmd.PersistentFlags().String("db", "", "database path (default: "+config.DefaultDatabasePath+")")

	// Bind flags to viper
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("rules.path", rootCmd.PersistentFlags().Lookup("rules"))
	_ = viper.BindPFlag("database.path", rootCmd.PersistentFlags().Lookup("db"))

	viper.SetDefault("database.path", config.DefaultDatabasePath)
	viper.SetDefault("pipeline.workers", 4)
	viper.SetDefault("pipeline.review_threshold", 0.5)
	viper.SetDefault("pipeline.dedupe_window", "0s")

	rootCmd.AddCommand(filterCmd())
	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(transactionsCmd())
	rootCmd.AddCommand(runsCmd())
	rootCmd.AddCommand(rulesCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var userErr *common.UserError
		if errors.As(err, &userErr) {
			fmt.Fprintln(stderr, cli.FormatError(userErr.UserMessage))
			slog.Debug("command failed", "error", err)
		} else {
			fmt.Fprintln(stderr, cli.FormatError(err.Error()))
		}
		return 1
	}
	return 0
}

func initConfig(cfgFile, envFile string) error {
	// .env values must be in the environment before viper looks at it.
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}

	// Set up config file
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := config.ConfigDir()
		if err != nil {
			return err
		}

		// Search for config in standard locations
		viper.AddConfigPath(dir)
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Environment variables
	viper.SetEnvPrefix("SMSFIN")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	// Set up logging
	level, err := common.ParseLevel(viper.GetString("logging.level"))
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	if err := common.SetupLogger(level, viper.GetString("logging.format")); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "smsfin %s\n", version)
		},
	}
}
