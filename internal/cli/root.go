// Package cli provides the command-line interface for the warehouse
// builder.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/datamaghreb/bankdw/internal/config"
	"github.com/datamaghreb/bankdw/internal/engine"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bankdw",
		Short: "Bank reviews warehouse builder",
		Long: `bankdw builds a dimensional warehouse from scraped Moroccan bank
branch listings, customer reviews, and their NLP annotations.

Each build is a full refresh: dimensions build concurrently, the fact
table builds once every dimension has committed, and unresolvable
reviews are quarantined rather than dropped.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			var err error
			cfg, err = config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			level := slog.LevelInfo
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./bankdw.yaml)")
	rootCmd.PersistentFlags().StringP("environment", "e", "", "Environment name (dev, staging, prod)")
	rootCmd.PersistentFlags().String("target", "", "Target database type (sqlite|postgres|duckdb)")
	rootCmd.PersistentFlags().String("database", "", "Path to the warehouse database file (sqlite/duckdb)")
	rootCmd.PersistentFlags().String("schema", "", "Warehouse schema name")
	rootCmd.PersistentFlags().String("seeds-dir", "", "Path to the cleaned CSV exports")
	rootCmd.PersistentFlags().String("state", "", "Path to the run-history database")
	rootCmd.PersistentFlags().String("city-rules", "", "Path to a YAML city-rule file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	_ = rootCmd.RegisterFlagCompletionFunc("target", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"sqlite", "postgres", "duckdb"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newBuildCommand())
	rootCmd.AddCommand(newSeedCommand())
	rootCmd.AddCommand(newDAGCommand())
	rootCmd.AddCommand(newRunsCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// newEngine builds an engine from the loaded configuration.
func newEngine() (*engine.Engine, error) {
	eng, err := engine.New(engine.Config{
		Target:        cfg.Target.AdapterConfig(),
		Schema:        cfg.Schema,
		SeedsDir:      cfg.SeedsDir,
		StatePath:     cfg.StatePath,
		Environment:   cfg.Environment,
		CityRulesPath: cfg.CityRules,
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize engine: %w", err)
	}
	return eng, nil
}
