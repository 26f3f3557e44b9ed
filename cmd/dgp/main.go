package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"retention-dgp/internal/config"
	"retention-dgp/internal/database"
	"retention-dgp/internal/runner"
)

var (
	configPath string
	verbose    bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "dgp",
	Short: "Synthetic weekly user panel with a known causal structure",
	Long: `dgp generates a toy longitudinal dataset: user traits, weekly behavior and
a lagged retention label, with confounding built in so a naive analysis is biased.

Settings come from the config file, then DGP_* environment variables, then flags.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapConfig := zap.NewProductionConfig()
		if verbose {
			zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapConfig.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a dataset and write it to the configured outputs",
	Long: `Generates users and user-weeks, validates both tables, prints a JSON summary
and optionally writes Parquet files and loads the tables into databases.

Example:
  dgp generate --users 1000 --seed 8 --parquet --sink sqlite`,
	RunE: runGenerate,
}

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "Print the effective structural parameters as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(map[string]any{"params": cfg.Params})
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	f := generateCmd.Flags()
	f.Int("users", 0, "number of users")
	f.Int("weeks", 0, "number of weeks per user")
	f.Int64("seed", 0, "random seed")
	f.Int("t0-week", 0, "first week of the exposure window")
	f.Int("retention-week", 0, "week the retention outcome represents")
	f.StringSlice("sink", nil, fmt.Sprintf("database to load into, repeatable (%v)", database.Names()))
	f.Bool("parquet", false, "write Parquet files")
	f.String("out", "", "directory for Parquet files (default data/<run id>)")
	f.Bool("reset", false, "drop dataset tables before loading")

	rootCmd.AddCommand(generateCmd, paramsCmd)
}

// loadConfig layers flags that were set explicitly over file and env settings.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	f := cmd.Flags()
	if f.Lookup("users") == nil {
		return cfg, nil
	}
	if f.Changed("users") {
		cfg.Generation.NUsers, _ = f.GetInt("users")
	}
	if f.Changed("weeks") {
		cfg.Generation.NWeeks, _ = f.GetInt("weeks")
	}
	if f.Changed("seed") {
		cfg.Generation.Seed, _ = f.GetInt64("seed")
	}
	if f.Changed("t0-week") {
		cfg.Generation.T0Week, _ = f.GetInt("t0-week")
	}
	if f.Changed("retention-week") {
		cfg.Generation.RetentionWeek, _ = f.GetInt("retention-week")
	}
	if f.Changed("sink") {
		cfg.Output.Sinks, _ = f.GetStringSlice("sink")
	}
	if f.Changed("parquet") {
		cfg.Output.Parquet, _ = f.GetBool("parquet")
	}
	if f.Changed("out") {
		cfg.Output.Dir, _ = f.GetString("out")
	}
	if f.Changed("reset") {
		cfg.Output.Reset, _ = f.GetBool("reset")
	}
	return cfg, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	paths, err := config.DefaultPaths()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := &runner.Runner{Config: cfg, Paths: paths, Logger: logger}
	result, err := r.Run(ctx)
	if err != nil {
		logger.Error("generation failed", zap.Error(err))
		return err
	}

	jsonOutput, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(jsonOutput))
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
