package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/fable/internal/cli"
	"github.com/aretw0/fable/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "fable",
	Short: "Fable resolves story templates, assembles prompts and recovers generator output",
	Long: `Fable fills prompt templates from character state and datasets, hands the
prompt to a text generator and recovers structured fields from whatever comes back.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to fable.yaml (default ./fable.yaml when present)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
}

// loadConfig reads the config and the logger named by the persistent flags.
func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	logger, err := cli.NewLogger(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

// buildRuntime loads the config and wires an engine for one command.
func buildRuntime(cmd *cobra.Command, opts cli.BuildOptions) (*cli.Runtime, config.Config, *slog.Logger, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, cfg, nil, err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := cli.BuildEngine(ctx, cfg, logger, opts)
	if err != nil {
		return nil, cfg, nil, err
	}
	return rt, cfg, logger, nil
}
