package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/nihei9/decisive/config"
	"github.com/spf13/cobra"
)

var rootFlags = struct {
	config   *string
	logLevel *string
}{}

// cfg is the configuration every subcommand runs with. It is loaded before a subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "decisive",
	Short: "Find decisions of a grammar that cannot choose an alternative",
	Long: `decisive analyzes the decisions of a grammar with a bounded lookahead and reports:
- Inputs that more than one alternative of a decision can match.
- Alternatives that a decision can never choose.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootFlags.config = rootCmd.PersistentFlags().String("config", "", "configuration file path (default ./"+config.DefaultFileName+" if it exists)")
	rootFlags.logLevel = rootCmd.PersistentFlags().String("log-level", "", "trace level: debug, info, or error")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load(*rootFlags.config)
	if err != nil {
		return err
	}
	if *rootFlags.logLevel != "" {
		c.Trace.Level = *rootFlags.logLevel
		err := c.Validate()
		if err != nil {
			return err
		}
	}
	cfg = c

	setupTracing(cfg.Trace.Level)
	color.NoColor = color.NoColor || !cfg.Output.Color

	return nil
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
