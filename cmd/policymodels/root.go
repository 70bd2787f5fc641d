package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile   string
	modelPath string
	logLevel  string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "policymodels",
	Short: "Compile, run and query policy models",
	Long: `policymodels compiles policy models into decision graphs and executes them.

A run interviews the user one question at a time and accumulates a policy
value from the answers. Runs can be suspended as snapshots and resumed later.
A query explores every path of the graph and reports the ones whose final
value matches a target.`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if app == nil {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return app.Close(ctx)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// skipSetup runs cmd without loading the configuration.
func skipSetup(cmd *cobra.Command) {
	noop := func(*cobra.Command, []string) error { return nil }
	cmd.PersistentPreRunE = noop
	cmd.PersistentPostRunE = noop
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults and POLICYMODELS_* variables when empty)")
	rootCmd.PersistentFlags().StringVarP(&modelPath, "model", "m", "", "model file, overrides model.path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output, same as --log-level debug")
}
