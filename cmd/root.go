package main

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "console-rental",
	Short: "Console rental session service",
	Long: `Runs the rental counter backend: device timers, member deposits,
the activity ledger and the expiry sweeper.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default configs/config.yml)")
}
