package main

import (
	"encoding/json"
	"fmt"
	"os"

	"console_rental/internal/config"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one expiry pass and print the report",
	Long:  `Ends every running session past its budget and grace period, then exits. Useful from cron when the server is down.`,
	RunE:  runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	rep, err := a.services.Sweeper.SweepOnce(cmd.Context())
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
