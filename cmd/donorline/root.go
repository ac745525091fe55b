package main

import (
	"fmt"
	"os"

	"github.com/aretw0/donorline/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "donorline",
	Short: "donorline collects donation records over SMS",
	Long: `donorline runs an SMS conversation that walks a sender through a donation
record (congregation, name, phone, tax ID, amount, note), confirms it and
writes it to a ledger.`,
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
	rootCmd.PersistentFlags().StringP("config", "c", "", "YAML config file; environment variables override it")
}

// loadConfig reads --config and the environment, then validates the result.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
