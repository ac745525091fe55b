package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aretw0/donorline/internal/cli"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate configuration and probe every collaborator",
	Long: `Loads the configuration, reports missing settings and calls the health
check of each configured collaborator (session store, scheduler, SMS
platform, ledger).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout, _ := cmd.Flags().GetDuration("timeout")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "config ok (sms=%s store=%s scheduler=%s ledger=%s)\n",
			cfg.SMS.Platform, cfg.Store.Driver, cfg.Scheduler.Driver, cfg.Ledger.Driver)

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		app, err := cli.NewApp(ctx, cfg, cli.BuildOptions{})
		if err != nil {
			return err
		}
		defer app.Close()

		checks := app.Checks()
		names := make([]string, 0, len(checks))
		for name := range checks {
			names = append(names, name)
		}
		sort.Strings(names)

		failed := 0
		for _, name := range names {
			if err := checks[name].Check(ctx); err != nil {
				failed++
				fmt.Fprintf(out, "  %-10s FAIL %v\n", name, err)
				continue
			}
			fmt.Fprintf(out, "  %-10s ok\n", name)
		}
		if failed > 0 {
			return fmt.Errorf("%d collaborator check(s) failed", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().Duration("timeout", 10*time.Second, "Deadline for all checks")
}
