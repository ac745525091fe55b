package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/donorline/internal/cli"
	"github.com/aretw0/donorline/pkg/domain"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect and remove stored conversations",
	Long:  `Reads and deletes sessions in the configured session store (memory or Redis).`,
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <phone>",
	Short: "Print the stored session of a sender",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		s, err := app.Engine.Session(cmd.Context(), args[0])
		if errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("no session for %s", args[0])
		}
		if err != nil {
			return fmt.Errorf("error loading session: %w", err)
		}

		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling session: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <phone>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		var errs []error
		for _, phone := range args {
			if err := app.Engine.Reset(cmd.Context(), phone); err != nil {
				errs = append(errs, fmt.Errorf("error removing %s: %w", phone, err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed session '%s'\n", phone)
		}
		return errors.Join(errs...)
	},
}

var sessionNudgeCmd = &cobra.Command{
	Use:   "nudge <phone>",
	Short: "Run the inactivity check for a sender now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		nudged, err := app.Engine.CheckInactivity(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if nudged {
			fmt.Fprintf(cmd.OutOrStdout(), "Reminder sent to %s\n", args[0])
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s is not idle mid-conversation\n", args[0])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
	sessionCmd.AddCommand(sessionNudgeCmd)
}

func openApp(cmd *cobra.Command) (*cli.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if cmd.Context() == nil {
		cmd.SetContext(context.Background())
	}
	return cli.NewApp(cmd.Context(), cfg, cli.BuildOptions{})
}
