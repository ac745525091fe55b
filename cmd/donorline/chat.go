package main

import (
	"github.com/aretw0/donorline/internal/cli"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Simulate an SMS conversation in the terminal",
	Long: `Runs the donation conversation locally. Every line you type is delivered
as an inbound SMS; replies and idle reminders are printed as they are sent.
Donations are kept in memory and outbound SMS never leave the terminal.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		from, _ := cmd.Flags().GetString("from")
		debug, _ := cmd.Flags().GetBool("debug")
		plain, _ := cmd.Flags().GetBool("plain")
		idle, _ := cmd.Flags().GetDuration("idle")

		return cli.Execute(cli.ChatOptions{
			ConfigPath:  path,
			From:        from,
			Debug:       debug,
			Plain:       plain,
			IdleTimeout: idle,
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().String("from", cli.DefaultChatSender, "Phone number to text from")
	chatCmd.Flags().Bool("debug", false, "Log engine events to stderr")
	chatCmd.Flags().Bool("plain", false, "Disable banner and styled output")
	chatCmd.Flags().Duration("idle", 0, "Override the inactivity window (e.g. 30s)")
}
