package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/donorline/internal/cli"
	"github.com/aretw0/donorline/internal/presentation/graph"
	"github.com/aretw0/donorline/internal/presentation/tui"
	"github.com/aretw0/donorline/pkg/domain"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the conversation flow diagram",
	Long: `Outputs a Mermaid diagram (graph TD) of the donation flow. With --phone the
sender's stored session is highlighted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		phone, _ := cmd.Flags().GetString("phone")
		markdown, _ := cmd.Flags().GetBool("markdown")

		var overlay *graph.GraphOverlay
		if phone != "" {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx := context.Background()
			app, err := cli.NewApp(ctx, cfg, cli.BuildOptions{ForceConsole: true})
			if err != nil {
				return err
			}
			defer app.Close()

			s, err := app.Engine.Session(ctx, phone)
			switch {
			case errors.Is(err, domain.ErrSessionNotFound):
				return fmt.Errorf("no session for %s", phone)
			case err != nil:
				return err
			}
			overlay = graph.NewOverlay(s)
		}

		output := graph.GenerateMermaid(overlay)
		if !markdown {
			fmt.Fprint(cmd.OutOrStdout(), output)
			return nil
		}

		rendered, err := tui.NewRenderer()("```mermaid\n" + output + "```\n")
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), rendered)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("phone", "", "Highlight the stored session of this sender")
	graphCmd.Flags().Bool("markdown", false, "Render as a styled markdown code block")
}
