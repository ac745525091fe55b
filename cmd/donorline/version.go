package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/donorline"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of donorline",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "donorline version %s\n", strings.TrimSpace(donorline.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
