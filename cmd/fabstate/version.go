package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/fabstate"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of fabstate",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "fabstate version %s\n", strings.TrimSpace(fabstate.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
