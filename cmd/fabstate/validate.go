package main

import (
	"fmt"

	"github.com/aretw0/fabstate/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <manifest>",
	Short: "Check a manifest for consistency",
	Long:  `Reports duplicate or reserved state names, unknown mixins, invalid expressions and broken steps.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		if err := cli.Validate(args[0]); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Manifest is valid!")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
