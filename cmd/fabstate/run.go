package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/fabstate/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <manifest>",
	Short: "Replay the scripted steps of a manifest",
	Long:  `Builds the form described by the manifest, replays its steps and prints the resulting states and output parameters as JSON.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cmd.SilenceUsage = true
		return cli.Run(ctx, baseOptions(cmd, args), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
