package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/fabstate/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve <manifest>",
	Short: "Serve a form over HTTP",
	Long:  `Builds the form described by the manifest and exposes its states, show and send over a JSON API.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		opts := baseOptions(cmd, args)
		opts.Addr, _ = cmd.Flags().GetString("addr")
		opts.Metrics, _ = cmd.Flags().GetBool("metrics")

		cmd.SilenceUsage = true
		return cli.Serve(ctx, opts)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
	serveCmd.Flags().Bool("metrics", true, "Expose Prometheus metrics on /metrics")
}
