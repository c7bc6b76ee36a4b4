package main

import (
	"fmt"
	"os"

	"github.com/aretw0/fabstate/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fabstate",
	Short: "fabstate binds declarative states to form scopes",
	Long:  `fabstate loads form manifests, replays scripted interactions and serves forms over HTTP.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging to stderr")
	rootCmd.PersistentFlags().Bool("log-json", false, "Write logs to stderr as JSON")
	rootCmd.PersistentFlags().String("redis", "", "Redis URL for submitted forms (redis://host:port/db)")
	rootCmd.PersistentFlags().Duration("redis-ttl", 0, "Expiration of submitted forms stored in Redis")
}

// baseOptions reads the persistent flags shared by every command.
func baseOptions(cmd *cobra.Command, args []string) cli.Options {
	debug, _ := cmd.Flags().GetBool("debug")
	logJSON, _ := cmd.Flags().GetBool("log-json")
	redisURL, _ := cmd.Flags().GetString("redis")
	redisTTL, _ := cmd.Flags().GetDuration("redis-ttl")

	opts := cli.Options{
		Debug:    debug,
		LogJSON:  logJSON,
		RedisURL: redisURL,
		RedisTTL: redisTTL,
	}
	if len(args) > 0 {
		opts.ManifestPath = args[0]
	}
	return opts
}
