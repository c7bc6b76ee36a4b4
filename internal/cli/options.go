package cli

import "time"

// Options carries the flags shared by the commands.
type Options struct {
	ManifestPath string
	Debug        bool
	LogJSON      bool
	RedisURL     string
	RedisTTL     time.Duration
	Addr         string
	Metrics      bool
}
