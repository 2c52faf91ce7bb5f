package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/afterlight/internal/flagx"
)

// parseFlags overlays the short command-line flags listed in the package
// doc. Flags it does not declare are filtered out first so they can be used
// by other components.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the REST API")
	fs.StringVar(&cfg.HealthAddrGRPC, "l", cfg.HealthAddrGRPC, "address and port of the gRPC health endpoint")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	idleTimeout := fs.Int("t", int(cfg.SessionIdleTimeout.Minutes()), "session idle timeout (in minutes)")
	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "local data directory")
	fs.IntVar(&cfg.HTTPRetryMax, "r", cfg.HTTPRetryMax, "max retries for idempotent requests")
	fs.StringVar(&cfg.LogLevel, "v", cfg.LogLevel, "log level (debug, info, warn, error)")

	if err := fs.Parse(flagx.FilterArgs(args, flagx.Declared(fs))); err != nil {
		return err
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	cfg.SessionIdleTimeout = time.Duration(*idleTimeout) * time.Minute
	return nil
}
