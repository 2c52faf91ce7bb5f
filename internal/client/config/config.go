package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/dmitrijs2005/afterlight/internal/cryptox"
)

// Config holds runtime settings for the Afterlight CLI.
type Config struct {
	ServerURL           string
	HealthAddrGRPC      string
	OnlineCheckInterval time.Duration
	SessionIdleTimeout  time.Duration
	RequestTimeout      time.Duration
	HTTPRetryMax        int
	DataDir             string
	LogLevel            string
	// KDF is always cryptox.DefaultParams. Neither vaults nor the account
	// record their work factor, so it is not exposed in files or flags:
	// changing it would make every existing key underivable.
	KDF                 cryptox.Params
}

// LoadDefaults populates c with sensible defaults. An empty DataDir means the
// per-user default directory.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.HealthAddrGRPC = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.SessionIdleTimeout = 10 * time.Minute
	c.RequestTimeout = 15 * time.Second
	c.HTTPRetryMax = 3
	c.DataDir = ""
	c.LogLevel = "warn"
	c.KDF = cryptox.DefaultParams()
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.ServerURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid server url %q", c.ServerURL))
	}
	if c.OnlineCheckInterval <= 0 {
		errs = append(errs, errors.New("online check interval must be positive"))
	}
	if c.SessionIdleTimeout <= 0 {
		errs = append(errs, errors.New("session idle timeout must be positive"))
	}
	if c.HTTPRetryMax < 0 {
		errs = append(errs, errors.New("retry max must not be negative"))
	}
	if err := c.KDF.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Load builds a Config from defaults, then the file named by -c/-config,
// then the remaining flags in args.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseFile(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig is Load over os.Args. It panics on invalid input.
func LoadConfig() *Config {
	cfg, err := Load(os.Args[1:])
	if err != nil {
		panic(err)
	}
	return cfg
}
