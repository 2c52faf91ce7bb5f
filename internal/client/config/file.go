package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/afterlight/internal/flagx"
	"github.com/dmitrijs2005/afterlight/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk form of Config. Zero fields keep the value
// already present in Config.
type FileConfig struct {
	ServerURL           string         `json:"server_url" yaml:"server_url"`
	HealthAddrGRPC      string         `json:"health_addr_grpc" yaml:"health_addr_grpc"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval" yaml:"online_check_interval"`
	SessionIdleTimeout  timex.Duration `json:"session_idle_timeout" yaml:"session_idle_timeout"`
	RequestTimeout      timex.Duration `json:"request_timeout" yaml:"request_timeout"`
	HTTPRetryMax        *int           `json:"http_retry_max" yaml:"http_retry_max"`
	DataDir             string         `json:"data_dir" yaml:"data_dir"`
	LogLevel            string         `json:"log_level" yaml:"log_level"`
}

func parseFile(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	fc.apply(cfg)
	return nil
}

func (fc *FileConfig) apply(cfg *Config) {
	setString(&cfg.ServerURL, fc.ServerURL)
	setString(&cfg.HealthAddrGRPC, fc.HealthAddrGRPC)
	setString(&cfg.DataDir, fc.DataDir)
	setString(&cfg.LogLevel, fc.LogLevel)

	if fc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = fc.OnlineCheckInterval.Duration
	}
	if fc.SessionIdleTimeout.Duration > 0 {
		cfg.SessionIdleTimeout = fc.SessionIdleTimeout.Duration
	}
	if fc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = fc.RequestTimeout.Duration
	}
	if fc.HTTPRetryMax != nil {
		cfg.HTTPRetryMax = *fc.HTTPRetryMax
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
