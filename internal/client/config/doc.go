// Package config loads runtime configuration for the Afterlight CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected via -c or -config. Files ending in
//     .yaml/.yml are YAML, anything else is JSON.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the REST API
//	-l string   address:port of the gRPC health endpoint
//	-i int      online status check interval (seconds)
//	-t int      session idle timeout (minutes)
//	-d string   local data directory
//	-r int      max retries for idempotent requests
//	-v string   log level
//
// # File schema
//
// Durations use timex.Duration, so values can be strings like "3s" or
// integer nanoseconds:
//
//	server_url: http://127.0.0.1:8080
//	health_addr_grpc: 127.0.0.1:50051
//	online_check_interval: 3s
//	session_idle_timeout: 10m
//
// The Argon2id work factor is fixed at cryptox.DefaultParams and cannot be
// configured: keys of existing vaults and the offline login verifier are
// only reproducible with the parameters they were derived with.
package config
