// Package config loads runtime configuration for the roost sync client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-s string    base URL of the backend REST endpoint
//	-t string    bearer token for backend requests
//	-db string   path of the SQLite database file
//	-d string    data directory for the file store fallback
//	-i int       sync interval (seconds)
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "30s" or integer nanoseconds:
//
//	{
//	  "server_url": "https://api.roost.example",
//	  "token": "secret",
//	  "sqlite_path": "roost.db",
//	  "data_dir": ".",
//	  "sync_interval": "30s"
//	}
//
// Primary API
//
//   - type Config                     — holds server, storage, and sync settings
//   - func LoadConfig() *Config       — builds Config by applying defaults, JSON, then flags
//   - func (*Config) LoadDefaults()   — sets sensible defaults
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
