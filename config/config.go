package config

import "time"

// Config holds runtime settings for the roost sync client.
//
// Fields:
//   - ServerURL: base URL of the backend REST endpoint.
//   - Token: bearer token sent with every backend request.
//   - SQLitePath: path of the SQLite database backing the durable store.
//   - DataDir: directory for the file-per-key store fallback.
//   - SyncInterval: how often the background syncer drains the pending queue.
//
// Units: SyncInterval is a time.Duration (e.g., 30*time.Second).
type Config struct {
	ServerURL    string
	Token        string
	SQLitePath   string
	DataDir      string
	SyncInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.SQLitePath = "roost.db"
	c.DataDir = "."
	c.SyncInterval = 30 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
