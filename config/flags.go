package config

import (
	"flag"
	"os"
	"time"

	"github.com/roostapp/roost-sync/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-s string    base URL of the backend server (default from Config)
//	-t string    bearer token for backend requests
//	-db string   path of the SQLite database file
//	-d string    data directory for the file store fallback
//	-i int       sync interval in seconds (default from Config)
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-s", "-t", "-db", "-d", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "s", cfg.ServerURL, "base URL of the backend server")
	fs.StringVar(&cfg.Token, "t", cfg.Token, "bearer token for backend requests")
	fs.StringVar(&cfg.SQLitePath, "db", cfg.SQLitePath, "path of the SQLite database file")
	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory for the file store fallback")
	syncInterval := fs.Int("i", int(cfg.SyncInterval.Seconds()), "sync interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.SyncInterval = time.Duration(*syncInterval) * time.Second
}
