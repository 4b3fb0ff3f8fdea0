// Package kvstore abstracts the durable on-device key-value storage the
// check-in engine persists into. Several backends implement one
// get/set/remove contract; Select probes them once at startup and picks
// the best one available, so hot paths never feature-detect.
package kvstore

import (
	"context"
	"errors"

	"github.com/roostapp/roost-sync/logging"
)

// ErrUnavailable signals that the backend cannot serve the request.
// Callers are expected to degrade to their in-memory mirror.
var ErrUnavailable = errors.New("storage unavailable")

// Store is the durable key-value contract. Values are UTF-8 JSON text.
type Store interface {
	// Get returns the value for key and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Options configures backend selection.
type Options struct {
	// SQLitePath is the path of the on-device SQLite database. Empty
	// skips the SQLite tier.
	SQLitePath string

	// Dir is the app-private directory for the filesystem backend. Empty
	// skips the filesystem tier.
	Dir string

	Logger logging.Logger
}

const probeKey = "kv.probe"

// Select probes the available backends in order of preference and
// returns the first usable one: SQLite, then one-file-per-key
// filesystem, then volatile memory. The decision is made exactly once;
// callers should hold on to the returned Store for the process lifetime.
//
// The probe is a real round-trip, not a presence check: on some hosts
// the SQLite layer exists but cannot actually open its database file.
func Select(ctx context.Context, opts Options) Store {
	log := opts.Logger
	if log == nil {
		log = logging.NewNop()
	}

	if opts.SQLitePath != "" {
		s, err := OpenSQLite(ctx, opts.SQLitePath)
		if err == nil {
			if _, _, perr := s.Get(ctx, probeKey); perr == nil {
				log.Info(ctx, "durable storage selected", "backend", "sqlite", "path", opts.SQLitePath)
				return s
			}
			_ = s.Close()
		}
		log.Warn(ctx, "sqlite storage unusable, falling back", "path", opts.SQLitePath, "error", err)
	}

	if opts.Dir != "" {
		fs, err := NewFileStore(opts.Dir)
		if err == nil {
			if perr := fs.probe(ctx); perr == nil {
				log.Info(ctx, "durable storage selected", "backend", "file", "dir", opts.Dir)
				return fs
			}
		}
		log.Warn(ctx, "file storage unusable, falling back", "dir", opts.Dir, "error", err)
	}

	log.Warn(ctx, "no durable storage available, using in-memory store")
	return NewMemoryStore()
}
