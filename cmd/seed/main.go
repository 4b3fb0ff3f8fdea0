// Command seed populates the local roost cache with a synthetic demo
// network, or purges it with -reset.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/roostapp/roost-sync/checkins"
	"github.com/roostapp/roost-sync/config"
	"github.com/roostapp/roost-sync/demo"
	"github.com/roostapp/roost-sync/internal/flagx"
	"github.com/roostapp/roost-sync/kvstore"
	"github.com/roostapp/roost-sync/logging"
)

func main() {
	cfg := config.LoadConfig()

	args := flagx.FilterArgs(os.Args[1:], []string{"-reset", "-user"})
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	reset := fs.Bool("reset", false, "remove the demo network instead of seeding it")
	user := fs.String("user", "local-user", "id of the user the demo friends connect to")
	if err := fs.Parse(args); err != nil {
		log.Fatalf("%v", err)
	}

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	ctx := context.Background()

	store := kvstore.Select(ctx, kvstore.Options{
		SQLitePath: cfg.SQLitePath,
		Dir:        cfg.DataDir,
		Logger:     logger,
	})
	defer store.Close()

	repo := checkins.NewRepository(store, logger)
	seeder := demo.NewSeeder(repo, store, logger)

	if *reset {
		removed := seeder.Reset(ctx)
		logger.Info(ctx, "done", "removed", removed)
		return
	}

	created, err := seeder.Seed(ctx, *user)
	if err != nil {
		log.Fatalf("%v", err)
	}
	logger.Info(ctx, "done", "created", created)
}
