package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/koopa0/thoughtline/internal/backfill"
	"github.com/koopa0/thoughtline/internal/config"
	"github.com/koopa0/thoughtline/internal/journal"
)

// runBackfill embeds every record still missing a vector. The run stops at
// the first failure; rerunning resumes where it stopped.
func runBackfill() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err = cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()

	pool, cleanup, err := providePool(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	g, err := provideGenkit(ctx, cfg)
	if err != nil {
		return err
	}
	embedder, err := provideEmbedder(g, cfg)
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}

	store, err := journal.NewStore(pool, embedder, logger)
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	runner, err := backfill.New(store, embedder, logger)
	if err != nil {
		return fmt.Errorf("creating backfill runner: %w", err)
	}

	result, err := runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("backfill aborted after %d thoughts and %d notes: %w",
			result.Thoughts, result.Notes, err)
	}

	fmt.Printf("Backfilled %d thoughts and %d notes\n", result.Thoughts, result.Notes)
	return nil
}
