package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/koopa0/thoughtline/internal/api"
	"github.com/koopa0/thoughtline/internal/assistant"
	"github.com/koopa0/thoughtline/internal/config"
	"github.com/koopa0/thoughtline/internal/journal"
)

// runServe initializes and starts the HTTP API server.
func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err = cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	addr, err := parseServeAddr(cfg.Addr)
	if err != nil {
		return fmt.Errorf("parsing address: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()
	logger.Info("starting thoughtline server", "version", Version)

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
	ranker, err := journal.NewRanker(store, embedder, logger)
	if err != nil {
		return fmt.Errorf("creating ranker: %w", err)
	}
	asst, err := assistant.New(g, cfg.ModelName, embedder, ranker, logger)
	if err != nil {
		return fmt.Errorf("creating assistant: %w", err)
	}

	server, err := api.NewServer(api.ServerConfig{
		Store:       store,
		Ranker:      ranker,
		Assistant:   asst,
		Pool:        pool,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	return server.Run(ctx, addr)
}
