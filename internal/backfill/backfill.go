// Package backfill computes embeddings for records that were stored without
// one, such as rows imported before semantic search existed or rows whose
// embedding call failed at write time.
package backfill

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pgvector/pgvector-go"

	"github.com/koopa0/thoughtline/internal/journal"
)

// Store lists records missing an embedding and persists computed vectors.
type Store interface {
	ThoughtsMissingEmbedding(ctx context.Context) ([]journal.Pending, error)
	NotesMissingEmbedding(ctx context.Context) ([]journal.Pending, error)
	SetThoughtEmbedding(ctx context.Context, id int64, vec pgvector.Vector) error
	SetNoteEmbedding(ctx context.Context, id int64, vec pgvector.Vector) error
}

// Embedder converts record content into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (pgvector.Vector, error)
}

// Result counts the records embedded in one run.
type Result struct {
	Thoughts int
	Notes    int
}

// Runner fills in missing embeddings, thoughts first, then notes.
type Runner struct {
	store    Store
	embedder Embedder
	logger   *slog.Logger
}

// New creates a Runner.
func New(store Store, embedder Embedder, logger *slog.Logger) (*Runner, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{store: store, embedder: embedder, logger: logger}, nil
}

// Run embeds every record missing a vector, one at a time, and stops at the
// first failure. Records already processed keep their new embeddings, so a
// rerun after a transient failure picks up where this one stopped.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	var result Result

	thoughts, err := r.store.ThoughtsMissingEmbedding(ctx)
	if err != nil {
		return result, fmt.Errorf("listing thoughts missing embedding: %w", err)
	}
	for _, p := range thoughts {
		if err := r.embedOne(ctx, p, r.store.SetThoughtEmbedding); err != nil {
			return result, fmt.Errorf("thought %d: %w", p.ID, err)
		}
		result.Thoughts++
	}

	notes, err := r.store.NotesMissingEmbedding(ctx)
	if err != nil {
		return result, fmt.Errorf("listing notes missing embedding: %w", err)
	}
	for _, p := range notes {
		if err := r.embedOne(ctx, p, r.store.SetNoteEmbedding); err != nil {
			return result, fmt.Errorf("note %d: %w", p.ID, err)
		}
		result.Notes++
	}

	r.logger.Info("backfill complete",
		"thoughts", result.Thoughts, "notes", result.Notes)
	return result, nil
}

func (r *Runner) embedOne(ctx context.Context, p journal.Pending, set func(context.Context, int64, pgvector.Vector) error) error {
	vec, err := r.embedder.Embed(ctx, p.Content)
	if err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	if err := set(ctx, p.ID, vec); err != nil {
		return fmt.Errorf("storing embedding: %w", err)
	}
	return nil
}
