package journal

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/pgvector/pgvector-go"
)

// Ranker runs semantic searches over the store, merging ranked results
// across record kinds when asked. The merge is a pure function over two
// already-ranked sequences; nothing is persisted.
type Ranker struct {
	store    *Store
	embedder *Embedder
	logger   *slog.Logger
}

// NewRanker creates a Ranker.
func NewRanker(store *Store, embedder *Embedder, logger *slog.Logger) (*Ranker, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ranker{store: store, embedder: embedder, logger: logger}, nil
}

// SearchAll ranks every embedded thought and note against the query and
// returns the closest limit records across both kinds.
// A blank query returns an empty result without calling the embedder.
func (r *Ranker) SearchAll(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	if strings.TrimSpace(query) == "" || limit <= 0 {
		return []SearchHit{}, nil
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	return r.rank(ctx, vec, limit)
}

// Rank merges the nearest thoughts and notes for an already-computed query
// vector. Used by the assistant, which embeds the question itself.
func (r *Ranker) Rank(ctx context.Context, vec pgvector.Vector, limit int) ([]SearchHit, error) {
	if limit <= 0 {
		return []SearchHit{}, nil
	}
	return r.rank(ctx, vec, limit)
}

func (r *Ranker) rank(ctx context.Context, vec pgvector.Vector, limit int) ([]SearchHit, error) {
	// Each side is fetched pre-ranked and capped at limit; the merged list
	// can never need more than limit from either kind.
	thoughts, err := r.store.NearestThoughts(ctx, vec, limit)
	if err != nil {
		return nil, err
	}
	notes, err := r.store.NearestNotes(ctx, vec, limit, 0)
	if err != nil {
		return nil, err
	}

	merged := mergeHits(thoughts, notes, limit)
	r.logger.Debug("ranked across kinds",
		"thoughts", len(thoughts), "notes", len(notes), "returned", len(merged))
	return merged, nil
}

// SearchThoughts ranks thoughts only.
// A blank query returns an empty result without calling the embedder.
func (r *Ranker) SearchThoughts(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	if strings.TrimSpace(query) == "" || limit <= 0 {
		return []SearchHit{}, nil
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	return r.store.NearestThoughts(ctx, vec, limit)
}

// SearchBookNotes ranks one book's notes only. Scoped search deliberately
// does not merge in thoughts; the cross-kind merge is reserved for SearchAll.
// A blank query returns an empty result without calling the embedder.
func (r *Ranker) SearchBookNotes(ctx context.Context, bookID int64, query string, limit int) ([]SearchHit, error) {
	if strings.TrimSpace(query) == "" || limit <= 0 {
		return []SearchHit{}, nil
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	return r.store.NearestNotes(ctx, vec, limit, bookID)
}

// mergeHits merges two distance-ranked sequences into one, ascending by
// distance, truncated to limit. Ties order thoughts before notes, then by
// lower ID, so results are deterministic.
func mergeHits(a, b []SearchHit, limit int) []SearchHit {
	merged := make([]SearchHit, 0, len(a)+len(b))
	merged = append(merged, a...)
	merged = append(merged, b...)

	slices.SortStableFunc(merged, func(x, y SearchHit) int {
		if c := cmp.Compare(x.Distance, y.Distance); c != 0 {
			return c
		}
		if x.Kind != y.Kind {
			if x.Kind == KindThought {
				return -1
			}
			return 1
		}
		return cmp.Compare(x.ID, y.ID)
	})

	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}
