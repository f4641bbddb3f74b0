// Package assistant answers free-form questions grounded in the user's own
// journal. It embeds the question, retrieves the closest thoughts and book
// notes, and feeds them to the model as context so answers cite what the
// user actually wrote.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/pgvector/pgvector-go"

	"github.com/koopa0/thoughtline/internal/journal"
)

const (
	// contextLimit is how many retrieved records are placed in the prompt.
	contextLimit = 12
	// sourceLimit is how many of those are echoed back as sources.
	sourceLimit = 5
)

// ErrEmptyQuestion is returned when the question is blank.
var ErrEmptyQuestion = errors.New("question is empty")

const systemPrompt = `You are a personal journal assistant. Answer the question using only the journal entries provided as context. Each entry is marked with its kind (thought or note) and date. If the context does not contain enough information to answer, say so plainly instead of guessing.`

// Embedder converts a question into a query vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (pgvector.Vector, error)
}

// Retriever returns the records closest to a query vector.
type Retriever interface {
	Rank(ctx context.Context, vec pgvector.Vector, limit int) ([]journal.SearchHit, error)
}

// Answer is a model response together with the journal records it was
// grounded on.
type Answer struct {
	Text    string
	Sources []journal.SearchHit
}

// Assistant answers questions over the journal.
type Assistant struct {
	genkit    *genkit.Genkit
	modelName string
	embedder  Embedder
	retriever Retriever
	logger    *slog.Logger
}

// New creates an Assistant.
func New(g *genkit.Genkit, modelName string, embedder Embedder, retriever Retriever, logger *slog.Logger) (*Assistant, error) {
	if g == nil {
		return nil, fmt.Errorf("genkit instance is required")
	}
	if modelName == "" {
		return nil, fmt.Errorf("model name is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if retriever == nil {
		return nil, fmt.Errorf("retriever is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{
		genkit:    g,
		modelName: modelName,
		embedder:  embedder,
		retriever: retriever,
		logger:    logger,
	}, nil
}

// Answer embeds the question, retrieves the closest journal records, and
// generates a grounded answer. Retrieval happens even when the journal is
// empty; the model is then told there is no context.
func (a *Assistant) Answer(ctx context.Context, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	vec, err := a.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}

	hits, err := a.retriever.Rank(ctx, vec, contextLimit)
	if err != nil {
		return nil, fmt.Errorf("retrieving context: %w", err)
	}

	response, err := genkit.Generate(ctx, a.genkit,
		ai.WithModelName(a.modelName),
		ai.WithSystem(systemPrompt),
		ai.WithPrompt(buildPrompt(question, hits)),
	)
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	sources := hits
	if len(sources) > sourceLimit {
		sources = sources[:sourceLimit]
	}

	a.logger.Debug("answered question",
		"context", len(hits), "sources", len(sources))

	return &Answer{Text: response.Text(), Sources: sources}, nil
}

func buildPrompt(question string, hits []journal.SearchHit) string {
	var b strings.Builder

	if len(hits) == 0 {
		b.WriteString("No journal entries matched the question.\n")
	} else {
		b.WriteString("Journal entries, closest first:\n")
		for _, h := range hits {
			fmt.Fprintf(&b, "- [%s %s] %s\n", h.Kind, h.Date.Format("2006-01-02"), h.Content)
		}
	}

	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	return b.String()
}
