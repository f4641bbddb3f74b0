package journal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/pgvector/pgvector-go"
	"google.golang.org/genai"
)

// VectorDimension is the embedding dimensionality stored in pgvector columns.
// gemini-embedding-001 defaults to 3072 dimensions; we request truncation to
// 768 via OutputDimensionality. The vector(768) column type rejects anything
// else, so a model change that alters dimensionality fails loudly at write
// time instead of silently corrupting distance comparisons.
const VectorDimension int32 = 768

// embedTimeout bounds a single embedding call.
const embedTimeout = 30 * time.Second

// Embedder converts free text into fixed-dimension vectors via a Genkit
// ai.Embedder. There is no retry policy: an upstream failure surfaces to the
// caller as-is.
type Embedder struct {
	embedder ai.Embedder
}

// NewEmbedder wraps a Genkit embedder.
func NewEmbedder(e ai.Embedder) (*Embedder, error) {
	if e == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	return &Embedder{embedder: e}, nil
}

// Embed generates a vector embedding for the given text.
// Text must be non-blank; blank queries are expected to short-circuit
// upstream before reaching this call.
func (e *Embedder) Embed(ctx context.Context, text string) (pgvector.Vector, error) {
	if strings.TrimSpace(text) == "" {
		return pgvector.Vector{}, fmt.Errorf("cannot embed blank text")
	}

	embedCtx, cancel := context.WithTimeout(ctx, embedTimeout)
	defer cancel()

	dim := VectorDimension
	resp, err := e.embedder.Embed(embedCtx, &ai.EmbedRequest{
		Input:   []*ai.Document{ai.DocumentFromText(text, nil)},
		Options: &genai.EmbedContentConfig{OutputDimensionality: &dim},
	})
	if err != nil {
		return pgvector.Vector{}, fmt.Errorf("embedding text: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return pgvector.Vector{}, fmt.Errorf("empty embedding response")
	}

	vec := resp.Embeddings[0].Embedding
	if int32(len(vec)) != VectorDimension {
		return pgvector.Vector{}, fmt.Errorf("embedder returned %d dimensions, want %d", len(vec), VectorDimension)
	}

	return pgvector.NewVector(vec), nil
}
