// Package testutil provides shared testing utilities for the thoughtline
// project: a deterministic mock embedder and a PostgreSQL test container
// helper.
package testutil

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"google.golang.org/genai"
)

// MockEmbedder implements ai.Embedder with deterministic output: the vector
// is derived from a hash of the input text, so equal texts embed equally and
// different texts embed differently. Call counts are recorded so tests can
// assert that blank-input paths never reach the embedder.
//
// Thread-safe for concurrent use.
type MockEmbedder struct {
	mu    sync.Mutex
	calls []string
	err   error
}

// NewMockEmbedder creates a mock embedder.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{}
}

// FailWith makes every subsequent Embed call return err.
func (m *MockEmbedder) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns the texts embedded so far.
func (m *MockEmbedder) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]string, len(m.calls))
	copy(cp, m.calls)
	return cp
}

// CallCount returns the number of Embed invocations.
func (m *MockEmbedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Name implements ai.Embedder.
func (*MockEmbedder) Name() string { return "mock-embedder" }

// Register implements ai.Embedder (no-op for testing).
func (*MockEmbedder) Register(api.Registry) {}

// Embed implements ai.Embedder.
func (m *MockEmbedder) Embed(_ context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	var text string
	if len(req.Input) > 0 && len(req.Input[0].Content) > 0 {
		text = req.Input[0].Content[0].Text
	}

	m.mu.Lock()
	m.calls = append(m.calls, text)
	err := m.err
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}

	dim := 768
	if cfg, ok := req.Options.(*genai.EmbedContentConfig); ok && cfg.OutputDimensionality != nil {
		dim = int(*cfg.OutputDimensionality)
	}

	return &ai.EmbedResponse{
		Embeddings: []*ai.Embedding{
			{Embedding: DeterministicVector(text, dim)},
		},
	}, nil
}

// DeterministicVector derives a unit-scale vector of the given dimension
// from a hash of text. Equal inputs produce equal vectors.
func DeterministicVector(text string, dim int) []float32 {
	sum := sha256.Sum256([]byte(text))
	vec := make([]float32, dim)
	for i := range vec {
		// Re-hash the digest with the index so any dimension count gets
		// independent values.
		var buf [40]byte
		copy(buf[:32], sum[:])
		binary.LittleEndian.PutUint64(buf[32:], uint64(i))
		h := sha256.Sum256(buf[:])
		bits := binary.LittleEndian.Uint32(h[:4])
		// Map to [-1, 1).
		vec[i] = float32(bits)/float32(math.MaxUint32)*2 - 1
	}
	return vec
}
