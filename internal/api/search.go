package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/koopa0/thoughtline/internal/journal"
)

// searchLimit is the maximum number of results per search request.
const searchLimit = 20

// Searcher is the ranking surface the search endpoints need.
type Searcher interface {
	SearchAll(ctx context.Context, query string, limit int) ([]journal.SearchHit, error)
	SearchThoughts(ctx context.Context, query string, limit int) ([]journal.SearchHit, error)
	SearchBookNotes(ctx context.Context, bookID int64, query string, limit int) ([]journal.SearchHit, error)
}

// SearchHandler handles the semantic search endpoints.
type SearchHandler struct {
	searcher Searcher
	logger   *slog.Logger
}

// NewSearchHandler creates a search handler.
func NewSearchHandler(searcher Searcher, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{searcher: searcher, logger: logger}
}

// RegisterRoutes registers search routes on the given mux.
func (h *SearchHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /search", h.all)
	mux.HandleFunc("GET /thoughts/search", h.thoughts)
	mux.HandleFunc("GET /books/{id}/notes/search", h.bookNotes)
}

// all searches thoughts and notes together. A blank q yields an empty list
// without touching the embedder.
func (h *SearchHandler) all(w http.ResponseWriter, r *http.Request) {
	hits, err := h.searcher.SearchAll(r.Context(), r.URL.Query().Get("q"), searchLimit)
	if err != nil {
		writeStoreError(w, h.logger, "search failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toSearchHitResponses(hits))
}

func (h *SearchHandler) thoughts(w http.ResponseWriter, r *http.Request) {
	hits, err := h.searcher.SearchThoughts(r.Context(), r.URL.Query().Get("q"), searchLimit)
	if err != nil {
		writeStoreError(w, h.logger, "thought search failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toSearchHitResponses(hits))
}

func (h *SearchHandler) bookNotes(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathID(w, r)
	if !ok {
		return
	}

	hits, err := h.searcher.SearchBookNotes(r.Context(), bookID, r.URL.Query().Get("q"), searchLimit)
	if err != nil {
		writeStoreError(w, h.logger, "note search failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toSearchHitResponses(hits))
}
