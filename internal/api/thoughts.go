package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/koopa0/thoughtline/internal/journal"
)

// ThoughtStore is the store surface the thought endpoints need.
type ThoughtStore interface {
	CreateThought(ctx context.Context, content string, date *time.Time) (*journal.Thought, error)
	Thought(ctx context.Context, id int64) (*journal.Thought, error)
	Thoughts(ctx context.Context) ([]*journal.Thought, error)
	UpdateThought(ctx context.Context, id int64, content string, date *time.Time) (*journal.Thought, error)
	DeleteThought(ctx context.Context, id int64) (*journal.Thought, error)
}

// ThoughtHandler handles the thought endpoints.
type ThoughtHandler struct {
	store  ThoughtStore
	logger *slog.Logger
}

// NewThoughtHandler creates a thought handler.
func NewThoughtHandler(store ThoughtStore, logger *slog.Logger) *ThoughtHandler {
	return &ThoughtHandler{store: store, logger: logger}
}

// RegisterRoutes registers thought routes on the given mux.
// The literal /thoughts/search pattern wins over /thoughts/{id} under the
// ServeMux precedence rules.
func (h *ThoughtHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /thoughts", h.create)
	mux.HandleFunc("GET /thoughts", h.list)
	mux.HandleFunc("GET /thoughts/{id}", h.get)
	mux.HandleFunc("PUT /thoughts/{id}", h.update)
	mux.HandleFunc("DELETE /thoughts/{id}", h.delete)
}

type thoughtRequest struct {
	Content string `json:"content"`
	Date    string `json:"thought_date"`
}

func (h *ThoughtHandler) create(w http.ResponseWriter, r *http.Request) {
	var req thoughtRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	date, ok := parseDate(w, req.Date)
	if !ok {
		return
	}

	thought, err := h.store.CreateThought(r.Context(), req.Content, date)
	if err != nil {
		writeStoreError(w, h.logger, "failed to create thought", err)
		return
	}
	writeJSON(w, http.StatusCreated, toThoughtResponse(thought))
}

func (h *ThoughtHandler) list(w http.ResponseWriter, r *http.Request) {
	thoughts, err := h.store.Thoughts(r.Context())
	if err != nil {
		writeStoreError(w, h.logger, "failed to list thoughts", err)
		return
	}
	writeJSON(w, http.StatusOK, toThoughtResponses(thoughts))
}

func (h *ThoughtHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	thought, err := h.store.Thought(r.Context(), id)
	if err != nil {
		writeStoreError(w, h.logger, "failed to fetch thought", err)
		return
	}
	writeJSON(w, http.StatusOK, toThoughtResponse(thought))
}

func (h *ThoughtHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req thoughtRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	date, ok := parseDate(w, req.Date)
	if !ok {
		return
	}

	thought, err := h.store.UpdateThought(r.Context(), id, req.Content, date)
	if err != nil {
		writeStoreError(w, h.logger, "failed to update thought", err)
		return
	}
	writeJSON(w, http.StatusOK, toThoughtResponse(thought))
}

func (h *ThoughtHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	thought, err := h.store.DeleteThought(r.Context(), id)
	if err != nil {
		writeStoreError(w, h.logger, "failed to delete thought", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "thought deleted",
		"thought": toThoughtResponse(thought),
	})
}
