package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/koopa0/thoughtline/internal/journal"
)

// BookStore is the store surface the book endpoints need.
type BookStore interface {
	CreateBook(ctx context.Context, name string) (*journal.Book, error)
	Book(ctx context.Context, id int64) (*journal.Book, error)
	Books(ctx context.Context) ([]*journal.Book, error)
	RenameBook(ctx context.Context, id int64, name string) (*journal.Book, error)
	DeleteBook(ctx context.Context, id int64) (*journal.Book, error)
}

// BookHandler handles the book endpoints.
type BookHandler struct {
	store  BookStore
	logger *slog.Logger
}

// NewBookHandler creates a book handler.
func NewBookHandler(store BookStore, logger *slog.Logger) *BookHandler {
	return &BookHandler{store: store, logger: logger}
}

// RegisterRoutes registers book routes on the given mux.
func (h *BookHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /books", h.create)
	mux.HandleFunc("GET /books", h.list)
	mux.HandleFunc("GET /books/{id}", h.get)
	mux.HandleFunc("PUT /books/{id}", h.rename)
	mux.HandleFunc("DELETE /books/{id}", h.delete)
}

type bookRequest struct {
	Name string `json:"name"`
}

func (h *BookHandler) create(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	book, err := h.store.CreateBook(r.Context(), req.Name)
	if err != nil {
		writeStoreError(w, h.logger, "failed to create book", err)
		return
	}
	writeJSON(w, http.StatusCreated, toBookResponse(book))
}

func (h *BookHandler) list(w http.ResponseWriter, r *http.Request) {
	books, err := h.store.Books(r.Context())
	if err != nil {
		writeStoreError(w, h.logger, "failed to list books", err)
		return
	}
	writeJSON(w, http.StatusOK, toBookResponses(books))
}

func (h *BookHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	book, err := h.store.Book(r.Context(), id)
	if err != nil {
		writeStoreError(w, h.logger, "failed to fetch book", err)
		return
	}
	writeJSON(w, http.StatusOK, toBookResponse(book))
}

func (h *BookHandler) rename(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req bookRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	book, err := h.store.RenameBook(r.Context(), id, req.Name)
	if err != nil {
		writeStoreError(w, h.logger, "failed to rename book", err)
		return
	}
	writeJSON(w, http.StatusOK, toBookResponse(book))
}

func (h *BookHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	book, err := h.store.DeleteBook(r.Context(), id)
	if err != nil {
		writeStoreError(w, h.logger, "failed to delete book", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "book deleted",
		"book":    toBookResponse(book),
	})
}
