package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/koopa0/thoughtline/internal/journal"
)

// NoteStore is the store surface the note endpoints need. Book lookup is
// included so listing a missing book's notes can 404 instead of returning
// an empty list.
type NoteStore interface {
	Book(ctx context.Context, id int64) (*journal.Book, error)
	CreateNote(ctx context.Context, bookID int64, content string, date *time.Time) (*journal.Note, error)
	Note(ctx context.Context, id int64) (*journal.Note, error)
	Notes(ctx context.Context, bookID int64) ([]*journal.Note, error)
	UpdateNote(ctx context.Context, id int64, content string, date *time.Time) (*journal.Note, error)
	DeleteNote(ctx context.Context, id int64) (*journal.Note, error)
}

// NoteHandler handles the note endpoints.
type NoteHandler struct {
	store  NoteStore
	logger *slog.Logger
}

// NewNoteHandler creates a note handler.
func NewNoteHandler(store NoteStore, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{store: store, logger: logger}
}

// RegisterRoutes registers note routes on the given mux.
func (h *NoteHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /books/{id}/notes", h.create)
	mux.HandleFunc("GET /books/{id}/notes", h.list)
	mux.HandleFunc("GET /notes/{id}", h.get)
	mux.HandleFunc("PUT /notes/{id}", h.update)
	mux.HandleFunc("DELETE /notes/{id}", h.delete)
}

type noteRequest struct {
	Content string `json:"content"`
	Date    string `json:"note_date"`
}

func (h *NoteHandler) create(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req noteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	date, ok := parseDate(w, req.Date)
	if !ok {
		return
	}

	note, err := h.store.CreateNote(r.Context(), bookID, req.Content, date)
	if err != nil {
		writeStoreError(w, h.logger, "failed to create note", err)
		return
	}
	writeJSON(w, http.StatusCreated, toNoteResponse(note))
}

func (h *NoteHandler) list(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathID(w, r)
	if !ok {
		return
	}

	// The book row and its notes come from independent queries; fetch them
	// concurrently and fail on whichever errors first.
	var notes []*journal.Note
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		_, err := h.store.Book(ctx, bookID)
		return err
	})
	g.Go(func() error {
		var err error
		notes, err = h.store.Notes(ctx, bookID)
		return err
	})
	if err := g.Wait(); err != nil {
		writeStoreError(w, h.logger, "failed to list notes", err)
		return
	}
	writeJSON(w, http.StatusOK, toNoteResponses(notes))
}

func (h *NoteHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	note, err := h.store.Note(r.Context(), id)
	if err != nil {
		writeStoreError(w, h.logger, "failed to fetch note", err)
		return
	}
	writeJSON(w, http.StatusOK, toNoteResponse(note))
}

func (h *NoteHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req noteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	date, ok := parseDate(w, req.Date)
	if !ok {
		return
	}

	note, err := h.store.UpdateNote(r.Context(), id, req.Content, date)
	if err != nil {
		writeStoreError(w, h.logger, "failed to update note", err)
		return
	}
	writeJSON(w, http.StatusOK, toNoteResponse(note))
}

func (h *NoteHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	note, err := h.store.DeleteNote(r.Context(), id)
	if err != nil {
		writeStoreError(w, h.logger, "failed to delete note", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "note deleted",
		"note":    toNoteResponse(note),
	})
}
