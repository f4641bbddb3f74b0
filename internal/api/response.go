package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/koopa0/thoughtline/internal/journal"
)

// dateFormat is the wire format for note and thought dates.
const dateFormat = "2006-01-02"

// writeJSON writes a JSON response with the given status code.
// Encoding failures after WriteHeader can only be logged; the status code
// has already been sent.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// errorResponse is the JSON body for every error status.
type errorResponse struct {
	Error string `json:"error"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeStoreError maps store sentinels to HTTP statuses. Unexpected errors
// are logged in full and surfaced as a generic 500 body.
func writeStoreError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, journal.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, journal.ErrEmptyContent):
		writeError(w, http.StatusBadRequest, "content is required")
	case errors.Is(err, journal.ErrEmptyName):
		writeError(w, http.StatusBadRequest, "name is required")
	default:
		logger.Error(op, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// pathID parses the {id} path segment. A non-numeric or non-positive value
// reports false after writing a 400.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// decodeJSON decodes the request body, writing a 400 on malformed input.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// parseDate parses an optional YYYY-MM-DD field. Empty input yields nil so
// the store applies its CURRENT_DATE default.
func parseDate(w http.ResponseWriter, value string) (*time.Time, bool) {
	if value == "" {
		return nil, true
	}
	t, err := time.Parse(dateFormat, value)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return nil, false
	}
	return &t, true
}

// Wire representations. The journal types carry time.Time values; the API
// renders dates as plain YYYY-MM-DD strings.

type bookResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type noteResponse struct {
	ID      int64  `json:"id"`
	BookID  int64  `json:"book_id"`
	Content string `json:"content"`
	Date    string `json:"note_date"`
}

type thoughtResponse struct {
	ID      int64  `json:"id"`
	Content string `json:"content"`
	Date    string `json:"thought_date"`
}

type searchHitResponse struct {
	ID       int64   `json:"id"`
	Kind     string  `json:"kind"`
	BookID   int64   `json:"book_id,omitempty"`
	Content  string  `json:"content"`
	Date     string  `json:"date"`
	Distance float64 `json:"distance"`
}

func toBookResponse(b *journal.Book) bookResponse {
	return bookResponse{ID: b.ID, Name: b.Name, CreatedAt: b.CreatedAt}
}

func toBookResponses(books []*journal.Book) []bookResponse {
	out := make([]bookResponse, len(books))
	for i, b := range books {
		out[i] = toBookResponse(b)
	}
	return out
}

func toNoteResponse(n *journal.Note) noteResponse {
	return noteResponse{ID: n.ID, BookID: n.BookID, Content: n.Content, Date: n.Date.Format(dateFormat)}
}

func toNoteResponses(notes []*journal.Note) []noteResponse {
	out := make([]noteResponse, len(notes))
	for i, n := range notes {
		out[i] = toNoteResponse(n)
	}
	return out
}

func toThoughtResponse(t *journal.Thought) thoughtResponse {
	return thoughtResponse{ID: t.ID, Content: t.Content, Date: t.Date.Format(dateFormat)}
}

func toThoughtResponses(thoughts []*journal.Thought) []thoughtResponse {
	out := make([]thoughtResponse, len(thoughts))
	for i, t := range thoughts {
		out[i] = toThoughtResponse(t)
	}
	return out
}

func toSearchHitResponses(hits []journal.SearchHit) []searchHitResponse {
	out := make([]searchHitResponse, len(hits))
	for i, h := range hits {
		out[i] = searchHitResponse{
			ID:       h.ID,
			Kind:     h.Kind,
			BookID:   h.BookID,
			Content:  h.Content,
			Date:     h.Date.Format(dateFormat),
			Distance: h.Distance,
		}
	}
	return out
}
