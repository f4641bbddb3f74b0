package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koopa0/thoughtline/internal/journal"
	"github.com/koopa0/thoughtline/internal/log"
)

type stubBookStore struct {
	books map[int64]*journal.Book
	err   error
}

func (s *stubBookStore) CreateBook(_ context.Context, name string) (*journal.Book, error) {
	if s.err != nil {
		return nil, s.err
	}
	if strings.TrimSpace(name) == "" {
		return nil, journal.ErrEmptyName
	}
	return &journal.Book{ID: 1, Name: name, CreatedAt: time.Now()}, nil
}

func (s *stubBookStore) Book(_ context.Context, id int64) (*journal.Book, error) {
	if s.err != nil {
		return nil, s.err
	}
	book, ok := s.books[id]
	if !ok {
		return nil, journal.ErrNotFound
	}
	return book, nil
}

func (s *stubBookStore) Books(context.Context) ([]*journal.Book, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]*journal.Book, 0, len(s.books))
	for _, b := range s.books {
		out = append(out, b)
	}
	return out, nil
}

func (s *stubBookStore) RenameBook(_ context.Context, id int64, name string) (*journal.Book, error) {
	if strings.TrimSpace(name) == "" {
		return nil, journal.ErrEmptyName
	}
	book, ok := s.books[id]
	if !ok {
		return nil, journal.ErrNotFound
	}
	renamed := *book
	renamed.Name = name
	return &renamed, nil
}

func (s *stubBookStore) DeleteBook(_ context.Context, id int64) (*journal.Book, error) {
	book, ok := s.books[id]
	if !ok {
		return nil, journal.ErrNotFound
	}
	delete(s.books, id)
	return book, nil
}

func newBookMux(store BookStore) *http.ServeMux {
	mux := http.NewServeMux()
	NewBookHandler(store, log.NewNop()).RegisterRoutes(mux)
	return mux
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestBookHandler_Create(t *testing.T) {
	mux := newBookMux(&stubBookStore{})

	t.Run("created", func(t *testing.T) {
		w := doJSON(t, mux, http.MethodPost, "/books", `{"name": "Dune"}`)

		require.Equal(t, http.StatusCreated, w.Code)
		var got bookResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.Equal(t, "Dune", got.Name)
		assert.NotZero(t, got.ID)
	})

	t.Run("blank name rejected", func(t *testing.T) {
		w := doJSON(t, mux, http.MethodPost, "/books", `{"name": "  "}`)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "error")
	})

	t.Run("malformed body rejected", func(t *testing.T) {
		w := doJSON(t, mux, http.MethodPost, "/books", `{"name": `)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBookHandler_Get(t *testing.T) {
	store := &stubBookStore{books: map[int64]*journal.Book{
		7: {ID: 7, Name: "Dune", CreatedAt: time.Now()},
	}}
	mux := newBookMux(store)

	t.Run("found", func(t *testing.T) {
		w := doJSON(t, mux, http.MethodGet, "/books/7", "")

		require.Equal(t, http.StatusOK, w.Code)
		var got bookResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.Equal(t, int64(7), got.ID)
	})

	t.Run("missing is 404", func(t *testing.T) {
		w := doJSON(t, mux, http.MethodGet, "/books/8", "")

		require.Equal(t, http.StatusNotFound, w.Code)
		var body errorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "not found", body.Error)
	})

	t.Run("non-numeric id is 400", func(t *testing.T) {
		w := doJSON(t, mux, http.MethodGet, "/books/dune", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("negative id is 400", func(t *testing.T) {
		w := doJSON(t, mux, http.MethodGet, "/books/-1", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBookHandler_Rename(t *testing.T) {
	store := &stubBookStore{books: map[int64]*journal.Book{
		7: {ID: 7, Name: "Dune", CreatedAt: time.Now()},
	}}
	mux := newBookMux(store)

	w := doJSON(t, mux, http.MethodPut, "/books/7", `{"name": "Dune Messiah"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var got bookResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "Dune Messiah", got.Name)

	w = doJSON(t, mux, http.MethodPut, "/books/99", `{"name": "x"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookHandler_Delete(t *testing.T) {
	store := &stubBookStore{books: map[int64]*journal.Book{
		7: {ID: 7, Name: "Dune", CreatedAt: time.Now()},
	}}
	mux := newBookMux(store)

	w := doJSON(t, mux, http.MethodDelete, "/books/7", "")

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Message string       `json:"message"`
		Book    bookResponse `json:"book"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "book deleted", body.Message)
	assert.Equal(t, int64(7), body.Book.ID)

	w = doJSON(t, mux, http.MethodDelete, "/books/7", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookHandler_StoreFailure(t *testing.T) {
	mux := newBookMux(&stubBookStore{err: errors.New("db down")})

	w := doJSON(t, mux, http.MethodGet, "/books", "")

	require.Equal(t, http.StatusInternalServerError, w.Code)
	// Internal detail must not leak into the body.
	assert.NotContains(t, w.Body.String(), "db down")
}
