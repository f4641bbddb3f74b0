//go:build integration

package journal_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/koopa0/thoughtline/internal/journal"
	"github.com/koopa0/thoughtline/internal/log"
	"github.com/koopa0/thoughtline/internal/testutil"
)

func setupStore(t *testing.T) (*journal.Store, *testutil.MockEmbedder) {
	t.Helper()

	pool, cleanup := testutil.SetupTestDB(t)
	t.Cleanup(cleanup)

	mock := testutil.NewMockEmbedder()
	embedder, err := journal.NewEmbedder(mock)
	if err != nil {
		t.Fatalf("NewEmbedder() = %v", err)
	}

	store, err := journal.NewStore(pool, embedder, log.NewNop())
	if err != nil {
		t.Fatalf("NewStore() = %v", err)
	}
	return store, mock
}

func TestStoreBooks(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	store, _ := setupStore(t)
	ctx := context.Background()

	book, err := store.CreateBook(ctx, "Thinking, Fast and Slow")
	if err != nil {
		t.Fatalf("CreateBook() = %v", err)
	}
	if book.ID == 0 {
		t.Error("CreateBook() returned zero ID")
	}
	if book.CreatedAt.IsZero() {
		t.Error("CreateBook() returned zero CreatedAt")
	}

	got, err := store.Book(ctx, book.ID)
	if err != nil {
		t.Fatalf("Book() = %v", err)
	}
	if got.Name != "Thinking, Fast and Slow" {
		t.Errorf("Book().Name = %q", got.Name)
	}

	renamed, err := store.RenameBook(ctx, book.ID, "TFS")
	if err != nil {
		t.Fatalf("RenameBook() = %v", err)
	}
	if renamed.Name != "TFS" {
		t.Errorf("RenameBook().Name = %q, want %q", renamed.Name, "TFS")
	}

	if _, err := store.CreateBook(ctx, "Second"); err != nil {
		t.Fatalf("CreateBook() = %v", err)
	}
	books, err := store.Books(ctx)
	if err != nil {
		t.Fatalf("Books() = %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("Books() returned %d books, want 2", len(books))
	}
	// Newest first.
	if books[0].Name != "Second" {
		t.Errorf("Books()[0].Name = %q, want %q", books[0].Name, "Second")
	}

	deleted, err := store.DeleteBook(ctx, book.ID)
	if err != nil {
		t.Fatalf("DeleteBook() = %v", err)
	}
	if deleted.ID != book.ID {
		t.Errorf("DeleteBook().ID = %d, want %d", deleted.ID, book.ID)
	}
	if _, err := store.Book(ctx, book.ID); !errors.Is(err, journal.ErrNotFound) {
		t.Errorf("Book(deleted) = %v, want ErrNotFound", err)
	}
}

func TestStoreBookValidation(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	store, _ := setupStore(t)
	ctx := context.Background()

	if _, err := store.CreateBook(ctx, "  "); !errors.Is(err, journal.ErrEmptyName) {
		t.Errorf("CreateBook(blank) = %v, want ErrEmptyName", err)
	}
	if _, err := store.RenameBook(ctx, 1, ""); !errors.Is(err, journal.ErrEmptyName) {
		t.Errorf("RenameBook(blank) = %v, want ErrEmptyName", err)
	}
	if _, err := store.RenameBook(ctx, 99999, "x"); !errors.Is(err, journal.ErrNotFound) {
		t.Errorf("RenameBook(missing) = %v, want ErrNotFound", err)
	}
	if _, err := store.DeleteBook(ctx, 99999); !errors.Is(err, journal.ErrNotFound) {
		t.Errorf("DeleteBook(missing) = %v, want ErrNotFound", err)
	}
}

func TestStoreNotes(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	store, mock := setupStore(t)
	ctx := context.Background()

	book, err := store.CreateBook(ctx, "Gödel, Escher, Bach")
	if err != nil {
		t.Fatalf("CreateBook() = %v", err)
	}

	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	note, err := store.CreateNote(ctx, book.ID, "strange loops everywhere", &date)
	if err != nil {
		t.Fatalf("CreateNote() = %v", err)
	}
	if note.BookID != book.ID {
		t.Errorf("CreateNote().BookID = %d, want %d", note.BookID, book.ID)
	}
	if !note.Date.Equal(date) {
		t.Errorf("CreateNote().Date = %v, want %v", note.Date, date)
	}
	if mock.CallCount() != 1 {
		t.Errorf("embedder called %d times, want 1", mock.CallCount())
	}

	// nil date defaults to today.
	today, err := store.CreateNote(ctx, book.ID, "second note", nil)
	if err != nil {
		t.Fatalf("CreateNote(nil date) = %v", err)
	}
	if today.Date.IsZero() {
		t.Error("CreateNote(nil date) returned zero date")
	}

	notes, err := store.Notes(ctx, book.ID)
	if err != nil {
		t.Fatalf("Notes() = %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("Notes() returned %d notes, want 2", len(notes))
	}

	got, err := store.Note(ctx, note.ID)
	if err != nil {
		t.Fatalf("Note() = %v", err)
	}
	if got.Content != "strange loops everywhere" {
		t.Errorf("Note().Content = %q", got.Content)
	}

	deleted, err := store.DeleteNote(ctx, note.ID)
	if err != nil {
		t.Fatalf("DeleteNote() = %v", err)
	}
	if deleted.ID != note.ID {
		t.Errorf("DeleteNote().ID = %d, want %d", deleted.ID, note.ID)
	}
	if _, err := store.Note(ctx, note.ID); !errors.Is(err, journal.ErrNotFound) {
		t.Errorf("Note(deleted) = %v, want ErrNotFound", err)
	}
}

func TestStoreNoteMissingBook(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	store, _ := setupStore(t)
	ctx := context.Background()

	if _, err := store.CreateNote(ctx, 99999, "orphan", nil); !errors.Is(err, journal.ErrNotFound) {
		t.Errorf("CreateNote(missing book) = %v, want ErrNotFound", err)
	}
}

func TestStoreDeleteBookCascades(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	store, _ := setupStore(t)
	ctx := context.Background()

	book, err := store.CreateBook(ctx, "Dune")
	if err != nil {
		t.Fatalf("CreateBook() = %v", err)
	}
	note, err := store.CreateNote(ctx, book.ID, "fear is the mind-killer", nil)
	if err != nil {
		t.Fatalf("CreateNote() = %v", err)
	}

	if _, err := store.DeleteBook(ctx, book.ID); err != nil {
		t.Fatalf("DeleteBook() = %v", err)
	}
	if _, err := store.Note(ctx, note.ID); !errors.Is(err, journal.ErrNotFound) {
		t.Errorf("Note(after cascade) = %v, want ErrNotFound", err)
	}
}

func TestStoreUpdateNotePreservesEmbedding(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	store, mock := setupStore(t)
	ctx := context.Background()

	book, err := store.CreateBook(ctx, "SICP")
	if err != nil {
		t.Fatalf("CreateBook() = %v", err)
	}
	note, err := store.CreateNote(ctx, book.ID, "programs as data", nil)
	if err != nil {
		t.Fatalf("CreateNote() = %v", err)
	}
	embedCalls := mock.CallCount()

	// Blank content updates the date only; the stored embedding survives.
	date := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	updated, err := store.UpdateNote(ctx, note.ID, "", &date)
	if err != nil {
		t.Fatalf("UpdateNote(date only) = %v", err)
	}
	if updated.Content != "programs as data" {
		t.Errorf("UpdateNote().Content = %q, want unchanged", updated.Content)
	}
	if !updated.Date.Equal(date) {
		t.Errorf("UpdateNote().Date = %v, want %v", updated.Date, date)
	}
	if mock.CallCount() != embedCalls {
		t.Errorf("embedder called %d times, want %d", mock.CallCount(), embedCalls)
	}

	var hasEmbedding bool
	err = store.Pool().QueryRow(ctx,
		"SELECT embedding IS NOT NULL FROM book_notes WHERE id = $1", note.ID).Scan(&hasEmbedding)
	if err != nil {
		t.Fatalf("query embedding = %v", err)
	}
	if !hasEmbedding {
		t.Error("date-only update dropped the embedding")
	}

	// New content re-embeds.
	if _, err := store.UpdateNote(ctx, note.ID, "code is data", nil); err != nil {
		t.Fatalf("UpdateNote(content) = %v", err)
	}
	if mock.CallCount() != embedCalls+1 {
		t.Errorf("embedder called %d times after content update, want %d", mock.CallCount(), embedCalls+1)
	}
}

func TestStoreThoughts(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	store, _ := setupStore(t)
	ctx := context.Background()

	thought, err := store.CreateThought(ctx, "walking clears the mind", nil)
	if err != nil {
		t.Fatalf("CreateThought() = %v", err)
	}
	if thought.ID == 0 {
		t.Error("CreateThought() returned zero ID")
	}

	got, err := store.Thought(ctx, thought.ID)
	if err != nil {
		t.Fatalf("Thought() = %v", err)
	}
	if got.Content != "walking clears the mind" {
		t.Errorf("Thought().Content = %q", got.Content)
	}

	updated, err := store.UpdateThought(ctx, thought.ID, "walking clears the head", nil)
	if err != nil {
		t.Fatalf("UpdateThought() = %v", err)
	}
	if updated.Content != "walking clears the head" {
		t.Errorf("UpdateThought().Content = %q", updated.Content)
	}

	if _, err := store.CreateThought(ctx, "  ", nil); !errors.Is(err, journal.ErrEmptyContent) {
		t.Errorf("CreateThought(blank) = %v, want ErrEmptyContent", err)
	}

	if _, err := store.DeleteThought(ctx, thought.ID); err != nil {
		t.Fatalf("DeleteThought() = %v", err)
	}
	if _, err := store.Thought(ctx, thought.ID); !errors.Is(err, journal.ErrNotFound) {
		t.Errorf("Thought(deleted) = %v, want ErrNotFound", err)
	}
}

func TestStoreNearest(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	store, mock := setupStore(t)
	ctx := context.Background()

	for _, content := range []string{"compilers and parsing", "sourdough starter care", "garden soil ph"} {
		if _, err := store.CreateThought(ctx, content, nil); err != nil {
			t.Fatalf("CreateThought(%q) = %v", content, err)
		}
	}

	embedder, err := journal.NewEmbedder(mock)
	if err != nil {
		t.Fatalf("NewEmbedder() = %v", err)
	}
	// Embedding the exact stored text yields distance 0 to that record, so
	// it must rank first.
	vec, err := embedder.Embed(ctx, "sourdough starter care")
	if err != nil {
		t.Fatalf("Embed() = %v", err)
	}

	hits, err := store.NearestThoughts(ctx, vec, 2)
	if err != nil {
		t.Fatalf("NearestThoughts() = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("NearestThoughts() returned %d hits, want 2", len(hits))
	}
	if hits[0].Content != "sourdough starter care" {
		t.Errorf("NearestThoughts()[0].Content = %q, want exact match first", hits[0].Content)
	}
	if hits[0].Distance > hits[1].Distance {
		t.Errorf("distances not ascending: %f > %f", hits[0].Distance, hits[1].Distance)
	}
	if hits[0].Kind != journal.KindThought {
		t.Errorf("NearestThoughts()[0].Kind = %q, want %q", hits[0].Kind, journal.KindThought)
	}
}

func TestStoreNearestNotesScoped(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	store, mock := setupStore(t)
	ctx := context.Background()

	bookA, err := store.CreateBook(ctx, "A")
	if err != nil {
		t.Fatalf("CreateBook() = %v", err)
	}
	bookB, err := store.CreateBook(ctx, "B")
	if err != nil {
		t.Fatalf("CreateBook() = %v", err)
	}
	if _, err := store.CreateNote(ctx, bookA.ID, "note in a", nil); err != nil {
		t.Fatalf("CreateNote() = %v", err)
	}
	if _, err := store.CreateNote(ctx, bookB.ID, "note in b", nil); err != nil {
		t.Fatalf("CreateNote() = %v", err)
	}

	embedder, err := journal.NewEmbedder(mock)
	if err != nil {
		t.Fatalf("NewEmbedder() = %v", err)
	}
	vec, err := embedder.Embed(ctx, "note in b")
	if err != nil {
		t.Fatalf("Embed() = %v", err)
	}

	hits, err := store.NearestNotes(ctx, vec, 10, bookA.ID)
	if err != nil {
		t.Fatalf("NearestNotes(scoped) = %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("NearestNotes(scoped) returned %d hits, want 1", len(hits))
	}
	if hits[0].BookID != bookA.ID {
		t.Errorf("scoped hit BookID = %d, want %d", hits[0].BookID, bookA.ID)
	}

	all, err := store.NearestNotes(ctx, vec, 10, 0)
	if err != nil {
		t.Fatalf("NearestNotes(all) = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("NearestNotes(all) returned %d hits, want 2", len(all))
	}
}

func TestStoreEmbeddingBackfillHelpers(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	store, mock := setupStore(t)
	ctx := context.Background()

	thought, err := store.CreateThought(ctx, "needs a vector", nil)
	if err != nil {
		t.Fatalf("CreateThought() = %v", err)
	}
	if _, err := store.Pool().Exec(ctx,
		"UPDATE thoughts SET embedding = NULL WHERE id = $1", thought.ID); err != nil {
		t.Fatalf("clearing embedding: %v", err)
	}

	pending, err := store.ThoughtsMissingEmbedding(ctx)
	if err != nil {
		t.Fatalf("ThoughtsMissingEmbedding() = %v", err)
	}
	if len(pending) != 1 || pending[0].ID != thought.ID {
		t.Fatalf("ThoughtsMissingEmbedding() = %+v, want single pending record", pending)
	}

	embedder, err := journal.NewEmbedder(mock)
	if err != nil {
		t.Fatalf("NewEmbedder() = %v", err)
	}
	vec, err := embedder.Embed(ctx, pending[0].Content)
	if err != nil {
		t.Fatalf("Embed() = %v", err)
	}
	if err := store.SetThoughtEmbedding(ctx, thought.ID, vec); err != nil {
		t.Fatalf("SetThoughtEmbedding() = %v", err)
	}

	pending, err = store.ThoughtsMissingEmbedding(ctx)
	if err != nil {
		t.Fatalf("ThoughtsMissingEmbedding() = %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("ThoughtsMissingEmbedding() after backfill = %d, want 0", len(pending))
	}

	if err := store.SetThoughtEmbedding(ctx, 99999, vec); !errors.Is(err, journal.ErrNotFound) {
		t.Errorf("SetThoughtEmbedding(missing) = %v, want ErrNotFound", err)
	}
}
