// Package journal implements the record store for thoughts, books, and
// book notes, backed by PostgreSQL + pgvector.
//
// Writes that carry content embed it synchronously before persisting, so a
// committed row never pairs stale content with a stale vector. Reads are
// plain SQL; nearest-neighbor queries use the pgvector cosine distance
// operator and only consider rows whose embedding is present.
package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

var (
	// ErrNotFound indicates no row exists for the given identifier.
	ErrNotFound = errors.New("record not found")

	// ErrEmptyContent indicates a create was attempted with blank content.
	ErrEmptyContent = errors.New("content must not be blank")

	// ErrEmptyName indicates a book create/rename was attempted with a blank name.
	ErrEmptyName = errors.New("name must not be blank")
)

const (
	bookCols    = `id, name, created_at`
	noteCols    = `id, book_id, content, note_date`
	thoughtCols = `id, content, thought_date`

	// thoughtListCap bounds the chronological thought feed.
	thoughtListCap = 50
)

// Store manages books, notes, and thoughts in PostgreSQL.
//
// Store is safe for concurrent use by multiple goroutines. Concurrent
// updates to the same record are last-write-wins at row granularity; each
// content+embedding update is a single atomic statement.
type Store struct {
	pool     *pgxpool.Pool
	embedder *Embedder
	logger   *slog.Logger
}

// NewStore creates a Store.
func NewStore(pool *pgxpool.Pool, embedder *Embedder, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, embedder: embedder, logger: logger}, nil
}

// Pool exposes the underlying connection pool for readiness probes.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// ---- Books ----

// CreateBook inserts a new book.
func (s *Store) CreateBook(ctx context.Context, name string) (*Book, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}

	var b Book
	err := s.pool.QueryRow(ctx,
		`INSERT INTO books (name) VALUES ($1) RETURNING `+bookCols,
		name,
	).Scan(&b.ID, &b.Name, &b.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating book: %w", err)
	}

	s.logger.Debug("created book", "id", b.ID, "name", b.Name)
	return &b, nil
}

// Book fetches one book by ID.
func (s *Store) Book(ctx context.Context, id int64) (*Book, error) {
	var b Book
	err := s.pool.QueryRow(ctx,
		`SELECT `+bookCols+` FROM books WHERE id = $1`,
		id,
	).Scan(&b.ID, &b.Name, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting book %d: %w", id, err)
	}
	return &b, nil
}

// Books lists all books, newest first.
func (s *Store) Books(ctx context.Context) ([]*Book, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+bookCols+` FROM books ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}
	defer rows.Close()

	books := []*Book{}
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Name, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning book: %w", err)
		}
		books = append(books, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}
	return books, nil
}

// RenameBook updates a book's name.
func (s *Store) RenameBook(ctx context.Context, id int64, name string) (*Book, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}

	var b Book
	err := s.pool.QueryRow(ctx,
		`UPDATE books SET name = $2 WHERE id = $1 RETURNING `+bookCols,
		id, name,
	).Scan(&b.ID, &b.Name, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("renaming book %d: %w", id, err)
	}
	return &b, nil
}

// DeleteBook removes a book and, via the ON DELETE CASCADE constraint, every
// note it owns. The single DELETE statement is atomic: either the book and
// all its notes are gone, or nothing is.
func (s *Store) DeleteBook(ctx context.Context, id int64) (*Book, error) {
	var b Book
	err := s.pool.QueryRow(ctx,
		`DELETE FROM books WHERE id = $1 RETURNING `+bookCols,
		id,
	).Scan(&b.ID, &b.Name, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("deleting book %d: %w", id, err)
	}

	s.logger.Debug("deleted book", "id", id)
	return &b, nil
}

// ---- Notes ----

// CreateNote embeds content and inserts a note for the given book.
// A nil date defaults to the current date.
func (s *Store) CreateNote(ctx context.Context, bookID int64, content string, date *time.Time) (*Note, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	vec, err := s.embedder.Embed(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("embedding note content: %w", err)
	}

	var n Note
	err = s.pool.QueryRow(ctx,
		`INSERT INTO book_notes (book_id, content, note_date, embedding)
		 VALUES ($1, $2, COALESCE($3, CURRENT_DATE), $4)
		 RETURNING `+noteCols,
		bookID, content, date, vec,
	).Scan(&n.ID, &n.BookID, &n.Content, &n.Date)
	if isForeignKeyViolation(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("creating note: %w", err)
	}

	s.logger.Debug("created note", "id", n.ID, "book_id", bookID)
	return &n, nil
}

// Note fetches one note by ID.
func (s *Store) Note(ctx context.Context, id int64) (*Note, error) {
	var n Note
	err := s.pool.QueryRow(ctx,
		`SELECT `+noteCols+` FROM book_notes WHERE id = $1`,
		id,
	).Scan(&n.ID, &n.BookID, &n.Content, &n.Date)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting note %d: %w", id, err)
	}
	return &n, nil
}

// Notes lists a book's notes by date descending, uncapped.
func (s *Store) Notes(ctx context.Context, bookID int64) ([]*Note, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+noteCols+` FROM book_notes
		 WHERE book_id = $1
		 ORDER BY note_date DESC, id DESC`,
		bookID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing notes for book %d: %w", bookID, err)
	}
	defer rows.Close()

	return scanNotes(rows)
}

// UpdateNote applies a partial update to a note.
//
// When content is blank the stored content and embedding are left untouched
// and only the date is coalesced in. When content is non-blank the embedding
// is recomputed and replaced together with the content in one UPDATE, so a
// successful update never leaves a stale embedding/content pairing.
func (s *Store) UpdateNote(ctx context.Context, id int64, content string, date *time.Time) (*Note, error) {
	var (
		n   Note
		err error
	)

	if strings.TrimSpace(content) == "" {
		err = s.pool.QueryRow(ctx,
			`UPDATE book_notes
			 SET note_date = COALESCE($2, note_date)
			 WHERE id = $1
			 RETURNING `+noteCols,
			id, date,
		).Scan(&n.ID, &n.BookID, &n.Content, &n.Date)
	} else {
		var vec pgvector.Vector
		vec, err = s.embedder.Embed(ctx, content)
		if err != nil {
			return nil, fmt.Errorf("embedding note content: %w", err)
		}
		err = s.pool.QueryRow(ctx,
			`UPDATE book_notes
			 SET content = $2, embedding = $3, note_date = COALESCE($4, note_date)
			 WHERE id = $1
			 RETURNING `+noteCols,
			id, content, vec, date,
		).Scan(&n.ID, &n.BookID, &n.Content, &n.Date)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating note %d: %w", id, err)
	}
	return &n, nil
}

// DeleteNote removes one note.
func (s *Store) DeleteNote(ctx context.Context, id int64) (*Note, error) {
	var n Note
	err := s.pool.QueryRow(ctx,
		`DELETE FROM book_notes WHERE id = $1 RETURNING `+noteCols,
		id,
	).Scan(&n.ID, &n.BookID, &n.Content, &n.Date)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("deleting note %d: %w", id, err)
	}
	return &n, nil
}

// ---- Thoughts ----

// CreateThought embeds content and inserts a thought.
// A nil date defaults to the current date.
func (s *Store) CreateThought(ctx context.Context, content string, date *time.Time) (*Thought, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	vec, err := s.embedder.Embed(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("embedding thought content: %w", err)
	}

	var th Thought
	err = s.pool.QueryRow(ctx,
		`INSERT INTO thoughts (content, thought_date, embedding)
		 VALUES ($1, COALESCE($2, CURRENT_DATE), $3)
		 RETURNING `+thoughtCols,
		content, date, vec,
	).Scan(&th.ID, &th.Content, &th.Date)
	if err != nil {
		return nil, fmt.Errorf("creating thought: %w", err)
	}

	s.logger.Debug("created thought", "id", th.ID)
	return &th, nil
}

// Thought fetches one thought by ID.
func (s *Store) Thought(ctx context.Context, id int64) (*Thought, error) {
	var th Thought
	err := s.pool.QueryRow(ctx,
		`SELECT `+thoughtCols+` FROM thoughts WHERE id = $1`,
		id,
	).Scan(&th.ID, &th.Content, &th.Date)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting thought %d: %w", id, err)
	}
	return &th, nil
}

// Thoughts lists thoughts by date descending, capped at 50.
func (s *Store) Thoughts(ctx context.Context) ([]*Thought, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+thoughtCols+` FROM thoughts
		 ORDER BY thought_date DESC, id DESC
		 LIMIT $1`,
		thoughtListCap,
	)
	if err != nil {
		return nil, fmt.Errorf("listing thoughts: %w", err)
	}
	defer rows.Close()

	return scanThoughts(rows)
}

// UpdateThought applies a partial update to a thought.
// Same semantics as UpdateNote: blank content keeps the stored embedding.
func (s *Store) UpdateThought(ctx context.Context, id int64, content string, date *time.Time) (*Thought, error) {
	var (
		th  Thought
		err error
	)

	if strings.TrimSpace(content) == "" {
		err = s.pool.QueryRow(ctx,
			`UPDATE thoughts
			 SET thought_date = COALESCE($2, thought_date)
			 WHERE id = $1
			 RETURNING `+thoughtCols,
			id, date,
		).Scan(&th.ID, &th.Content, &th.Date)
	} else {
		var vec pgvector.Vector
		vec, err = s.embedder.Embed(ctx, content)
		if err != nil {
			return nil, fmt.Errorf("embedding thought content: %w", err)
		}
		err = s.pool.QueryRow(ctx,
			`UPDATE thoughts
			 SET content = $2, embedding = $3, thought_date = COALESCE($4, thought_date)
			 WHERE id = $1
			 RETURNING `+thoughtCols,
			id, content, vec, date,
		).Scan(&th.ID, &th.Content, &th.Date)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating thought %d: %w", id, err)
	}
	return &th, nil
}

// DeleteThought removes one thought.
func (s *Store) DeleteThought(ctx context.Context, id int64) (*Thought, error) {
	var th Thought
	err := s.pool.QueryRow(ctx,
		`DELETE FROM thoughts WHERE id = $1 RETURNING `+thoughtCols,
		id,
	).Scan(&th.ID, &th.Content, &th.Date)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("deleting thought %d: %w", id, err)
	}
	return &th, nil
}

// ---- Nearest-neighbor queries ----

// NearestThoughts returns up to limit thoughts with an embedding, ordered by
// ascending cosine distance to vec.
func (s *Store) NearestThoughts(ctx context.Context, vec pgvector.Vector, limit int) ([]SearchHit, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, content, thought_date, embedding <=> $1 AS distance
		 FROM thoughts
		 WHERE embedding IS NOT NULL
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		vec, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("searching thoughts: %w", err)
	}
	defer rows.Close()

	hits := []SearchHit{}
	for rows.Next() {
		h := SearchHit{Kind: KindThought}
		if err := rows.Scan(&h.ID, &h.Content, &h.Date, &h.Distance); err != nil {
			return nil, fmt.Errorf("scanning thought hit: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("searching thoughts: %w", err)
	}
	return hits, nil
}

// NearestNotes returns up to limit notes with an embedding, ordered by
// ascending cosine distance to vec. A bookID of zero searches notes across
// all books; non-zero restricts to one book.
func (s *Store) NearestNotes(ctx context.Context, vec pgvector.Vector, limit int, bookID int64) ([]SearchHit, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, book_id, content, note_date, embedding <=> $1 AS distance
		 FROM book_notes
		 WHERE embedding IS NOT NULL
		   AND ($3::bigint = 0 OR book_id = $3)
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		vec, limit, bookID,
	)
	if err != nil {
		return nil, fmt.Errorf("searching notes: %w", err)
	}
	defer rows.Close()

	hits := []SearchHit{}
	for rows.Next() {
		h := SearchHit{Kind: KindNote}
		if err := rows.Scan(&h.ID, &h.BookID, &h.Content, &h.Date, &h.Distance); err != nil {
			return nil, fmt.Errorf("scanning note hit: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("searching notes: %w", err)
	}
	return hits, nil
}

// ---- Backfill support ----

// ThoughtsMissingEmbedding lists thoughts whose embedding is NULL, oldest first.
func (s *Store) ThoughtsMissingEmbedding(ctx context.Context) ([]Pending, error) {
	return s.pending(ctx,
		`SELECT id, content FROM thoughts WHERE embedding IS NULL ORDER BY id`)
}

// NotesMissingEmbedding lists notes whose embedding is NULL, oldest first.
func (s *Store) NotesMissingEmbedding(ctx context.Context) ([]Pending, error) {
	return s.pending(ctx,
		`SELECT id, content FROM book_notes WHERE embedding IS NULL ORDER BY id`)
}

func (s *Store) pending(ctx context.Context, sql string) ([]Pending, error) {
	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("listing records missing embedding: %w", err)
	}
	defer rows.Close()

	var out []Pending
	for rows.Next() {
		var p Pending
		if err := rows.Scan(&p.ID, &p.Content); err != nil {
			return nil, fmt.Errorf("scanning pending record: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing records missing embedding: %w", err)
	}
	return out, nil
}

// SetThoughtEmbedding persists a computed embedding for one thought.
func (s *Store) SetThoughtEmbedding(ctx context.Context, id int64, vec pgvector.Vector) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE thoughts SET embedding = $2 WHERE id = $1`, id, vec)
	if err != nil {
		return fmt.Errorf("setting thought %d embedding: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetNoteEmbedding persists a computed embedding for one note.
func (s *Store) SetNoteEmbedding(ctx context.Context, id int64, vec pgvector.Vector) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE book_notes SET embedding = $2 WHERE id = $1`, id, vec)
	if err != nil {
		return fmt.Errorf("setting note %d embedding: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- helpers ----

func scanNotes(rows pgx.Rows) ([]*Note, error) {
	notes := []*Note{}
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.BookID, &n.Content, &n.Date); err != nil {
			return nil, fmt.Errorf("scanning note: %w", err)
		}
		notes = append(notes, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading notes: %w", err)
	}
	return notes, nil
}

func scanThoughts(rows pgx.Rows) ([]*Thought, error) {
	thoughts := []*Thought{}
	for rows.Next() {
		var th Thought
		if err := rows.Scan(&th.ID, &th.Content, &th.Date); err != nil {
			return nil, fmt.Errorf("scanning thought: %w", err)
		}
		thoughts = append(thoughts, &th)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading thoughts: %w", err)
	}
	return thoughts, nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation
}
