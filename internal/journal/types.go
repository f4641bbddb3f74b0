package journal

import "time"

// Record kinds used in cross-kind search results.
const (
	KindThought = "thought"
	KindNote    = "note"
)

// Book groups notes. Deleting a book cascades to its notes.
type Book struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// Note is a dated text entry owned by a book.
// The embedding column is write-only from the store's perspective; rows
// carry it for search but it is never surfaced through the API.
type Note struct {
	ID      int64
	BookID  int64
	Content string
	Date    time.Time
}

// Thought is a dated text entry with no owner.
type Thought struct {
	ID      int64
	Content string
	Date    time.Time
}

// SearchHit is the transient projection used when merging ranked results
// across record kinds. It is never persisted.
type SearchHit struct {
	ID       int64
	Kind     string // KindThought or KindNote
	BookID   int64  // 0 for thoughts
	Content  string
	Date     time.Time
	Distance float64 // cosine distance to the query vector, smaller is closer
}

// Pending identifies a record still missing its embedding (backfill input).
type Pending struct {
	ID      int64
	Content string
}
