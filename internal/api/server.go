// Package api exposes the journal over an HTTP JSON API.
//
// Routes:
//
//	POST   /books                      create a book
//	GET    /books                      list books, newest first
//	GET    /books/{id}                 fetch one book
//	PUT    /books/{id}                 rename a book
//	DELETE /books/{id}                 delete a book and its notes
//	POST   /books/{id}/notes           create a note (embedded at write time)
//	GET    /books/{id}/notes           list a book's notes, newest first
//	GET    /books/{id}/notes/search    semantic search within one book
//	GET    /notes/{id}                 fetch one note
//	PUT    /notes/{id}                 update a note's content and/or date
//	DELETE /notes/{id}                 delete a note
//	POST   /thoughts                   create a thought
//	GET    /thoughts                   list recent thoughts
//	GET    /thoughts/search            semantic search over thoughts
//	GET    /thoughts/{id}              fetch one thought
//	PUT    /thoughts/{id}              update a thought
//	DELETE /thoughts/{id}              delete a thought
//	GET    /search                     semantic search across both kinds
//	POST   /chat                       grounded question answering
//	GET    /health                     liveness probe
//	GET    /ready                      readiness probe (database ping)
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/koopa0/thoughtline/internal/assistant"
	"github.com/koopa0/thoughtline/internal/journal"
)

const (
	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout bounds header reads to keep slow clients from
	// holding connections open.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is the maximum duration for writing the response. Chat
	// responses wait on a model call, so this is generous.
	WriteTimeout = 60 * time.Second

	// IdleTimeout is the keep-alive idle limit.
	IdleTimeout = 120 * time.Second
)

// ServerConfig carries the dependencies for NewServer.
type ServerConfig struct {
	Store       *journal.Store
	Ranker      *journal.Ranker
	Assistant   *assistant.Assistant
	Pool        *pgxpool.Pool
	CORSOrigins []string
	Logger      *slog.Logger
}

// Server is the HTTP server for the journal API.
type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger
	cors   []string

	books    *BookHandler
	notes    *NoteHandler
	thoughts *ThoughtHandler
	search   *SearchHandler
	chat     *ChatHandler
	health   *HealthHandler
}

// NewServer creates an HTTP server with all routes registered.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Ranker == nil {
		return nil, fmt.Errorf("ranker is required")
	}
	if cfg.Assistant == nil {
		return nil, fmt.Errorf("assistant is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	mux := http.NewServeMux()
	s := &Server{
		mux:      mux,
		logger:   cfg.Logger,
		cors:     cfg.CORSOrigins,
		books:    NewBookHandler(cfg.Store, cfg.Logger),
		notes:    NewNoteHandler(cfg.Store, cfg.Logger),
		thoughts: NewThoughtHandler(cfg.Store, cfg.Logger),
		search:   NewSearchHandler(cfg.Ranker, cfg.Logger),
		chat:     NewChatHandler(cfg.Assistant, cfg.Logger),
		health:   NewHealthHandler(cfg.Pool, cfg.Logger),
	}

	s.books.RegisterRoutes(mux)
	s.notes.RegisterRoutes(mux)
	s.thoughts.RegisterRoutes(mux)
	s.search.RegisterRoutes(mux)
	s.chat.RegisterRoutes(mux)
	s.health.RegisterRoutes(mux)

	return s, nil
}

// Handler returns the mux with middleware applied.
// Order: recovery → requestID → logging → CORS → handler.
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		recoveryMiddleware(s.logger),
		requestIDMiddleware,
		loggingMiddleware(s.logger),
		corsMiddleware(s.cors),
	)
}

// Run starts the server and blocks until the context is cancelled, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
