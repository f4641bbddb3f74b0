package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/koopa0/thoughtline/internal/assistant"
)

// Answerer is the assistant surface the chat endpoint needs.
type Answerer interface {
	Answer(ctx context.Context, question string) (*assistant.Answer, error)
}

// ChatHandler handles the grounded question-answering endpoint.
type ChatHandler struct {
	assistant Answerer
	logger    *slog.Logger
}

// NewChatHandler creates a chat handler.
func NewChatHandler(a Answerer, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{assistant: a, logger: logger}
}

// RegisterRoutes registers the chat route on the given mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /chat", h.chat)
}

type chatRequest struct {
	Q string `json:"q"`
}

type chatResponse struct {
	Answer  string              `json:"answer"`
	Sources []searchHitResponse `json:"sources"`
}

func (h *ChatHandler) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	answer, err := h.assistant.Answer(r.Context(), req.Q)
	if err != nil {
		if errors.Is(err, assistant.ErrEmptyQuestion) {
			writeError(w, http.StatusBadRequest, "q is required")
			return
		}
		h.logger.Error("chat failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Answer:  answer.Text,
		Sources: toSearchHitResponses(answer.Sources),
	})
}
