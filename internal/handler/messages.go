package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pyai/assistant-platform/internal/llm"
	"github.com/pyai/assistant-platform/internal/middleware"
	"github.com/pyai/assistant-platform/internal/model"
	"github.com/pyai/assistant-platform/internal/service"
	"github.com/pyai/assistant-platform/internal/store"
	"github.com/pyai/assistant-platform/pkg/logger"
)

// MessageHandler handles message endpoints.
type MessageHandler struct {
	messageService      *service.MessageService
	conversationService *service.ConversationService
	logger              *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(
	msgSvc *service.MessageService,
	convSvc *service.ConversationService,
	log *logger.Logger,
) *MessageHandler {
	return &MessageHandler{
		messageService:      msgSvc,
		conversationService: convSvc,
		logger:              log,
	}
}

// List handles GET /api/v1/conversations/{id}/messages
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := middleware.GetSessionID(ctx)
	conversationID := chi.URLParam(r, "id")

	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.messageService.GetMessages(ctx, sessionID, conversationID)
	if err != nil {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Send handles POST /api/v1/conversations/{id}/messages. It appends the
// user message and performs one synchronous completion round-trip.
//
// Error mapping follows the interaction policy: a bad credential blocks
// the call before any mutation (422 warning); an unknown conversation
// is a loud 404; a provider failure is a 502 with the user message left
// appended and no assistant reply.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := middleware.GetSessionID(ctx)
	conversationID := chi.URLParam(r, "id")

	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.conversationService.Get(ctx, sessionID, conversationID); err != nil {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}

	var req model.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateMessageContent(req.Content); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.messageService.Send(ctx, sessionID, conversationID, &req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, resp)
	case errors.Is(err, llm.ErrInvalidCredential):
		writeWarning(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "conversation not found")
	case errors.Is(err, service.ErrCompletionFailed):
		h.logger.Error("completion request failed")
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":        "completion request failed",
			"user_message": resp.UserMessage,
		})
	default:
		h.logger.Error("failed to send message")
		writeError(w, http.StatusInternalServerError, "failed to send message")
	}
}
