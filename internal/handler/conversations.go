// Package handler provides HTTP handlers for the API.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pyai/assistant-platform/internal/middleware"
	"github.com/pyai/assistant-platform/internal/service"
	"github.com/pyai/assistant-platform/pkg/logger"
)

// ConversationHandler handles conversation endpoints.
type ConversationHandler struct {
	service *service.ConversationService
	logger  *logger.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(svc *service.ConversationService, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		service: svc,
		logger:  log,
	}
}

// Create handles POST /api/v1/conversations. Repeated calls without an
// intervening message reuse the existing blank conversation instead of
// creating another.
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := middleware.GetSessionID(ctx)

	resp := h.service.Create(ctx, sessionID)

	status := http.StatusCreated
	if resp.Reused {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

// List handles GET /api/v1/conversations. Without a query it returns
// the categorized listing; with ?q= it returns search results instead.
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := middleware.GetSessionID(ctx)

	// An empty query trivially matches every conversation, so search
	// only activates for a non-empty one.
	if query := r.URL.Query().Get("q"); query != "" {
		if err := middleware.ValidateSearchQuery(query); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, h.service.Search(ctx, sessionID, query))
		return
	}

	writeJSON(w, http.StatusOK, h.service.List(ctx, sessionID))
}

// Get handles GET /api/v1/conversations/{id}
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := middleware.GetSessionID(ctx)
	conversationID := chi.URLParam(r, "id")

	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conv, err := h.service.Get(ctx, sessionID, conversationID)
	if err != nil {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}

	writeJSON(w, http.StatusOK, conv)
}

// Activate handles POST /api/v1/conversations/{id}/activate. An
// unknown id indicates a client/state desynchronization and fails
// loudly.
func (h *ConversationHandler) Activate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := middleware.GetSessionID(ctx)
	conversationID := chi.URLParam(r, "id")

	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.SetActive(ctx, sessionID, conversationID); err != nil {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ResetSession handles DELETE /api/v1/session. It clears the session's
// store and active pointer; used at session initialization.
func (h *ConversationHandler) ResetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := middleware.GetSessionID(ctx)

	h.service.Reset(ctx, sessionID)

	w.WriteHeader(http.StatusNoContent)
}
