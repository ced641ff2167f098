package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pyai/assistant-platform/internal/export"
	"github.com/pyai/assistant-platform/internal/middleware"
	"github.com/pyai/assistant-platform/internal/service"
	"github.com/pyai/assistant-platform/pkg/logger"
)

// ExportHandler serves conversation downloads.
type ExportHandler struct {
	service *service.ConversationService
	logger  *logger.Logger
}

// NewExportHandler creates a new export handler.
func NewExportHandler(svc *service.ConversationService, log *logger.Logger) *ExportHandler {
	return &ExportHandler{
		service: svc,
		logger:  log,
	}
}

// Export handles GET /api/v1/conversations/{id}/export?format=text|json
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := middleware.GetSessionID(ctx)
	conversationID := chi.URLParam(r, "id")

	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := h.service.Export(ctx, sessionID, conversationID, format)
	if err != nil {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}

	w.Header().Set("Content-Type", doc.MediaType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(doc.Data)
}
