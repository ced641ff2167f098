// Package service provides business logic for the assistant platform.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pyai/assistant-platform/internal/export"
	"github.com/pyai/assistant-platform/internal/model"
	natsclient "github.com/pyai/assistant-platform/internal/nats"
	"github.com/pyai/assistant-platform/internal/store"
	"github.com/pyai/assistant-platform/pkg/logger"
	"github.com/pyai/assistant-platform/pkg/metrics"
)

// ConversationService handles conversation store operations for all
// sessions.
type ConversationService struct {
	sessions  *store.SessionManager
	publisher natsclient.EventPublisher
	logger    *logger.Logger
}

// NewConversationService creates a new conversation service.
func NewConversationService(sessions *store.SessionManager, publisher natsclient.EventPublisher, log *logger.Logger) *ConversationService {
	return &ConversationService{
		sessions:  sessions,
		publisher: publisher,
		logger:    log,
	}
}

// Sessions exposes the session manager for collaborating services.
func (s *ConversationService) Sessions() *store.SessionManager {
	return s.sessions
}

// Create returns a conversation with an empty message list, reusing an
// existing blank one when present.
func (s *ConversationService) Create(ctx context.Context, sessionID string) *model.CreateConversationResponse {
	st := s.sessions.Store(sessionID)
	conv, reused := st.CreateConversation()

	if !reused {
		metrics.ConversationsTotal.Inc()
		s.publishEvent(ctx, sessionID, conv.ID, model.EventTypeConversationCreated, "")
		s.logger.Info("conversation created",
			zap.String("conversation_id", conv.ID),
			zap.String("session_id", sessionID),
		)
	}
	metrics.SessionsActive.Set(float64(s.sessions.Len()))

	return &model.CreateConversationResponse{
		Conversation: conv,
		Reused:       reused,
	}
}

// Get retrieves a conversation by id.
func (s *ConversationService) Get(ctx context.Context, sessionID, conversationID string) (*model.Conversation, error) {
	return s.sessions.Store(sessionID).Get(conversationID)
}

// SetActive marks a conversation as the session's displayed one.
func (s *ConversationService) SetActive(ctx context.Context, sessionID, conversationID string) error {
	return s.sessions.Store(sessionID).SetActive(conversationID)
}

// List returns the session's conversations bucketed by recency.
func (s *ConversationService) List(ctx context.Context, sessionID string) *model.ListConversationsResponse {
	st := s.sessions.Store(sessionID)
	return &model.ListConversationsResponse{
		Categories: st.Categorize(time.Now()),
		Total:      st.Len(),
		ActiveID:   st.ActiveID(),
	}
}

// Search returns the session's conversations matching a non-empty
// query by title or message content.
func (s *ConversationService) Search(ctx context.Context, sessionID, query string) *model.SearchConversationsResponse {
	return &model.SearchConversationsResponse{
		Results: s.sessions.Store(sessionID).Search(query),
		Query:   query,
	}
}

// Export renders a conversation as a downloadable document.
func (s *ConversationService) Export(ctx context.Context, sessionID, conversationID string, format export.Format) (*export.Document, error) {
	conv, err := s.sessions.Store(sessionID).Get(conversationID)
	if err != nil {
		return nil, err
	}

	doc, err := export.Export(conv, format)
	if err != nil {
		return nil, err
	}

	metrics.ExportsTotal.WithLabelValues(string(format)).Inc()
	s.publishEvent(ctx, sessionID, conversationID, model.EventTypeExported, string(format))

	return doc, nil
}

// Reset clears the session's store entirely.
func (s *ConversationService) Reset(ctx context.Context, sessionID string) {
	s.sessions.Store(sessionID).Reset()
	s.publishEvent(ctx, sessionID, "", model.EventTypeSessionReset, "")
	s.logger.Info("session reset", zap.String("session_id", sessionID))
}

// publishEvent emits an audit event. Publishing is best-effort; a
// failure only costs the audit record.
func (s *ConversationService) publishEvent(ctx context.Context, sessionID, conversationID string, eventType model.EventType, reason string) {
	event := &model.ConversationEvent{
		ID:             uuid.NewString(),
		SessionID:      sessionID,
		ConversationID: conversationID,
		Type:           eventType,
		Reason:         reason,
		CreatedAt:      time.Now(),
	}
	if err := s.publisher.PublishEvent(ctx, event); err != nil {
		s.logger.Warn("failed to publish event",
			zap.String("type", string(eventType)),
			zap.Error(err),
		)
	}
}
