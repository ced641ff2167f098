package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pyai/assistant-platform/internal/llm"
	"github.com/pyai/assistant-platform/internal/model"
	"github.com/pyai/assistant-platform/pkg/logger"
	"github.com/pyai/assistant-platform/pkg/metrics"
)

// ErrCompletionFailed wraps provider-originated completion errors. The
// user message stays appended; no assistant message is recorded.
var ErrCompletionFailed = errors.New("completion request failed")

// CompletionParams carries the generation parameters sent with every
// completion request.
type CompletionParams struct {
	Provider     llm.Provider
	APIKey       string
	Model        string
	Temperature  float64
	MaxTokens    int
	TopP         float64
	Stop         []string
	SystemPrompt string
}

// MessageService handles the user-message / completion round-trip.
type MessageService struct {
	conversations *ConversationService
	client        llm.Client
	params        CompletionParams
	logger        *logger.Logger
}

// NewMessageService creates a new message service.
func NewMessageService(conversations *ConversationService, client llm.Client, params CompletionParams, log *logger.Logger) *MessageService {
	return &MessageService{
		conversations: conversations,
		client:        client,
		params:        params,
		logger:        log,
	}
}

// Send appends a user message and performs one blocking completion
// round-trip, appending the assistant's reply on success.
//
// The credential is prefix-checked before anything happens: on failure
// no request is attempted and the store is left untouched. A provider
// failure after the append leaves the user message dangling without a
// reply, which the user can correct by resending.
func (s *MessageService) Send(ctx context.Context, sessionID, conversationID string, req *model.SendMessageRequest) (*model.SendMessageResponse, error) {
	if err := llm.ValidateCredential(s.params.Provider, s.params.APIKey); err != nil {
		metrics.CredentialRejectionsTotal.Inc()
		return nil, err
	}

	st := s.conversations.Sessions().Store(sessionID)

	userMsg := model.Message{
		Role:      model.RoleUser,
		Content:   req.Content,
		CreatedAt: time.Now(),
	}
	if err := st.AppendMessage(conversationID, userMsg); err != nil {
		return nil, err
	}
	metrics.MessagesTotal.WithLabelValues(string(model.RoleUser)).Inc()
	s.conversations.publishEvent(ctx, sessionID, conversationID, model.EventTypeMessageAppended, string(model.RoleUser))

	title, err := st.DeriveTitle(conversationID)
	if err != nil {
		return nil, err
	}

	conv, err := st.Get(conversationID)
	if err != nil {
		return nil, err
	}

	resp, err := s.complete(ctx, conv, req.Model)
	if err != nil {
		s.conversations.publishEvent(ctx, sessionID, conversationID, model.EventTypeCompletionFailed, err.Error())
		s.logger.Error("completion failed",
			zap.String("conversation_id", conversationID),
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return &model.SendMessageResponse{
			UserMessage: &userMsg,
			Title:       title,
		}, fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}

	assistantMsg := model.Message{
		Role:      model.RoleAssistant,
		Content:   resp.Content,
		CreatedAt: time.Now(),
	}
	if err := st.AppendMessage(conversationID, assistantMsg); err != nil {
		return nil, err
	}
	metrics.MessagesTotal.WithLabelValues(string(model.RoleAssistant)).Inc()
	metrics.RecordCompletion(resp.Model, "success", float64(resp.LatencyMs)/1000.0, resp.TokensIn, resp.TokensOut)
	s.conversations.publishEvent(ctx, sessionID, conversationID, model.EventTypeMessageAppended, string(model.RoleAssistant))

	s.logger.Info("completion round-trip",
		zap.String("conversation_id", conversationID),
		zap.String("model", resp.Model),
		zap.Int("tokens_in", resp.TokensIn),
		zap.Int("tokens_out", resp.TokensOut),
		zap.Int64("latency_ms", resp.LatencyMs),
	)

	return &model.SendMessageResponse{
		UserMessage:      &userMsg,
		AssistantMessage: &assistantMsg,
		Title:            title,
	}, nil
}

// complete sends the full accumulated message list to the provider,
// prefixed by the transient system prompt. The system message is never
// stored.
func (s *MessageService) complete(ctx context.Context, conv *model.Conversation, modelOverride string) (*llm.CompletionResponse, error) {
	chatMessages := make([]llm.ChatMessage, 0, len(conv.Messages)+1)
	if s.params.SystemPrompt != "" {
		chatMessages = append(chatMessages, llm.ChatMessage{
			Role:    string(model.RoleSystem),
			Content: s.params.SystemPrompt,
		})
	}
	for _, msg := range conv.Messages {
		chatMessages = append(chatMessages, llm.ChatMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	modelName := modelOverride
	if modelName == "" {
		modelName = s.params.Model
	}

	return s.client.Complete(ctx, &llm.CompletionRequest{
		Model:       modelName,
		Messages:    chatMessages,
		MaxTokens:   s.params.MaxTokens,
		Temperature: s.params.Temperature,
		TopP:        s.params.TopP,
		Stop:        s.params.Stop,
	})
}

// GetMessages retrieves a conversation's messages.
func (s *MessageService) GetMessages(ctx context.Context, sessionID, conversationID string) (*model.ListMessagesResponse, error) {
	conv, err := s.conversations.Sessions().Store(sessionID).Get(conversationID)
	if err != nil {
		return nil, err
	}
	return &model.ListMessagesResponse{
		Messages: conv.Messages,
		Total:    len(conv.Messages),
	}, nil
}
