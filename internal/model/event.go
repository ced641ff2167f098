package model

import (
	"time"
)

// EventType represents the type of conversation event published to the
// audit stream.
type EventType string

const (
	EventTypeConversationCreated EventType = "conversation_created"
	EventTypeMessageAppended     EventType = "message_appended"
	EventTypeExported            EventType = "exported"
	EventTypeCompletionFailed    EventType = "completion_failed"
	EventTypeSessionReset        EventType = "session_reset"
)

// ConversationEvent is an audit event about a conversation.
type ConversationEvent struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"session_id"`
	ConversationID string    `json:"conversation_id,omitempty"`
	Type           EventType `json:"type"`
	Role           Role      `json:"role,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
