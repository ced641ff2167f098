// Package model defines data structures for the assistant platform.
package model

import (
	"time"
)

// DefaultTitle is the sentinel title assigned to a conversation until
// its real title is derived from the first user message.
const DefaultTitle = "New Chat"

// Conversation represents one named, ordered exchange of messages.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
}

// Blank reports whether the conversation has no messages yet.
func (c *Conversation) Blank() bool {
	return len(c.Messages) == 0
}

// Clone returns a deep copy of the conversation. Handlers hand clones
// to encoders so the store's records are never aliased outside it.
func (c *Conversation) Clone() *Conversation {
	out := &Conversation{
		ID:        c.ID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
	}
	if c.Messages != nil {
		out.Messages = make([]Message, len(c.Messages))
		copy(out.Messages, c.Messages)
	}
	return out
}

// ConversationSummary is the listing view of a conversation: everything
// but the message bodies.
type ConversationSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	Active       bool      `json:"active"`
}

// CategoryLabel names a recency bucket in display order.
type CategoryLabel string

const (
	CategoryToday     CategoryLabel = "Today"
	CategoryYesterday CategoryLabel = "Yesterday"
	CategoryThisWeek  CategoryLabel = "This Week"
	CategoryLastWeek  CategoryLabel = "Last Week"
	CategoryOlder     CategoryLabel = "Older"
)

// CategoryOrder lists all bucket labels in display order.
var CategoryOrder = []CategoryLabel{
	CategoryToday,
	CategoryYesterday,
	CategoryThisWeek,
	CategoryLastWeek,
	CategoryOlder,
}

// Category is one recency bucket with its conversations, most recent
// first.
type Category struct {
	Label         CategoryLabel         `json:"label"`
	Conversations []ConversationSummary `json:"conversations"`
}

// CreateConversationResponse is returned when a conversation is created
// or a blank one is reused.
type CreateConversationResponse struct {
	Conversation *Conversation `json:"conversation"`
	Reused       bool          `json:"reused"`
}

// ListConversationsResponse is the categorized conversation listing.
type ListConversationsResponse struct {
	Categories []Category `json:"categories"`
	Total      int        `json:"total"`
	ActiveID   string     `json:"active_id,omitempty"`
}

// SearchConversationsResponse is the response for a title/body search.
type SearchConversationsResponse struct {
	Results []ConversationSummary `json:"results"`
	Query   string                `json:"query"`
}
