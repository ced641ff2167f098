// Package store implements the session-scoped in-memory conversation
// store: creation, lookup, mutation, categorization, search and title
// derivation.
package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pyai/assistant-platform/internal/model"
)

// ErrNotFound is returned when a conversation id is absent from the
// store. It signals a client/state desynchronization, not a normal
// user-facing condition.
var ErrNotFound = errors.New("conversation not found")

// idFormat is the time-derived conversation id layout.
const idFormat = "20060102_150405"

// Store holds all conversations for a single user session. Conversations
// are never deleted; the whole store is torn down with the session.
type Store struct {
	mu            sync.RWMutex
	conversations map[string]*model.Conversation
	activeID      string

	now func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		conversations: make(map[string]*model.Conversation),
		now:           time.Now,
	}
}

// CreateConversation returns a conversation with an empty message list,
// reusing an existing blank one if present so repeated "new chat"
// actions never accumulate empty placeholders. The returned
// conversation is set active.
func (s *Store) CreateConversation() (*model.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if blank := s.findBlankLocked(); blank != nil {
		s.activeID = blank.ID
		return blank.Clone(), true
	}

	now := s.now()
	conv := &model.Conversation{
		ID:        s.uniqueIDLocked(now),
		Title:     model.DefaultTitle,
		Messages:  []model.Message{},
		CreatedAt: now,
	}
	s.conversations[conv.ID] = conv
	s.activeID = conv.ID

	return conv.Clone(), false
}

// findBlankLocked returns the oldest blank conversation, if any. At most
// one blank conversation exists under normal operation, but iteration
// order over the map is random so we pick deterministically.
func (s *Store) findBlankLocked() *model.Conversation {
	var blank *model.Conversation
	for _, conv := range s.conversations {
		if !conv.Blank() {
			continue
		}
		if blank == nil || conv.CreatedAt.Before(blank.CreatedAt) {
			blank = conv
		}
	}
	return blank
}

// uniqueIDLocked derives a second-resolution id from the creation time,
// suffixing a counter when two conversations land in the same second.
func (s *Store) uniqueIDLocked(now time.Time) string {
	id := now.Format(idFormat)
	if _, exists := s.conversations[id]; !exists {
		return id
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s_%d", id, i)
		if _, exists := s.conversations[candidate]; !exists {
			return candidate
		}
	}
}

// Get retrieves a copy of a conversation by id.
func (s *Store) Get(id string) (*model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, exists := s.conversations[id]
	if !exists {
		return nil, ErrNotFound
	}
	return conv.Clone(), nil
}

// SetActive marks a conversation as the currently displayed one.
func (s *Store) SetActive(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.conversations[id]; !exists {
		return ErrNotFound
	}
	s.activeID = id
	return nil
}

// ActiveID returns the id of the active conversation, or "" if none.
func (s *Store) ActiveID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// AppendMessage appends a message to a conversation. Appending never
// touches the title; callers invoke DeriveTitle separately.
func (s *Store) AppendMessage(id string, msg model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, exists := s.conversations[id]
	if !exists {
		return ErrNotFound
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}
	conv.Messages = append(conv.Messages, msg)
	return nil
}

// Len returns the number of stored conversations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}

// Reset clears the entire store and active pointer.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversations = make(map[string]*model.Conversation)
	s.activeID = ""
}

// allLocked returns the stored conversations sorted by creation time
// descending, with ties broken by id for stable output. Callers hold
// the lock.
func (s *Store) allLocked() []*model.Conversation {
	out := make([]*model.Conversation, 0, len(s.conversations))
	for _, conv := range s.conversations {
		out = append(out, conv)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *Store) summaryLocked(conv *model.Conversation) model.ConversationSummary {
	return model.ConversationSummary{
		ID:           conv.ID,
		Title:        conv.Title,
		MessageCount: len(conv.Messages),
		CreatedAt:    conv.CreatedAt,
		Active:       conv.ID == s.activeID,
	}
}
