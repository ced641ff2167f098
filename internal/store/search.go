package store

import (
	"strings"

	"github.com/pyai/assistant-platform/internal/model"
)

// Search returns the conversations whose title or any message content
// contains query, case-insensitively, most recent first. A conversation
// is included at most once; the message scan stops at the first hit.
//
// An empty query trivially matches every conversation, since every
// string contains the empty substring. Callers treat an empty query as
// "no search active" and must gate before calling.
func (s *Store) Search(query string) []model.ConversationSummary {
	needle := strings.ToLower(query)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []model.ConversationSummary
	for _, conv := range s.allLocked() {
		if matches(conv, needle) {
			results = append(results, s.summaryLocked(conv))
		}
	}
	return results
}

func matches(conv *model.Conversation, needle string) bool {
	if strings.Contains(strings.ToLower(conv.Title), needle) {
		return true
	}
	for _, msg := range conv.Messages {
		if strings.Contains(strings.ToLower(msg.Content), needle) {
			return true
		}
	}
	return false
}
