package store

import (
	"unicode/utf8"

	"github.com/pyai/assistant-platform/internal/model"
)

const (
	titleMaxRunes = 30
	titleEllipsis = "..."
)

// DeriveTitle sets the conversation's title from its first user
// message, truncated to 30 characters with a trailing ellipsis when
// longer. It is a no-op when the title has already been derived or no
// user message exists yet, so later messages never retitle a
// conversation. Returns the title after the call.
func (s *Store) DeriveTitle(id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, exists := s.conversations[id]
	if !exists {
		return "", ErrNotFound
	}
	if conv.Title != model.DefaultTitle {
		return conv.Title, nil
	}

	for _, msg := range conv.Messages {
		if msg.Role == model.RoleUser {
			conv.Title = truncateTitle(msg.Content)
			break
		}
	}
	return conv.Title, nil
}

func truncateTitle(content string) string {
	if utf8.RuneCountInString(content) <= titleMaxRunes {
		return content
	}
	runes := []rune(content)
	return string(runes[:titleMaxRunes]) + titleEllipsis
}
