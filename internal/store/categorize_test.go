package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyai/assistant-platform/internal/model"
)

func addConversation(s *Store, id string, createdAt time.Time) {
	s.conversations[id] = &model.Conversation{
		ID:        id,
		Title:     model.DefaultTitle,
		Messages:  []model.Message{},
		CreatedAt: createdAt,
	}
}

func labelsOf(categories []model.Category) []model.CategoryLabel {
	out := make([]model.CategoryLabel, len(categories))
	for i, c := range categories {
		out[i] = c.Label
	}
	return out
}

func TestStore_Categorize(t *testing.T) {
	// Wednesday. Week starts Monday March 10th.
	now := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)

	s := NewStore()
	addConversation(s, "future", now.Add(48*time.Hour))
	addConversation(s, "this-morning", time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC))
	addConversation(s, "yesterday-night", time.Date(2025, 3, 11, 23, 0, 0, 0, time.UTC))
	addConversation(s, "monday", time.Date(2025, 3, 10, 5, 0, 0, 0, time.UTC))
	addConversation(s, "last-week", time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC))
	addConversation(s, "ancient", time.Date(2025, 2, 20, 12, 0, 0, 0, time.UTC))

	categories := s.Categorize(now)

	require.Equal(t, []model.CategoryLabel{
		model.CategoryToday,
		model.CategoryYesterday,
		model.CategoryThisWeek,
		model.CategoryLastWeek,
		model.CategoryOlder,
	}, labelsOf(categories))

	byLabel := make(map[model.CategoryLabel][]string)
	for _, c := range categories {
		for _, conv := range c.Conversations {
			byLabel[c.Label] = append(byLabel[c.Label], conv.ID)
		}
	}

	// A future timestamp lands in Today: the first predicate always
	// matches since today is the floor of the current moment.
	assert.Equal(t, []string{"future", "this-morning"}, byLabel[model.CategoryToday])
	assert.Equal(t, []string{"yesterday-night"}, byLabel[model.CategoryYesterday])
	assert.Equal(t, []string{"monday"}, byLabel[model.CategoryThisWeek])
	assert.Equal(t, []string{"last-week"}, byLabel[model.CategoryLastWeek])
	assert.Equal(t, []string{"ancient"}, byLabel[model.CategoryOlder])
}

func TestStore_Categorize_PartitionsEveryConversationOnce(t *testing.T) {
	now := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)

	s := NewStore()
	ids := map[string]bool{}
	for i := 0; i < 40; i++ {
		createdAt := now.Add(-time.Duration(i*11) * time.Hour)
		id := createdAt.Format(idFormat)
		addConversation(s, id, createdAt)
		ids[id] = true
	}

	var seen []string
	for _, c := range s.Categorize(now) {
		for _, conv := range c.Conversations {
			seen = append(seen, conv.ID)
		}
	}

	assert.Len(t, seen, len(ids))
	for _, id := range seen {
		assert.True(t, ids[id], "unexpected id %s", id)
	}
}

func TestStore_Categorize_BucketsSortedMostRecentFirst(t *testing.T) {
	now := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)

	s := NewStore()
	for i := 0; i < 25; i++ {
		createdAt := now.Add(-time.Duration(i*7) * time.Hour)
		addConversation(s, createdAt.Format(idFormat), createdAt)
	}

	for _, c := range s.Categorize(now) {
		for i := 1; i < len(c.Conversations); i++ {
			prev, cur := c.Conversations[i-1], c.Conversations[i]
			assert.False(t, cur.CreatedAt.After(prev.CreatedAt),
				"bucket %s not sorted: %s before %s", c.Label, prev.ID, cur.ID)
		}
	}
}

func TestStore_Categorize_OmitsEmptyBuckets(t *testing.T) {
	now := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)

	s := NewStore()
	addConversation(s, "only", now.Add(-time.Hour))

	categories := s.Categorize(now)
	require.Len(t, categories, 1)
	assert.Equal(t, model.CategoryToday, categories[0].Label)
}

func TestStore_Categorize_MondayBoundary(t *testing.T) {
	// Monday morning: the week starts today, so Sunday is Yesterday
	// and the rest of the previous week is Last Week.
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	s := NewStore()
	addConversation(s, "sunday", time.Date(2025, 3, 9, 20, 0, 0, 0, time.UTC))
	addConversation(s, "saturday", time.Date(2025, 3, 8, 20, 0, 0, 0, time.UTC))
	addConversation(s, "previous-sunday", time.Date(2025, 3, 2, 20, 0, 0, 0, time.UTC))

	byLabel := make(map[model.CategoryLabel][]string)
	for _, c := range s.Categorize(now) {
		for _, conv := range c.Conversations {
			byLabel[c.Label] = append(byLabel[c.Label], conv.ID)
		}
	}

	assert.Equal(t, []string{"sunday"}, byLabel[model.CategoryYesterday])
	assert.Equal(t, []string{"saturday"}, byLabel[model.CategoryLastWeek])
	assert.Equal(t, []string{"previous-sunday"}, byLabel[model.CategoryOlder])
	assert.Empty(t, byLabel[model.CategoryThisWeek])
}
