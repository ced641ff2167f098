package store

import (
	"time"

	"github.com/pyai/assistant-platform/internal/model"
)

// Categorize buckets all stored conversations into recency categories,
// in display order: Today, Yesterday, This Week, Last Week, Older.
// Within a bucket conversations are sorted by creation time descending.
// Empty buckets are omitted.
//
// Boundaries are derived from now: today is the midnight floor of now,
// yesterday is one day before that, the week starts on the most recent
// Monday at or before today, and last week seven days before that. Each
// conversation lands in the first bucket whose lower bound it meets, so
// a future timestamp always lands in Today.
func (s *Store) Categorize(now time.Time) []model.Category {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterday := today.AddDate(0, 0, -1)
	weekStart := today.AddDate(0, 0, -mondayOffset(today))
	lastWeekStart := weekStart.AddDate(0, 0, -7)

	s.mu.RLock()
	defer s.mu.RUnlock()

	buckets := make(map[model.CategoryLabel][]model.ConversationSummary)
	for _, conv := range s.allLocked() {
		label := bucketFor(conv.CreatedAt, today, yesterday, weekStart, lastWeekStart)
		buckets[label] = append(buckets[label], s.summaryLocked(conv))
	}

	var out []model.Category
	for _, label := range model.CategoryOrder {
		if convs := buckets[label]; len(convs) > 0 {
			out = append(out, model.Category{Label: label, Conversations: convs})
		}
	}
	return out
}

func bucketFor(createdAt, today, yesterday, weekStart, lastWeekStart time.Time) model.CategoryLabel {
	switch {
	case !createdAt.Before(today):
		return model.CategoryToday
	case !createdAt.Before(yesterday):
		return model.CategoryYesterday
	case !createdAt.Before(weekStart):
		return model.CategoryThisWeek
	case !createdAt.Before(lastWeekStart):
		return model.CategoryLastWeek
	default:
		return model.CategoryOlder
	}
}

// mondayOffset returns the number of days between t and the most recent
// Monday at or before t.
func mondayOffset(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
