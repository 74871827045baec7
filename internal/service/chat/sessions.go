package chat

import (
	"sort"

	chatModels "chainchat/internal/domain/models/chat"
)

// MergeSessions reconciles locally created (optimistic) sessions with a
// server-fetched listing. Pure function over caller-owned state:
//   - a local session overrides a server entry with the same id
//   - local sessions the server does not know yet are kept
//   - ids in deleted are filtered out of both sides
//
// The result is ordered most recent first.
func MergeSessions(server, local []chatModels.SessionSummary, deleted []string) []chatModels.SessionSummary {
	removed := make(map[string]bool, len(deleted))
	for _, id := range deleted {
		removed[id] = true
	}

	byID := make(map[string]int, len(server)+len(local))
	merged := make([]chatModels.SessionSummary, 0, len(server)+len(local))

	for _, s := range server {
		if removed[s.ID] {
			continue
		}
		byID[s.ID] = len(merged)
		merged = append(merged, s)
	}
	for _, s := range local {
		if removed[s.ID] {
			continue
		}
		if i, ok := byID[s.ID]; ok {
			merged[i] = s
			continue
		}
		byID[s.ID] = len(merged)
		merged = append(merged, s)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})

	return merged
}
