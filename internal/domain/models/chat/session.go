package chat

import "time"

// History entry role constants
const (
	HistoryRoleUser      = "user"
	HistoryRoleAssistant = "assistant"
	HistoryRoleAction    = "action"
	HistoryRoleImage     = "image"
)

// HistoryEntry is one persisted, fully materialized transcript entry as the
// service returns it. Content is plain text for user/assistant entries (user
// may also be a JSON block array) and a JSON document for action/image.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Session is a chat session as the service returns it. History is populated
// only by single-session fetches, never by listings.
type Session struct {
	ID        string         `json:"id"`
	Title     string         `json:"title,omitempty"`
	Context   *WireContext   `json:"context,omitempty"`
	History   []HistoryEntry `json:"history,omitempty"`
	CreatedAt time.Time      `json:"created_at,omitzero"`
}

// SessionSummary is the listing shape: a locally created session that the
// server has not returned yet is "optimistic" until reconciliation sees it.
type SessionSummary struct {
	ID         string    `json:"id"`
	Title      string    `json:"title,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitzero"`
	Optimistic bool      `json:"-"`
}
