package chat

import (
	"context"

	chatModels "chainchat/internal/domain/models/chat"
)

// Feedback rating constants
const (
	FeedbackUp   = "up"
	FeedbackDown = "down"
)

// TurnRequest is the outbound request that opens one streamed chat turn.
type TurnRequest struct {
	SessionID string
	Message   chatModels.Message // The user message for this turn
	Context   *chatModels.ContextFilters
}

// StreamFrame couples one raw frame with a transport error. A frame with Err
// set terminates the stream; the channel is closed after it.
type StreamFrame struct {
	Frame *chatModels.Frame
	Err   error
}

// StreamTransport opens the long-lived per-turn event stream.
// The returned channel delivers frames in arrival order and is closed when
// the stream ends. Cancelling ctx aborts the underlying request.
type StreamTransport interface {
	OpenStream(ctx context.Context, req *TurnRequest) (<-chan StreamFrame, error)
}

// SessionAPI is the session CRUD and feedback contract the client consumes.
// The service owns session persistence; this module only honors the wire
// shapes.
type SessionAPI interface {
	// CreateSession creates a session scoped by the given context filters.
	CreateSession(ctx context.Context, filters *chatModels.ContextFilters) (*chatModels.Session, error)

	// UpdateSession replaces the context filters of an existing session.
	UpdateSession(ctx context.Context, id string, filters *chatModels.ContextFilters) error

	// GetSession fetches a session including its persisted history.
	GetSession(ctx context.Context, id string) (*chatModels.Session, error)

	// ListSessions returns session summaries, most recent first.
	ListSessions(ctx context.Context) ([]chatModels.SessionSummary, error)

	// DeleteSession removes a session.
	DeleteSession(ctx context.Context, id string) error

	// SubmitFeedback rates one assistant response, identified by the
	// request id the init frame assigned to its turn.
	SubmitFeedback(ctx context.Context, sessionID, requestID, rating string) error
}
