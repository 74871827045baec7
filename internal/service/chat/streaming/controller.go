package streaming

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"chainchat/internal/domain"
	chatModels "chainchat/internal/domain/models/chat"
	chatSvc "chainchat/internal/domain/services/chat"
	"chainchat/internal/service/chat"
)

// Fixed transcript texts for controller-synthesized error messages.
const (
	// NoResponseText is appended when a stream closes cleanly without ever
	// producing visible output (only init/presence/ping frames).
	NoResponseText = "No response received. Please try again."

	// TransportErrorText is appended when the stream dies mid-turn. The
	// underlying error goes to the log, not the transcript.
	TransportErrorText = "Connection to the chat service was lost. Please try again."
)

// Controller drives the lifecycle of one outstanding chat turn: it opens the
// stream, feeds frames through the decoder into the conversation, and
// guarantees a fallback message when the stream ends with nothing visible.
//
// Single-shot and stateless across calls; serializing concurrent turns for
// the same session is the caller's responsibility.
type Controller struct {
	transport chatSvc.StreamTransport
	sessions  chatSvc.SessionAPI
	decoder   *chat.Decoder
	logger    *slog.Logger
}

// NewController creates a Controller. sessions may be nil when the caller
// always supplies an existing session id. A nil logger falls back to
// slog.Default().
func NewController(transport chatSvc.StreamTransport, sessions chatSvc.SessionAPI, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		transport: transport,
		sessions:  sessions,
		decoder:   chat.NewDecoder(logger),
		logger:    logger,
	}
}

// Run executes one chat turn to completion, invoking onMessage after every
// mutating transition so the rendering layer observes incremental growth.
//
// Cancellation via ctx is silent: no further onMessage calls, no fallback
// message, and Run returns domain.ErrCancelled. Messages already appended
// remain - cancellation has no rollback.
//
// A transport failure is converted to one synthetic error message and Run
// returns nil: the turn answered, just with an error. Retry policy belongs
// to the caller.
func (c *Controller) Run(ctx context.Context, conv *chat.Conversation, req *chatSvc.TurnRequest, onMessage func([]chatModels.Message)) error {
	notify := func() bool {
		// Checked before every dispatch so a mid-turn cancellation
		// suppresses any further visible mutation.
		if ctx.Err() != nil {
			return false
		}
		if onMessage != nil {
			onMessage(conv.Messages)
		}
		return true
	}

	conv.BeginTurn()

	// One-time session creation when no session exists yet. This is the
	// only suspension point besides awaiting frames.
	if req.SessionID == "" {
		if c.sessions == nil {
			return fmt.Errorf("turn has no session id and no session API is configured")
		}
		session, err := c.sessions.CreateSession(ctx, req.Context)
		if err != nil {
			if canceled(ctx, err) {
				return domain.ErrCancelled
			}
			c.logger.Error("session creation failed", "error", err)
			conv.AppendError(TransportErrorText)
			notify()
			return nil
		}
		req.SessionID = session.ID
	}
	conv.SessionID = req.SessionID

	// Placeholder presence so the UI has something to show before the
	// first frame arrives.
	conv.AppendPlaceholder()
	if !notify() {
		return domain.ErrCancelled
	}

	frames, err := c.transport.OpenStream(ctx, req)
	if err != nil {
		if canceled(ctx, err) {
			return domain.ErrCancelled
		}
		c.logger.Error("opening chat stream failed", "session_id", req.SessionID, "error", err)
		conv.AppendError(TransportErrorText)
		notify()
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return domain.ErrCancelled

		case frame, ok := <-frames:
			if !ok {
				// Clean end of stream. A turn that produced only
				// presence/init/ping still owes the user an answer.
				if !conv.HasVisibleOutput {
					conv.AppendError(NoResponseText)
					notify()
				}
				return nil
			}
			if frame.Err != nil {
				if canceled(ctx, frame.Err) {
					return domain.ErrCancelled
				}
				c.logger.Error("chat stream failed", "session_id", req.SessionID, "error", frame.Err)
				conv.AppendError(TransportErrorText)
				notify()
				return nil
			}
			if conv.Apply(c.decoder.Decode(*frame.Frame)) {
				if !notify() {
					return domain.ErrCancelled
				}
			}
		}
	}
}

// Start runs the turn in a goroutine and returns a cancel function plus a
// channel that yields Run's result. Convenience wrapper over Run for callers
// that want the start/cancel shape instead of a blocking call.
func (c *Controller) Start(ctx context.Context, conv *chat.Conversation, req *chatSvc.TurnRequest, onMessage func([]chatModels.Message)) (context.CancelFunc, <-chan error) {
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		done <- c.Run(runCtx, conv, req, onMessage)
		close(done)
	}()
	return cancel, done
}

// canceled reports whether err (or the context) represents cancellation
// rather than a genuine transport failure.
func canceled(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, domain.ErrCancelled)
}
