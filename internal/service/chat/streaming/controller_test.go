package streaming

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"chainchat/internal/domain"
	chatModels "chainchat/internal/domain/models/chat"
	chatSvc "chainchat/internal/domain/services/chat"
	"chainchat/internal/service/chat"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeTransport replays a scripted frame sequence. cancelAfter, when > 0,
// cancels the turn context after that many frames have been delivered.
type fakeTransport struct {
	frames      []chatSvc.StreamFrame
	openErr     error
	cancelAfter int
	cancel      context.CancelFunc

	gotRequest *chatSvc.TurnRequest
}

func (f *fakeTransport) OpenStream(ctx context.Context, req *chatSvc.TurnRequest) (<-chan chatSvc.StreamFrame, error) {
	f.gotRequest = req
	if f.openErr != nil {
		return nil, f.openErr
	}
	out := make(chan chatSvc.StreamFrame)
	go func() {
		for i, frame := range f.frames {
			select {
			case out <- frame:
			case <-ctx.Done():
				return
			}
			if f.cancelAfter > 0 && i+1 == f.cancelAfter {
				// Leave the channel open: the turn must end through
				// cancellation, not a clean close.
				f.cancel()
				return
			}
		}
		close(out)
	}()
	return out, nil
}

// fakeSessions stubs session creation; the other SessionAPI methods are
// unreachable from the controller.
type fakeSessions struct {
	session   *chatModels.Session
	createErr error
	created   int
}

func (f *fakeSessions) CreateSession(ctx context.Context, filters *chatModels.ContextFilters) (*chatModels.Session, error) {
	f.created++
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.session, nil
}

func (f *fakeSessions) UpdateSession(context.Context, string, *chatModels.ContextFilters) error {
	return errors.New("not implemented")
}

func (f *fakeSessions) GetSession(context.Context, string) (*chatModels.Session, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeSessions) ListSessions(context.Context) ([]chatModels.SessionSummary, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeSessions) DeleteSession(context.Context, string) error {
	return errors.New("not implemented")
}

func (f *fakeSessions) SubmitFeedback(context.Context, string, string, string) error {
	return errors.New("not implemented")
}

func frame(event, data string) chatSvc.StreamFrame {
	return chatSvc.StreamFrame{Frame: &chatModels.Frame{Event: event, Data: data}}
}

func TestRunHappyPath(t *testing.T) {
	transport := &fakeTransport{frames: []chatSvc.StreamFrame{
		frame(chatModels.EventInit, `{"request_id":"req-1","session_id":"sess-1"}`),
		frame(chatModels.EventPresence, `{"source":"agent","data":"Thinking"}`),
		frame(chatModels.EventDelta, `{"v":"Hello"}`),
		frame(chatModels.EventDelta, `{"v":" world"}`),
	}}
	c := NewController(transport, nil, testLogger())

	conv := chat.NewConversation(nil)
	var notifications int
	err := c.Run(context.Background(), conv, &chatSvc.TurnRequest{SessionID: "sess-1"}, func(msgs []chatModels.Message) {
		notifications++
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Placeholder presence (absorbing the status) then the assistant text.
	if len(conv.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d: %+v", len(conv.Messages), conv.Messages)
	}
	if conv.Messages[1].Text != "Hello world" {
		t.Errorf("unexpected assistant text: %q", conv.Messages[1].Text)
	}
	if conv.RequestID != "req-1" {
		t.Errorf("request id not recorded: %q", conv.RequestID)
	}
	// Placeholder + presence + two deltas.
	if notifications != 4 {
		t.Errorf("expected 4 notifications, got %d", notifications)
	}
}

func TestRunCreatesSessionWhenMissing(t *testing.T) {
	transport := &fakeTransport{frames: []chatSvc.StreamFrame{
		frame(chatModels.EventDelta, `{"v":"hi"}`),
	}}
	sessions := &fakeSessions{session: &chatModels.Session{ID: "sess-new"}}
	c := NewController(transport, sessions, testLogger())

	conv := chat.NewConversation(nil)
	req := &chatSvc.TurnRequest{}
	if err := c.Run(context.Background(), conv, req, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sessions.created != 1 {
		t.Errorf("expected one session creation, got %d", sessions.created)
	}
	if req.SessionID != "sess-new" || conv.SessionID != "sess-new" {
		t.Errorf("session id not propagated: req=%q conv=%q", req.SessionID, conv.SessionID)
	}
	if transport.gotRequest.SessionID != "sess-new" {
		t.Errorf("stream opened without the created session id: %q", transport.gotRequest.SessionID)
	}
}

func TestRunSessionCreationFailure(t *testing.T) {
	sessions := &fakeSessions{createErr: errors.New("boom")}
	c := NewController(&fakeTransport{}, sessions, testLogger())

	conv := chat.NewConversation(nil)
	if err := c.Run(context.Background(), conv, &chatSvc.TurnRequest{}, nil); err != nil {
		t.Fatalf("transport failures resolve the turn, got error: %v", err)
	}

	if len(conv.Messages) != 1 {
		t.Fatalf("expected one error message, got %d", len(conv.Messages))
	}
	if conv.Messages[0].ErrorText != TransportErrorText {
		t.Errorf("unexpected error text: %q", conv.Messages[0].ErrorText)
	}
}

func TestRunNoResponseFallback(t *testing.T) {
	// Only init, presence and ping: the stream closes without visible
	// output, so the controller owes the user a fallback message.
	transport := &fakeTransport{frames: []chatSvc.StreamFrame{
		frame(chatModels.EventInit, `{"request_id":"req-1","session_id":"sess-1"}`),
		frame(chatModels.EventPresence, `{"source":"agent","data":"Thinking"}`),
		frame(chatModels.EventPing, `{}`),
	}}
	c := NewController(transport, nil, testLogger())

	conv := chat.NewConversation(nil)
	if err := c.Run(context.Background(), conv, &chatSvc.TurnRequest{SessionID: "sess-1"}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	last := conv.Messages[len(conv.Messages)-1]
	if last.Type != chatModels.MessageTypeError || last.ErrorText != NoResponseText {
		t.Errorf("expected no-response fallback, got %+v", last)
	}
}

func TestRunNoFallbackAfterVisibleOutput(t *testing.T) {
	transport := &fakeTransport{frames: []chatSvc.StreamFrame{
		frame(chatModels.EventDelta, `{"v":"answer"}`),
	}}
	c := NewController(transport, nil, testLogger())

	conv := chat.NewConversation(nil)
	if err := c.Run(context.Background(), conv, &chatSvc.TurnRequest{SessionID: "sess-1"}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	last := conv.Messages[len(conv.Messages)-1]
	if last.Type == chatModels.MessageTypeError {
		t.Errorf("no fallback expected after visible output, got %+v", last)
	}
}

func TestRunEmptyDeltasDoNotSuppressFallback(t *testing.T) {
	transport := &fakeTransport{frames: []chatSvc.StreamFrame{
		frame(chatModels.EventDelta, `{"v":""}`),
		frame(chatModels.EventDelta, `{"v":""}`),
	}}
	c := NewController(transport, nil, testLogger())

	conv := chat.NewConversation(nil)
	if err := c.Run(context.Background(), conv, &chatSvc.TurnRequest{SessionID: "sess-1"}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	last := conv.Messages[len(conv.Messages)-1]
	if last.ErrorText != NoResponseText {
		t.Errorf("empty deltas are not visible output, expected fallback, got %+v", last)
	}
}

func TestRunCancellationIsSilent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	transport := &fakeTransport{
		frames: []chatSvc.StreamFrame{
			frame(chatModels.EventDelta, `{"v":"partial"}`),
			frame(chatModels.EventDelta, `{"v":" answer that never finishes"}`),
		},
		cancelAfter: 1,
		cancel:      cancel,
	}
	c := NewController(transport, nil, testLogger())

	conv := chat.NewConversation(nil)
	var afterCancel int
	err := c.Run(ctx, conv, &chatSvc.TurnRequest{SessionID: "sess-1"}, func(msgs []chatModels.Message) {
		if ctx.Err() != nil {
			afterCancel++
		}
	})

	if !errors.Is(err, domain.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if afterCancel != 0 {
		t.Errorf("no notifications may fire after cancellation, got %d", afterCancel)
	}
	for _, m := range conv.Messages {
		if m.Type == chatModels.MessageTypeError {
			t.Errorf("cancellation must not append a fallback, got %+v", m)
		}
	}
}

func TestRunCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewController(&fakeTransport{}, nil, testLogger())
	conv := chat.NewConversation(nil)

	err := c.Run(ctx, conv, &chatSvc.TurnRequest{SessionID: "sess-1"}, nil)
	if !errors.Is(err, domain.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}

func TestRunTransportFrameError(t *testing.T) {
	transport := &fakeTransport{frames: []chatSvc.StreamFrame{
		frame(chatModels.EventDelta, `{"v":"partial"}`),
		{Err: errors.New("connection reset")},
	}}
	c := NewController(transport, nil, testLogger())

	conv := chat.NewConversation(nil)
	if err := c.Run(context.Background(), conv, &chatSvc.TurnRequest{SessionID: "sess-1"}, nil); err != nil {
		t.Fatalf("transport failures resolve the turn, got error: %v", err)
	}

	last := conv.Messages[len(conv.Messages)-1]
	if last.Type != chatModels.MessageTypeError || last.ErrorText != TransportErrorText {
		t.Errorf("expected transport error message, got %+v", last)
	}
	// The partial text stays in the transcript.
	var sawPartial bool
	for _, m := range conv.Messages {
		if m.Type == chatModels.MessageTypeAssistant && m.Text == "partial" {
			sawPartial = true
		}
	}
	if !sawPartial {
		t.Error("partial assistant text must survive a transport failure")
	}
}

func TestRunOpenStreamFailure(t *testing.T) {
	transport := &fakeTransport{openErr: errors.New("dial tcp: refused")}
	c := NewController(transport, nil, testLogger())

	conv := chat.NewConversation(nil)
	if err := c.Run(context.Background(), conv, &chatSvc.TurnRequest{SessionID: "sess-1"}, nil); err != nil {
		t.Fatalf("transport failures resolve the turn, got error: %v", err)
	}

	last := conv.Messages[len(conv.Messages)-1]
	if last.ErrorText != TransportErrorText {
		t.Errorf("expected transport error message, got %+v", last)
	}
}

func TestRunMalformedFrameDoesNotAbortStream(t *testing.T) {
	transport := &fakeTransport{frames: []chatSvc.StreamFrame{
		frame(chatModels.EventDelta, `{{{not json`),
		frame(chatModels.EventDelta, `{"v":"still here"}`),
	}}
	c := NewController(transport, nil, testLogger())

	conv := chat.NewConversation(nil)
	if err := c.Run(context.Background(), conv, &chatSvc.TurnRequest{SessionID: "sess-1"}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	last := conv.Messages[len(conv.Messages)-1]
	if last.Type != chatModels.MessageTypeAssistant || last.Text != "still here" {
		t.Errorf("stream must survive a malformed frame, got %+v", last)
	}
}

func TestStartCancel(t *testing.T) {
	// A transport that never produces a frame; only cancel ends the turn.
	blockCh := make(chan chatSvc.StreamFrame)
	blockTransport := streamFunc(func(ctx context.Context, req *chatSvc.TurnRequest) (<-chan chatSvc.StreamFrame, error) {
		return blockCh, nil
	})

	c := NewController(blockTransport, nil, testLogger())
	conv := chat.NewConversation(nil)

	cancel, done := c.Start(context.Background(), conv, &chatSvc.TurnRequest{SessionID: "sess-1"}, nil)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, domain.ErrCancelled) {
			t.Errorf("expected ErrCancelled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("turn did not terminate after cancel")
	}
}

type streamFunc func(ctx context.Context, req *chatSvc.TurnRequest) (<-chan chatSvc.StreamFrame, error)

func (f streamFunc) OpenStream(ctx context.Context, req *chatSvc.TurnRequest) (<-chan chatSvc.StreamFrame, error) {
	return f(ctx, req)
}
