package chat

import (
	chatModels "chainchat/internal/domain/models/chat"
)

// Conversation owns the ordered message list for one chat turn and folds
// decoded events into it. The state is implicitly encoded by the tag of the
// last message: a trailing assistant message absorbs deltas, a trailing
// presence message absorbs presence frames, everything else appends.
//
// NOT thread-safe. Driven by a single goroutine (the stream controller);
// frames must be applied strictly in arrival order because merging with the
// last message is only correct under in-order delivery.
type Conversation struct {
	Messages  []chatModels.Message
	SessionID string

	// RequestID for the current turn, assigned by the server's init frame.
	// Empty until init arrives; replayed history never sets it.
	RequestID string

	// HasVisibleOutput accumulates across the turn: set by text deltas,
	// images, actions, and errors, but not by presence or init. Drives the
	// end-of-stream "no response" fallback.
	HasVisibleOutput bool

	// Filters is the caller-owned context; a context event replaces it
	// wholesale. May be nil when the caller tracks no context.
	Filters *chatModels.ContextFilters
}

// NewConversation creates the turn state around a caller-owned context.
func NewConversation(filters *chatModels.ContextFilters) *Conversation {
	return &Conversation{Filters: filters}
}

// Apply folds one decoded event into the transcript and reports whether the
// message list changed. Transition table:
//
//	init                      record request/session id, no mutation
//	delta (empty)             no-op
//	delta, last=assistant     extend last message text
//	delta, otherwise          append assistant message
//	presence, last=presence   extend last status list
//	presence, otherwise       append presence message
//	image / action            always append
//	context                   replace caller context, no mutation
//	error                     append error message
//	ping / unknown / dropped  no-op
func (c *Conversation) Apply(ev Event) bool {
	switch ev.Kind {
	case chatModels.EventInit:
		c.RequestID = ev.Init.RequestID
		if ev.Init.SessionID != "" {
			c.SessionID = ev.Init.SessionID
		}
		return false

	case chatModels.EventDelta:
		if ev.Delta == "" {
			return false
		}
		c.HasVisibleOutput = true
		if last := c.last(); last != nil && last.Type == chatModels.MessageTypeAssistant {
			last.Text += ev.Delta
			return true
		}
		c.Messages = append(c.Messages, chatModels.Message{
			Type:      chatModels.MessageTypeAssistant,
			Text:      ev.Delta,
			RequestID: c.RequestID,
		})
		return true

	case chatModels.EventPresence:
		if last := c.last(); last != nil && last.Type == chatModels.MessageTypePresence {
			last.Statuses = append(last.Statuses, ev.Presence.Data)
			return true
		}
		c.Messages = append(c.Messages, chatModels.Message{
			Type:     chatModels.MessageTypePresence,
			Statuses: []string{ev.Presence.Data},
		})
		return true

	case chatModels.EventImage:
		c.HasVisibleOutput = true
		image := ev.Image.Data
		c.Messages = append(c.Messages, chatModels.Message{
			Type:      chatModels.MessageTypeImage,
			Image:     &image,
			RequestID: ev.Image.RequestID,
		})
		return true

	case chatModels.EventAction:
		c.HasVisibleOutput = true
		c.Messages = append(c.Messages, chatModels.Message{
			Type:      chatModels.MessageTypeAction,
			Action:    ev.Action,
			RequestID: ev.ActionRequestID,
		})
		return true

	case chatModels.EventContext:
		if c.Filters != nil {
			*c.Filters = *ev.Context
		}
		return false

	case chatModels.EventError:
		c.AppendError(ev.Err.Error.Message)
		return true

	default:
		// ping, unknown, dropped frames
		return false
	}
}

// BeginTurn resets the per-turn state. The transcript itself carries over:
// a conversation accumulates messages across turns, but the request id and
// the visible-output flag belong to exactly one turn.
func (c *Conversation) BeginTurn() {
	c.RequestID = ""
	c.HasVisibleOutput = false
}

// AppendPlaceholder pushes the empty presence message shown before the first
// frame arrives.
func (c *Conversation) AppendPlaceholder() {
	c.Messages = append(c.Messages, chatModels.NewPresenceMessage())
}

// AppendError appends an error entry. Errors count as visible output: a turn
// that failed did answer, just not with content.
func (c *Conversation) AppendError(text string) {
	c.HasVisibleOutput = true
	c.Messages = append(c.Messages, chatModels.NewErrorMessage(text))
}

func (c *Conversation) last() *chatModels.Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[len(c.Messages)-1]
}
