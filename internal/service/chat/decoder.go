package chat

import (
	"encoding/json"
	"fmt"
	"log/slog"

	chatModels "chainchat/internal/domain/models/chat"
)

// EventUnknown tags frames the decoder could not classify. Unknown events are
// logged and ignored so server-added event types never break older clients.
const EventUnknown = "unknown"

// Event is one decoded stream frame, tagged by Kind. Kind is one of the
// chatModels.Event* names, EventUnknown, or empty when the frame was dropped
// (no payload, or an ignored action type).
type Event struct {
	Kind            string
	Init            *chatModels.InitPayload
	Presence        *chatModels.PresencePayload
	Delta           string
	Image           *chatModels.ImagePayload
	ActionRequestID string
	Action          *chatModels.Action
	Context         *chatModels.ContextFilters
	Err             *chatModels.ErrorPayload
}

// Decoder turns raw frames into typed events. Stateless; a decode failure on
// one frame never stops the stream - the frame degrades to EventUnknown with
// a diagnostic log record.
type Decoder struct {
	logger *slog.Logger
}

// NewDecoder creates a Decoder. A nil logger falls back to slog.Default().
func NewDecoder(logger *slog.Logger) *Decoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Decoder{logger: logger}
}

// Decode classifies one raw frame. Frames without a payload are keep-alive
// noise and decode to the zero Event.
func (d *Decoder) Decode(frame chatModels.Frame) Event {
	if frame.Data == "" {
		return Event{}
	}

	switch frame.Event {
	case chatModels.EventInit:
		var p chatModels.InitPayload
		if err := json.Unmarshal([]byte(frame.Data), &p); err != nil {
			return d.unknown(frame, err)
		}
		return Event{Kind: chatModels.EventInit, Init: &p}

	case chatModels.EventPresence:
		var p chatModels.PresencePayload
		if err := json.Unmarshal([]byte(frame.Data), &p); err != nil {
			return d.unknown(frame, err)
		}
		return Event{Kind: chatModels.EventPresence, Presence: &p}

	case chatModels.EventDelta:
		var p chatModels.DeltaPayload
		if err := json.Unmarshal([]byte(frame.Data), &p); err != nil {
			return d.unknown(frame, err)
		}
		return Event{Kind: chatModels.EventDelta, Delta: p.V}

	case chatModels.EventImage:
		var p chatModels.ImagePayload
		if err := json.Unmarshal([]byte(frame.Data), &p); err != nil {
			return d.unknown(frame, err)
		}
		return Event{Kind: chatModels.EventImage, Image: &p}

	case chatModels.EventAction:
		var p chatModels.ActionPayload
		if err := json.Unmarshal([]byte(frame.Data), &p); err != nil {
			return d.unknown(frame, err)
		}
		action, err := ParseAction(p.Type, p.Data)
		if err != nil {
			// One bad action must not kill the whole turn.
			return d.unknown(frame, err)
		}
		if action == nil {
			d.logger.Debug("ignoring action with unrecognized type", "action_type", p.Type)
			return Event{}
		}
		return Event{Kind: chatModels.EventAction, ActionRequestID: p.RequestID, Action: action}

	case chatModels.EventContext:
		var p chatModels.ContextPayload
		if err := json.Unmarshal([]byte(frame.Data), &p); err != nil {
			return d.unknown(frame, err)
		}
		// The context itself arrives double-encoded inside the generic
		// data-as-string envelope.
		var wire chatModels.WireContext
		if err := json.Unmarshal([]byte(p.Data), &wire); err != nil {
			return d.unknown(frame, err)
		}
		filters := chatModels.ContextFromWire(wire)
		return Event{Kind: chatModels.EventContext, Context: &filters}

	case chatModels.EventError:
		var p chatModels.ErrorPayload
		if err := json.Unmarshal([]byte(frame.Data), &p); err != nil {
			return d.unknown(frame, err)
		}
		return Event{Kind: chatModels.EventError, Err: &p}

	case chatModels.EventPing:
		return Event{Kind: chatModels.EventPing}

	default:
		d.logger.Debug("ignoring unknown stream event", "event", frame.Event)
		return Event{Kind: EventUnknown}
	}
}

// unknown logs a decode failure and degrades the frame to EventUnknown.
func (d *Decoder) unknown(frame chatModels.Frame, err error) Event {
	d.logger.Warn("dropping malformed stream frame", "event", frame.Event, "error", err)
	return Event{Kind: EventUnknown}
}

// ParseAction decodes an action sub-payload by its type discriminator.
// Returns (nil, nil) for unrecognized types. Shared with the history
// reconstructor, which stores actions in the same shape.
func ParseAction(actionType string, data json.RawMessage) (*chatModels.Action, error) {
	switch actionType {
	case chatModels.ActionKindSignTransaction:
		var tx chatModels.TransactionPayload
		if err := json.Unmarshal(data, &tx); err != nil {
			return nil, fmt.Errorf("parse sign_transaction payload: %w", err)
		}
		return &chatModels.Action{Kind: chatModels.ActionKindSignTransaction, Transaction: &tx}, nil

	case chatModels.ActionKindSignSwap:
		var swap chatModels.SwapPayload
		if err := json.Unmarshal(data, &swap); err != nil {
			return nil, fmt.Errorf("parse sign_swap payload: %w", err)
		}
		return &chatModels.Action{Kind: chatModels.ActionKindSignSwap, Swap: &swap}, nil

	default:
		return nil, nil
	}
}
