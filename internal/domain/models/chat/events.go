package chat

import "encoding/json"

// Stream event name constants. Each frame on the chat stream carries one of
// these as its `event:` line; anything else is an unknown event and ignored
// for forward compatibility.
const (
	EventInit     = "init"     // Server assigned request/session ids for the turn
	EventPresence = "presence" // Transient status update ("thinking", tool call)
	EventDelta    = "delta"    // Incremental assistant text
	EventImage    = "image"    // Rendered image result
	EventAction   = "action"   // Signing request (transaction or swap)
	EventContext  = "context"  // Server-side replacement of the session context
	EventError    = "error"    // Turn-level error
	EventPing     = "ping"     // Keep-alive, no-op
)

// Frame is one raw unit from the stream: an event name plus its JSON payload.
// Frames without a payload are keep-alive noise and never reach the decoder.
type Frame struct {
	Event string
	Data  string
}

// InitPayload is the payload of an init frame.
type InitPayload struct {
	RequestID string `json:"request_id"`
	SessionID string `json:"session_id"`
}

// PresencePayload is the payload of a presence frame.
type PresencePayload struct {
	Source string `json:"source"` // Emitting component tag ("agent", tool name)
	Data   string `json:"data"`   // Short status string
}

// DeltaPayload is the payload of a delta frame. The server sends empty
// deltas; those must not create transcript entries.
type DeltaPayload struct {
	V string `json:"v"`
}

// ImagePayload is the payload of an image frame.
type ImagePayload struct {
	RequestID string    `json:"request_id"`
	Data      ImageData `json:"data"`
}

// ActionPayload is the payload of an action frame. Data stays raw until the
// Type discriminator selects the concrete payload shape; a malformed Data
// drops the frame, never the stream.
type ActionPayload struct {
	RequestID string          `json:"request_id"`
	Type      string          `json:"type"` // sign_transaction | sign_swap
	Data      json.RawMessage `json:"data"`
}

// ContextPayload is the payload of a context frame. Data is a JSON string
// that itself decodes to a WireContext: the server reuses a generic
// data-as-string envelope, so the context arrives double-encoded.
type ContextPayload struct {
	RequestID string `json:"request_id"`
	SessionID string `json:"session_id"`
	Data      string `json:"data"`
}

// ErrorPayload is the payload of an error frame.
type ErrorPayload struct {
	Code  int `json:"code"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}
