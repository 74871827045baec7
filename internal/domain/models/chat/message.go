package chat

// Message type constants
const (
	MessageTypeUser      = "user"
	MessageTypeAssistant = "assistant"
	MessageTypePresence  = "presence"
	MessageTypeImage     = "image"
	MessageTypeAction    = "action"
	MessageTypeError     = "error"
)

// Content block type constants (user message blocks)
const (
	BlockTypeText               = "text"
	BlockTypeImage              = "image"
	BlockTypeTransactionReceipt = "transaction_receipt"
)

// ContentBlock is one ordered part of a user message.
// Which fields are set depends on Type:
//   - text: Text
//   - image: URL
//   - transaction_receipt: TxHash, ChainID
type ContentBlock struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	URL     string `json:"url,omitempty"`
	TxHash  string `json:"tx_hash,omitempty"`
	ChainID int64  `json:"chain_id,omitempty"`
}

// TextBlock builds a one-element text content block list.
// Used to normalize legacy plain-string user entries into block form.
func TextBlock(text string) []ContentBlock {
	return []ContentBlock{{Type: BlockTypeText, Text: text}}
}

// ImageData describes a rendered image produced by the assistant.
type ImageData struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	URL    string `json:"url"`
}

// Message is one entry in a conversation transcript, tagged by Type.
// Per-variant fields:
//   - user: Content
//   - assistant: Text, RequestID (empty for replayed history)
//   - presence: Statuses (append-only while presence frames keep arriving)
//   - image: Image, RequestID
//   - action: Action, RequestID
//   - error: ErrorText (errors carry no request id)
//
// The transcript is append-mostly: the only in-place mutations are extending
// the Text of a trailing assistant message and extending the Statuses of a
// trailing presence message. Everything else appends.
type Message struct {
	Type      string         `json:"type"`
	Content   []ContentBlock `json:"content,omitempty"`
	Text      string         `json:"text,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Statuses  []string       `json:"statuses,omitempty"`
	Image     *ImageData     `json:"image,omitempty"`
	Action    *Action        `json:"action,omitempty"`
	ErrorText string         `json:"error_text,omitempty"`
}

// NewUserMessage builds a user message from ordered content blocks.
func NewUserMessage(blocks []ContentBlock) Message {
	return Message{Type: MessageTypeUser, Content: blocks}
}

// NewPresenceMessage builds an empty presence message. Pushed at turn start
// so the rendering layer has something to show before the first frame.
func NewPresenceMessage() Message {
	return Message{Type: MessageTypePresence, Statuses: []string{}}
}

// NewErrorMessage builds an error transcript entry.
func NewErrorMessage(text string) Message {
	return Message{Type: MessageTypeError, ErrorText: text}
}

// IsTerminal returns true for message types that never absorb later frames.
// A trailing assistant message absorbs deltas and a trailing presence message
// absorbs presence frames; everything else is closed on append.
func (m *Message) IsTerminal() bool {
	return m.Type != MessageTypeAssistant && m.Type != MessageTypePresence
}
