package chat

import (
	"encoding/json"
	"log/slog"
	"strings"

	chatModels "chainchat/internal/domain/models/chat"
)

// Reconstructor rebuilds a transcript from persisted history entries in one
// pass, producing the same message-list shape live streaming would have. The
// one relaxation: history carries no request ids - the stream controller is
// their only source - so feedback stays disabled for replayed turns.
type Reconstructor struct {
	logger *slog.Logger
}

// NewReconstructor creates a Reconstructor. A nil logger falls back to
// slog.Default().
func NewReconstructor(logger *slog.Logger) *Reconstructor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconstructor{logger: logger}
}

// Reconstruct converts persisted history entries to transcript messages.
// A malformed action or image entry is skipped and logged, never fatal -
// the same per-frame fault isolation the live decoder applies.
func (r *Reconstructor) Reconstruct(entries []chatModels.HistoryEntry) []chatModels.Message {
	messages := make([]chatModels.Message, 0, len(entries))

	for i, entry := range entries {
		switch entry.Role {
		case chatModels.HistoryRoleUser:
			messages = append(messages, chatModels.NewUserMessage(userBlocks(entry.Content)))

		case chatModels.HistoryRoleAssistant:
			messages = append(messages, chatModels.Message{
				Type: chatModels.MessageTypeAssistant,
				Text: entry.Content,
			})

		case chatModels.HistoryRoleAction:
			msg, err := actionMessage(entry.Content)
			if err != nil {
				r.logger.Warn("skipping malformed action history entry", "index", i, "error", err)
				continue
			}
			if msg == nil {
				r.logger.Debug("skipping action history entry with unrecognized type", "index", i)
				continue
			}
			messages = append(messages, *msg)

		case chatModels.HistoryRoleImage:
			var image chatModels.ImageData
			if err := json.Unmarshal([]byte(entry.Content), &image); err != nil {
				r.logger.Warn("skipping malformed image history entry", "index", i, "error", err)
				continue
			}
			messages = append(messages, chatModels.Message{
				Type:  chatModels.MessageTypeImage,
				Image: &image,
			})

		default:
			r.logger.Debug("skipping history entry with unknown role", "index", i, "role", entry.Role)
		}
	}

	return messages
}

// userBlocks parses a user entry's content. Current entries persist a JSON
// block array; legacy entries persist the plain text, normalized here into
// the one-element block form live turns use.
func userBlocks(content string) []chatModels.ContentBlock {
	if strings.HasPrefix(strings.TrimSpace(content), "[") {
		var blocks []chatModels.ContentBlock
		if err := json.Unmarshal([]byte(content), &blocks); err == nil {
			return blocks
		}
	}
	return chatModels.TextBlock(content)
}

// actionMessage parses a persisted action entry. Stored in the same
// {type, data} shape the live action frames use, minus the request id.
func actionMessage(content string) (*chatModels.Message, error) {
	var p struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal([]byte(content), &p); err != nil {
		return nil, err
	}
	action, err := ParseAction(p.Type, p.Data)
	if err != nil {
		return nil, err
	}
	if action == nil {
		return nil, nil
	}
	return &chatModels.Message{Type: chatModels.MessageTypeAction, Action: action}, nil
}
