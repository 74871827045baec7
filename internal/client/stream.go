package client

import (
	"context"
	"fmt"
	"net/http"

	chatModels "chainchat/internal/domain/models/chat"
	chatSvc "chainchat/internal/domain/services/chat"
	"chainchat/internal/httputil"
)

// wireUserMessage is the outbound message shape.
type wireUserMessage struct {
	Role    string                    `json:"role"`
	Content []chatModels.ContentBlock `json:"content"`
}

// turnStreamRequest is the POST /v1/chat body that opens one streamed turn.
type turnStreamRequest struct {
	Messages  []wireUserMessage       `json:"messages"`
	SessionID string                  `json:"session_id"`
	Stream    bool                    `json:"stream"`
	Context   *chatModels.WireContext `json:"context,omitempty"`
}

// OpenStream opens the long-lived event stream for one chat turn. The
// returned channel delivers frames in arrival order and is closed when the
// stream ends; a frame with Err set is always the last one. Cancelling ctx
// aborts the request.
func (c *Client) OpenStream(ctx context.Context, turn *chatSvc.TurnRequest) (<-chan chatSvc.StreamFrame, error) {
	body := turnStreamRequest{
		Messages:  []wireUserMessage{{Role: "user", Content: turn.Message.Content}},
		SessionID: turn.SessionID,
		Stream:    true,
	}
	if turn.Context != nil {
		wire := turn.Context.ToWire()
		body.Context = &wire
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/v1/chat", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer httputil.DrainAndClose(resp.Body)
		return nil, httputil.ErrorFromResponse(resp)
	}

	frames := make(chan chatSvc.StreamFrame)
	go c.readFrames(ctx, resp, frames)
	return frames, nil
}
