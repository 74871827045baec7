package client

import (
	"bufio"
	"context"
	"net/http"
	"strings"

	chatModels "chainchat/internal/domain/models/chat"
	chatSvc "chainchat/internal/domain/services/chat"
)

// scanBufSize bounds a single stream line (1MB). Image and action payloads
// arrive as one data line each.
const scanBufSize = 1 << 20

// readFrames parses the text/event-stream response body into frames and
// sends them on out, closing it when the stream ends. Comment lines
// (": keepalive") and frames without a payload never reach the consumer;
// they are keep-alive noise.
func (c *Client) readFrames(ctx context.Context, resp *http.Response, out chan<- chatSvc.StreamFrame) {
	defer close(out)
	defer func() { _ = resp.Body.Close() }()

	send := func(frame chatSvc.StreamFrame) bool {
		select {
		case <-ctx.Done():
			return false
		case out <- frame:
			return true
		}
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), scanBufSize)

	var eventName string
	var dataLines []string

	dispatch := func() bool {
		defer func() {
			eventName = ""
			dataLines = nil
		}()
		if eventName == "" || len(dataLines) == 0 {
			return true
		}
		frame := chatModels.Frame{
			Event: eventName,
			Data:  strings.Join(dataLines, "\n"),
		}
		return send(chatSvc.StreamFrame{Frame: &frame})
	}

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == "":
			// Blank line ends the current frame.
			if !dispatch() {
				return
			}
		case strings.HasPrefix(line, ":"):
			// SSE comment, used by the server as keep-alive.
		case strings.HasPrefix(line, "event:"):
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			dataLines = append(dataLines, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		default:
			c.logger.Debug("ignoring unparseable stream line", "line", line)
		}
	}

	if err := scanner.Err(); err != nil {
		// Read failures surface as the stream's final frame; the
		// controller decides whether this was a cancellation.
		if ctx.Err() != nil {
			send(chatSvc.StreamFrame{Err: context.Cause(ctx)})
			return
		}
		send(chatSvc.StreamFrame{Err: err})
		return
	}

	// Stream closed mid-frame without a trailing blank line: deliver what
	// we have rather than dropping a complete payload.
	dispatch()
}

// Interface conformance check
var _ chatSvc.StreamTransport = (*Client)(nil)
