package client

import (
	"context"
	"net/http"

	chatModels "chainchat/internal/domain/models/chat"
	chatSvc "chainchat/internal/domain/services/chat"
)

// createSessionRequest is the POST /v1/sessions body.
type createSessionRequest struct {
	Context *chatModels.WireContext `json:"context,omitempty"`
}

// updateSessionRequest is the PATCH /v1/sessions/{id} body.
type updateSessionRequest struct {
	Context chatModels.WireContext `json:"context"`
}

// feedbackRequest is the POST /v1/feedback body.
type feedbackRequest struct {
	SessionID string `json:"session_id"`
	RequestID string `json:"request_id"`
	Rating    string `json:"rating"`
}

// sessionListResponse is the GET /v1/sessions body.
type sessionListResponse struct {
	Sessions []chatModels.SessionSummary `json:"sessions"`
}

// CreateSession creates a session scoped by the given context filters.
func (c *Client) CreateSession(ctx context.Context, filters *chatModels.ContextFilters) (*chatModels.Session, error) {
	body := createSessionRequest{}
	if filters != nil {
		wire := filters.ToWire()
		body.Context = &wire
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/v1/sessions", body)
	if err != nil {
		return nil, err
	}
	var session chatModels.Session
	if err := c.do(req, &session); err != nil {
		return nil, err
	}
	c.logger.Debug("session created", "session_id", session.ID)
	return &session, nil
}

// UpdateSession replaces the context filters of an existing session.
func (c *Client) UpdateSession(ctx context.Context, id string, filters *chatModels.ContextFilters) error {
	body := updateSessionRequest{}
	if filters != nil {
		body.Context = filters.ToWire()
	}
	req, err := c.newRequest(ctx, http.MethodPatch, "/v1/sessions/"+id, body)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// GetSession fetches one session including its persisted history.
func (c *Client) GetSession(ctx context.Context, id string) (*chatModels.Session, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/v1/sessions/"+id, nil)
	if err != nil {
		return nil, err
	}
	var session chatModels.Session
	if err := c.do(req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSessions returns session summaries, most recent first.
func (c *Client) ListSessions(ctx context.Context) ([]chatModels.SessionSummary, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/v1/sessions", nil)
	if err != nil {
		return nil, err
	}
	var list sessionListResponse
	if err := c.do(req, &list); err != nil {
		return nil, err
	}
	return list.Sessions, nil
}

// DeleteSession removes a session.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/v1/sessions/"+id, nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// SubmitFeedback rates one assistant response. requestID must come from the
// turn's init frame; replayed history has none, so feedback stays disabled
// there.
func (c *Client) SubmitFeedback(ctx context.Context, sessionID, requestID, rating string) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/v1/feedback", feedbackRequest{
		SessionID: sessionID,
		RequestID: requestID,
		Rating:    rating,
	})
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// Interface conformance check
var _ chatSvc.SessionAPI = (*Client)(nil)
