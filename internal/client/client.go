package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"chainchat/internal/httputil"
)

const (
	// DefaultTimeout bounds non-streaming API calls. Stream requests use
	// no client timeout; their lifetime is the turn's.
	DefaultTimeout = 30 * time.Second

	headerAppID = "X-App-Id"
)

// Client talks to the chat service: session CRUD, feedback, and opening the
// per-turn event stream. Safe for concurrent use.
type Client struct {
	baseURL      string
	apiKey       string
	appID        string
	httpClient   *http.Client
	streamClient *http.Client
	logger       *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for non-streaming calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a chat service client. appID identifies the calling tenant and
// is sent on every request.
func New(baseURL, apiKey, appID string, opts ...Option) *Client {
	c := &Client{
		baseURL:      baseURL,
		apiKey:       apiKey,
		appID:        appID,
		httpClient:   &http.Client{Timeout: DefaultTimeout},
		streamClient: &http.Client{}, // no timeout: streams are long-lived
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// newRequest builds an authenticated JSON request against the service.
func (c *Client) newRequest(ctx context.Context, method, path string, payload interface{}) (*http.Request, error) {
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.appID != "" {
		req.Header.Set(headerAppID, c.appID)
	}
	return req, nil
}

// do executes a non-streaming request and decodes a JSON response into dest
// (dest may be nil for calls that only need the status).
func (c *Client) do(req *http.Request, dest interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer httputil.DrainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return httputil.ErrorFromResponse(resp)
	}
	if dest == nil {
		return nil
	}
	return httputil.DecodeJSON(resp, dest)
}
