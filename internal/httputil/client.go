package httputil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"chainchat/internal/domain"
)

// maxResponseBody caps how much of a response body we read (10MB).
const maxResponseBody = 10 << 20

// DecodeJSON decodes a JSON response body into dest, limiting the body size.
// The caller keeps ownership of resp.Body.
func DecodeJSON(resp *http.Response, dest interface{}) error {
	decoder := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody))
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON response: %w", err)
	}
	return nil
}

// problemDetail is the subset of an RFC 7807 problem document we surface.
type problemDetail struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// ErrorFromResponse builds a *domain.APIError from a non-2xx response,
// parsing a problem document when the service sent one.
func ErrorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))

	var problem problemDetail
	if err := json.Unmarshal(body, &problem); err == nil {
		detail := problem.Detail
		if detail == "" {
			detail = problem.Title
		}
		if detail != "" {
			return &domain.APIError{Status: resp.StatusCode, Detail: detail}
		}
	}
	return &domain.APIError{Status: resp.StatusCode, Detail: string(body)}
}

// DrainAndClose consumes the remainder of a response body and closes it so
// the underlying connection can be reused.
func DrainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxResponseBody))
	_ = body.Close()
}
