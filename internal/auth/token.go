package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"chainchat/internal/domain"
)

// expiryWarnWindow is how close to expiry a token can be before opening a
// stream triggers a warning.
const expiryWarnWindow = 5 * time.Minute

// TokenInspector inspects the configured bearer token before expensive
// calls. Claims are read without verification by default - the service is
// the authority on token validity - with optional JWKS verification when an
// endpoint is configured.
type TokenInspector struct {
	jwks   keyfunc.Keyfunc // nil unless a JWKS URL was configured
	logger *slog.Logger
}

// NewTokenInspector creates a TokenInspector. jwksURL may be empty; when set,
// keys are fetched from it and cached per HTTP cache headers.
func NewTokenInspector(ctx context.Context, jwksURL string, logger *slog.Logger) (*TokenInspector, error) {
	if logger == nil {
		logger = slog.Default()
	}
	inspector := &TokenInspector{logger: logger}

	if jwksURL != "" {
		jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
		if err != nil {
			return nil, fmt.Errorf("create JWKS client: %w", err)
		}
		inspector.jwks = jwks
		logger.Info("token verification enabled", "jwks_url", jwksURL)
	}
	return inspector, nil
}

// CheckToken warns when the bearer token is expired or about to expire, and
// verifies the signature when a JWKS endpoint is configured. A token that is
// not a JWT at all (an opaque API key) passes silently.
func (t *TokenInspector) CheckToken(tokenString string) error {
	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, &claims); err != nil {
		// Opaque key, not a JWT - nothing to inspect.
		return nil
	}

	if claims.ExpiresAt != nil {
		remaining := time.Until(claims.ExpiresAt.Time)
		switch {
		case remaining <= 0:
			t.logger.Warn("bearer token is expired", "expired_at", claims.ExpiresAt.Time)
			return domain.ErrUnauthorized
		case remaining < expiryWarnWindow:
			t.logger.Warn("bearer token expires soon", "expires_in", remaining.Round(time.Second))
		}
	}

	if t.jwks != nil {
		return t.verify(tokenString)
	}
	return nil
}

// verify validates the token signature against the configured JWKS.
func (t *TokenInspector) verify(tokenString string) error {
	token, err := jwt.Parse(tokenString, t.jwks.Keyfunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.ErrUnauthorized
		}
		t.logger.Warn("token verification failed", "error", err)
		return domain.ErrUnauthorized
	}
	if !token.Valid {
		return domain.ErrUnauthorized
	}

	// Prevent algorithm confusion - allow only RS256 or ES256.
	switch token.Method.Alg() {
	case "RS256", "ES256":
	default:
		t.logger.Warn("token uses unexpected algorithm", "algorithm", token.Method.Alg())
		return domain.ErrUnauthorized
	}
	return nil
}
