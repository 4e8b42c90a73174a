package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/strataweb/strata/pkg/chain"
	"github.com/strataweb/strata/pkg/web"
)

// AuthProvider defines an interface for authentication providers. Different
// mechanisms (basic auth, bearer tokens, API keys) implement this interface
// to be used with the Auth middleware.
type AuthProvider interface {
	// Authenticate examines the request for credentials and validates them.
	// Returns the authenticated principal and true on success.
	Authenticate(r *web.Request) (string, bool)
}

// BasicAuthProvider validates HTTP Basic Authentication credentials against
// a predefined username -> password map.
type BasicAuthProvider struct {
	Credentials map[string]string
}

// Authenticate extracts and validates basic-auth credentials. The principal
// returned is the username.
func (p *BasicAuthProvider) Authenticate(r *web.Request) (string, bool) {
	username, password, ok := (&http.Request{Header: r.Header}).BasicAuth()
	if !ok {
		return "", false
	}
	expected, exists := p.Credentials[username]
	if !exists || password != expected {
		return "", false
	}
	return username, true
}

// BearerTokenProvider validates Bearer tokens from the Authorization header,
// either against a predefined set or with a custom validator function.
type BearerTokenProvider struct {
	ValidTokens map[string]bool
	Validator   func(token string) bool
}

// Authenticate extracts and validates the bearer token. The principal
// returned is the token itself.
func (p *BearerTokenProvider) Authenticate(r *web.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	if p.Validator != nil {
		if !p.Validator(token) {
			return "", false
		}
		return token, true
	}
	if !p.ValidTokens[token] {
		return "", false
	}
	return token, true
}

// APIKeyProvider validates API keys supplied in a header or query parameter.
type APIKeyProvider struct {
	ValidKeys map[string]bool
	Header    string // header name, e.g. "X-API-Key"
	Query     string // query parameter name, e.g. "api_key"
}

// Authenticate extracts and validates the API key. The principal returned is
// the key itself.
func (p *APIKeyProvider) Authenticate(r *web.Request) (string, bool) {
	var key string
	if p.Header != "" {
		key = r.Header.Get(p.Header)
	}
	if key == "" && p.Query != "" {
		key = r.Query.Get(p.Query)
	}
	if key == "" || !p.ValidKeys[key] {
		return "", false
	}
	return key, true
}

// principalKey is the context key for the authenticated principal.
type principalKey struct{}

// Auth creates a middleware that authenticates requests with the given
// provider. Unauthenticated requests are short-circuited with 401; on
// success the principal is stored in the request context and the chain
// proceeds.
func Auth(provider AuthProvider, logger *zap.Logger) chain.Middleware {
	return func(r *web.Request, next chain.Next) (*web.Response, error) {
		principal, ok := provider.Authenticate(r)
		if !ok {
			if logger != nil {
				logger.Warn("Authentication failed",
					zap.String("method", r.Method),
					zap.String("path", r.Path),
				)
			}
			return web.Error(http.StatusUnauthorized), nil
		}
		return next(r.WithContext(
			context.WithValue(r.Context(), principalKey{}, principal),
		))
	}
}

// Principal returns the authenticated principal stored by the Auth
// middleware, or an empty string if the request is unauthenticated.
func Principal(r *web.Request) string {
	if p, ok := r.Context().Value(principalKey{}).(string); ok {
		return p
	}
	return ""
}
