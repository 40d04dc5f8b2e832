package httpauth

import (
	"context"
	"maps"
	"net/http"
)

// HeaderAuth sets a fixed group of headers on each request, covering bearer tokens and API keys.
type HeaderAuth struct {
	Headers map[string]string
}

// NewHeaderAuth copies headers, so later changes to the map do not leak into requests.
func NewHeaderAuth(headers map[string]string) *HeaderAuth {
	return &HeaderAuth{Headers: maps.Clone(headers)}
}

// NewBearerAuth is a HeaderAuth carrying "Authorization: Bearer <token>".
func NewBearerAuth(token string) *HeaderAuth {
	return &HeaderAuth{Headers: map[string]string{"Authorization": "Bearer " + token}}
}

func (h *HeaderAuth) Authenticate(req *http.Request) error {
	for key, value := range h.Headers {
		req.Header.Set(key, value)
	}
	return nil
}

func (h *HeaderAuth) AuthenticateWithContext(ctx context.Context, req *http.Request) error {
	return applyAuthWithContext(ctx, req, h.Authenticate)
}

func (h *HeaderAuth) Name() string {
	return "Header"
}
