// Package httpauth holds the authentication strategies used by the HTTP import resolver.
package httpauth

import (
	"context"
	"net/http"
)

// Authenticator decorates an outgoing import request with credentials.
type Authenticator interface {
	// Authenticate modifies req in place.
	Authenticate(req *http.Request) error

	// AuthenticateWithContext is Authenticate that refuses to run on a cancelled context.
	AuthenticateWithContext(ctx context.Context, req *http.Request) error

	// Name is used in log records.
	Name() string
}

func applyAuthWithContext(
	ctx context.Context,
	req *http.Request,
	authFn func(*http.Request) error,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return authFn(req.WithContext(ctx))
}
