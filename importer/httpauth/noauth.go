package httpauth

import (
	"context"
	"net/http"
)

// NoAuth sends import requests without credentials. It is the HTTP resolver's default.
type NoAuth struct{}

func NewNoAuth() *NoAuth {
	return &NoAuth{}
}

func (n *NoAuth) Authenticate(*http.Request) error {
	return nil
}

func (n *NoAuth) AuthenticateWithContext(ctx context.Context, req *http.Request) error {
	return applyAuthWithContext(ctx, req, n.Authenticate)
}

func (n *NoAuth) Name() string {
	return "None"
}
