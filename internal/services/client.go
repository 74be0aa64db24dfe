package services

import (
	"context"
	"net/http"

	"github.com/desertthunder/studyx/internal/shared"
	"golang.org/x/oauth2"
)

// NewHTTPClient builds the client used for backend calls.
//
// When cfg.Token is set every request carries it as a bearer token through an [oauth2.StaticTokenSource];
// the backend's own auth flow stays outside studyx.
func NewHTTPClient(ctx context.Context, cfg shared.BackendConfig) *http.Client {
	client := &http.Client{}
	if cfg.Token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"})
		client = oauth2.NewClient(ctx, src)
	}

	client.Timeout = cfg.Timeout()
	return client
}
