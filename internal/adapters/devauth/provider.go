// Package devauth provides a simple, config-driven AuthProvider for local
// development. It short-circuits the OAuth flow by redirecting straight back
// to the scheme's own callback with locally generated state; Exchange ignores
// the code and returns the configured identity with a fake token.
package devauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"

	domainauth "github.com/twpol/personalmissioncontrol/internal/domain/auth"
	"github.com/twpol/personalmissioncontrol/internal/ports"
)

// Config controls the dev auth provider behavior.
type Config struct {
	Scheme  string
	Subject string
	Name    string
	Email   string
}

// Provider implements ports.AuthProvider for local development.
type Provider struct {
	identity domainauth.Identity
}

var _ ports.AuthProvider = (*Provider)(nil)

// NewProvider constructs a dev auth provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.Scheme == "" {
		return nil, errors.New("dev auth: Scheme is required")
	}
	if cfg.Subject == "" {
		return nil, errors.New("dev auth: Subject is required")
	}
	return &Provider{
		identity: domainauth.Identity{
			Scheme:  cfg.Scheme,
			Subject: cfg.Subject,
			Name:    cfg.Name,
			Email:   cfg.Email,
		},
	}, nil
}

// Begin returns the scheme's own callback URL with locally generated state.
func (p *Provider) Begin(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
	state, err := randomString(24)
	if err != nil {
		return "", "", "", err
	}
	authURL := "/auth/" + p.identity.Scheme + "/callback?code=dev&state=" + state
	return authURL, state, "", nil
}

// Exchange ignores the code and returns the configured identity. The token
// carries no expiry or refresh token, so the refresh gate treats it as
// permissively valid forever.
func (p *Provider) Exchange(_ context.Context, _ ports.ExchangeInput) (ports.ExchangeResult, error) {
	return ports.ExchangeResult{
		Identity: p.identity,
		Props: domainauth.TokenProperties{
			domainauth.PropAccessToken: "dev-access-token",
			domainauth.PropTokenType:   "Bearer",
		},
	}, nil
}

func randomString(n int) (string, error) {
	b := make([]byte, (n*3+3)/4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	if len(s) > n {
		s = s[:n]
	}
	return s, nil
}
