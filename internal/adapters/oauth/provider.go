package oauth

// Package oauth provides the OAuth2/OIDC authentication adapter for external
// account providers. Each configured provider scheme gets one Provider,
// resolved through an explicit Registry rather than runtime reflection.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	domainauth "github.com/twpol/personalmissioncontrol/internal/domain/auth"
	"github.com/twpol/personalmissioncontrol/internal/ports"
)

// ProviderConfig holds the per-scheme OAuth configuration. Endpoints come
// either from OIDC discovery (DiscoveryURL) or explicit AuthURL/TokenURL.
type ProviderConfig struct {
	Scheme       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string

	// DiscoveryURL enables OIDC discovery and ID-token verification.
	DiscoveryURL string

	// AuthURL/TokenURL configure a plain OAuth2 provider without discovery.
	AuthURL  string
	TokenURL string

	// UserInfoURL is fetched with the access token to resolve the identity
	// when the provider issues no ID token.
	UserInfoURL string

	HTTPClient *http.Client // Optional, defaults to a 30s-timeout client
}

// Provider implements ports.AuthProvider for one provider scheme.
type Provider struct {
	scheme      string
	config      *oauth2.Config
	userInfoURL string
	httpClient  *http.Client

	// go-oidc provider and verifier, set only for discovery-based schemes
	oidcProvider *gooidc.Provider
	verifier     *gooidc.IDTokenVerifier
}

var _ ports.AuthProvider = (*Provider)(nil)

// NewProvider creates a Provider for one scheme. Discovery, when configured,
// is fetched once at construction time.
func NewProvider(cfg ProviderConfig) (*Provider, error) {
	if cfg.Scheme == "" {
		return nil, errors.New("scheme is required")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if cfg.ClientSecret == "" {
		return nil, errors.New("client secret is required")
	}
	if cfg.RedirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	p := &Provider{
		scheme:      cfg.Scheme,
		userInfoURL: cfg.UserInfoURL,
		httpClient:  httpClient,
	}

	var endpoint oauth2.Endpoint
	switch {
	case cfg.DiscoveryURL != "":
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		issuer := strings.TrimSuffix(cfg.DiscoveryURL, "/")
		issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
		op, err := gooidc.NewProvider(ctx, issuer)
		if err != nil {
			return nil, fmt.Errorf("oidc discovery for %s: %w", cfg.Scheme, err)
		}
		p.oidcProvider = op
		p.verifier = op.Verifier(&gooidc.Config{ClientID: cfg.ClientID})
		endpoint = op.Endpoint()
	case cfg.AuthURL != "" && cfg.TokenURL != "":
		endpoint = oauth2.Endpoint{AuthURL: cfg.AuthURL, TokenURL: cfg.TokenURL}
	default:
		return nil, fmt.Errorf("scheme %s needs either a discovery URL or auth and token URLs", cfg.Scheme)
	}

	p.config = &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       strings.Fields(cfg.Scope),
		Endpoint:     endpoint,
	}

	return p, nil
}

// Scheme returns the provider scheme name this adapter serves.
func (p *Provider) Scheme() string { return p.scheme }

// ClientID returns the configured OAuth client id.
func (p *Provider) ClientID() string { return p.config.ClientID }

// ClientSecret returns the configured OAuth client secret.
func (p *Provider) ClientSecret() string { return p.config.ClientSecret }

// TokenURL returns the provider's token endpoint, discovered or configured.
func (p *Provider) TokenURL() string { return p.config.Endpoint.TokenURL }

func (p *Provider) Begin(_ context.Context, in ports.BeginInput) (string, string, string, error) {
	state, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}

	nonce, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}

	opts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("response_type", "code"),
	}
	if p.verifier != nil {
		opts = append(opts,
			oauth2.SetAuthURLParam("nonce", nonce),
			oauth2.SetAuthURLParam("prompt", "select_account"),
		)
	}
	authURL := p.config.AuthCodeURL(state, opts...)

	return authURL, state, nonce, nil
}

func (p *Provider) Exchange(ctx context.Context, in ports.ExchangeInput) (ports.ExchangeResult, error) {
	if in.Code == "" {
		return ports.ExchangeResult{}, errors.New("authorization code is required")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	token, err := p.config.Exchange(ctx, in.Code)
	if err != nil {
		return ports.ExchangeResult{}, fmt.Errorf("exchange code for token: %w", err)
	}

	identity, err := p.resolveIdentity(ctx, token, in.Nonce)
	if err != nil {
		return ports.ExchangeResult{}, err
	}

	return ports.ExchangeResult{
		Identity: identity,
		Props:    tokenToProps(token),
	}, nil
}

// resolveIdentity establishes who signed in: from the verified ID token when
// the scheme uses OIDC, otherwise from the userinfo endpoint.
func (p *Provider) resolveIdentity(ctx context.Context, token *oauth2.Token, expectedNonce string) (domainauth.Identity, error) {
	if p.verifier != nil {
		return p.identityFromIDToken(ctx, token, expectedNonce)
	}
	if p.userInfoURL != "" {
		return p.identityFromUserInfo(ctx, token.AccessToken)
	}
	return domainauth.Identity{}, fmt.Errorf("scheme %s has no identity source configured", p.scheme)
}

// idTokenClaims is the subset of OIDC claims used to build an identity.
type idTokenClaims struct {
	Sub               string `json:"sub"`
	Name              string `json:"name"`
	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email"`
	Nonce             string `json:"nonce"`
}

func (p *Provider) identityFromIDToken(ctx context.Context, token *oauth2.Token, expectedNonce string) (domainauth.Identity, error) {
	rawID, ok := token.Extra("id_token").(string)
	if !ok || rawID == "" {
		return domainauth.Identity{}, errors.New("missing id_token in token response")
	}

	idToken, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("verify id_token: %w", err)
	}

	var claims idTokenClaims
	if claimsErr := idToken.Claims(&claims); claimsErr != nil {
		return domainauth.Identity{}, fmt.Errorf("parse id_token claims: %w", claimsErr)
	}
	if expectedNonce != "" && claims.Nonce != expectedNonce {
		return domainauth.Identity{}, errors.New("invalid nonce")
	}
	if claims.Sub == "" {
		return domainauth.Identity{}, errors.New("id_token missing sub claim")
	}

	return domainauth.Identity{
		Scheme:  p.scheme,
		Subject: claims.Sub,
		Name:    claims.Name,
		Email:   firstNonEmpty(claims.Email, claims.PreferredUsername),
	}, nil
}

// userInfoClaims covers the common shapes of non-OIDC userinfo payloads.
type userInfoClaims struct {
	Sub      string `json:"sub"`
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

func (p *Provider) identityFromUserInfo(ctx context.Context, accessToken string) (domainauth.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return domainauth.Identity{}, fmt.Errorf("userinfo endpoint returned %d", resp.StatusCode)
	}

	var claims userInfoClaims
	if decodeErr := json.NewDecoder(resp.Body).Decode(&claims); decodeErr != nil {
		return domainauth.Identity{}, fmt.Errorf("decode userinfo: %w", decodeErr)
	}

	subject := claims.Sub
	if subject == "" && claims.Username != "" {
		subject = claims.Username
	}
	if subject == "" && claims.ID != 0 {
		subject = fmt.Sprintf("%d", claims.ID)
	}
	if subject == "" {
		return domainauth.Identity{}, errors.New("userinfo payload has no usable subject")
	}

	return domainauth.Identity{
		Scheme:  p.scheme,
		Subject: subject,
		Name:    firstNonEmpty(claims.Name, claims.Username),
		Email:   claims.Email,
	}, nil
}

// tokenToProps converts an exchanged token into the stored property bag.
func tokenToProps(token *oauth2.Token) domainauth.TokenProperties {
	props := domainauth.TokenProperties{
		domainauth.PropAccessToken: token.AccessToken,
	}
	if token.RefreshToken != "" {
		props[domainauth.PropRefreshToken] = token.RefreshToken
	}
	if token.TokenType != "" {
		props[domainauth.PropTokenType] = token.TokenType
	}
	if !token.Expiry.IsZero() {
		props.SetExpiresAt(token.Expiry)
	}
	return props
}

// generateRandomString generates a cryptographically secure URL-safe random
// string of exact length.
func generateRandomString(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	nBytes := (length*3 + 3) / 4
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	if len(s) < length {
		extra := make([]byte, 1)
		if _, err := rand.Read(extra); err != nil {
			return "", err
		}
		s += base64.RawURLEncoding.EncodeToString(extra)
	}
	return s[:length], nil
}

// firstNonEmpty returns the first non-empty string from vals.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
