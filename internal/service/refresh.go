package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	domainauth "github.com/twpol/personalmissioncontrol/internal/domain/auth"
	"github.com/twpol/personalmissioncontrol/internal/ports"
)

// DefaultRefreshMargin is the safety margin before token expiry at which a
// refresh is attempted.
const DefaultRefreshMargin = 5 * time.Minute

// TokenEndpoint holds the per-scheme credentials for the refresh-token grant.
type TokenEndpoint struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// TokenGateOptions groups dependencies for TokenGate.
type TokenGateOptions struct {
	// Endpoints maps provider scheme name to its token endpoint configuration.
	Endpoints map[string]TokenEndpoint

	// HTTPClient is used for the token-endpoint exchange. Defaults to a
	// client with a 30 second timeout.
	HTTPClient *http.Client

	// Margin is the refresh safety margin. Defaults to DefaultRefreshMargin.
	Margin time.Duration

	// Now is the time source, overridable in tests. Defaults to time.Now.
	Now func() time.Time

	Logger *slog.Logger
}

// TokenGate hands out usable credentials for a provider scheme, refreshing
// near-expired access tokens synchronously before returning them. A failed
// refresh deletes the account (de-authenticates that provider) and reports
// unavailability; it is never retried and never surfaced as an error.
type TokenGate struct {
	endpoints map[string]TokenEndpoint
	client    *http.Client
	margin    time.Duration
	now       func() time.Time
	logger    *slog.Logger

	// group collapses concurrent refreshes for the same account so a refresh
	// token is exchanged at most once even when requests race.
	group singleflight.Group
}

// NewTokenGate constructs a new TokenGate.
func NewTokenGate(opts TokenGateOptions) *TokenGate {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Margin <= 0 {
		opts.Margin = DefaultRefreshMargin
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &TokenGate{
		endpoints: opts.Endpoints,
		client:    opts.HTTPClient,
		margin:    opts.Margin,
		now:       opts.Now,
		logger:    opts.Logger,
	}
}

// Credentials returns usable credentials for the given provider scheme, or
// ok=false when the session has no account for the scheme, the account is
// absent from storage, or a required refresh failed. A refresh failure
// de-authenticates the provider as a side effect; callers must treat false
// as "user must re-authenticate", not as a transient error.
func (g *TokenGate) Credentials(ctx context.Context, accounts *AccountContext, scheme string) (ports.Credentials, bool) {
	accountID, ok := accounts.AccountIDFor(scheme)
	if !ok {
		return ports.Credentials{}, false
	}
	return g.CredentialsForAccount(ctx, accounts, accountID)
}

// CredentialsForAccount is Credentials keyed directly by account id, for
// callers (such as the background updater) that enumerate accounts without a
// session principal.
func (g *TokenGate) CredentialsForAccount(ctx context.Context, accounts *AccountContext, accountID string) (ports.Credentials, bool) {
	v, err, _ := g.group.Do(accountID, func() (interface{}, error) {
		props, ok := g.freshProps(ctx, accounts, accountID)
		if !ok {
			return nil, errUnavailable
		}
		return props, nil
	})
	if err != nil {
		return ports.Credentials{}, false
	}

	props := v.(domainauth.TokenProperties)
	tokenType := props.TokenType()
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return ports.Credentials{
		AccountID:   accountID,
		TokenType:   tokenType,
		AccessToken: props.AccessToken(),
	}, true
}

// errUnavailable is the internal singleflight signal for "no credentials".
// It never escapes Credentials.
var errUnavailable = fmt.Errorf("credentials unavailable")

// freshProps loads the account's token properties and refreshes them when
// they are within the safety margin of expiry. Tokens without a complete
// expiry/refresh-token pair are permissively treated as valid indefinitely.
func (g *TokenGate) freshProps(ctx context.Context, accounts *AccountContext, accountID string) (domainauth.TokenProperties, bool) {
	props, ok := accounts.Load(ctx, accountID)
	if !ok {
		return nil, false
	}

	if !props.NeedsRefresh(g.now(), g.margin) {
		return props, true
	}

	refreshed, err := g.refresh(ctx, accountID, props)
	if err != nil {
		// Terminal: delete the account rather than retry. Some providers
		// invalidate a refresh token on first use, so a rejected exchange
		// means this account cannot recover without a new sign-in.
		g.logger.Warn("token refresh failed, removing account",
			"account_id", accountID, "error", err)
		if removeErr := accounts.Remove(ctx, accountID); removeErr != nil {
			g.logger.Error("failed to remove account after refresh failure",
				"account_id", accountID, "error", removeErr)
		}
		return nil, false
	}

	if setErr := accounts.Set(ctx, accountID, refreshed); setErr != nil {
		g.logger.Error("failed to persist refreshed token",
			"account_id", accountID, "error", setErr)
		return nil, false
	}

	g.logger.Info("token refreshed", "account_id", accountID)
	return refreshed, true
}

// refreshResponse is the token endpoint's JSON reply to a refresh-token grant.
type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    *int64 `json:"expires_in"`
}

// refresh performs the synchronous refresh-token exchange and returns the
// updated property bag. Any non-success status, malformed payload, or
// transport failure is an error; the caller handles de-authentication.
func (g *TokenGate) refresh(ctx context.Context, accountID string, props domainauth.TokenProperties) (domainauth.TokenProperties, error) {
	scheme := domainauth.SchemeOf(accountID)
	endpoint, ok := g.endpoints[scheme]
	if !ok {
		return nil, fmt.Errorf("no token endpoint configured for scheme %q", scheme)
	}

	form := url.Values{
		"client_id":     {endpoint.ClientID},
		"client_secret": {endpoint.ClientSecret},
		"grant_type":    {"refresh_token"},
		"refresh_token": {props.RefreshToken()},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refresh exchange: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("refresh exchange: token endpoint returned %d", resp.StatusCode)
	}

	var body refreshResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&body); decodeErr != nil {
		return nil, fmt.Errorf("decode refresh response: %w", decodeErr)
	}
	if body.AccessToken == "" || body.RefreshToken == "" {
		return nil, fmt.Errorf("refresh response missing token fields")
	}

	updated := props.Clone()
	updated[domainauth.PropAccessToken] = body.AccessToken
	updated[domainauth.PropRefreshToken] = body.RefreshToken
	if body.TokenType != "" {
		updated[domainauth.PropTokenType] = body.TokenType
	}
	// Keep the previous expiry when the endpoint does not report a lifetime.
	if body.ExpiresIn != nil {
		updated.SetExpiresAt(g.now().Add(time.Duration(*body.ExpiresIn) * time.Second))
	}
	return updated, nil
}
