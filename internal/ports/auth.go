package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"

	domainauth "github.com/twpol/personalmissioncontrol/internal/domain/auth"
)

// AccountStore persists account token material keyed by composite account id.
// Get reports a missing account with the implementing adapter's ErrNotFound
// sentinel; Delete on a missing account is a no-op.
type AccountStore interface {
	Get(ctx context.Context, accountID string) (domainauth.TokenProperties, error)
	Put(ctx context.Context, accountID string, props domainauth.TokenProperties) error
	Delete(ctx context.Context, accountID string) error
	// List returns the ids of all persisted accounts.
	List(ctx context.Context) ([]string, error)
}

// PrincipalStore persists the combined per-session principal.
type PrincipalStore interface {
	Get(ctx context.Context, sessionID string) (domainauth.Principal, error)
	Save(ctx context.Context, sessionID string, principal domainauth.Principal) error
	Delete(ctx context.Context, sessionID string) error
}

// BeginInput carries inputs for initiating an auth flow.
type BeginInput struct {
	Scheme      string
	RedirectURL string
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Scheme string
	Code   string
	Nonce  string
}

// ExchangeResult is the outcome of a completed provider flow: the verified
// identity plus the token property bag to commit for its account.
type ExchangeResult struct {
	Identity domainauth.Identity
	Props    domainauth.TokenProperties
}

// AuthProvider initiates and completes an authentication flow against an
// external OAuth provider.
type AuthProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque
	// state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow and returns the authenticated identity
	// with its token properties.
	Exchange(ctx context.Context, in ExchangeInput) (ExchangeResult, error)
}
