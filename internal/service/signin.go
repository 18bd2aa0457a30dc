package service

import (
	"context"
	"log/slog"

	domainauth "github.com/twpol/personalmissioncontrol/internal/domain/auth"
	apperrors "github.com/twpol/personalmissioncontrol/internal/errors"
	"github.com/twpol/personalmissioncontrol/internal/ports"
)

// SignInServiceOptions groups dependencies for SignInService.
type SignInServiceOptions struct {
	Principals ports.PrincipalStore
	Logger     *slog.Logger
}

// SignInService maintains the combined session principal across multiple
// concurrently-active provider identities: sign-in attaches or replaces one
// provider's identity, sign-out detaches it, and other providers' identities
// are never affected.
type SignInService struct {
	principals ports.PrincipalStore
	logger     *slog.Logger
}

// NewSignInService constructs a new SignInService.
func NewSignInService(opts SignInServiceOptions) *SignInService {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &SignInService{
		principals: opts.Principals,
		logger:     opts.Logger,
	}
}

// Authenticate reconstructs the combined principal from persisted per-session
// state. It always succeeds: absent or corrupt state yields an empty identity
// set, never an error. An empty session id is treated as an anonymous session.
func (s *SignInService) Authenticate(ctx context.Context, sessionID string) domainauth.Principal {
	if sessionID == "" {
		return domainauth.Principal{}
	}

	principal, err := s.principals.Get(ctx, sessionID)
	if err != nil {
		// Soft fail: an unreadable principal is an empty one.
		return domainauth.Principal{}
	}
	return principal
}

// SignIn attaches the given identity to the session, replacing any previous
// identity for the same provider scheme, persists the combined principal, and
// commits the identity's token properties to the account store. The
// replacement is atomic with respect to the persisted principal: the old
// identity never coexists with the new one once SignIn returns.
func (s *SignInService) SignIn(ctx context.Context, sessionID string, accounts *AccountContext, identity domainauth.Identity, props domainauth.TokenProperties) error {
	if sessionID == "" {
		return apperrors.Validation("session ID is required")
	}
	if identity.Scheme == "" || identity.Subject == "" {
		return apperrors.Validation("sign-in requires exactly one identity with scheme and subject")
	}

	principal := accounts.Principal().Replace(identity)
	if err := s.principals.Save(ctx, sessionID, principal); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeInternal, "save principal for session")
	}
	accounts.setPrincipal(principal)

	accountID := identity.AccountID()
	if err := accounts.Set(ctx, accountID, props); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeInternal, "commit account %s", accountID)
	}

	s.logger.Info("signed in", "scheme", identity.Scheme, "account_id", accountID)
	return nil
}

// SignOut detaches the identity for the given account id from the session,
// persists the combined principal, and deletes the account's stored token
// properties. Signing out an account id that is not present is a no-op.
func (s *SignInService) SignOut(ctx context.Context, sessionID string, accounts *AccountContext, accountID string) error {
	if sessionID == "" || accountID == "" {
		return nil
	}

	principal := accounts.Principal().Remove(accountID)
	if err := s.principals.Save(ctx, sessionID, principal); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeInternal, "save principal for session")
	}
	accounts.setPrincipal(principal)

	if err := accounts.Remove(ctx, accountID); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeInternal, "remove account %s", accountID)
	}

	s.logger.Info("signed out", "account_id", accountID)
	return nil
}

// SignOutAll clears the session's principal and deletes every attached
// account. Used when the whole session is discarded.
func (s *SignInService) SignOutAll(ctx context.Context, sessionID string, accounts *AccountContext) error {
	if sessionID == "" {
		return nil
	}

	for _, accountID := range accounts.Principal().AccountIDs() {
		if err := accounts.Remove(ctx, accountID); err != nil {
			return apperrors.Wrapf(err, apperrors.ErrCodeInternal, "remove account %s", accountID)
		}
	}

	if err := s.principals.Delete(ctx, sessionID); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeInternal, "delete principal for session")
	}
	accounts.setPrincipal(domainauth.Principal{})

	return nil
}
