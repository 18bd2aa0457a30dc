package auth

// Package auth contains domain-level types for accounts, token material, and
// the combined session principal. It is pure and free of framework/adapter
// concerns.

import (
	"strings"
	"time"
)

// Token property keys stored in an Account's property bag.
const (
	PropAccessToken  = "access_token"
	PropRefreshToken = "refresh_token"
	PropExpiresAt    = "expires_at"
	PropTokenType    = "token_type"
)

// TokenProperties is the flat string-keyed bag of token material for one
// account: access token, refresh token, expiry, token type, plus any extra
// provider-specific values.
type TokenProperties map[string]string

// Clone returns an independent copy of the property bag.
func (p TokenProperties) Clone() TokenProperties {
	out := make(TokenProperties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// AccessToken returns the access token, or empty string when absent.
func (p TokenProperties) AccessToken() string { return p[PropAccessToken] }

// RefreshToken returns the refresh token, or empty string when absent.
func (p TokenProperties) RefreshToken() string { return p[PropRefreshToken] }

// TokenType returns the token type (e.g. "Bearer"), or empty string when absent.
func (p TokenProperties) TokenType() string { return p[PropTokenType] }

// ExpiresAt returns the parsed expiry timestamp. The second return value is
// false when the property is absent or not valid RFC 3339.
func (p TokenProperties) ExpiresAt() (time.Time, bool) {
	raw, ok := p[PropExpiresAt]
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// SetExpiresAt stores the expiry timestamp in RFC 3339 form.
func (p TokenProperties) SetExpiresAt(t time.Time) {
	p[PropExpiresAt] = t.UTC().Format(time.RFC3339)
}

// Refreshable reports whether the token carries both an expiry and a refresh
// token. A token missing either is treated as non-expiring and non-refreshable.
func (p TokenProperties) Refreshable() bool {
	_, hasExpiry := p.ExpiresAt()
	return hasExpiry && p.RefreshToken() != ""
}

// NeedsRefresh reports whether the token should be refreshed before use:
// it is refreshable and its expiry is within margin of now. Tokens with
// unknown expiry are permissively treated as valid.
func (p TokenProperties) NeedsRefresh(now time.Time, margin time.Duration) bool {
	if !p.Refreshable() {
		return false
	}
	expiresAt, _ := p.ExpiresAt()
	return expiresAt.Sub(now) <= margin
}

// Account is one authenticated external identity with its token material.
type Account struct {
	ID     string          `json:"id"`
	Scheme string          `json:"scheme"`
	Props  TokenProperties `json:"props"`
}

// AccountID builds the composite account identifier for a provider scheme and
// provider subject: "{scheme}:{subject}".
func AccountID(scheme, subject string) string {
	return scheme + ":" + subject
}

// SchemeOf returns the provider scheme portion of a composite account id, or
// empty string when the id has no scheme prefix.
func SchemeOf(accountID string) string {
	scheme, _, ok := strings.Cut(accountID, ":")
	if !ok {
		return ""
	}
	return scheme
}

// Identity is one provider identity attached to a session principal.
type Identity struct {
	Scheme  string `json:"scheme"`
	Subject string `json:"subject"`
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
}

// AccountID returns the composite account identifier for this identity.
func (i Identity) AccountID() string { return AccountID(i.Scheme, i.Subject) }

// Principal is the union of all provider identities attached to one browser
// session. At most one identity per provider scheme is present.
type Principal struct {
	Identities []Identity `json:"identities"`
}

// Identity returns the identity for the given provider scheme, if present.
func (p Principal) Identity(scheme string) (Identity, bool) {
	for _, id := range p.Identities {
		if id.Scheme == scheme {
			return id, true
		}
	}
	return Identity{}, false
}

// AccountIDs returns the composite account ids of all attached identities.
func (p Principal) AccountIDs() []string {
	ids := make([]string, 0, len(p.Identities))
	for _, id := range p.Identities {
		ids = append(ids, id.AccountID())
	}
	return ids
}

// Replace returns a principal with the given identity attached, dropping any
// previous identity for the same provider scheme. The replacement is
// all-or-nothing: the old identity never coexists with the new one.
func (p Principal) Replace(identity Identity) Principal {
	out := Principal{Identities: make([]Identity, 0, len(p.Identities)+1)}
	for _, id := range p.Identities {
		if id.Scheme != identity.Scheme {
			out.Identities = append(out.Identities, id)
		}
	}
	out.Identities = append(out.Identities, identity)
	return out
}

// Remove returns a principal without the identity matching the given account
// id. Removing an absent account id is a no-op.
func (p Principal) Remove(accountID string) Principal {
	out := Principal{Identities: make([]Identity, 0, len(p.Identities))}
	for _, id := range p.Identities {
		if id.AccountID() != accountID {
			out.Identities = append(out.Identities, id)
		}
	}
	return out
}
