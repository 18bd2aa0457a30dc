package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenProperties_ExpiresAt(t *testing.T) {
	props := TokenProperties{}
	_, ok := props.ExpiresAt()
	assert.False(t, ok)

	props[PropExpiresAt] = "not-a-timestamp"
	_, ok = props.ExpiresAt()
	assert.False(t, ok)

	when := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	props.SetExpiresAt(when)
	got, ok := props.ExpiresAt()
	require.True(t, ok)
	assert.True(t, got.Equal(when))
}

func TestTokenProperties_Refreshable(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name  string
		props TokenProperties
		want  bool
	}{
		{"empty", TokenProperties{}, false},
		{"access token only", TokenProperties{PropAccessToken: "at"}, false},
		{
			"refresh token without expiry",
			TokenProperties{PropRefreshToken: "rt"},
			false,
		},
		{
			"expiry without refresh token",
			TokenProperties{PropExpiresAt: now.Format(time.RFC3339)},
			false,
		},
		{
			"both present",
			TokenProperties{PropRefreshToken: "rt", PropExpiresAt: now.Format(time.RFC3339)},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.props.Refreshable())
		})
	}
}

func TestTokenProperties_NeedsRefresh(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	margin := 5 * time.Minute

	tests := []struct {
		name      string
		expiresIn time.Duration
		want      bool
	}{
		{"far from expiry", time.Hour, false},
		{"just outside margin", 5*time.Minute + time.Second, false},
		{"inside margin", 4 * time.Minute, true},
		{"already expired", -time.Minute, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			props := TokenProperties{PropRefreshToken: "rt"}
			props.SetExpiresAt(now.Add(tt.expiresIn))
			assert.Equal(t, tt.want, props.NeedsRefresh(now, margin))
		})
	}

	// Unknown expiry is permissively valid, never refreshed.
	props := TokenProperties{PropAccessToken: "at"}
	assert.False(t, props.NeedsRefresh(now, margin))
}

func TestAccountID(t *testing.T) {
	assert.Equal(t, "microsoft:abc123", AccountID("microsoft", "abc123"))
	assert.Equal(t, "microsoft", SchemeOf("microsoft:abc123"))
	assert.Equal(t, "", SchemeOf("no-scheme-prefix"))
}

func TestPrincipal_Replace(t *testing.T) {
	var p Principal

	p = p.Replace(Identity{Scheme: "microsoft", Subject: "user-1"})
	p = p.Replace(Identity{Scheme: "exist", Subject: "user-2"})
	require.Len(t, p.Identities, 2)

	// Re-authentication for the same provider replaces, never duplicates.
	p = p.Replace(Identity{Scheme: "microsoft", Subject: "user-1", Email: "u@example.com"})
	require.Len(t, p.Identities, 2)

	id, ok := p.Identity("microsoft")
	require.True(t, ok)
	assert.Equal(t, "u@example.com", id.Email)

	// A new subject on the same provider also replaces the previous one.
	p = p.Replace(Identity{Scheme: "microsoft", Subject: "user-9"})
	require.Len(t, p.Identities, 2)
	id, ok = p.Identity("microsoft")
	require.True(t, ok)
	assert.Equal(t, "user-9", id.Subject)
}

func TestPrincipal_Remove(t *testing.T) {
	var p Principal
	p = p.Replace(Identity{Scheme: "microsoft", Subject: "user-1"})
	p = p.Replace(Identity{Scheme: "exist", Subject: "user-2"})

	p = p.Remove("microsoft:user-1")
	require.Len(t, p.Identities, 1)
	_, ok := p.Identity("exist")
	assert.True(t, ok)

	// Removing an absent account id is a no-op.
	p = p.Remove("microsoft:user-1")
	assert.Len(t, p.Identities, 1)
}
