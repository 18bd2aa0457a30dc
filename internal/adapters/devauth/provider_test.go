package devauth

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twpol/personalmissioncontrol/internal/ports"
)

func TestNewProvider_Validation(t *testing.T) {
	_, err := NewProvider(Config{Subject: "dev-user"})
	assert.Error(t, err)

	_, err = NewProvider(Config{Scheme: "microsoft"})
	assert.Error(t, err)
}

func TestBegin_RedirectsToOwnCallback(t *testing.T) {
	provider, err := NewProvider(Config{Scheme: "microsoft", Subject: "dev-user"})
	require.NoError(t, err)

	authURL, state, nonce, err := provider.Begin(context.Background(), ports.BeginInput{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(authURL, "/auth/microsoft/callback?code=dev&state="))
	assert.Len(t, state, 24)
	assert.Contains(t, authURL, state)
	assert.Empty(t, nonce)
}

func TestExchange_ReturnsConfiguredIdentity(t *testing.T) {
	provider, err := NewProvider(Config{
		Scheme:  "exist",
		Subject: "dev-user",
		Name:    "Dev User",
		Email:   "dev@localhost",
	})
	require.NoError(t, err)

	result, err := provider.Exchange(context.Background(), ports.ExchangeInput{Code: "dev"})
	require.NoError(t, err)
	assert.Equal(t, "exist:dev-user", result.Identity.AccountID())
	assert.Equal(t, "Dev User", result.Identity.Name)
	assert.Equal(t, "dev-access-token", result.Props.AccessToken())

	// No expiry and no refresh token: permissively valid forever.
	_, hasExpiry := result.Props.ExpiresAt()
	assert.False(t, hasExpiry)
	assert.False(t, result.Props.Refreshable())
}
