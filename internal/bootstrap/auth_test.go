package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twpol/personalmissioncontrol/config"
)

func TestBuildProviders_SkipsUnconfigured(t *testing.T) {
	cfg := &config.AppConfig{}

	registry, err := BuildProviders(cfg, nil)
	require.NoError(t, err)
	assert.Empty(t, registry.Schemes())
}

func TestBuildProviders_ExplicitEndpoints(t *testing.T) {
	cfg := &config.AppConfig{
		HTTP: config.HTTPConfig{BaseURL: "http://localhost:8080"},
	}
	cfg.Auth.Exist = config.ProviderConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		AuthURL:      "https://exist.io/oauth2/authorize",
		TokenURL:     "https://exist.io/oauth2/access_token",
		Scope:        "attributes_read",
	}

	registry, err := BuildProviders(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"exist"}, registry.Schemes())

	endpoints := TokenEndpoints(registry)
	require.Contains(t, endpoints, "exist")
	assert.Equal(t, "client-id", endpoints["exist"].ClientID)
	assert.Equal(t, "https://exist.io/oauth2/access_token", endpoints["exist"].TokenURL)
}

func TestProviderRedirectURL_DerivedFromBaseURL(t *testing.T) {
	httpCfg := config.HTTPConfig{BaseURL: "https://pmc.example.com/"}

	got := providerRedirectURL(config.ProviderConfig{}, httpCfg, "microsoft")
	assert.Equal(t, "https://pmc.example.com/auth/microsoft/callback", got)

	got = providerRedirectURL(config.ProviderConfig{RedirectURL: "https://other/cb"}, httpCfg, "microsoft")
	assert.Equal(t, "https://other/cb", got)
}
