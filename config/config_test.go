package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServices(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    map[ServiceMode]bool
		wantErr bool
	}{
		{"http only", "http", map[ServiceMode]bool{ServiceModeHTTP: true}, false},
		{"both", "http,updater", map[ServiceMode]bool{ServiceModeHTTP: true, ServiceModeUpdater: true}, false},
		{"whitespace tolerated", " http , updater ", map[ServiceMode]bool{ServiceModeHTTP: true, ServiceModeUpdater: true}, false},
		{"empty", "", nil, true},
		{"unknown", "http,scheduler", nil, true},
		{"only commas", ",,", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseServices(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAppConfig_ServiceFlags(t *testing.T) {
	cfg := AppConfig{Services: "http"}
	assert.True(t, cfg.IsHTTPServerEnabled())
	assert.False(t, cfg.IsUpdaterEnabled())

	cfg.Services = "updater"
	assert.False(t, cfg.IsHTTPServerEnabled())
	assert.True(t, cfg.IsUpdaterEnabled())

	cfg.Services = "bogus"
	assert.False(t, cfg.IsHTTPServerEnabled())
}

func TestAuthConfig_Sanitize(t *testing.T) {
	a := AuthConfig{}
	a.Sanitize()
	assert.Equal(t, 720*time.Hour, a.SessionTTL)
	assert.Equal(t, 5*time.Minute, a.RefreshMargin)

	a = AuthConfig{SessionTTL: time.Hour, RefreshMargin: time.Minute}
	a.Sanitize()
	assert.Equal(t, time.Hour, a.SessionTTL)
	assert.Equal(t, time.Minute, a.RefreshMargin)
}

func TestUpdaterConfig_Sanitize(t *testing.T) {
	u := UpdaterConfig{Interval: time.Second}
	u.Sanitize()
	assert.Equal(t, time.Minute, u.Interval)
	assert.Equal(t, 2*time.Minute, u.AccountTimeout)
}

func TestProviderConfig_Configured(t *testing.T) {
	assert.False(t, ProviderConfig{}.Configured())
	assert.False(t, ProviderConfig{ClientID: "id", ClientSecret: "secret"}.Configured())
	assert.True(t, ProviderConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		TokenURL:     "https://idp.example.com/token",
	}.Configured())
}
