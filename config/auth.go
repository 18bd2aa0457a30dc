package config

import "time"

// ProviderConfig contains the OAuth settings for one external provider scheme.
// Endpoints are static per scheme; client id/secret resolve through this
// record rather than any runtime options lookup.
type ProviderConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	AuthURL      string `env:"AUTH_URL"`
	TokenURL     string `env:"TOKEN_URL"`
	// UserInfoURL is fetched with a bearer token to resolve the provider
	// subject when no verified ID token is available.
	UserInfoURL string `env:"USERINFO_URL"`
	// DiscoveryURL enables OIDC ID-token verification when set.
	DiscoveryURL string `env:"DISCOVERY_URL"`
	Scope        string `env:"SCOPE"`
	RedirectURL  string `env:"REDIRECT_URL"`
}

// Configured reports whether the provider has the minimum settings to run an
// auth flow.
func (p ProviderConfig) Configured() bool {
	return p.ClientID != "" && p.ClientSecret != "" && p.TokenURL != ""
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Microsoft is the Microsoft identity platform integration (To-Do, Outlook).
	Microsoft ProviderConfig `envPrefix:"MICROSOFT_"`

	// Exist is the Exist.io integration (habits).
	Exist ProviderConfig `envPrefix:"EXIST_"`

	// SessionTTL is the lifetime of the server-side session principal.
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"720h"`

	// RefreshMargin is how close to expiry a token may get before the refresh
	// gate exchanges it.
	RefreshMargin time.Duration `env:"TOKEN_REFRESH_MARGIN" envDefault:"5m"`

	// TokenEncryptionKey enables AES-256-GCM encryption of stored account
	// tokens when set to a 32-byte key. Empty means tokens are stored as
	// plaintext JSON.
	TokenEncryptionKey string `env:"TOKEN_ENCRYPTION_KEY"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	if a.SessionTTL <= 0 {
		a.SessionTTL = 720 * time.Hour
	}
	if a.RefreshMargin <= 0 {
		a.RefreshMargin = 5 * time.Minute
	}
}
