package bootstrap

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/twpol/personalmissioncontrol/config"
	"github.com/twpol/personalmissioncontrol/internal/adapters/devauth"
	"github.com/twpol/personalmissioncontrol/internal/adapters/oauth"
	"github.com/twpol/personalmissioncontrol/internal/service"
)

// BuildProviders constructs the OAuth provider registry from configuration.
// Providers without the minimum settings are skipped, so a deployment can
// run with any subset of integrations configured.
func BuildProviders(cfg *config.AppConfig, logger *slog.Logger) (*oauth.Registry, error) {
	registry := oauth.NewRegistry()

	schemes := map[string]config.ProviderConfig{
		"microsoft": cfg.Auth.Microsoft,
		"exist":     cfg.Auth.Exist,
	}
	for scheme, pc := range schemes {
		if !pc.Configured() {
			if logger != nil {
				logger.Info("auth provider not configured, skipping", "scheme", scheme)
			}
			continue
		}

		provider, err := oauth.NewProvider(oauth.ProviderConfig{
			Scheme:       scheme,
			ClientID:     pc.ClientID,
			ClientSecret: pc.ClientSecret,
			RedirectURL:  providerRedirectURL(pc, cfg.HTTP, scheme),
			Scope:        pc.Scope,
			DiscoveryURL: pc.DiscoveryURL,
			AuthURL:      pc.AuthURL,
			TokenURL:     pc.TokenURL,
			UserInfoURL:  pc.UserInfoURL,
		})
		if err != nil {
			return nil, fmt.Errorf("configure %s provider: %w", scheme, err)
		}
		registry.Register(scheme, provider)

		if logger != nil {
			logger.Info("auth provider configured", "scheme", scheme)
		}
	}

	if cfg.IsDev {
		registerDevProviders(cfg, registry, logger)
	}

	return registry, nil
}

// registerDevProviders fills unconfigured schemes with short-circuit dev
// providers so local development works without real OAuth credentials.
// Never active outside dev mode.
func registerDevProviders(cfg *config.AppConfig, registry *oauth.Registry, logger *slog.Logger) {
	for _, scheme := range []string{"microsoft", "exist"} {
		if _, ok := registry.Provider(scheme); ok {
			continue
		}
		provider, err := devauth.NewProvider(devauth.Config{
			Scheme:  scheme,
			Subject: "dev-user",
			Name:    "Dev User",
			Email:   "dev@localhost",
		})
		if err != nil {
			if logger != nil {
				logger.Warn("dev auth provider setup failed", "scheme", scheme, "error", err)
			}
			continue
		}
		registry.Register(scheme, provider)
		if logger != nil {
			logger.Info("dev auth provider registered", "scheme", scheme)
		}
	}
}

// providerRedirectURL resolves the callback URL for a provider, deriving it
// from the app base URL when not set explicitly.
func providerRedirectURL(pc config.ProviderConfig, httpCfg config.HTTPConfig, scheme string) string {
	if pc.RedirectURL != "" {
		return pc.RedirectURL
	}
	return strings.TrimSuffix(httpCfg.BaseURL, "/") + "/auth/" + scheme + "/callback"
}

// TokenEndpoints derives the refresh gate's per-scheme token endpoint table
// from the registered providers. Dev providers issue non-expiring tokens and
// need no refresh endpoint.
func TokenEndpoints(registry *oauth.Registry) map[string]service.TokenEndpoint {
	endpoints := make(map[string]service.TokenEndpoint)
	for scheme, provider := range registry.All() {
		op, ok := provider.(*oauth.Provider)
		if !ok {
			continue
		}
		endpoints[scheme] = service.TokenEndpoint{
			ClientID:     op.ClientID(),
			ClientSecret: op.ClientSecret(),
			TokenURL:     op.TokenURL(),
		}
	}
	return endpoints
}
