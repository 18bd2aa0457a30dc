package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the HTTP server.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeUpdater runs the background account data updater.
	ServiceModeUpdater ServiceMode = "updater"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{ServiceModeHTTP, ServiceModeUpdater}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	parts := strings.Split(servicesStr, ",")
	for _, part := range parts {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP, ServiceModeUpdater:
			services[mode] = true
		default:
			return nil, fmt.Errorf("invalid service name: %q (valid options: http, updater)", serviceName)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// UpdaterConfig contains background updater configuration.
type UpdaterConfig struct {
	// Interval is how often the updater refreshes stored provider data for
	// every persisted account.
	Interval time.Duration `env:"UPDATER_INTERVAL" envDefault:"5m"`

	// AccountTimeout bounds one account's update pass.
	AccountTimeout time.Duration `env:"UPDATER_ACCOUNT_TIMEOUT" envDefault:"2m"`
}

// Sanitize applies guardrails to updater configuration values.
func (u *UpdaterConfig) Sanitize() {
	if u.Interval < time.Minute {
		u.Interval = time.Minute
	}
	if u.AccountTimeout <= 0 {
		u.AccountTimeout = 2 * time.Minute
	}
}
