package oauth

import (
	"sort"

	"github.com/twpol/personalmissioncontrol/internal/ports"
)

// Registry is the explicit mapping from provider scheme name to its
// configured auth provider. Lookup is plain map access; schemes are
// registered once at startup. Entries need not be OAuth providers, a dev
// short-circuit provider registers the same way.
type Registry struct {
	providers map[string]ports.AuthProvider
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]ports.AuthProvider)}
}

// Register adds a provider under a scheme name, replacing any previous
// registration for the same scheme.
func (r *Registry) Register(scheme string, p ports.AuthProvider) {
	r.providers[scheme] = p
}

// Provider returns the AuthProvider for the given scheme.
func (r *Registry) Provider(scheme string) (ports.AuthProvider, bool) {
	p, ok := r.providers[scheme]
	return p, ok
}

// Schemes returns the registered scheme names in stable order.
func (r *Registry) Schemes() []string {
	schemes := make([]string, 0, len(r.providers))
	for scheme := range r.providers {
		schemes = append(schemes, scheme)
	}
	sort.Strings(schemes)
	return schemes
}

// All returns the registered providers keyed by scheme, for callers that
// need per-scheme details (such as refresh gate wiring).
func (r *Registry) All() map[string]ports.AuthProvider {
	out := make(map[string]ports.AuthProvider, len(r.providers))
	for scheme, p := range r.providers {
		out[scheme] = p
	}
	return out
}
