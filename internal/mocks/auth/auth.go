package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"sync"

	domainauth "github.com/twpol/personalmissioncontrol/internal/domain/auth"
	"github.com/twpol/personalmissioncontrol/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthProvider   = (*MockAuthProvider)(nil)
	_ ports.AccountStore   = (*MemoryAccountStore)(nil)
	_ ports.PrincipalStore = (*MemoryPrincipalStore)(nil)
)

// ErrNotFound is returned by mocks when an entity is not present.
type notFoundError struct{}

func (notFoundError) Error() string { return "not found" }

var ErrNotFound error = notFoundError{}

// MockAuthProvider simulates an OAuth provider for tests with deterministic
// state/nonce handling.
type MockAuthProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (ports.ExchangeResult, error)

	// Deterministic values for predictable testing
	AuthURL         string
	StatePrefix     string
	NoncePrefix     string
	DefaultIdentity domainauth.Identity
	DefaultProps    domainauth.TokenProperties

	// Internal state tracking for deterministic behavior
	callCount int
}

// NewMockAuthProvider creates a MockAuthProvider with sensible defaults.
func NewMockAuthProvider() *MockAuthProvider {
	return &MockAuthProvider{
		AuthURL:     "https://mock-provider/auth",
		StatePrefix: "state",
		NoncePrefix: "nonce",
		DefaultIdentity: domainauth.Identity{
			Scheme:  "mock",
			Subject: "mock-user-1",
			Name:    "Mock User",
			Email:   "mock.user@example.com",
		},
		DefaultProps: domainauth.TokenProperties{
			domainauth.PropAccessToken: "mock-access-token",
			domainauth.PropTokenType:   "Bearer",
		},
	}
}

func (m *MockAuthProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}

	m.callCount++
	authURL := m.AuthURL
	if authURL == "" {
		authURL = "https://mock-provider/auth"
	}

	statePrefix := m.StatePrefix
	if statePrefix == "" {
		statePrefix = "state"
	}
	noncePrefix := m.NoncePrefix
	if noncePrefix == "" {
		noncePrefix = "nonce"
	}

	state := fmt.Sprintf("%s-%d", statePrefix, m.callCount)
	nonce := fmt.Sprintf("%s-%d", noncePrefix, m.callCount)

	return authURL, state, nonce, nil
}

func (m *MockAuthProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (ports.ExchangeResult, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}

	identity := m.DefaultIdentity
	if identity.Subject == "" {
		identity = domainauth.Identity{
			Scheme:  "mock",
			Subject: "mock-user-1",
			Name:    "Mock User",
			Email:   "mock.user@example.com",
		}
	}
	if in.Scheme != "" {
		identity.Scheme = in.Scheme
	}

	return ports.ExchangeResult{
		Identity: identity,
		Props:    m.DefaultProps.Clone(),
	}, nil
}

// MemoryAccountStore is an in-memory account store for unit tests. It is safe
// for concurrent use so refresh singleflight behavior can be exercised.
type MemoryAccountStore struct {
	mu       sync.Mutex
	accounts map[string]domainauth.TokenProperties

	// DeleteCalls records ids passed to Delete, in order.
	DeleteCalls []string
}

// NewMemoryAccountStore creates a new in-memory account store.
func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{
		accounts: make(map[string]domainauth.TokenProperties),
	}
}

func (m *MemoryAccountStore) Get(_ context.Context, accountID string) (domainauth.TokenProperties, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	props, ok := m.accounts[accountID]
	if !ok {
		return nil, ErrNotFound
	}
	return props.Clone(), nil
}

func (m *MemoryAccountStore) Put(_ context.Context, accountID string, props domainauth.TokenProperties) error {
	if accountID == "" {
		return errors.New("account ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[accountID] = props.Clone()
	return nil
}

func (m *MemoryAccountStore) Delete(_ context.Context, accountID string) error {
	if accountID == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls = append(m.DeleteCalls, accountID)
	delete(m.accounts, accountID)
	return nil
}

func (m *MemoryAccountStore) List(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.accounts))
	for id := range m.accounts {
		ids = append(ids, id)
	}
	return ids, nil
}

// MemoryPrincipalStore is an in-memory principal store for unit tests.
type MemoryPrincipalStore struct {
	mu         sync.Mutex
	principals map[string]domainauth.Principal
}

// NewMemoryPrincipalStore creates a new in-memory principal store.
func NewMemoryPrincipalStore() *MemoryPrincipalStore {
	return &MemoryPrincipalStore{
		principals: make(map[string]domainauth.Principal),
	}
}

func (m *MemoryPrincipalStore) Get(_ context.Context, sessionID string) (domainauth.Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.principals[sessionID]
	if !ok {
		return domainauth.Principal{}, ErrNotFound
	}
	return p, nil
}

func (m *MemoryPrincipalStore) Save(_ context.Context, sessionID string, principal domainauth.Principal) error {
	if sessionID == "" {
		return errors.New("session ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.principals[sessionID] = principal
	return nil
}

func (m *MemoryPrincipalStore) Delete(_ context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.principals, sessionID)
	return nil
}
