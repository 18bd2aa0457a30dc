package service

import (
	"context"
	"fmt"
	"sync"

	domainauth "github.com/twpol/personalmissioncontrol/internal/domain/auth"
	"github.com/twpol/personalmissioncontrol/internal/ports"
)

// AccountContext is the session-scoped view of all accounts attached to one
// browser session: the combined principal plus a cache of token properties
// loaded from durable storage. One AccountContext is built per request and
// passed by handle through the request context, never held globally.
type AccountContext struct {
	store ports.AccountStore

	mu        sync.Mutex
	principal domainauth.Principal
	cache     map[string]domainauth.TokenProperties
}

// NewAccountContext builds an AccountContext for one session principal.
func NewAccountContext(store ports.AccountStore, principal domainauth.Principal) *AccountContext {
	return &AccountContext{
		store:     store,
		principal: principal,
		cache:     make(map[string]domainauth.TokenProperties),
	}
}

// Principal returns the combined principal for this session.
func (c *AccountContext) Principal() domainauth.Principal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.principal
}

// AccountIDFor returns the composite account id for the given provider
// scheme, if the session has an identity for it.
func (c *AccountContext) AccountIDFor(scheme string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	identity, ok := c.principal.Identity(scheme)
	if !ok {
		return "", false
	}
	return identity.AccountID(), true
}

// Load fetches the token properties for the given account id, consulting the
// request-scope cache first. A missing account is a soft miss: Load returns
// false and never an error.
func (c *AccountContext) Load(ctx context.Context, accountID string) (domainauth.TokenProperties, bool) {
	c.mu.Lock()
	if props, ok := c.cache[accountID]; ok {
		c.mu.Unlock()
		return props.Clone(), true
	}
	c.mu.Unlock()

	props, err := c.store.Get(ctx, accountID)
	if err != nil {
		return nil, false
	}

	c.mu.Lock()
	c.cache[accountID] = props.Clone()
	c.mu.Unlock()

	return props, true
}

// Set overwrites the account's token properties in durable storage and in the
// request-scope cache.
func (c *AccountContext) Set(ctx context.Context, accountID string, props domainauth.TokenProperties) error {
	if err := c.store.Put(ctx, accountID, props); err != nil {
		return fmt.Errorf("put account %s: %w", accountID, err)
	}

	c.mu.Lock()
	c.cache[accountID] = props.Clone()
	c.mu.Unlock()

	return nil
}

// Remove deletes the account from durable storage and the request-scope
// cache. Removing an absent account is a no-op.
func (c *AccountContext) Remove(ctx context.Context, accountID string) error {
	if err := c.store.Delete(ctx, accountID); err != nil {
		return fmt.Errorf("delete account %s: %w", accountID, err)
	}

	c.mu.Lock()
	delete(c.cache, accountID)
	c.mu.Unlock()

	return nil
}

// setPrincipal replaces the cached principal after a sign-in or sign-out
// transition so reads later in the same request observe the new state.
func (c *AccountContext) setPrincipal(principal domainauth.Principal) {
	c.mu.Lock()
	c.principal = principal
	c.mu.Unlock()
}
