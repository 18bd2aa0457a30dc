// Package storage provides hand-written in-memory doubles for the storage
// ports, used by service and handler tests.
package storage

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/twpol/personalmissioncontrol/internal/domain/model"
	"github.com/twpol/personalmissioncontrol/internal/ports"
)

// ErrNotFound is returned by MemoryItemStore for absent items.
var ErrNotFound = errors.New("not found")

// Compile-time interface checks.
var (
	_ ports.ItemStore = (*MemoryItemStore)(nil)
	_ ports.Cache     = (*MemoryCache)(nil)
)

// MemoryItemStore is an in-memory ports.ItemStore.
type MemoryItemStore struct {
	mu    sync.Mutex
	items map[string]ports.StoredItem
}

// NewMemoryItemStore creates an empty MemoryItemStore.
func NewMemoryItemStore() *MemoryItemStore {
	return &MemoryItemStore{items: make(map[string]ports.StoredItem)}
}

func storeKey(kind string, key model.ItemKey) string {
	return kind + "|" + key.String()
}

// GetItem returns one stored item or ErrNotFound.
func (s *MemoryItemStore) GetItem(_ context.Context, kind string, key model.ItemKey) (ports.StoredItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[storeKey(kind, key)]
	if !ok {
		return ports.StoredItem{}, ErrNotFound
	}
	return item, nil
}

// GetCollection returns all items of one kind under an account and parent,
// ordered by item id.
func (s *MemoryItemStore) GetCollection(_ context.Context, kind, accountID, parentID string) ([]ports.StoredItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ports.StoredItem
	for key, item := range s.items {
		if strings.HasPrefix(key, kind+"|") && item.Key.AccountID == accountID && item.Key.ParentID == parentID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.ItemID < out[j].Key.ItemID })
	return out, nil
}

// GetAccountItems returns all items of one kind for an account.
func (s *MemoryItemStore) GetAccountItems(_ context.Context, kind, accountID string) ([]ports.StoredItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ports.StoredItem
	for key, item := range s.items {
		if strings.HasPrefix(key, kind+"|") && item.Key.AccountID == accountID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.ParentID != out[j].Key.ParentID {
			return out[i].Key.ParentID < out[j].Key.ParentID
		}
		return out[i].Key.ItemID < out[j].Key.ItemID
	})
	return out, nil
}

// ReplaceCollection swaps the full contents of one collection.
func (s *MemoryItemStore) ReplaceCollection(_ context.Context, kind, accountID, parentID string, items []ports.StoredItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, item := range s.items {
		if strings.HasPrefix(key, kind+"|") && item.Key.AccountID == accountID && item.Key.ParentID == parentID {
			delete(s.items, key)
		}
	}
	now := time.Now().UTC()
	for _, item := range items {
		item.UpdatedAt = now
		s.items[storeKey(kind, item.Key)] = item
	}
	return nil
}

// UpsertItem inserts or overwrites one item.
func (s *MemoryItemStore) UpsertItem(_ context.Context, kind string, item ports.StoredItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item.UpdatedAt = time.Now().UTC()
	s.items[storeKey(kind, item.Key)] = item
	return nil
}

// DeleteAccountItems removes all items for an account across kinds.
func (s *MemoryItemStore) DeleteAccountItems(_ context.Context, accountID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for key, item := range s.items {
		if item.Key.AccountID == accountID {
			delete(s.items, key)
			deleted++
		}
	}
	return deleted, nil
}

// MemoryCache is an in-memory ports.Cache. GetOrFill calls fill on every
// miss without the wait-key coordination of the real cache.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte

	// FillCalls counts how many times a fill function ran.
	FillCalls int
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string][]byte)}
}

// GetOrFill returns the cached entry or runs fill and caches its result.
func (c *MemoryCache) GetOrFill(ctx context.Context, key string, _, _ time.Duration, fill func(context.Context) ([]byte, error)) ([]byte, error) {
	c.mu.Lock()
	if data, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return data, nil
	}
	c.mu.Unlock()

	c.mu.Lock()
	c.FillCalls++
	c.mu.Unlock()

	data, err := fill(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = append([]byte(nil), data...)
	c.mu.Unlock()
	return data, nil
}

// Delete removes one entry, reporting whether it existed.
func (c *MemoryCache) Delete(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	delete(c.entries, key)
	return ok, nil
}
