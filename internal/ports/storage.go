package ports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/twpol/personalmissioncontrol/internal/domain/model"
)

// Item kinds held in the collection store.
const (
	KindTaskList = "tasklist"
	KindTask     = "task"
	KindHabit    = "habit"
)

// StoredItem is one JSON document in the collection store.
type StoredItem struct {
	Key       model.ItemKey
	Data      json.RawMessage
	UpdatedAt time.Time
}

// ItemStore persists dashboard items as JSON document collections, replaced
// collection-at-a-time by the background updater.
type ItemStore interface {
	GetItem(ctx context.Context, kind string, key model.ItemKey) (StoredItem, error)
	GetCollection(ctx context.Context, kind, accountID, parentID string) ([]StoredItem, error)
	GetAccountItems(ctx context.Context, kind, accountID string) ([]StoredItem, error)
	ReplaceCollection(ctx context.Context, kind, accountID, parentID string, items []StoredItem) error
	UpsertItem(ctx context.Context, kind string, item StoredItem) error
	DeleteAccountItems(ctx context.Context, accountID string) (int64, error)
}

// Cache coordinates short-lived caching of provider responses.
type Cache interface {
	GetOrFill(ctx context.Context, key string, ttl, fillTimeout time.Duration, fill func(context.Context) ([]byte, error)) ([]byte, error)
	Delete(ctx context.Context, key string) (bool, error)
}
