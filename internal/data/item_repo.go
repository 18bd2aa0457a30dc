package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/twpol/personalmissioncontrol/internal/data/pgxutil"
	"github.com/twpol/personalmissioncontrol/internal/domain/model"
	apperrors "github.com/twpol/personalmissioncontrol/internal/errors"
	"github.com/twpol/personalmissioncontrol/internal/ports"
)

// ErrItemNotFound is returned when a stored item is not found.
var ErrItemNotFound = errors.New("item not found")

// ItemRepo stores provider items (tasks, task lists, habits) as JSON
// documents, replaced collection-at-a-time by the background updater.
type ItemRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

var _ ports.ItemStore = (*ItemRepo)(nil)

// NewItemRepo creates a new ItemRepo with a real time provider.
func NewItemRepo(db *sql.DB) *ItemRepo {
	return &ItemRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewItemRepoWithTimeProvider creates a new ItemRepo with a custom time
// provider (useful for tests).
func NewItemRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *ItemRepo {
	return &ItemRepo{DB: db, timeProvider: tp}
}

// itemRow is the flat scan target for items queries.
type itemRow struct {
	AccountID string          `db:"account_id"`
	ParentID  string          `db:"parent_id"`
	ItemID    string          `db:"item_id"`
	Data      json.RawMessage `db:"data"`
	UpdatedAt time.Time       `db:"updated_at"`
}

func (r itemRow) toStoredItem() ports.StoredItem {
	return ports.StoredItem{
		Key: model.ItemKey{
			AccountID: r.AccountID,
			ParentID:  r.ParentID,
			ItemID:    r.ItemID,
		},
		Data:      r.Data,
		UpdatedAt: r.UpdatedAt,
	}
}

const itemSelectColumns = `account_id, parent_id, item_id, data, updated_at`

// GetItem retrieves one stored item by kind and key.
func (r *ItemRepo) GetItem(ctx context.Context, kind string, key model.ItemKey) (ports.StoredItem, error) {
	var row itemRow
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+itemSelectColumns+`
			FROM items
			WHERE kind = $1 AND account_id = $2 AND parent_id = $3 AND item_id = $4`,
			kind, key.AccountID, key.ParentID, key.ItemID)
		if err != nil {
			return err
		}
		defer rows.Close()
		row, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[itemRow])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ports.StoredItem{}, ErrItemNotFound
		}
		return ports.StoredItem{}, fmt.Errorf("failed to get item: %w", apperrors.MapDBError(err))
	}
	return row.toStoredItem(), nil
}

// GetCollection retrieves all stored items of one kind under an account and
// parent, ordered by item id for stable output.
func (r *ItemRepo) GetCollection(ctx context.Context, kind, accountID, parentID string) ([]ports.StoredItem, error) {
	var rowsOut []itemRow
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+itemSelectColumns+`
			FROM items
			WHERE kind = $1 AND account_id = $2 AND parent_id = $3
			ORDER BY item_id`,
			kind, accountID, parentID)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[itemRow])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s collection: %w", kind, apperrors.MapDBError(err))
	}

	items := make([]ports.StoredItem, len(rowsOut))
	for i, row := range rowsOut {
		items[i] = row.toStoredItem()
	}
	return items, nil
}

// GetAccountItems retrieves all stored items of one kind for an account
// across all parents.
func (r *ItemRepo) GetAccountItems(ctx context.Context, kind, accountID string) ([]ports.StoredItem, error) {
	var rowsOut []itemRow
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+itemSelectColumns+`
			FROM items
			WHERE kind = $1 AND account_id = $2
			ORDER BY parent_id, item_id`,
			kind, accountID)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[itemRow])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s items: %w", kind, apperrors.MapDBError(err))
	}

	items := make([]ports.StoredItem, len(rowsOut))
	for i, row := range rowsOut {
		items[i] = row.toStoredItem()
	}
	return items, nil
}

// ReplaceCollection atomically replaces all stored items of one kind under an
// account and parent with the given set. Items removed at the provider
// disappear from storage on the next replace.
func (r *ItemRepo) ReplaceCollection(ctx context.Context, kind, accountID, parentID string, items []ports.StoredItem) error {
	now := r.timeProvider.Now().UTC()
	return pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Fn: func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, `
				DELETE FROM items
				WHERE kind = $1 AND account_id = $2 AND parent_id = $3`,
				kind, accountID, parentID); err != nil {
				return fmt.Errorf("clear %s collection: %w", kind, apperrors.MapDBError(err))
			}
			for _, item := range items {
				if _, err := tx.Exec(ctx, `
					INSERT INTO items (kind, account_id, parent_id, item_id, data, updated_at)
					VALUES ($1, $2, $3, $4, $5, $6)`,
					kind, accountID, parentID, item.Key.ItemID, item.Data, now); err != nil {
					return fmt.Errorf("insert %s item %s: %w", kind, item.Key.ItemID, apperrors.MapDBError(err))
				}
			}
			return nil
		},
	})
}

// UpsertItem inserts or overwrites one stored item.
func (r *ItemRepo) UpsertItem(ctx context.Context, kind string, item ports.StoredItem) error {
	now := r.timeProvider.Now().UTC()
	return pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, `
			INSERT INTO items (kind, account_id, parent_id, item_id, data, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (kind, account_id, parent_id, item_id)
			DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
			kind, item.Key.AccountID, item.Key.ParentID, item.Key.ItemID, item.Data, now)
		if err != nil {
			return fmt.Errorf("upsert %s item %s: %w", kind, item.Key.ItemID, apperrors.MapDBError(err))
		}
		return nil
	})
}

// DeleteAccountItems removes every stored item for an account across all
// kinds. Called when the account signs out.
func (r *ItemRepo) DeleteAccountItems(ctx context.Context, accountID string) (int64, error) {
	var deleted int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM items WHERE account_id = $1`, accountID)
		if err != nil {
			return err
		}
		deleted = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete items for account: %w", apperrors.MapDBError(err))
	}
	return deleted, nil
}
