package redis

// Package redis provides Redis-based adapters for the mission control system.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/twpol/personalmissioncontrol/internal/data/cryptoutil"
	domainauth "github.com/twpol/personalmissioncontrol/internal/domain/auth"
)

// AccountStore is a Redis-backed durable store of account token properties,
// keyed by composite account id. Accounts have no TTL: they live until
// sign-out or an irrecoverable refresh failure deletes them.
type AccountStore struct {
	client    redis.UniversalClient
	prefix    string
	encryptor cryptoutil.Encryptor
}

// NewAccountStore creates a Redis-backed account store. Token properties are
// stored as plaintext JSON.
func NewAccountStore(client redis.UniversalClient) *AccountStore {
	return &AccountStore{
		client: client,
		prefix: "account:",
	}
}

// NewAccountStoreWithEncryptor creates an account store that encrypts token
// properties at rest. Values written before encryption was enabled are still
// readable: plaintext JSON records are detected and parsed directly.
func NewAccountStoreWithEncryptor(client redis.UniversalClient, enc cryptoutil.Encryptor) *AccountStore {
	return &AccountStore{
		client:    client,
		prefix:    "account:",
		encryptor: enc,
	}
}

// NewAccountStoreWithPrefix creates an account store with a custom key prefix.
func NewAccountStoreWithPrefix(client redis.UniversalClient, prefix string) *AccountStore {
	return &AccountStore{
		client: client,
		prefix: prefix,
	}
}

func (s *AccountStore) Get(ctx context.Context, accountID string) (domainauth.TokenProperties, error) {
	if accountID == "" {
		return nil, ErrNotFound
	}

	data, err := s.client.Get(ctx, s.prefix+accountID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	raw := []byte(data)
	// Plaintext JSON records predate encryption or a configured key.
	if s.encryptor != nil && !strings.HasPrefix(data, "{") {
		raw, err = s.encryptor.Decrypt(data)
		if err != nil {
			return nil, fmt.Errorf("decrypt account: %w", err)
		}
	}

	var props domainauth.TokenProperties
	if unmarshalErr := json.Unmarshal(raw, &props); unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal account: %w", unmarshalErr)
	}

	return props, nil
}

func (s *AccountStore) Put(ctx context.Context, accountID string, props domainauth.TokenProperties) error {
	if accountID == "" {
		return errors.New("account ID cannot be empty")
	}

	data, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}

	value := string(data)
	if s.encryptor != nil {
		value, err = s.encryptor.Encrypt(data)
		if err != nil {
			return fmt.Errorf("encrypt account: %w", err)
		}
	}

	return s.client.Set(ctx, s.prefix+accountID, value, 0).Err()
}

func (s *AccountStore) Delete(ctx context.Context, accountID string) error {
	if accountID == "" {
		return nil // Nothing to delete
	}

	return s.client.Del(ctx, s.prefix+accountID).Err()
}

// List returns the ids of all persisted accounts by scanning the key prefix.
func (s *AccountStore) List(ctx context.Context) ([]string, error) {
	var ids []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, iter.Val()[len(s.prefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return ids, nil
}

// ErrNotFound is returned when an account or principal is not found.
type notFoundError struct{}

func (notFoundError) Error() string { return "not found" }

var ErrNotFound error = notFoundError{}
