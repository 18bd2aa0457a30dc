package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	domainauth "github.com/twpol/personalmissioncontrol/internal/domain/auth"
)

// PrincipalStore is a Redis-backed store of combined session principals.
// Entries expire with the session TTL; the TTL slides on every save.
type PrincipalStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewPrincipalStore creates a Redis-backed principal store with the given
// session TTL.
func NewPrincipalStore(client redis.UniversalClient, ttl time.Duration) *PrincipalStore {
	return &PrincipalStore{
		client: client,
		prefix: "principal:",
		ttl:    ttl,
	}
}

func (s *PrincipalStore) Get(ctx context.Context, sessionID string) (domainauth.Principal, error) {
	if sessionID == "" {
		return domainauth.Principal{}, ErrNotFound
	}

	data, err := s.client.Get(ctx, s.prefix+sessionID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.Principal{}, ErrNotFound
		}
		return domainauth.Principal{}, fmt.Errorf("redis get: %w", err)
	}

	var principal domainauth.Principal
	if unmarshalErr := json.Unmarshal([]byte(data), &principal); unmarshalErr != nil {
		return domainauth.Principal{}, fmt.Errorf("unmarshal principal: %w", unmarshalErr)
	}

	return principal, nil
}

func (s *PrincipalStore) Save(ctx context.Context, sessionID string, principal domainauth.Principal) error {
	if sessionID == "" {
		return errors.New("session ID cannot be empty")
	}

	data, err := json.Marshal(principal)
	if err != nil {
		return fmt.Errorf("marshal principal: %w", err)
	}

	return s.client.Set(ctx, s.prefix+sessionID, data, s.ttl).Err()
}

func (s *PrincipalStore) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil // Nothing to delete
	}

	return s.client.Del(ctx, s.prefix+sessionID).Err()
}
