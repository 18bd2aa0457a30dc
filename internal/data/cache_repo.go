package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/twpol/personalmissioncontrol/internal/ports"
)

// ErrCacheFillTimeout is returned when waiting for another filler to
// populate a cache entry exceeds the fill timeout.
var ErrCacheFillTimeout = errors.New("cache fill timed out")

// CacheRepo caches short-lived provider responses in Redis. Concurrent
// cache misses for the same key are coordinated with a wait key so only one
// caller performs the upstream fetch while the others poll for the result.
type CacheRepo struct {
	client redis.UniversalClient

	// pollInterval controls how often waiters re-check the entry.
	pollInterval time.Duration
}

var _ ports.Cache = (*CacheRepo)(nil)

// NewCacheRepo creates a new CacheRepo with the given Redis client.
func NewCacheRepo(client redis.UniversalClient) *CacheRepo {
	return &CacheRepo{client: client, pollInterval: 100 * time.Millisecond}
}

// Get retrieves a cached value. A missing key returns (nil, nil).
func (r *CacheRepo) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errors.New("key cannot be empty")
	}

	result, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return []byte(result), nil
}

// Set stores a value with the given TTL.
func (r *CacheRepo) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	return r.client.Set(ctx, key, value, ttl).Err()
}

// Delete removes a key, reporting whether it existed.
func (r *CacheRepo) Delete(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("key cannot be empty")
	}

	result, err := r.client.Del(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis del: %w", err)
	}
	return result > 0, nil
}

// setIfNotExists atomically sets a key only if it doesn't already exist.
// SET with NX and TTL is a single atomic command; SETNX plus EXPIRE is not.
func (r *CacheRepo) setIfNotExists(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = time.Second
	}
	status, err := r.client.SetArgs(ctx, key, value, redis.SetArgs{Mode: "NX", TTL: ttl}).Result()
	if err != nil {
		// redis.Nil here means the NX condition failed: the key exists.
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis SET NX: %w", err)
	}
	return status == "OK", nil
}

// GetOrFill returns the cached value for key, invoking fill on a miss. When
// several callers miss at once, exactly one runs fill (guarded by the wait
// key) and the rest poll until the entry appears or fillTimeout elapses.
func (r *CacheRepo) GetOrFill(
	ctx context.Context,
	key string,
	ttl, fillTimeout time.Duration,
	fill func(context.Context) ([]byte, error),
) ([]byte, error) {
	if key == "" {
		return nil, errors.New("key cannot be empty")
	}

	if value, err := r.Get(ctx, key); err != nil || value != nil {
		return value, err
	}

	waitKey := key + ":wait"
	deadline := time.Now().Add(fillTimeout)

	for {
		acquired, err := r.setIfNotExists(ctx, waitKey, []byte("1"), fillTimeout)
		if err != nil {
			return nil, err
		}
		if acquired {
			return r.runFill(ctx, key, waitKey, ttl, fill)
		}

		value, err := r.waitForEntry(ctx, key, waitKey, deadline)
		if err != nil || value != nil {
			return value, err
		}
		// The filler gave up without producing an entry; take over.
		if time.Now().After(deadline) {
			return nil, ErrCacheFillTimeout
		}
	}
}

// runFill performs the upstream fetch while holding the wait key.
func (r *CacheRepo) runFill(
	ctx context.Context,
	key, waitKey string,
	ttl time.Duration,
	fill func(context.Context) ([]byte, error),
) ([]byte, error) {
	defer func() {
		_, _ = r.Delete(context.WithoutCancel(ctx), waitKey)
	}()

	value, err := fill(ctx)
	if err != nil {
		return nil, fmt.Errorf("cache fill for %s: %w", key, err)
	}
	if setErr := r.Set(ctx, key, value, ttl); setErr != nil {
		return nil, fmt.Errorf("cache store for %s: %w", key, setErr)
	}
	return value, nil
}

// waitForEntry polls until the entry appears, the wait key disappears, or
// the deadline passes. Returns (nil, nil) when the filler vanished without
// filling, so the caller can retry the acquisition.
func (r *CacheRepo) waitForEntry(ctx context.Context, key, waitKey string, deadline time.Time) ([]byte, error) {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		value, err := r.Get(ctx, key)
		if err != nil || value != nil {
			return value, err
		}

		exists, err := r.client.Exists(ctx, waitKey).Result()
		if err != nil {
			return nil, fmt.Errorf("redis exists: %w", err)
		}
		if exists == 0 {
			return nil, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrCacheFillTimeout
		}
	}
}

// Health checks the Redis connection.
func (r *CacheRepo) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
