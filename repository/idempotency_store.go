package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idempotencyPrefix  = "idem:checkout:"
	idempotencyPending = "pending"
)

// IdempotencyStore remembers which checkout tokens already produced an order.
type IdempotencyStore interface {
	// Reserve claims key. When the key is already claimed it returns false and
	// the stored value: an order id, or "" while the first request is running.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, string, error)
	Complete(ctx context.Context, key, orderID string, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

type RedisIdempotencyStore struct {
	client *redis.Client
}

func NewRedisIdempotencyStore(client *redis.Client) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client}
}

func (s *RedisIdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, string, error) {
	ok, err := s.client.SetNX(ctx, idempotencyPrefix+key, idempotencyPending, ttl).Result()
	if err != nil {
		return false, "", err
	}
	if ok {
		return true, "", nil
	}

	val, err := s.client.Get(ctx, idempotencyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET; let the caller proceed
		return true, "", nil
	}
	if err != nil {
		return false, "", err
	}
	if val == idempotencyPending {
		return false, "", nil
	}
	return false, val, nil
}

func (s *RedisIdempotencyStore) Complete(ctx context.Context, key, orderID string, ttl time.Duration) error {
	return s.client.Set(ctx, idempotencyPrefix+key, orderID, ttl).Err()
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, idempotencyPrefix+key).Err()
}
