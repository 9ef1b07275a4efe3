package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps values in Redis under a common prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// OpenRedisStore connects to Redis and verifies the connection.
func OpenRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, &StorageError{Op: "open", Backend: "redis", Err: fmt.Errorf("ping %s: %w", opts.Addr, err)}
	}

	return NewRedisStore(client, opts.Prefix), nil
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "veotube:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, &StorageError{Op: "get", Backend: "redis", Key: key, Err: ErrNotFound}
		}
		return nil, &StorageError{Op: "get", Backend: "redis", Key: key, Err: err}
	}
	return value, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return &StorageError{Op: "put", Backend: "redis", Key: key, Err: err}
	}
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return &StorageError{Op: "put", Backend: "redis", Key: key, Err: err}
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return &StorageError{Op: "delete", Backend: "redis", Key: key, Err: err}
	}
	return nil
}

func (s *RedisStore) Close() error { return s.client.Close() }
