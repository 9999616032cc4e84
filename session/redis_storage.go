package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisTimeout = 3 * time.Second

// RedisStorage keeps the session record in a single redis string.
type RedisStorage struct {
	client  redis.UniversalClient
	prefix  string
	timeout time.Duration
}

var _ Storage = (*RedisStorage)(nil)

type RedisOption func(*RedisStorage)

// WithRedisPrefix namespaces keys, e.g. "finclient:".
func WithRedisPrefix(prefix string) RedisOption {
	return func(r *RedisStorage) {
		r.prefix = prefix
	}
}

func WithRedisTimeout(d time.Duration) RedisOption {
	return func(r *RedisStorage) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func NewRedisStorage(client redis.UniversalClient, opts ...RedisOption) (*RedisStorage, error) {
	if client == nil {
		return nil, errors.New("[NewRedisStorage] client is required")
	}
	r := &RedisStorage{client: client, timeout: defaultRedisTimeout}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *RedisStorage) Load(key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return raw, err
}

func (r *RedisStorage) Save(key string, data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	return r.client.Set(ctx, r.prefix+key, data, 0).Err()
}

func (r *RedisStorage) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	return r.client.Del(ctx, r.prefix+key).Err()
}
