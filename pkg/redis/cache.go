package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// JSONCache stores values as JSON strings under a common key prefix.
type JSONCache[V any] struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewJSONCache returns a cache writing keys as prefix+key with the given TTL.
// Zero TTL keeps entries until evicted.
func NewJSONCache[V any](client redis.Cmdable, prefix string, ttl time.Duration) *JSONCache[V] {
	if client == nil {
		panic("redis: nil client")
	}
	return &JSONCache[V]{client: client, prefix: prefix, ttl: ttl}
}

// Get returns ErrCacheMiss when the key does not exist.
func (c *JSONCache[V]) Get(ctx context.Context, key string) (V, error) {
	var v V
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return v, ErrCacheMiss
	}
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, errors.Join(ErrCacheDecode, err)
	}
	return v, nil
}

func (c *JSONCache[V]) Set(ctx context.Context, key string, v V) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Join(ErrCacheEncode, err)
	}
	return c.client.Set(ctx, c.prefix+key, raw, c.ttl).Err()
}

func (c *JSONCache[V]) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}
	return c.client.Del(ctx, full...).Err()
}
