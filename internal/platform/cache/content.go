package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const versionKey = "content:version"

// Content wraps Redis based caching of published site content with a
// version counter so writers can invalidate every derived key at once.
type Content struct {
	client *redis.Client
	ttl    time.Duration
}

// NewContent instantiates the cache helper.
func NewContent(client *redis.Client, ttl time.Duration) *Content {
	return &Content{client: client, ttl: ttl}
}

// Version returns the current cache version, initialising when missing.
func (c *Content) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.Set(ctx, versionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// Invalidate bumps the version so subsequent reads repopulate.
func (c *Content) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, versionKey).Err()
}

// FetchJSON loads a cached value or populates it using the loader.
func (c *Content) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}
	if c == nil || c.client == nil {
		value, err := loader(ctx)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, dest)
	}

	ver, err := c.Version(ctx)
	if err != nil {
		return err
	}
	versioned := fmt.Sprintf("%s:%d", strings.TrimSuffix(key, ":"), ver)

	raw, err := c.client.Get(ctx, versioned).Bytes()
	if err == nil {
		return json.Unmarshal(raw, dest)
	}
	if !errors.Is(err, redis.Nil) {
		return err
	}

	value, err := loader(ctx)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, versioned, encoded, c.ttl).Err(); err != nil {
		return err
	}
	return json.Unmarshal(encoded, dest)
}

// SetRaw stores a prebuilt payload under key (used by the sitemap job).
func (c *Content) SetRaw(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}

// GetRaw returns a stored payload, or redis.Nil wrapped as not found.
func (c *Content) GetRaw(ctx context.Context, key string) ([]byte, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("cache: not configured")
	}
	return c.client.Get(ctx, key).Bytes()
}
