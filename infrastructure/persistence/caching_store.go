package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache abstracts the caching backend. Every key carries a version that
// Invalidate bumps; SetIfVersion only fills an entry whose version has not
// moved since it was read, so a fill racing a write is dropped.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Version(ctx context.Context, key string) (int64, error)
	SetIfVersion(ctx context.Context, key string, value []byte, ttl time.Duration, version int64) (bool, error)
	Invalidate(ctx context.Context, key string) error
}

// versionTTL must outlive the slowest backend read between Version and SetIfVersion.
const versionTTL = 24 * time.Hour

// RedisCache implements Cache on a Redis client. Versions live in Redis next
// to the entries, so writers on other instances are seen too.
type RedisCache struct {
	client redis.UniversalClient
}

// NewRedisCache creates a Redis-backed cache.
func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client}
}

func versionKey(key string) string {
	return key + "#v"
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *RedisCache) Version(ctx context.Context, key string) (int64, error) {
	v, err := c.client.Get(ctx, versionKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (c *RedisCache) SetIfVersion(ctx context.Context, key string, value []byte, ttl time.Duration, version int64) (bool, error) {
	vkey := versionKey(key)
	stored := false
	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, vkey).Int64()
		switch {
		case errors.Is(err, redis.Nil):
			current = 0
		case err != nil:
			return err
		}
		if current != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, value, ttl)
			return nil
		})
		stored = err == nil
		return err
	}, vkey)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	return stored, err
}

func (c *RedisCache) Invalidate(ctx context.Context, key string) error {
	vkey := versionKey(key)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, vkey)
		pipe.Expire(ctx, vkey, versionTTL)
		pipe.Del(ctx, key)
		return nil
	})
	return err
}

// CachingConfig controls caching behavior
type CachingConfig struct {
	TTL       time.Duration
	KeyPrefix string
}

// CachingStore is a read-through document cache. Every write through this
// store invalidates the cached copy before and after touching the backend,
// and fills are conditional on the key version seen before the backend read.
// Writers that bypass the cache are bounded only by the TTL. Cache failures
// are logged and never fail the call.
type CachingStore struct {
	inner  DocumentStore
	cache  Cache
	config CachingConfig
	logger *zap.Logger
}

// NewCachingStore wraps inner with a document cache.
func NewCachingStore(inner DocumentStore, cache Cache, config CachingConfig, logger *zap.Logger) *CachingStore {
	if config.TTL <= 0 {
		config.TTL = time.Minute
	}
	return &CachingStore{inner: inner, cache: cache, config: config, logger: logger}
}

func (c *CachingStore) cacheKey(path string) string {
	return c.config.KeyPrefix + path
}

func (c *CachingStore) Get(ctx context.Context, path string) (Document, error) {
	key := c.cacheKey(path)
	if raw, ok, err := c.cache.Get(ctx, key); err != nil {
		c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		var doc Document
		if err := json.Unmarshal(raw, &doc); err == nil {
			return doc, nil
		}
		c.logger.Warn("discarding undecodable cache entry", zap.String("key", key))
	}

	// the version must be read before the backend so a write landing in
	// between is detected at fill time
	version, verr := c.cache.Version(ctx, key)

	doc, err := c.inner.Get(ctx, path)
	if err != nil {
		return nil, err
	}

	if verr != nil {
		c.logger.Warn("cache version read failed, not filling", zap.String("key", key), zap.Error(verr))
		return doc, nil
	}
	c.fill(ctx, key, doc, version)
	return doc, nil
}

func (c *CachingStore) fill(ctx context.Context, key string, doc Document, version int64) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return
	}
	stored, err := c.cache.SetIfVersion(ctx, key, raw, c.config.TTL, version)
	switch {
	case err != nil:
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	case !stored:
		c.logger.Debug("skipping cache fill after concurrent write", zap.String("key", key))
	}
}

func (c *CachingStore) invalidate(ctx context.Context, path string) {
	if err := c.cache.Invalidate(ctx, c.cacheKey(path)); err != nil {
		c.logger.Warn("cache invalidation failed", zap.String("path", path), zap.Error(err))
	}
}

func (c *CachingStore) write(ctx context.Context, path string, fn func() error) error {
	c.invalidate(ctx, path)
	err := fn()
	c.invalidate(ctx, path)
	return err
}

func (c *CachingStore) Set(ctx context.Context, path string, doc Document, opts ...SetOption) error {
	return c.write(ctx, path, func() error {
		return c.inner.Set(ctx, path, doc, opts...)
	})
}

func (c *CachingStore) Create(ctx context.Context, path string, doc Document) error {
	return c.write(ctx, path, func() error {
		return c.inner.Create(ctx, path, doc)
	})
}

func (c *CachingStore) Update(ctx context.Context, path string, fields map[string]interface{}) error {
	return c.write(ctx, path, func() error {
		return c.inner.Update(ctx, path, fields)
	})
}

func (c *CachingStore) Delete(ctx context.Context, path string) error {
	return c.write(ctx, path, func() error {
		return c.inner.Delete(ctx, path)
	})
}

// Query is never cached; list results change with every write in the collection.
func (c *CachingStore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	return c.inner.Query(ctx, collection, q)
}

func (c *CachingStore) HealthCheck(ctx context.Context) error {
	return c.inner.HealthCheck(ctx)
}
