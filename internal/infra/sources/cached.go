package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"staysearch/internal/domain/search"
)

const cachePrefix = "staysearch:listings"

// Store is the byte cache behind Cached.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Upstream is what Cached wraps.
type Upstream interface {
	Name() string
	Search(ctx context.Context, target search.LocationTarget, criteria search.SourceCriteria) ([]search.RawListing, error)
}

// Cached serves repeat (source, target, criteria) lookups from the store.
// Cache failures degrade to a direct call.
type Cached struct {
	Inner  Upstream
	Store  Store
	TTL    time.Duration
	Logger *slog.Logger
}

func NewCached(inner Upstream, store Store, ttl time.Duration, logger *slog.Logger) *Cached {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Cached{Inner: inner, Store: store, TTL: ttl, Logger: logger}
}

func (c *Cached) Name() string { return c.Inner.Name() }

func (c *Cached) Search(ctx context.Context, target search.LocationTarget, criteria search.SourceCriteria) ([]search.RawListing, error) {
	key := CacheKey(c.Inner.Name(), target, criteria)
	if cached, ok := c.lookup(ctx, key); ok {
		return cached, nil
	}
	listings, err := c.Inner.Search(ctx, target, criteria)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, listings)
	return listings, nil
}

// Ping forwards to the wrapped source when it can be probed.
func (c *Cached) Ping(ctx context.Context) error {
	if p, ok := c.Inner.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

func CacheKey(source string, target search.LocationTarget, criteria search.SourceCriteria) string {
	id := target.ID
	if id == "" {
		id = target.DisplayName
	}
	return fmt.Sprintf("%s:%s:%s:%s", cachePrefix, source, id, criteria.CacheKey())
}

func (c *Cached) lookup(ctx context.Context, key string) ([]search.RawListing, bool) {
	if c.Store == nil {
		return nil, false
	}
	data, ok, err := c.Store.Get(ctx, key)
	if err != nil {
		c.logger().Warn("listing cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var listings []search.RawListing
	if err := codec.Unmarshal(data, &listings); err != nil {
		c.logger().Warn("listing cache entry corrupt", "key", key, "error", err)
		return nil, false
	}
	c.logger().Debug("listing cache hit", "key", key, "count", len(listings))
	return listings, true
}

func (c *Cached) store(ctx context.Context, key string, listings []search.RawListing) {
	if c.Store == nil || len(listings) == 0 {
		return
	}
	data, err := codec.Marshal(listings)
	if err != nil {
		c.logger().Warn("listing cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.Store.Set(ctx, key, data, c.TTL); err != nil {
		c.logger().Warn("listing cache write failed", "key", key, "error", err)
	}
}

func (c *Cached) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// RedisStore adapts a go-redis client to Store.
type RedisStore struct {
	Client *redis.Client
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func (s RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.Client.Set(ctx, key, value, ttl).Err()
}
