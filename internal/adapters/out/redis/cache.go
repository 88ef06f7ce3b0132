// Package redis backs the analytics read-through cache with redis.
package redis

import (
	"context"
	"errors"
	"time"

	"fulfillment/internal/core/ports"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Config selects the redis server and the key namespace.
type Config struct {
	Addr       string
	Password   string
	DB         int
	Prefix     string
	DefaultTTL time.Duration
}

// Cache implements ports.AnalyticsCache.
type Cache struct {
	client     *goredis.Client
	prefix     string
	defaultTTL time.Duration
}

// NewClient builds a client; it does not dial until first use.
func NewClient(cfg Config) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Connect pings the server so misconfiguration surfaces at startup.
func Connect(ctx context.Context, cfg Config, log *zap.Logger) (*Cache, error) {
	client := NewClient(cfg)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	if log != nil {
		log.Info("redis cache connected", zap.String("addr", cfg.Addr))
	}
	return NewCache(client, cfg.Prefix, cfg.DefaultTTL), nil
}

func NewCache(client *goredis.Client, prefix string, defaultTTL time.Duration) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = time.Minute
	}
	return &Cache{client: client, prefix: prefix, defaultTTL: defaultTTL}
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ports.ErrCacheMiss
	}
	res, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ports.ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return errors.New("cache key is required")
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	return c.client.Set(ctx, c.prefix+key, value, ttl).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}

// Noop never stores anything; every Get is a miss.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, error) {
	return nil, ports.ErrCacheMiss
}

func (Noop) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}
