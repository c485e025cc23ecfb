package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Config holds Redis configuration
type Config struct {
	Addr        string        `yaml:"addr" validate:"required"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	DialTimeout time.Duration `yaml:"dialTimeout"`

	// NotifyChannel is the pub/sub channel viewers subscribe to
	NotifyChannel string `yaml:"notifyChannel" validate:"required"`
	// CacheNamespace prefixes every order cache key
	CacheNamespace string        `yaml:"cacheNamespace" validate:"required"`
	OrderCacheTTL  time.Duration `yaml:"orderCacheTTL"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Addr:           "localhost:6379",
		DialTimeout:    5 * time.Second,
		NotifyChannel:  "fbs.supply.notifications",
		CacheNamespace: "fbs-supply",
		OrderCacheTTL:  5 * time.Minute,
	}
}

// NewClient connects to Redis and pings it
func NewClient(ctx context.Context, config *Config) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        config.Addr,
		Password:    config.Password,
		DB:          config.DB,
		DialTimeout: config.DialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return rdb, nil
}
