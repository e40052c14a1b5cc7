package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/lakgs-api/pkg/config"
)

// ErrNotConfigured is returned by NewRedis when neither REDIS_URL nor
// REDIS_HOST is set.
var ErrNotConfigured = errors.New("redis not configured")

// Enabled reports whether Redis is configured.
func Enabled(cfg config.RedisConfig) bool {
	return cfg.URL != "" || cfg.Host != ""
}

func options(cfg config.RedisConfig) (*redis.Options, error) {
	var opts *redis.Options
	switch {
	case cfg.URL != "":
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		opts = parsed
	case cfg.Host != "":
		port := cfg.Port
		if port == 0 {
			port = 6379
		}
		opts = &redis.Options{
			Addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	default:
		return nil, ErrNotConfigured
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	opts.ClientName = "lakgs-api"
	return opts, nil
}

// NewRedis connects and pings Redis. Sessions and the explanation cache
// share the returned client.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := options(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	timeout := opts.DialTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return client, nil
}
