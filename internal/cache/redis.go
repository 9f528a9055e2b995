package cache

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/invdash/internal/config"
)

const (
	defaultSnapshotTTL = time.Minute
	redisPingTimeout   = 3 * time.Second
	redisClientName    = "invdash-dashboard"
)

// redisOptions resolves the connection settings. REDIS_URL takes precedence
// over host and port; a password or database set separately still overrides
// the one carried by the URL.
func redisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	var opts *redis.Options

	if raw := strings.TrimSpace(cfg.RedisURL); raw != "" {
		parsed, err := redis.ParseURL(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		opts = parsed
		if cfg.RedisPassword != "" {
			opts.Password = cfg.RedisPassword
		}
		if cfg.RedisDB != 0 {
			opts.DB = cfg.RedisDB
		}
	} else {
		host := strings.TrimSpace(cfg.RedisHost)
		if host == "" {
			host = "127.0.0.1"
		}
		port := strings.TrimSpace(cfg.RedisPort)
		if port == "" {
			port = "6379"
		}
		opts = &redis.Options{
			Addr:     net.JoinHostPort(host, port),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}
	}

	opts.ClientName = redisClientName
	return opts, nil
}

// snapshotTTL is how long a computed dashboard stays cached. Snapshots are
// also dropped on every dataset reload.
func snapshotTTL(cfg config.CacheConfig) time.Duration {
	if cfg.DashboardTTLSeconds <= 0 {
		return defaultSnapshotTTL
	}
	return time.Duration(cfg.DashboardTTLSeconds) * time.Second
}

func dialRedis(ctx context.Context, opts *redis.Options) (*redis.Client, error) {
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s failed: %w", opts.Addr, err)
	}
	return client, nil
}
