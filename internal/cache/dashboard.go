package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/invdash/internal/config"
	"github.com/andresuchdata/invdash/internal/domain"
)

const (
	dashboardSnapshotKeyPrefix = "dashboard:snapshot"
	// bumped whenever the snapshot JSON layout changes
	snapshotKeyVersion = "v1"
	scanBatchSize      = 100
)

// SnapshotCache stores computed dashboard snapshots keyed by a dataset
// fingerprint.
type SnapshotCache interface {
	GetSnapshot(ctx context.Context, fingerprint string) (*domain.DashboardSnapshot, bool, error)
	SetSnapshot(ctx context.Context, fingerprint string, snapshot *domain.DashboardSnapshot) error
	InvalidateAll(ctx context.Context) error
}

type redisSnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopSnapshotCache struct{}

// NewSnapshotCache returns a redis-backed cache, or a no-op cache when
// caching is disabled.
func NewSnapshotCache(cfg config.CacheConfig) (SnapshotCache, error) {
	if !cfg.Enabled {
		return &noopSnapshotCache{}, nil
	}

	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}
	client, err := dialRedis(context.Background(), opts)
	if err != nil {
		return nil, err
	}

	return &redisSnapshotCache{
		client: client,
		ttl:    snapshotTTL(cfg),
	}, nil
}

func NewNoopSnapshotCache() SnapshotCache {
	return &noopSnapshotCache{}
}

func (c *redisSnapshotCache) GetSnapshot(ctx context.Context, fingerprint string) (*domain.DashboardSnapshot, bool, error) {
	payload, err := c.client.Get(ctx, snapshotKey(fingerprint)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var snapshot domain.DashboardSnapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, false, fmt.Errorf("decode dashboard snapshot cache: %w", err)
	}

	return &snapshot, true, nil
}

func (c *redisSnapshotCache) SetSnapshot(ctx context.Context, fingerprint string, snapshot *domain.DashboardSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode dashboard snapshot cache: %w", err)
	}

	if err := c.client.Set(ctx, snapshotKey(fingerprint), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

// InvalidateAll drops every cached snapshot, whatever its key version.
func (c *redisSnapshotCache) InvalidateAll(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, dashboardSnapshotKeyPrefix+":*", scanBatchSize).Iterator()

	batch := make([]string, 0, scanBatchSize)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatchSize {
			if err := c.client.Unlink(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("redis unlink snapshots: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan snapshots: %w", err)
	}
	if len(batch) > 0 {
		if err := c.client.Unlink(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis unlink snapshots: %w", err)
		}
	}
	return nil
}

func (n *noopSnapshotCache) GetSnapshot(ctx context.Context, fingerprint string) (*domain.DashboardSnapshot, bool, error) {
	return nil, false, nil
}

func (n *noopSnapshotCache) SetSnapshot(ctx context.Context, fingerprint string, snapshot *domain.DashboardSnapshot) error {
	return nil
}

func (n *noopSnapshotCache) InvalidateAll(ctx context.Context) error {
	return nil
}

// Fingerprint hashes a dataset together with the settings that shape its
// snapshot. Equal inputs always produce the same key.
func Fingerprint(ds domain.Dataset, targetRate float64, policy domain.ReorderPolicy) (string, error) {
	payload, err := json.Marshal(ds)
	if err != nil {
		return "", fmt.Errorf("encode dataset fingerprint: %w", err)
	}

	h := sha1.New()
	h.Write(payload)
	h.Write([]byte("|" + strconv.FormatFloat(targetRate, 'g', -1, 64) + "|" + policy.String()))
	return hex.EncodeToString(h.Sum(nil)), nil
}

// snapshotKey namespaces a fingerprint, e.g. dashboard:snapshot:v1:<sha1>.
func snapshotKey(fingerprint string) string {
	if fingerprint == "" {
		fingerprint = "default"
	}
	return fmt.Sprintf("%s:%s:%s", dashboardSnapshotKeyPrefix, snapshotKeyVersion, fingerprint)
}
