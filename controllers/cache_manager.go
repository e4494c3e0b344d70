package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	aws_pkg "storefront-service/pkg/aws"
	"storefront-service/services"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	CatalogCachePrefix     = "products:v:"
	CatalogCacheVersionKey = "products:version"
	DefaultCacheTTL        = 5 * time.Minute
)

// CatalogCache caches product API responses under versioned keys. Bumping
// the version orphans every cached entry at once; orphans expire by TTL.
// A nil *CatalogCache, or one without a client, is a permanent miss.
type CatalogCache struct {
	redis   *redis.Client
	ttl     time.Duration
	metrics services.MetricsRecorder
	logger  *zap.Logger
}

func NewCatalogCache(client *redis.Client, metrics services.MetricsRecorder, logger *zap.Logger) *CatalogCache {
	return &CatalogCache{redis: client, ttl: DefaultCacheTTL, metrics: metrics, logger: logger}
}

func (cm *CatalogCache) enabled() bool {
	return cm != nil && cm.redis != nil
}

// Lookup decodes the entry stored under name into dst. The returned version
// must be passed to StoreAsync so a response read before an invalidation is
// never filed under the newer version. Version 0 means caching is unavailable.
func (cm *CatalogCache) Lookup(ctx context.Context, name string, dst any) (bool, int64) {
	if !cm.enabled() {
		return false, 0
	}

	version, err := cm.version(ctx)
	if err != nil {
		cm.logger.Warn("Catalog cache version unavailable", zap.Error(err))
		return false, 0
	}

	data, err := cm.redis.Get(ctx, cacheKey(version, name)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			cm.logger.Warn("Catalog cache read failed", zap.String("key", name), zap.Error(err))
		}
		cm.record(ctx, aws_pkg.MetricCacheMisses)
		return false, version
	}

	if err := json.Unmarshal(data, dst); err != nil {
		cm.logger.Warn("Failed to unmarshal cached catalog entry", zap.String("key", name), zap.Error(err))
		cm.record(ctx, aws_pkg.MetricCacheMisses)
		return false, version
	}

	cm.record(ctx, aws_pkg.MetricCacheHits)
	return true, version
}

// StoreAsync caches v under name for the given version in the background.
func (cm *CatalogCache) StoreAsync(version int64, name string, v any) {
	if !cm.enabled() || version == 0 {
		return
	}

	payload, err := json.Marshal(v)
	if err != nil {
		cm.logger.Warn("Failed to marshal catalog entry for cache", zap.String("key", name), zap.Error(err))
		return
	}

	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := cm.redis.Set(bgCtx, cacheKey(version, name), payload, cm.ttl).Err(); err != nil {
			cm.logger.Warn("Failed to cache catalog entry", zap.String("key", name), zap.Error(err))
		}
	}()
}

// InvalidateCatalog bumps the cache version. It satisfies
// services.CatalogInvalidator.
func (cm *CatalogCache) InvalidateCatalog(ctx context.Context) {
	if !cm.enabled() {
		return
	}

	newVersion, err := cm.redis.Incr(ctx, CatalogCacheVersionKey).Result()
	if err != nil {
		cm.logger.Error("Failed to invalidate catalog cache", zap.Error(err))
		return
	}
	cm.logger.Info("Catalog cache invalidated", zap.Int64("new_version", newVersion))
}

func (cm *CatalogCache) version(ctx context.Context) (int64, error) {
	ver, err := cm.redis.Get(ctx, CatalogCacheVersionKey).Int64()
	if err == nil && ver > 0 {
		return ver, nil
	}
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, err
	}

	// first use: SETNX so a concurrent Incr is never overwritten
	if err := cm.redis.SetNX(ctx, CatalogCacheVersionKey, 1, 0).Err(); err != nil {
		return 0, err
	}
	ver, err = cm.redis.Get(ctx, CatalogCacheVersionKey).Int64()
	if err != nil {
		return 0, err
	}
	if ver <= 0 {
		return 0, fmt.Errorf("invalid catalog cache version %d", ver)
	}
	return ver, nil
}

func (cm *CatalogCache) record(ctx context.Context, metric string) {
	if cm.metrics == nil {
		return
	}
	_ = cm.metrics.RecordCount(context.WithoutCancel(ctx), metric, map[string]string{"Cache": "catalog"})
}

func cacheKey(version int64, name string) string {
	return fmt.Sprintf("%s%d:%s", CatalogCachePrefix, version, name)
}
