package cache

import (
	"context"
	"time"
)

const (
	// verdictCachePrefix is the Redis key prefix for API-key verdicts.
	verdictCachePrefix = "auth:key:"
	// verdictCacheTTL bounds how long a revoked key can keep working.
	verdictCacheTTL = 5 * time.Minute
)

// GetKeyVerdict retrieves a cached positive verdict by cache key.
// Returns the stored key ID and whether it was found.
func (c *Cache) GetKeyVerdict(ctx context.Context, cacheKey string) (string, bool) {
	keyID, err := c.client.Get(ctx, verdictCachePrefix+cacheKey).Result()
	if err != nil {
		// Cache miss or Redis trouble both fall back to the registry.
		return "", false
	}
	return keyID, true
}

// SetKeyVerdict caches a positive verdict. Only accepted keys are stored;
// rejections always re-check the registry.
func (c *Cache) SetKeyVerdict(ctx context.Context, cacheKey, keyID string) error {
	return c.client.Set(ctx, verdictCachePrefix+cacheKey, keyID, verdictCacheTTL).Err()
}
