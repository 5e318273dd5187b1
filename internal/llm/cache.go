package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCacheExpiry = time.Hour

// ClassifierCache memoizes raw classifier payloads in Redis, keyed by a
// digest of the normalized message plus its history window. A miss is
// indistinguishable from a cache outage on purpose: the caller just calls
// the model.
type ClassifierCache struct {
	redis  *redis.Client
	expiry time.Duration
}

func NewClassifierCache(redisClient *redis.Client, expiry time.Duration) *ClassifierCache {
	if expiry <= 0 {
		expiry = defaultCacheExpiry
	}
	return &ClassifierCache{redis: redisClient, expiry: expiry}
}

func cacheKey(text, history string) string {
	sum := sha256.Sum256([]byte(text + "\x00" + history))
	return fmt.Sprintf("classifier:v1:%s", hex.EncodeToString(sum[:]))
}

// Get returns the cached payload and whether it was present.
func (c *ClassifierCache) Get(ctx context.Context, text, history string) (string, bool) {
	if c == nil || c.redis == nil {
		return "", false
	}
	raw, err := c.redis.Get(ctx, cacheKey(text, history)).Result()
	if err != nil {
		return "", false
	}
	return raw, true
}

// Set stores a payload; failures are silently dropped, the cache is an
// optimization only.
func (c *ClassifierCache) Set(ctx context.Context, text, history, raw string) {
	if c == nil || c.redis == nil {
		return
	}
	_ = c.redis.Set(ctx, cacheKey(text, history), raw, c.expiry).Err()
}
