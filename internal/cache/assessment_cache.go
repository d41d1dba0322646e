// Package cache provides a two-tier cache for resolved risk assessments:
// an in-memory LRU for hot entries and an optional Redis tier shared across
// instances. The cache is advisory; every miss falls through to the risk
// engine and tier failures are logged, never surfaced.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-server/internal/domain"
)

// Stats tracks cache performance counters.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	RedisHits int64 `json:"redis_hits"`
}

// AssessmentCache caches RiskResult values keyed by the full assessment
// input. Risk table data is static for the process lifetime, so entries
// never go stale in the memory tier; the Redis tier carries a TTL only to
// bound its footprint.
type AssessmentCache struct {
	logger *logrus.Logger
	memory *lru.Cache[string, domain.RiskResult]
	redis  *redis.Client
	ttl    time.Duration

	stats      Stats
	statsMutex sync.Mutex
}

// New creates an assessment cache. The Redis tier is attached only when
// enabled in config; a nil redis client keeps the cache purely in-memory.
func New(cfg *domain.CacheConfig, logger *logrus.Logger) (*AssessmentCache, error) {
	maxItems := cfg.MaxMemoryItems
	if maxItems <= 0 {
		maxItems = 1024
	}
	memory, err := lru.New[string, domain.RiskResult](maxItems)
	if err != nil {
		return nil, fmt.Errorf("creating memory cache: %w", err)
	}

	c := &AssessmentCache{
		logger: logger,
		memory: memory,
		ttl:    cfg.DefaultTTL,
	}

	if cfg.RedisEnabled {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis URL: %w", err)
		}
		c.redis = redis.NewClient(opts)
	}

	return c, nil
}

// Get returns a cached assessment if present in either tier. Redis hits are
// promoted into the memory tier.
func (c *AssessmentCache) Get(ctx context.Context, drug, phenotypeCode string, confidence float64) (domain.RiskResult, bool) {
	key := cacheKey(drug, phenotypeCode, confidence)

	if result, ok := c.memory.Get(key); ok {
		c.count(func(s *Stats) { s.Hits++ })
		return result, true
	}

	if c.redis != nil {
		raw, err := c.redis.Get(ctx, key).Bytes()
		if err == nil {
			var result domain.RiskResult
			if err := json.Unmarshal(raw, &result); err == nil {
				c.memory.Add(key, result)
				c.count(func(s *Stats) { s.Hits++; s.RedisHits++ })
				return result, true
			}
		} else if err != redis.Nil {
			c.logger.WithError(err).Debug("Redis cache read failed")
		}
	}

	c.count(func(s *Stats) { s.Misses++ })
	return domain.RiskResult{}, false
}

// Put stores an assessment in both tiers.
func (c *AssessmentCache) Put(ctx context.Context, drug, phenotypeCode string, confidence float64, result domain.RiskResult) {
	key := cacheKey(drug, phenotypeCode, confidence)
	c.memory.Add(key, result)

	if c.redis != nil {
		raw, err := json.Marshal(result)
		if err != nil {
			return
		}
		if err := c.redis.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.logger.WithError(err).Debug("Redis cache write failed")
		}
	}
}

// GetStats returns a snapshot of the cache counters.
func (c *AssessmentCache) GetStats() Stats {
	c.statsMutex.Lock()
	defer c.statsMutex.Unlock()
	return c.stats
}

// Close releases the Redis connection if one is attached.
func (c *AssessmentCache) Close() error {
	if c.redis != nil {
		return c.redis.Close()
	}
	return nil
}

func (c *AssessmentCache) count(update func(*Stats)) {
	c.statsMutex.Lock()
	update(&c.stats)
	c.statsMutex.Unlock()
}

func cacheKey(drug, phenotypeCode string, confidence float64) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%g", drug, phenotypeCode, confidence)))
	return "pgx:assessment:" + hex.EncodeToString(sum[:16])
}
