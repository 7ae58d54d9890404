package extraction

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/snf-admission-engine/internal/domain"
)

// CacheClient wraps Redis with caching for extraction results. Referrals
// are frequently re-submitted while an admission decision is pending, and
// extraction is the slowest step of the pipeline.
type CacheClient struct {
	redis      *redis.Client
	defaultTTL time.Duration
}

// NewCacheClient creates a new cache client
func NewCacheClient(config domain.CacheConfig) (*CacheClient, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = config.PoolSize
	opts.PoolTimeout = config.PoolTimeout
	opts.MaxRetries = config.MaxRetries

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &CacheClient{
		redis:      client,
		defaultTTL: config.DefaultTTL,
	}, nil
}

// cachedFeatures wraps extraction output with cache metadata.
type cachedFeatures struct {
	Features  *domain.ClinicalFeatures `json:"features"`
	CachedAt  time.Time                `json:"cached_at"`
	ExpiresAt time.Time                `json:"expires_at"`
}

// GetFeatures retrieves cached extraction output for a referral.
func (c *CacheClient) GetFeatures(ctx context.Context, referralText string) (*domain.ClinicalFeatures, bool, error) {
	key := featureCacheKey(referralText)

	val, err := c.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil // Cache miss
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get extraction cache: %w", err)
	}

	var cached cachedFeatures
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		// Remove corrupted cache entry
		c.redis.Del(ctx, key)
		return nil, false, nil
	}

	if time.Now().After(cached.ExpiresAt) {
		c.redis.Del(ctx, key)
		return nil, false, nil
	}

	return cached.Features, true, nil
}

// SetFeatures caches extraction output for a referral.
func (c *CacheClient) SetFeatures(ctx context.Context, referralText string, features *domain.ClinicalFeatures, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}

	cached := cachedFeatures{
		Features:  features,
		CachedAt:  time.Now(),
		ExpiresAt: time.Now().Add(ttl),
	}

	payload, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to marshal cached features: %w", err)
	}

	if err := c.redis.Set(ctx, featureCacheKey(referralText), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set extraction cache: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *CacheClient) Close() error {
	return c.redis.Close()
}

func featureCacheKey(referralText string) string {
	sum := sha256.Sum256([]byte(referralText))
	return fmt.Sprintf("extraction:features:%x", sum)
}

// CachingExtractor layers the Redis cache in front of another extractor.
// Cache failures degrade to a direct extraction call.
type CachingExtractor struct {
	inner domain.FeatureExtractor
	cache *CacheClient
	ttl   time.Duration
	log   *logrus.Logger
}

// NewCachingExtractor creates a cache-fronted extractor.
func NewCachingExtractor(inner domain.FeatureExtractor, cache *CacheClient, ttl time.Duration, logger *logrus.Logger) *CachingExtractor {
	return &CachingExtractor{
		inner: inner,
		cache: cache,
		ttl:   ttl,
		log:   logger,
	}
}

// ExtractFeatures serves from cache when possible.
func (e *CachingExtractor) ExtractFeatures(ctx context.Context, referralText string) (*domain.ClinicalFeatures, error) {
	features, hit, err := e.cache.GetFeatures(ctx, referralText)
	if err != nil {
		e.log.WithError(err).Warn("Extraction cache read failed, falling through to service")
	} else if hit {
		return features, nil
	}

	features, err = e.inner.ExtractFeatures(ctx, referralText)
	if err != nil {
		return nil, err
	}

	if err := e.cache.SetFeatures(ctx, referralText, features, e.ttl); err != nil {
		e.log.WithError(err).Warn("Extraction cache write failed")
	}
	return features, nil
}
