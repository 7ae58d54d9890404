package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/sirupsen/logrus"

	"github.com/snf-admission-engine/internal/domain"
)

// CacheStats represents rate cache performance statistics
type CacheStats struct {
	Hits         int64     `json:"hits"`
	Misses       int64     `json:"misses"`
	StoreFetches int64     `json:"store_fetches"`
	ErrorCount   int64     `json:"error_count"`
	LastReset    time.Time `json:"last_reset"`
}

// CachedRateStore wraps a RateStore with an in-memory LRU cache. Rate
// records change rarely relative to how often assessments read them, so a
// short TTL keeps the pipeline off the database for repeat lookups while
// still picking up contract changes quickly.
type CachedRateStore struct {
	store domain.RateStore
	cache *lru.Cache
	ttl   time.Duration

	logger  *logrus.Logger
	stats   CacheStats
	statsMu sync.RWMutex
}

type cachedRate struct {
	record    *domain.RateRecord
	expiresAt time.Time
}

// NewCachedRateStore creates a caching layer over the given rate store.
func NewCachedRateStore(store domain.RateStore, size int, ttl time.Duration, logger *logrus.Logger) (*CachedRateStore, error) {
	if size <= 0 {
		size = 512
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate cache: %w", err)
	}

	return &CachedRateStore{
		store:  store,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
		stats:  CacheStats{LastReset: time.Now()},
	}, nil
}

// CurrentRate resolves the active rate, serving from cache when a fresh
// entry exists. Rates are keyed per calendar day: the effective-date
// selection only changes at day granularity.
func (s *CachedRateStore) CurrentRate(ctx context.Context, facilityID, payerID string, asOf time.Time) (*domain.RateRecord, error) {
	key := rateCacheKey(facilityID, payerID, asOf)

	if v, ok := s.cache.Get(key); ok {
		entry := v.(cachedRate)
		if time.Now().Before(entry.expiresAt) {
			s.incrementHits()
			s.logger.WithFields(logrus.Fields{
				"facility_id": facilityID,
				"payer_id":    payerID,
			}).Debug("Rate cache hit")
			return entry.record, nil
		}
		s.cache.Remove(key)
	}
	s.incrementMisses()

	record, err := s.store.CurrentRate(ctx, facilityID, payerID, asOf)
	if err != nil {
		s.incrementErrors()
		return nil, err
	}
	s.incrementFetches()

	s.cache.Add(key, cachedRate{record: record, expiresAt: time.Now().Add(s.ttl)})
	return record, nil
}

// Invalidate drops the cached rate for one facility/payer/date so the next
// lookup re-reads the store. Called after rate configuration changes.
func (s *CachedRateStore) Invalidate(facilityID, payerID string, asOf time.Time) {
	s.cache.Remove(rateCacheKey(facilityID, payerID, asOf))
}

// Purge drops every cached rate.
func (s *CachedRateStore) Purge() {
	s.cache.Purge()
}

// GetCacheStats returns cache performance statistics
func (s *CachedRateStore) GetCacheStats() CacheStats {
	s.statsMu.RLock()
	defer s.statsMu.RUnlock()
	return s.stats
}

func rateCacheKey(facilityID, payerID string, asOf time.Time) string {
	return fmt.Sprintf("%s|%s|%s", facilityID, payerID, asOf.Format("2006-01-02"))
}

func (s *CachedRateStore) incrementHits() {
	s.statsMu.Lock()
	s.stats.Hits++
	s.statsMu.Unlock()
}

func (s *CachedRateStore) incrementMisses() {
	s.statsMu.Lock()
	s.stats.Misses++
	s.statsMu.Unlock()
}

func (s *CachedRateStore) incrementFetches() {
	s.statsMu.Lock()
	s.stats.StoreFetches++
	s.statsMu.Unlock()
}

func (s *CachedRateStore) incrementErrors() {
	s.statsMu.Lock()
	s.stats.ErrorCount++
	s.statsMu.Unlock()
}
