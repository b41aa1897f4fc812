// Package cache memoises recommendation results in Redis. Keys embed the
// corpus version, so a rebuilt model never serves results computed from an
// older one; Invalidate only reclaims the space early.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/AbaeNeupane/Placement-Assistance/internal/matching/tokenizer"
	"github.com/AbaeNeupane/Placement-Assistance/internal/recommender"
	"github.com/AbaeNeupane/Placement-Assistance/pkg/metrics"
	pkgredis "github.com/AbaeNeupane/Placement-Assistance/pkg/redis"
	"github.com/AbaeNeupane/Placement-Assistance/pkg/resilience"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "reco:"

// Store is the subset of the Redis client the cache needs.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
	CountByPattern(ctx context.Context, pattern string) (int64, error)
}

// Entry is one cached recommendation list.
type Entry struct {
	CorpusVersion   string                       `json:"corpus_version"`
	Recommendations []recommender.Recommendation `json:"recommendations"`
}

// Stats is a point-in-time view of cache effectiveness.
type Stats struct {
	Hits         int64   `json:"hits"`
	Misses       int64   `json:"misses"`
	Errors       int64   `json:"errors"`
	HitRate      float64 `json:"hit_rate"`
	Keys         int64   `json:"keys"`
	BreakerState string  `json:"breaker_state"`
}

// ResultCache is a read-through cache with request coalescing. A nil
// *ResultCache is valid and always computes.
type ResultCache struct {
	store   Store
	ttl     time.Duration
	breaker *resilience.CircuitBreaker
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
	errs   atomic.Int64
}

// Option configures a ResultCache.
type Option func(*ResultCache)

// WithMetrics reports hits, misses and breaker transitions to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *ResultCache) { c.metrics = m }
}

// New wraps store. Redis failures trip a circuit breaker, after which the
// cache is bypassed until Redis recovers.
func New(store Store, ttl time.Duration, opts ...Option) *ResultCache {
	c := &ResultCache{
		store:  store,
		ttl:    ttl,
		logger: slog.Default().With("component", "result-cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = resilience.NewCircuitBreaker("redis-cache", resilience.CircuitBreakerConfig{
		FailureThreshold: 5,
		ResetTimeout:     15 * time.Second,
		IsFailure:        func(err error) bool { return !pkgredis.IsNilError(err) },
		OnStateChange: func(name string, from, to resilience.State) {
			c.logger.Warn("cache circuit changed", "from", from, "to", to)
			if c.metrics != nil {
				c.metrics.SetBreakerState(name, int(to))
			}
		},
	})
	return c
}

// Key derives the cache key for q under corpusVersion. Queries that tokenise
// identically share a key because the model only sees their tokens.
func Key(corpusVersion string, q recommender.Query) string {
	raw := strings.Join([]string{
		strings.Join(tokenizer.Tokenize(q.Skills), " "),
		strings.Join(tokenizer.Tokenize(q.Title), " "),
		strconv.FormatFloat(q.Years, 'g', -1, 64),
	}, "|")
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%s:%x", keyPrefix, corpusVersion, hash[:16])
}

// Get returns the cached entry for q, if any.
func (c *ResultCache) Get(ctx context.Context, corpusVersion string, q recommender.Query) (*Entry, bool) {
	if c == nil {
		return nil, false
	}
	key := Key(corpusVersion, q)
	var data []byte
	err := c.breaker.Execute(func() error {
		var getErr error
		data, getErr = c.store.Get(ctx, key)
		return getErr
	})
	if err != nil {
		if !pkgredis.IsNilError(err) && !errors.Is(err, resilience.ErrCircuitOpen) {
			c.errs.Add(1)
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.miss()
		return nil, false
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.errs.Add(1)
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
	c.logger.Debug("cache hit", "key", key)
	return &entry, true
}

// Set stores entry under q. Failures are logged, never returned.
func (c *ResultCache) Set(ctx context.Context, q recommender.Query, entry *Entry) {
	if c == nil {
		return
	}
	key := Key(entry.CorpusVersion, q)
	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.breaker.Execute(func() error { return c.store.Set(ctx, key, data, c.ttl) }); err != nil {
		if !errors.Is(err, resilience.ErrCircuitOpen) {
			c.errs.Add(1)
			c.logger.Error("cache set failed", "key", key, "error", err)
		}
	}
}

// GetOrCompute returns the cached entry for q or computes, stores and
// returns it. Concurrent misses for the same key run compute once. The
// boolean reports a cache hit.
func (c *ResultCache) GetOrCompute(
	ctx context.Context,
	corpusVersion string,
	q recommender.Query,
	compute func() (*Entry, error),
) (*Entry, bool, error) {
	if c == nil {
		entry, err := compute()
		return entry, false, err
	}
	if entry, ok := c.Get(ctx, corpusVersion, q); ok {
		return entry, true, nil
	}
	val, err, _ := c.group.Do(Key(corpusVersion, q), func() (any, error) {
		entry, err := compute()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, q, entry)
		return entry, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*Entry), false, nil
}

// Invalidate deletes every cached result.
func (c *ResultCache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	var deleted int64
	err := c.breaker.Execute(func() error {
		var flushErr error
		deleted, flushErr = c.store.FlushByPattern(ctx, keyPrefix+"*")
		return flushErr
	})
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

// Stats reports counters since start. Keys is best effort and -1 when Redis
// cannot be scanned.
func (c *ResultCache) Stats(ctx context.Context) Stats {
	if c == nil {
		return Stats{BreakerState: "disabled", Keys: -1}
	}
	s := Stats{
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
		Errors:       c.errs.Load(),
		Keys:         -1,
		BreakerState: c.breaker.GetState().String(),
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	_ = c.breaker.Execute(func() error {
		n, err := c.store.CountByPattern(ctx, keyPrefix+"*")
		if err == nil {
			s.Keys = n
		}
		return err
	})
	return s
}

func (c *ResultCache) miss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}
