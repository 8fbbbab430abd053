package livecache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/radioacc/marta-sign/internal/metrics"
	"github.com/radioacc/marta-sign/internal/realtime/marta"
)

// DefaultTTL is how long a fetched snapshot is served without refetching
const DefaultTTL = 15 * time.Second

// FetchFunc loads a fresh list of arrivals from upstream
type FetchFunc func(ctx context.Context) ([]marta.Arrival, error)

// Snapshot is an immutable view of the cache contents
type Snapshot struct {
	ID        string
	Records   []marta.Arrival
	FetchedAt time.Time // zero until the first successful fetch
}

// Cache holds the most recent realtime snapshot and refreshes it lazily on
// the first read after it goes stale. Concurrent stale reads share a single
// upstream call.
type Cache struct {
	fetch FetchFunc
	now   func() time.Time
	ttl   time.Duration

	mu        sync.RWMutex // protects records, fetchedAt and snapID
	records   []marta.Arrival
	fetchedAt time.Time
	snapID    string

	group singleflight.Group
	stats metrics.FetchStats
}

// Option configures a Cache
type Option func(*Cache)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithTTL sets the freshness window
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// New creates an empty cache backed by fetch
func New(fetch FetchFunc, opts ...Option) *Cache {
	c := &Cache{
		fetch: fetch,
		now:   time.Now,
		ttl:   DefaultTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsStale reports whether a read at now would trigger a refresh
func (c *Cache) IsStale(now time.Time) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.staleLocked(now)
}

// staleLocked - caller must hold c.mu
func (c *Cache) staleLocked(now time.Time) bool {
	return c.fetchedAt.IsZero() || now.Sub(c.fetchedAt) >= c.ttl
}

// Records returns the cached arrivals, refreshing first if the snapshot is
// stale. A failed refresh keeps serving the previous snapshot, which is empty
// only if no fetch has ever succeeded.
func (c *Cache) Records(ctx context.Context) []marta.Arrival {
	if !c.IsStale(c.now()) {
		return c.Snapshot().Records
	}

	// The refresh outlives any single caller: other readers may be waiting on it
	refreshCtx := context.WithoutCancel(ctx)
	c.group.Do("refresh", func() (interface{}, error) {
		return nil, c.refresh(refreshCtx)
	})

	return c.Snapshot().Records
}

// Snapshot returns the current contents without triggering a refresh
func (c *Cache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		ID:        c.snapID,
		Records:   c.records,
		FetchedAt: c.fetchedAt,
	}
}

// Stats summarises upstream fetches made by the cache
func (c *Cache) Stats() metrics.FetchSummary {
	return c.stats.Summary()
}

func (c *Cache) refresh(ctx context.Context) error {
	// Another flight may have completed between our staleness check and now
	if !c.IsStale(c.now()) {
		return nil
	}

	started := c.now()
	records, err := c.fetch(ctx)
	if err != nil {
		c.stats.RecordFailure(c.now())
		prev := c.Snapshot()
		log.Warn().Err(err).
			Int("records", len(prev.Records)).
			Str("snapshot", prev.ID).
			Msg("Cache: refresh failed, serving previous snapshot")
		return err
	}
	if records == nil {
		records = []marta.Arrival{}
	}

	took := c.now().Sub(started)
	c.stats.RecordSuccess(took)

	id := uuid.New().String()
	c.mu.Lock()
	c.records = records
	c.fetchedAt = started
	c.snapID = id
	c.mu.Unlock()

	log.Debug().Str("snapshot", id).Int("records", len(records)).Dur("took", took).Msg("Cache: refreshed")
	return nil
}
