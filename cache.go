package notionsite

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/eringen/notionsite/metrics"
	"github.com/eringen/notionsite/notion"
)

const (
	// failureTTL bounds how long a failed fetch is reported before the next
	// request retries it.
	failureTTL = 30 * time.Second
	// backgroundFetchTimeout bounds fetches started by Lookup.
	backgroundFetchTimeout = time.Minute
	// DefaultMaxCachedPages bounds the number of cache entries.
	DefaultMaxCachedPages = 1000
)

// FetchFunc loads the record map of a page.
type FetchFunc func(ctx context.Context, pageID string) (*notion.RecordMap, error)

type cacheEntry struct {
	rm      *notion.RecordMap
	err     error
	fetched time.Time
}

// CachedPage describes one cache entry.
type CachedPage struct {
	PageID    string
	FetchedAt time.Time
	Failed    bool
}

// PageCache is an in-memory cache of record maps with TTL. Concurrent misses
// for the same page share one fetch. It holds at most maxEntries pages;
// expired failures go first, then the least recently fetched page.
type PageCache struct {
	mu         sync.RWMutex
	entries    map[string]cacheEntry
	maxEntries int
	ttl        time.Duration
	fetch      FetchFunc
	group      singleflight.Group
	metrics    metrics.Recorder
	now        func() time.Time
}

// NewPageCache creates a PageCache that loads pages with fetch.
func NewPageCache(fetch FetchFunc, ttl time.Duration, rec metrics.Recorder) *PageCache {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &PageCache{
		entries:    make(map[string]cacheEntry),
		maxEntries: DefaultMaxCachedPages,
		ttl:        ttl,
		fetch:      fetch,
		metrics:    rec,
		now:        time.Now,
	}
}

// SetMaxEntries changes the entry bound. n <= 0 restores the default.
func (c *PageCache) SetMaxEntries(n int) {
	if n <= 0 {
		n = DefaultMaxCachedPages
	}
	c.mu.Lock()
	c.maxEntries = n
	c.evictLocked("")
	c.mu.Unlock()
}

// Len returns the number of cache entries.
func (c *PageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *PageCache) valid(e cacheEntry) bool {
	ttl := c.ttl
	if e.err != nil && failureTTL < ttl {
		ttl = failureTTL
	}
	return c.now().Sub(e.fetched) < ttl
}

// entry returns the cache entry of key. Expired failures are dropped so
// pages that never load do not stay in memory.
func (c *PageCache) entry(key string) (cacheEntry, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || e.err == nil || c.valid(e) {
		return e, ok
	}
	c.mu.Lock()
	if cur, still := c.entries[key]; still && cur.err != nil && !c.valid(cur) {
		delete(c.entries, key)
	}
	c.mu.Unlock()
	return cacheEntry{}, false
}

// evictLocked removes entries until a new one fits, keeping key. Expired
// failures are removed first, then the oldest entries.
func (c *PageCache) evictLocked(key string) {
	limit := c.maxEntries
	if _, exists := c.entries[key]; key != "" && !exists {
		limit--
	}
	if len(c.entries) <= limit {
		return
	}
	for k, e := range c.entries {
		if k != key && e.err != nil && !c.valid(e) {
			delete(c.entries, k)
		}
	}
	for len(c.entries) > limit {
		oldest := ""
		var oldestAt time.Time
		for k, e := range c.entries {
			if k == key {
				continue
			}
			if oldest == "" || e.fetched.Before(oldestAt) {
				oldest, oldestAt = k, e.fetched
			}
		}
		if oldest == "" {
			return
		}
		delete(c.entries, oldest)
	}
}

// fetchAndStore runs the fetch and records its outcome. Canceled fetches are
// not recorded.
func (c *PageCache) fetchAndStore(ctx context.Context, key, pageID string) (*notion.RecordMap, error) {
	start := c.now()
	rm, err := c.fetch(ctx, pageID)
	c.metrics.ObserveFetchDuration(c.now().Sub(start), err == nil)
	if errors.Is(err, context.Canceled) {
		return nil, err
	}
	c.mu.Lock()
	c.evictLocked(key)
	c.entries[key] = cacheEntry{rm: rm, err: err, fetched: c.now()}
	c.mu.Unlock()
	return rm, err
}

// load fetches a page through the singleflight group.
func (c *PageCache) load(ctx context.Context, key, pageID string) (*notion.RecordMap, error) {
	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		return c.fetchAndStore(ctx, key, pageID)
	})
	if shared {
		c.metrics.IncCacheResult(metrics.CacheShared)
	}
	rm, _ := v.(*notion.RecordMap)
	return rm, err
}

// Get returns the record map of a page, fetching it when the cached copy is
// missing or expired.
func (c *PageCache) Get(ctx context.Context, pageID string) (*notion.RecordMap, error) {
	key := notion.NormalizeID(pageID)
	if e, ok := c.entry(key); ok && c.valid(e) {
		c.metrics.IncCacheResult(metrics.CacheHit)
		return e.rm, e.err
	}
	c.metrics.IncCacheResult(metrics.CacheMiss)
	return c.load(ctx, key, pageID)
}

// Lookup never blocks on a fetch. A fresh entry is returned as is; an
// expired entry is returned while a refresh runs in the background; a
// missing entry starts a background fetch and reports ok=false.
func (c *PageCache) Lookup(ctx context.Context, pageID string) (rm *notion.RecordMap, ok bool, err error) {
	key := notion.NormalizeID(pageID)
	e, found := c.entry(key)
	switch {
	case found && c.valid(e):
		c.metrics.IncCacheResult(metrics.CacheHit)
		return e.rm, true, e.err
	case found && e.err == nil:
		c.metrics.IncCacheResult(metrics.CacheStale)
		c.refresh(ctx, key, pageID)
		return e.rm, true, nil
	default:
		c.metrics.IncCacheResult(metrics.CacheMiss)
		c.refresh(ctx, key, pageID)
		return nil, false, nil
	}
}

func (c *PageCache) refresh(ctx context.Context, key, pageID string) {
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), backgroundFetchTimeout)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		return c.fetchAndStore(bg, key, pageID)
	})
	go func() {
		<-ch
		cancel()
	}()
}

// Invalidate drops one page so the next read fetches it again.
func (c *PageCache) Invalidate(pageID string) {
	c.mu.Lock()
	delete(c.entries, notion.NormalizeID(pageID))
	c.mu.Unlock()
}

// InvalidateAll clears the cache.
func (c *PageCache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// Pages lists the cache entries, most recently fetched first.
func (c *PageCache) Pages() []CachedPage {
	c.mu.RLock()
	pages := make([]CachedPage, 0, len(c.entries))
	for id, e := range c.entries {
		pages = append(pages, CachedPage{PageID: id, FetchedAt: e.fetched, Failed: e.err != nil})
	}
	c.mu.RUnlock()
	sort.Slice(pages, func(i, j int) bool {
		if !pages[i].FetchedAt.Equal(pages[j].FetchedAt) {
			return pages[i].FetchedAt.After(pages[j].FetchedAt)
		}
		return pages[i].PageID < pages[j].PageID
	})
	return pages
}
