package cache

import (
	"container/list"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/listflow/filter"
	"github.com/hupe1980/listflow/internal/clock"
	"github.com/hupe1980/listflow/model"
)

// DefaultMaxEntries caps the cache when no capacity is configured.
const DefaultMaxEntries = 12

// DefaultTTL is the entry lifetime when no TTL is configured. A short
// window plus explicit invalidation beats a long window: invalidation
// cannot enumerate every affected key for free-text search terms.
const DefaultTTL = 300 * time.Second

// Config configures a ResultCache.
type Config struct {
	// MaxEntries caps stored entries. Defaults to DefaultMaxEntries.
	MaxEntries int
	// DefaultTTL applies when Put is called with ttl <= 0.
	DefaultTTL time.Duration
	// Clock defaults to the wall clock.
	Clock clock.Clock
	// Logger defaults to a discard logger.
	Logger *slog.Logger
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Entries     int
	Hits        int64
	Misses      int64
	Evictions   int64
	Expirations int64
}

type entry struct {
	key       filter.Fingerprint
	slot      uint32
	rs        model.ResultSet
	expiresAt time.Time
}

// ResultCache maps filter fingerprints to cached result sets.
//
// The eviction list front is most-recently-used; lookups promote their
// entry. Every entry owns a slot ID referenced by the attribute bitmaps
// used for targeted invalidation.
type ResultCache struct {
	mu        sync.Mutex
	cfg       Config
	items     map[filter.Fingerprint]*list.Element
	evictList *list.List
	slots     map[uint32]*list.Element
	nextSlot  uint32

	favSlots    *roaring.Bitmap
	searchSlots *roaring.Bitmap
	catSlots    map[string]*roaring.Bitmap

	hits        atomic.Int64
	misses      atomic.Int64
	evictions   atomic.Int64
	expirations atomic.Int64
}

// New creates an empty cache.
func New(cfg Config) *ResultCache {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultTTL
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ResultCache{
		cfg:         cfg,
		items:       make(map[filter.Fingerprint]*list.Element),
		evictList:   list.New(),
		slots:       make(map[uint32]*list.Element),
		favSlots:    roaring.New(),
		searchSlots: roaring.New(),
		catSlots:    make(map[string]*roaring.Bitmap),
	}
}

// Get returns a defensive copy of the cached result set for fp.
// An expired entry is removed as a side effect and reported as a miss.
// A hit promotes the entry to most-recently-used.
func (c *ResultCache) Get(fp filter.Fingerprint) (model.ResultSet, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[fp]
	if !ok {
		c.misses.Add(1)
		return model.ResultSet{}, false
	}

	ent := el.Value.(*entry)
	if !c.cfg.Clock.Now().Before(ent.expiresAt) {
		c.removeElement(el)
		c.expirations.Add(1)
		c.misses.Add(1)
		c.cfg.Logger.Debug("cache entry expired", "fingerprint", fp.String())
		return model.ResultSet{}, false
	}

	c.evictList.MoveToFront(el)
	c.hits.Add(1)
	return ent.rs.Clone(), true
}

// Put stores a defensive copy of rs under fp, overwriting any existing
// entry. If the cache is full, the least-recently-used entry is evicted
// first. A ttl <= 0 falls back to the configured default.
func (c *ResultCache) Put(fp filter.Fingerprint, rs model.ResultSet, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.cfg.DefaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cp := rs.Clone()
	cp.Fingerprint = fp
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = c.cfg.Clock.Now()
	}
	expiresAt := cp.CreatedAt.Add(ttl)

	if el, ok := c.items[fp]; ok {
		ent := el.Value.(*entry)
		ent.rs = cp
		ent.expiresAt = expiresAt
		c.evictList.MoveToFront(el)
		return
	}

	for c.evictList.Len() >= c.cfg.MaxEntries {
		oldest := c.evictList.Back()
		if oldest == nil {
			break
		}
		victim := oldest.Value.(*entry)
		c.removeElement(oldest)
		c.evictions.Add(1)
		c.cfg.Logger.Debug("cache entry evicted", "fingerprint", victim.key.String())
	}

	slot := c.nextSlot
	c.nextSlot++
	ent := &entry{key: fp, slot: slot, rs: cp, expiresAt: expiresAt}
	el := c.evictList.PushFront(ent)
	c.items[fp] = el
	c.slots[slot] = el
	c.indexSlot(fp, slot)
}

// InvalidateMatching removes every entry whose fingerprint satisfies
// the predicate and returns how many were removed.
func (c *ResultCache) InvalidateMatching(predicate func(filter.Fingerprint) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var toRemove []*list.Element
	for fp, el := range c.items {
		if predicate(fp) {
			toRemove = append(toRemove, el)
		}
	}
	for _, el := range toRemove {
		c.removeElement(el)
	}
	return len(toRemove)
}

// InvalidateFavorites removes every entry whose fingerprint encodes
// favorites-only filtering. Conservative: a favorite toggle may stale
// any of them.
func (c *ResultCache) InvalidateFavorites() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalidateSlotsLocked(c.favSlots.Clone())
}

// InvalidateCategory removes every entry scoped to the given category.
func (c *ResultCache) InvalidateCategory(category string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.catSlots[category]
	if !ok {
		return 0
	}
	return c.invalidateSlotsLocked(b.Clone())
}

// InvalidateCategories removes every entry scoped to any category.
func (c *ResultCache) InvalidateCategories() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	union := roaring.New()
	for _, b := range c.catSlots {
		union.Or(b)
	}
	return c.invalidateSlotsLocked(union)
}

// InvalidateSearches removes every entry carrying a search constraint.
func (c *ResultCache) InvalidateSearches() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalidateSlotsLocked(c.searchSlots.Clone())
}

// InvalidateAll clears the cache and returns how many entries it held.
func (c *ResultCache) InvalidateAll() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.evictList.Len()
	c.items = make(map[filter.Fingerprint]*list.Element)
	c.evictList.Init()
	c.slots = make(map[uint32]*list.Element)
	c.favSlots.Clear()
	c.searchSlots.Clear()
	c.catSlots = make(map[string]*roaring.Bitmap)
	return n
}

// Len returns the number of stored entries.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictList.Len()
}

// Stats returns current counters.
func (c *ResultCache) Stats() Stats {
	c.mu.Lock()
	entries := c.evictList.Len()
	c.mu.Unlock()
	return Stats{
		Entries:     entries,
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Evictions:   c.evictions.Load(),
		Expirations: c.expirations.Load(),
	}
}

func (c *ResultCache) invalidateSlotsLocked(slots *roaring.Bitmap) int {
	removed := 0
	it := slots.Iterator()
	for it.HasNext() {
		slot := it.Next()
		if el, ok := c.slots[slot]; ok {
			c.removeElement(el)
			removed++
		}
	}
	return removed
}

func (c *ResultCache) indexSlot(fp filter.Fingerprint, slot uint32) {
	if fp.FavoritesOnly {
		c.favSlots.Add(slot)
	}
	if fp.HasSearch() {
		c.searchSlots.Add(slot)
	}
	if fp.HasCategory() {
		b, ok := c.catSlots[fp.Category]
		if !ok {
			b = roaring.New()
			c.catSlots[fp.Category] = b
		}
		b.Add(slot)
	}
}

func (c *ResultCache) removeElement(el *list.Element) {
	ent := el.Value.(*entry)
	c.evictList.Remove(el)
	delete(c.items, ent.key)
	delete(c.slots, ent.slot)

	c.favSlots.Remove(ent.slot)
	c.searchSlots.Remove(ent.slot)
	if ent.key.HasCategory() {
		if b, ok := c.catSlots[ent.key.Category]; ok {
			b.Remove(ent.slot)
			if b.IsEmpty() {
				delete(c.catSlots, ent.key.Category)
			}
		}
	}
}
