package listflow

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/hupe1980/listflow/filter"
	"github.com/hupe1980/listflow/internal/cache"
	"github.com/hupe1980/listflow/internal/clock"
	"github.com/hupe1980/listflow/internal/debounce"
	"github.com/hupe1980/listflow/internal/resource"
	"github.com/hupe1980/listflow/model"
	"github.com/hupe1980/listflow/render"
)

// snapshotFile is the cache snapshot filename inside the cache dir.
const snapshotFile = "results.snap"

// QueryExecutor executes a filtered query. It must be idempotent for
// equal filter states: the cache assumes identical states yield the
// same logical result set until an explicit invalidation occurs.
type QueryExecutor interface {
	Execute(ctx context.Context, state filter.State) ([]model.Item, error)
}

// QueryExecutorFunc adapts a function to the QueryExecutor interface.
type QueryExecutorFunc func(ctx context.Context, state filter.State) ([]model.Item, error)

// Execute implements QueryExecutor.
func (f QueryExecutorFunc) Execute(ctx context.Context, state filter.State) ([]model.Item, error) {
	return f(ctx, state)
}

// MutationKind classifies external data mutations for targeted cache
// invalidation.
type MutationKind int

const (
	// MutationFavorites: a favorite flag was toggled somewhere.
	// Invalidates every favorites-filtered entry.
	MutationFavorites MutationKind = iota
	// MutationCategories: the category vocabulary or an item's
	// category changed. Invalidates every category-scoped entry.
	MutationCategories
	// MutationItems: item content changed in a way that may affect any
	// result set. Invalidates everything; free-text search keys cannot
	// be enumerated more precisely.
	MutationItems
)

func (k MutationKind) String() string {
	switch k {
	case MutationFavorites:
		return "favorites"
	case MutationCategories:
		return "categories"
	case MutationItems:
		return "items"
	default:
		return fmt.Sprintf("mutation(%d)", int(k))
	}
}

// CacheStats is a point-in-time snapshot of result cache counters.
type CacheStats struct {
	Entries     int
	Hits        int64
	Misses      int64
	Evictions   int64
	Expirations int64
}

// PoolStats is a point-in-time snapshot of renderable pool accounting.
type PoolStats struct {
	Created     int
	FreeCount   int
	ActiveCount int
	Hits        int64
	Misses      int64
}

// Pipeline ties the filter coordinator, result cache, debounce
// scheduler, and rendering coordinator into one filter→fetch→render
// pipeline.
//
// Filter changes arrive through RequestUpdate, are coalesced by the
// debounce scheduler, and settle into a cache probe or query execution;
// the resulting set is delivered to subscribers and rendered
// progressively. All methods are safe for concurrent use.
type Pipeline struct {
	opts     options
	logger   *Logger
	metrics  MetricsCollector
	clk      clock.Clock
	executor QueryExecutor
	cache    *cache.ResultCache
	deb      *debounce.Scheduler[filter.State]
	rc       *resource.Controller
	renderer *render.Coordinator

	mu         sync.Mutex
	committed  filter.State
	previous   filter.State
	pending    filter.State
	hasPending bool
	subs       []Subscriber
	closed     bool
}

// New creates a pipeline around the given query executor and renderable
// factory. If a cache dir is configured and holds a snapshot, the cache
// is warm-loaded from it.
func New(executor QueryExecutor, factory render.Factory, optFns ...Option) (*Pipeline, error) {
	if executor == nil {
		return nil, fmt.Errorf("listflow: nil query executor")
	}
	if factory == nil {
		return nil, fmt.Errorf("listflow: nil renderable factory")
	}

	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}

	p := &Pipeline{
		opts:      o,
		logger:    o.logger,
		metrics:   o.metrics,
		clk:       o.clk,
		executor:  executor,
		committed: filter.NewState(),
		previous:  filter.NewState(),
	}

	p.rc = resource.NewController(resource.Config{
		MaxConcurrentRenders: 1,
		QueryRatePerSec:      o.queryRatePerSec,
		QueryBurst:           o.queryBurst,
	})

	p.cache = cache.New(cache.Config{
		MaxEntries: o.cacheMaxEntries,
		DefaultTTL: o.cacheTTL,
		Clock:      o.clk,
		Logger:     o.logger.Logger,
	})

	renderer, err := render.NewCoordinator(render.Config{
		Factory:            factory,
		PoolMaxSize:        o.poolMaxSize,
		StrictPool:         o.strictPool,
		BatchSize:          o.batchSize,
		TickDelay:          o.batchTickDelay,
		ImmediateThreshold: o.immediateThreshold,
		Controller:         p.rc,
		Clock:              o.clk,
		Logger:             o.logger.Logger,
		Events: render.Events{
			Started:  p.emitRenderStarted,
			Progress: p.emitRenderProgress,
			Completed: func(total int, elapsed time.Duration) {
				p.metrics.RecordRender(total, elapsed, nil)
				p.emitRenderCompleted(total, elapsed)
			},
			Error: func(kind, message string) {
				p.metrics.RecordRender(0, 0, fmt.Errorf("%s: %s", kind, message))
				p.emitRenderError(kind, message)
			},
		},
	})
	if err != nil {
		return nil, err
	}
	p.renderer = renderer

	p.deb = debounce.New(o.clk, o.debounceDelay, p.onSettle)

	if o.cacheDir != "" {
		path := filepath.Join(o.cacheDir, snapshotFile)
		restored, err := p.cache.LoadSnapshot(path, o.codec)
		switch {
		case err == nil:
			p.logger.Info("cache warm-loaded", "path", path, "entries", restored)
		default:
			// A missing or unreadable snapshot is a cold start, never
			// a construction failure.
			p.logger.Debug("cache snapshot not loaded", "path", path, "error", err)
		}
	}

	return p, nil
}

// Subscribe registers a subscriber for pipeline events.
func (p *Pipeline) Subscribe(s Subscriber) {
	if s == nil {
		return
	}
	p.mu.Lock()
	p.subs = append(p.subs, s)
	p.mu.Unlock()
}

// State returns the committed filter state.
func (p *Pipeline) State() filter.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.committed
}

// RequestUpdate merges a partial filter change into the pending state
// and schedules a debounced update. Invalid changes are rejected
// without touching the committed state.
func (p *Pipeline) RequestUpdate(change filter.Change) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	base := p.committed
	if p.hasPending {
		base = p.pending
	}
	next := change.Apply(base)

	if err := p.validate(next); err != nil {
		p.mu.Unlock()
		var inv *ErrInvalidFilterValue
		if errors.As(err, &inv) {
			p.logger.LogRejected(context.Background(), inv.Field, inv.Value)
		}
		p.emitFilterRejected(err.Error())
		return err
	}

	p.pending = next
	p.hasPending = true
	p.mu.Unlock()

	p.deb.Request(next)
	return nil
}

// Flush forces a pending debounced update to settle immediately.
func (p *Pipeline) Flush() {
	p.deb.Flush()
}

// Undo schedules a debounced update back to the previously committed
// filter state. Only one level of history is kept.
func (p *Pipeline) Undo() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	prev := p.previous
	p.pending = prev
	p.hasPending = true
	p.mu.Unlock()

	p.deb.Request(prev)
	return nil
}

// Refresh re-executes the query for the committed state, bypassing
// both the debounce scheduler and the cache. The fresh result replaces
// the cached entry.
func (p *Pipeline) Refresh() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	st := p.committed
	p.mu.Unlock()

	p.execute(st, true)
	return nil
}

// NotifyMutation invalidates cached entries that an external data
// mutation of the given kind may have staled.
func (p *Pipeline) NotifyMutation(kind MutationKind) {
	var removed int
	switch kind {
	case MutationFavorites:
		removed = p.cache.InvalidateFavorites()
	case MutationCategories:
		removed = p.cache.InvalidateCategories()
	default:
		removed = p.cache.InvalidateAll()
	}
	p.metrics.RecordInvalidation(removed)
	p.logger.LogInvalidation(context.Background(), kind.String(), removed)
}

// InvalidateWhere removes cached entries whose fingerprint satisfies
// the predicate and returns how many were removed.
func (p *Pipeline) InvalidateWhere(predicate func(filter.Fingerprint) bool) int {
	removed := p.cache.InvalidateMatching(predicate)
	p.metrics.RecordInvalidation(removed)
	p.logger.LogInvalidation(context.Background(), "predicate", removed)
	return removed
}

// CacheStats returns result cache counters.
func (p *Pipeline) CacheStats() CacheStats {
	s := p.cache.Stats()
	return CacheStats{
		Entries:     s.Entries,
		Hits:        s.Hits,
		Misses:      s.Misses,
		Evictions:   s.Evictions,
		Expirations: s.Expirations,
	}
}

// PoolStats returns renderable pool accounting.
func (p *Pipeline) PoolStats() PoolStats {
	s := p.renderer.PoolStats()
	return PoolStats{
		Created:     s.Created,
		FreeCount:   s.FreeCount,
		ActiveCount: s.ActiveCount,
		Hits:        s.Hits,
		Misses:      s.Misses,
	}
}

// Close cancels pending work and, if a cache dir is configured, writes
// the cache snapshot. Idempotent.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.deb.Cancel()
	p.renderer.CancelActive()

	if p.opts.cacheDir != "" {
		path := filepath.Join(p.opts.cacheDir, snapshotFile)
		if err := p.cache.SaveSnapshot(path, p.opts.codec); err != nil {
			p.logger.Error("cache snapshot save failed", "path", path, "error", err)
			return err
		}
	}
	return nil
}

// onSettle commits the debounced state and runs the fetch pipeline.
func (p *Pipeline) onSettle(st filter.State) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.previous = p.committed
	p.committed = st
	p.hasPending = false
	p.mu.Unlock()

	p.execute(st, false)
}

func (p *Pipeline) execute(st filter.State, bypassCache bool) {
	ctx := context.Background()
	fp := filter.FingerprintOf(st)

	if !bypassCache {
		if rs, ok := p.cache.Get(fp); ok {
			p.metrics.RecordCacheLookup(true)
			p.logger.LogLookup(ctx, fp, true)
			p.emitResultsReady(rs.Items, true)
			p.renderer.Render(rs)
			return
		}
		p.metrics.RecordCacheLookup(false)
		p.logger.LogLookup(ctx, fp, false)
	}

	if err := p.rc.WaitQuery(ctx); err != nil {
		p.emitQueryFailed(fmt.Errorf("listflow: query rate wait: %w", err))
		return
	}

	start := p.clk.Now()
	items, err := p.executor.Execute(ctx, st)
	duration := p.clk.Now().Sub(start)
	p.metrics.RecordQuery(duration, err)
	p.logger.LogQuery(ctx, fp, len(items), duration, err)

	if err != nil {
		// Cache untouched: previously delivered results remain valid
		// until a later fetch succeeds.
		p.emitQueryFailed(fmt.Errorf("listflow: query execution: %w", err))
		return
	}

	rs := model.NewResultSet(items, fp, p.clk.Now())
	p.cache.Put(fp, rs, p.opts.cacheTTL)
	p.emitResultsReady(rs.Items, false)
	p.renderer.Render(rs)
}

func (p *Pipeline) validate(st filter.State) error {
	if !filter.ValidSort(st.Sort) {
		return &ErrInvalidFilterValue{Field: "sort", Value: string(st.Sort)}
	}
	if st.Category != "" && p.opts.categoryValidator != nil && !p.opts.categoryValidator(st.Category) {
		return &ErrInvalidFilterValue{Field: "category", Value: st.Category}
	}
	return nil
}

func (p *Pipeline) subscribers() []Subscriber {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Subscriber, len(p.subs))
	copy(out, p.subs)
	return out
}

func (p *Pipeline) emitResultsReady(items []model.Item, fromCache bool) {
	for _, s := range p.subscribers() {
		s.OnResultsReady(items, fromCache)
	}
}

func (p *Pipeline) emitFilterRejected(reason string) {
	for _, s := range p.subscribers() {
		s.OnFilterRejected(reason)
	}
}

func (p *Pipeline) emitQueryFailed(err error) {
	for _, s := range p.subscribers() {
		s.OnQueryFailed(err)
	}
}

func (p *Pipeline) emitRenderStarted(total int) {
	for _, s := range p.subscribers() {
		s.OnRenderStarted(total)
	}
}

func (p *Pipeline) emitRenderProgress(done, total int) {
	for _, s := range p.subscribers() {
		s.OnRenderProgress(done, total)
	}
}

func (p *Pipeline) emitRenderCompleted(total int, elapsed time.Duration) {
	for _, s := range p.subscribers() {
		s.OnRenderCompleted(total, elapsed)
	}
}

func (p *Pipeline) emitRenderError(kind, message string) {
	for _, s := range p.subscribers() {
		s.OnRenderError(kind, message)
	}
}
