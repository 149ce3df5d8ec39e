package listflow

import (
	"time"

	"github.com/hupe1980/listflow/codec"
	"github.com/hupe1980/listflow/internal/clock"
)

type options struct {
	cacheMaxEntries    int
	cacheTTL           time.Duration
	cacheDir           string
	codec              codec.Codec
	debounceDelay      time.Duration
	batchSize          int
	batchTickDelay     time.Duration
	poolMaxSize        int
	strictPool         bool
	immediateThreshold int
	queryRatePerSec    float64
	queryBurst         int
	categoryValidator  func(category string) bool
	logger             *Logger
	metrics            MetricsCollector
	clk                clock.Clock
}

func defaultOptions() options {
	return options{
		cacheMaxEntries:    12,
		cacheTTL:           300 * time.Second,
		codec:              codec.Default,
		debounceDelay:      250 * time.Millisecond,
		batchSize:          8,
		batchTickDelay:     16 * time.Millisecond,
		poolMaxSize:        24,
		immediateThreshold: 8,
		logger:             NoopLogger(),
		metrics:            NoopMetricsCollector{},
		clk:                clock.Real(),
	}
}

// Option configures Pipeline construction.
type Option func(*options)

// WithCacheMaxEntries caps the number of cached result sets.
func WithCacheMaxEntries(n int) Option {
	return func(o *options) {
		o.cacheMaxEntries = n
	}
}

// WithCacheTTL sets the lifetime of cached result sets. A short TTL
// plus explicit invalidation is preferred over a long TTL: invalidation
// cannot enumerate every affected key for free-text search terms.
func WithCacheTTL(d time.Duration) Option {
	return func(o *options) {
		o.cacheTTL = d
	}
}

// WithCacheDir enables cache snapshots: the cache is written to this
// directory on Close and warm-loaded from it on construction.
func WithCacheDir(dir string) Option {
	return func(o *options) {
		o.cacheDir = dir
	}
}

// WithCodec configures the codec used for cache snapshots.
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithDebounceDelay sets the quiet period filter changes must observe
// before a query is issued.
func WithDebounceDelay(d time.Duration) Option {
	return func(o *options) {
		o.debounceDelay = d
	}
}

// WithBatchSize sets how many items a render job binds per tick.
func WithBatchSize(n int) Option {
	return func(o *options) {
		o.batchSize = n
	}
}

// WithBatchTickDelay sets the pause between render batches.
func WithBatchTickDelay(d time.Duration) Option {
	return func(o *options) {
		o.batchTickDelay = d
	}
}

// WithPoolMaxSize caps the renderable pool. It is raised to at least
// one batch so exhaustion mid-batch stays rare.
func WithPoolMaxSize(n int) Option {
	return func(o *options) {
		o.poolMaxSize = n
	}
}

// WithStrictPool makes renderable pool misuse panic instead of being
// logged and ignored. Meant for tests and development.
func WithStrictPool(strict bool) Option {
	return func(o *options) {
		o.strictPool = strict
	}
}

// WithImmediateThreshold selects single-batch rendering for result
// sets at or below this size.
func WithImmediateThreshold(n int) Option {
	return func(o *options) {
		o.immediateThreshold = n
	}
}

// WithQueryRateLimit bounds how often the query executor may be
// invoked. A rate of 0 disables limiting.
func WithQueryRateLimit(perSec float64, burst int) Option {
	return func(o *options) {
		o.queryRatePerSec = perSec
		o.queryBurst = burst
	}
}

// WithCategories restricts the category vocabulary to the given set.
// Changes selecting any other category are rejected.
func WithCategories(categories ...string) Option {
	set := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		set[c] = struct{}{}
	}
	return func(o *options) {
		o.categoryValidator = func(category string) bool {
			_, ok := set[category]
			return ok
		}
	}
}

// WithCategoryValidator installs a custom category validator. The
// validator only sees non-empty, normalized categories.
func WithCategoryValidator(valid func(category string) bool) Option {
	return func(o *options) {
		o.categoryValidator = valid
	}
}

// WithLogger configures the logger. Pass nil to disable logging.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metrics = mc
	}
}

// withClock overrides the clock; tests use it for deterministic timing.
func withClock(c clock.Clock) Option {
	return func(o *options) {
		o.clk = c
	}
}
