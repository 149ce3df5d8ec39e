package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// MaxConcurrentRenders bounds render jobs holding the pool.
	// If <= 0, defaults to 1.
	MaxConcurrentRenders int64

	// QueryRatePerSec is the sustained rate allowed for external query
	// execution. If 0, queries are not rate limited.
	QueryRatePerSec float64

	// QueryBurst is the rate limiter burst. If <= 0 while a rate is
	// set, defaults to 1.
	QueryBurst int
}

// Controller manages the render slot and the query rate limit.
type Controller struct {
	renderSem    *semaphore.Weighted
	queryLimiter *rate.Limiter // nil if unlimited

	activeRenders    atomic.Int64
	throttledQueries atomic.Int64
}

// NewController creates a controller from cfg.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrentRenders <= 0 {
		cfg.MaxConcurrentRenders = 1
	}

	c := &Controller{
		renderSem: semaphore.NewWeighted(cfg.MaxConcurrentRenders),
	}

	if cfg.QueryRatePerSec > 0 {
		burst := cfg.QueryBurst
		if burst <= 0 {
			burst = 1
		}
		c.queryLimiter = rate.NewLimiter(rate.Limit(cfg.QueryRatePerSec), burst)
	}

	return c
}

// TryAcquireRender attempts to claim a render slot without blocking.
func (c *Controller) TryAcquireRender() bool {
	if !c.renderSem.TryAcquire(1) {
		return false
	}
	c.activeRenders.Add(1)
	return true
}

// ReleaseRender returns a previously acquired render slot.
func (c *Controller) ReleaseRender() {
	c.renderSem.Release(1)
	c.activeRenders.Add(-1)
}

// WaitQuery blocks until the rate limit admits another query, or ctx is
// done. It returns immediately when no limit is configured.
func (c *Controller) WaitQuery(ctx context.Context) error {
	if c.queryLimiter == nil {
		return nil
	}
	if c.queryLimiter.Allow() {
		return nil
	}
	c.throttledQueries.Add(1)
	return c.queryLimiter.Wait(ctx)
}

// ActiveRenders returns the number of render slots currently held.
func (c *Controller) ActiveRenders() int64 {
	return c.activeRenders.Load()
}

// ThrottledQueries returns how many queries had to wait on the limiter.
func (c *Controller) ThrottledQueries() int64 {
	return c.throttledQueries.Load()
}
