package render

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/listflow/internal/clock"
	"github.com/hupe1980/listflow/internal/resource"
	"github.com/hupe1980/listflow/model"
	"github.com/hupe1980/listflow/pool"
)

// Defaults for the coordinator configuration.
const (
	DefaultBatchSize          = 8
	DefaultTickDelay          = 16 * time.Millisecond
	DefaultImmediateThreshold = 8
)

// Events receive coordinator-level render notifications.
type Events struct {
	Started   func(total int)
	Progress  func(done, total int)
	Completed func(total int, elapsed time.Duration)
	Error     func(kind, message string)
}

// Config configures a Coordinator.
type Config struct {
	// Factory constructs renderables for the pool. Required.
	Factory Factory

	// PoolMaxSize caps the renderable pool. Defaults to
	// pool.DefaultMaxSize; always raised to at least one batch.
	PoolMaxSize int

	// StrictPool makes pool misuse panic (development aid).
	StrictPool bool

	// BatchSize is the number of items bound per tick.
	BatchSize int

	// TickDelay is the pause between batches.
	TickDelay time.Duration

	// ImmediateThreshold selects single-batch rendering for result
	// sets at or below this size.
	ImmediateThreshold int

	// Controller provides the render slot. Required.
	Controller *resource.Controller

	Clock  clock.Clock
	Logger *slog.Logger
	Events Events
}

// Coordinator drives one progressive render job at a time against a
// shared renderable pool. A new result set cancels the running job
// before its own job starts; two jobs never run concurrently against
// the pool.
type Coordinator struct {
	cfg  Config
	pool *pool.Pool[Renderable]
	job  *Job

	// mu serializes Render/CancelActive; slotHeld is separate because
	// job callbacks release the slot while Render may hold mu.
	mu       sync.Mutex
	slotHeld atomic.Bool
}

// NewCoordinator creates a coordinator and its renderable pool.
func NewCoordinator(cfg Config) (*Coordinator, error) {
	if cfg.Factory == nil {
		return nil, errors.New("render: nil factory")
	}
	if cfg.Controller == nil {
		return nil, errors.New("render: nil resource controller")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.TickDelay <= 0 {
		cfg.TickDelay = DefaultTickDelay
	}
	if cfg.ImmediateThreshold <= 0 {
		cfg.ImmediateThreshold = DefaultImmediateThreshold
	}
	if cfg.PoolMaxSize <= 0 {
		cfg.PoolMaxSize = pool.DefaultMaxSize
	}
	// Exhaustion mid-batch degrades gracefully but should stay rare.
	if cfg.PoolMaxSize < cfg.BatchSize {
		cfg.PoolMaxSize = cfg.BatchSize
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	p, err := pool.New(pool.Config[Renderable]{
		New:     func() Renderable { return cfg.Factory() },
		Reset:   func(r Renderable) { r.Unbind(); r.SetVisible(false) },
		MaxSize: cfg.PoolMaxSize,
		Strict:  cfg.StrictPool,
		Logger:  cfg.Logger,
	})
	if err != nil {
		return nil, err
	}

	c := &Coordinator{cfg: cfg, pool: p}
	c.job = NewJob(cfg.Clock, p, cfg.Logger, Callbacks{
		Progress: cfg.Events.Progress,
		Complete: func(total int, elapsed time.Duration) {
			c.releaseSlot()
			if cfg.Events.Completed != nil {
				cfg.Events.Completed(total, elapsed)
			}
		},
		Failed: func(kind, message string) {
			c.releaseSlot()
			if cfg.Events.Error != nil {
				cfg.Events.Error(kind, message)
			}
		},
	})
	return c, nil
}

// Render materializes rs, cancelling any job still running. Result sets
// at or below the immediate threshold render in a single batch.
func (c *Coordinator) Render(rs model.ResultSet) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.job.State() == StateRunning {
		c.job.Cancel()
	}
	// A job that just reached a terminal state may still hold the slot:
	// its callbacks release it, and they can run after this point.
	// Releasing here keeps the new result set from losing that race.
	c.releaseSlot()

	if !c.acquireSlot() {
		c.emitError("render_slot", "render slot unavailable")
		return
	}

	batchSize := c.cfg.BatchSize
	tickDelay := c.cfg.TickDelay
	if rs.Len() <= c.cfg.ImmediateThreshold {
		batchSize = rs.Len()
		if batchSize == 0 {
			batchSize = 1
		}
		tickDelay = 0
	}

	if c.cfg.Events.Started != nil {
		c.cfg.Events.Started(rs.Len())
	}

	if err := c.job.Start(rs, batchSize, tickDelay); err != nil {
		c.releaseSlot()
		c.emitError("job_start", err.Error())
	}
}

// CancelActive cancels the running job, if any.
func (c *Coordinator) CancelActive() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.job.State() == StateRunning {
		c.job.Cancel()
		c.releaseSlot()
	}
}

// JobState returns the active job's lifecycle state.
func (c *Coordinator) JobState() State { return c.job.State() }

// Progress returns the active job's progress.
func (c *Coordinator) Progress() (done, total int) { return c.job.Progress() }

// PoolStats returns the renderable pool's accounting.
func (c *Coordinator) PoolStats() pool.Stats { return c.pool.Stats() }

func (c *Coordinator) acquireSlot() bool {
	if !c.slotHeld.CompareAndSwap(false, true) {
		// Slot bookkeeping says held, but the job is not running;
		// should not happen. Treat as unavailable.
		return false
	}
	if !c.cfg.Controller.TryAcquireRender() {
		c.slotHeld.Store(false)
		return false
	}
	return true
}

func (c *Coordinator) releaseSlot() {
	if c.slotHeld.CompareAndSwap(true, false) {
		c.cfg.Controller.ReleaseRender()
	}
}

func (c *Coordinator) emitError(kind, message string) {
	c.cfg.Logger.Warn("render error", "kind", kind, "message", message)
	if c.cfg.Events.Error != nil {
		c.cfg.Events.Error(kind, message)
	}
}
