package render

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/listflow/internal/clock"
	"github.com/hupe1980/listflow/model"
	"github.com/hupe1980/listflow/pool"
)

// State is the lifecycle state of a Job.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateCancelled
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCancelled:
		return "cancelled"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// terminal reports whether a job in this state may be restarted.
func (s State) terminal() bool {
	return s == StateIdle || s == StateCancelled || s == StateComplete || s == StateFailed
}

// ErrJobRunning is returned by Start while a run is in flight.
var ErrJobRunning = errors.New("render: job already running")

// maxStalledTicks bounds how many consecutive zero-progress ticks a job
// tolerates before failing, so a permanently exhausted pool cannot keep
// timers firing forever.
const maxStalledTicks = 50

// Callbacks receive job lifecycle notifications. They are invoked
// without the job lock held and may call back into the job.
type Callbacks struct {
	Progress func(done, total int)
	Complete func(total int, elapsed time.Duration)
	Failed   func(kind, message string)
}

// Job renders a result set batch by batch over successive clock ticks.
// A Job is reusable: any terminal state may be restarted with a new
// result set, producing a fresh generation.
type Job struct {
	mu     sync.Mutex
	clk    clock.Clock
	pool   *pool.Pool[Renderable]
	logger *slog.Logger
	cb     Callbacks

	items      model.ResultSet
	batchSize  int
	tickDelay  time.Duration
	cursor     int
	generation uint64
	state      State
	acquired   []Renderable
	stalled    int
	runID      uuid.UUID
	startedAt  time.Time
	timer      clock.Timer
}

// NewJob creates an idle job bound to a pool.
func NewJob(clk clock.Clock, p *pool.Pool[Renderable], logger *slog.Logger, cb Callbacks) *Job {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Job{clk: clk, pool: p, logger: logger, cb: cb}
}

// Start begins rendering rs. It is legal only from idle or a terminal
// state; renderables still held by a completed previous run are
// released first. An empty result set completes immediately with zero
// batches.
func (j *Job) Start(rs model.ResultSet, batchSize int, tickDelay time.Duration) error {
	j.mu.Lock()
	if !j.state.terminal() {
		j.mu.Unlock()
		return ErrJobRunning
	}

	// The previous run's renderables are superseded by this result set.
	leftover := j.acquired
	j.acquired = nil

	if batchSize <= 0 {
		batchSize = 1
	}
	j.items = rs
	j.batchSize = batchSize
	j.tickDelay = tickDelay
	j.cursor = 0
	j.stalled = 0
	j.generation++
	gen := j.generation
	j.runID = uuid.New()
	j.startedAt = j.clk.Now()
	j.state = StateRunning
	runID := j.runID

	if rs.Len() == 0 {
		j.state = StateComplete
		complete := j.cb.Complete
		j.mu.Unlock()
		j.releaseAll(leftover)
		j.logger.Debug("render job complete", "run_id", runID, "total", 0)
		if complete != nil {
			complete(0, 0)
		}
		return nil
	}

	j.timer = j.clk.AfterFunc(0, func() { j.tick(gen) })
	j.mu.Unlock()

	j.releaseAll(leftover)
	j.logger.Debug("render job started",
		"run_id", runID,
		"total", rs.Len(),
		"batch_size", batchSize,
	)
	return nil
}

// Cancel stops a running job, returning every acquired renderable to
// the pool before it returns. Idempotent; a no-op outside Running. The
// generation bump guarantees any already-scheduled tick is discarded.
func (j *Job) Cancel() {
	j.mu.Lock()
	if j.state != StateRunning {
		j.mu.Unlock()
		return
	}
	j.state = StateCancelled
	j.generation++
	if j.timer != nil {
		j.timer.Stop()
		j.timer = nil
	}
	acquired := j.acquired
	j.acquired = nil
	runID := j.runID
	j.mu.Unlock()

	j.releaseAll(acquired)
	j.logger.Debug("render job cancelled", "run_id", runID, "released", len(acquired))
}

// State returns the current lifecycle state.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Progress returns items rendered so far and the run's total.
func (j *Job) Progress() (done, total int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cursor, j.items.Len()
}

// RunID identifies the current (or last) run in logs.
func (j *Job) RunID() uuid.UUID {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.runID
}

func (j *Job) tick(gen uint64) {
	j.mu.Lock()
	if gen != j.generation || j.state != StateRunning {
		// Stale tick from a superseded or cancelled run.
		j.mu.Unlock()
		return
	}

	total := j.items.Len()
	end := j.cursor + j.batchSize
	if end > total {
		end = total
	}

	rendered := 0
	for i := j.cursor; i < end; i++ {
		r, err := j.pool.Acquire()
		if err != nil {
			j.logger.Warn("render pool exhausted",
				"run_id", j.runID,
				"cursor", i,
				"total", total,
			)
			break
		}
		r.Bind(j.items.Items[i])
		r.SetVisible(true)
		j.acquired = append(j.acquired, r)
		rendered++
	}
	j.cursor += rendered

	if rendered == 0 {
		j.stalled++
		if j.stalled >= maxStalledTicks {
			j.state = StateFailed
			failed := j.cb.Failed
			runID := j.runID
			j.mu.Unlock()
			j.logger.Error("render job failed", "run_id", runID, "reason", "pool exhausted")
			if failed != nil {
				failed("pool_exhausted", fmt.Sprintf("no renderable became available within %d ticks", maxStalledTicks))
			}
			return
		}
	} else {
		j.stalled = 0
	}

	done := j.cursor
	progress := j.cb.Progress

	if done >= total {
		j.state = StateComplete
		j.timer = nil
		elapsed := j.clk.Now().Sub(j.startedAt)
		complete := j.cb.Complete
		runID := j.runID
		j.mu.Unlock()
		if progress != nil {
			progress(done, total)
		}
		j.logger.Debug("render job complete", "run_id", runID, "total", total, "elapsed", elapsed)
		if complete != nil {
			complete(total, elapsed)
		}
		return
	}

	j.timer = j.clk.AfterFunc(j.tickDelay, func() { j.tick(gen) })
	j.mu.Unlock()

	if progress != nil {
		progress(done, total)
	}
}

func (j *Job) releaseAll(rs []Renderable) {
	for _, r := range rs {
		j.pool.Release(r)
	}
}
