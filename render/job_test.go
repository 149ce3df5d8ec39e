package render

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/listflow/filter"
	"github.com/hupe1980/listflow/internal/clock"
	"github.com/hupe1980/listflow/model"
	"github.com/hupe1980/listflow/pool"
)

// fakeRenderable records its bind history for assertions.
type fakeRenderable struct {
	mu      sync.Mutex
	bound   string
	visible bool
	binds   []string
}

func (f *fakeRenderable) Bind(item model.Item) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bound = item.ID
	f.binds = append(f.binds, item.ID)
}

func (f *fakeRenderable) Unbind() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bound = ""
}

func (f *fakeRenderable) SetVisible(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visible = v
}

type jobHarness struct {
	clk  *clock.Fake
	pool *pool.Pool[Renderable]
	job  *Job

	mu        sync.Mutex
	bindOrder []string
	progress  [][2]int
	completed int
	failures  []string
}

func newJobHarness(t *testing.T, poolSize int) *jobHarness {
	t.Helper()
	h := &jobHarness{clk: clock.NewFake()}

	p, err := pool.New(pool.Config[Renderable]{
		New: func() Renderable {
			return &boundTracker{h: h}
		},
		Reset:   func(r Renderable) { r.Unbind(); r.SetVisible(false) },
		MaxSize: poolSize,
		Strict:  true,
	})
	require.NoError(t, err)
	h.pool = p

	h.job = NewJob(h.clk, p, nil, Callbacks{
		Progress: func(done, total int) {
			h.mu.Lock()
			h.progress = append(h.progress, [2]int{done, total})
			h.mu.Unlock()
		},
		Complete: func(total int, elapsed time.Duration) {
			h.mu.Lock()
			h.completed++
			h.mu.Unlock()
		},
		Failed: func(kind, message string) {
			h.mu.Lock()
			h.failures = append(h.failures, kind)
			h.mu.Unlock()
		},
	})
	return h
}

// boundTracker forwards binds into the harness order log.
type boundTracker struct {
	fakeRenderable
	h *jobHarness
}

func (b *boundTracker) Bind(item model.Item) {
	b.fakeRenderable.Bind(item)
	b.h.mu.Lock()
	b.h.bindOrder = append(b.h.bindOrder, item.ID)
	b.h.mu.Unlock()
}

func items(n int) model.ResultSet {
	out := make([]model.Item, n)
	for i := range out {
		out[i] = model.Item{ID: string(rune('a' + i))}
	}
	return model.NewResultSet(out, filter.FingerprintOf(filter.NewState()), time.Time{})
}

const tick = 16 * time.Millisecond

func TestJob_CompletesInOrderAcrossBatches(t *testing.T) {
	h := newJobHarness(t, 16)

	// 7 items, batch 3: ceil(7/3) = 3 ticks.
	require.NoError(t, h.job.Start(items(7), 3, tick))
	h.clk.Advance(0) // first tick

	done, total := h.job.Progress()
	assert.Equal(t, 3, done)
	assert.Equal(t, 7, total)

	h.clk.Advance(tick)
	h.clk.Advance(tick)

	assert.Equal(t, StateComplete, h.job.State())
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f", "g"}, h.bindOrder)
	assert.Equal(t, [][2]int{{3, 7}, {6, 7}, {7, 7}}, h.progress)
	assert.Equal(t, 1, h.completed)

	// Every renderable remains checked out for display.
	assert.Equal(t, 7, h.pool.Stats().ActiveCount)
}

func TestJob_SingleBatchDegenerate(t *testing.T) {
	h := newJobHarness(t, 16)

	require.NoError(t, h.job.Start(items(4), 10, tick))
	h.clk.Advance(0)

	assert.Equal(t, StateComplete, h.job.State())
	assert.Equal(t, 1, h.completed)
	assert.Len(t, h.bindOrder, 4)
}

func TestJob_EmptySetCompletesImmediately(t *testing.T) {
	h := newJobHarness(t, 4)

	require.NoError(t, h.job.Start(items(0), 5, tick))

	assert.Equal(t, StateComplete, h.job.State())
	assert.Equal(t, 1, h.completed)
	assert.Zero(t, h.clk.PendingTimers(), "no batches must be scheduled")
}

func TestJob_StartWhileRunningRejected(t *testing.T) {
	h := newJobHarness(t, 16)

	require.NoError(t, h.job.Start(items(9), 3, tick))
	h.clk.Advance(0)

	assert.ErrorIs(t, h.job.Start(items(2), 1, tick), ErrJobRunning)
}

func TestJob_CancelReturnsRenderablesAndKillsStaleTick(t *testing.T) {
	h := newJobHarness(t, 16)

	require.NoError(t, h.job.Start(items(9), 3, tick))
	h.clk.Advance(0) // 3 rendered, next tick armed

	h.job.Cancel()
	assert.Equal(t, StateCancelled, h.job.State())

	st := h.pool.Stats()
	assert.Zero(t, st.ActiveCount, "cancel must return every acquired renderable")
	assert.Equal(t, 3, st.FreeCount)

	// Whatever tick survives the Stop race must be a no-op.
	binds := len(h.bindOrder)
	h.clk.Advance(10 * tick)
	assert.Len(t, h.bindOrder, binds)
	assert.Equal(t, StateCancelled, h.job.State())
}

func TestJob_CancelIsIdempotent(t *testing.T) {
	h := newJobHarness(t, 8)

	require.NoError(t, h.job.Start(items(5), 2, tick))
	h.clk.Advance(0)

	h.job.Cancel()
	h.job.Cancel()
	assert.Equal(t, StateCancelled, h.job.State())
	assert.Zero(t, h.pool.Stats().ActiveCount)
}

func TestJob_RestartAfterTerminalReleasesPreviousRun(t *testing.T) {
	h := newJobHarness(t, 8)

	require.NoError(t, h.job.Start(items(4), 10, tick))
	h.clk.Advance(0)
	require.Equal(t, StateComplete, h.job.State())
	require.Equal(t, 4, h.pool.Stats().ActiveCount)

	// The new run supersedes the completed run's renderables.
	require.NoError(t, h.job.Start(items(2), 10, tick))
	h.clk.Advance(0)

	assert.Equal(t, StateComplete, h.job.State())
	assert.Equal(t, 2, h.pool.Stats().ActiveCount)
	assert.Equal(t, 2, h.completed)
}

func TestJob_PoolExhaustionRendersFewerPerBatch(t *testing.T) {
	h := newJobHarness(t, 2)

	// Batch of 4 against a pool of 2: the first tick renders only 2
	// and the job keeps running, retrying on later ticks.
	require.NoError(t, h.job.Start(items(4), 4, tick))
	h.clk.Advance(0)

	done, _ := h.job.Progress()
	assert.Equal(t, 2, done)
	assert.Equal(t, StateRunning, h.job.State())
	assert.Equal(t, 2, h.pool.Stats().ActiveCount)
}

func TestJob_PermanentExhaustionFailsAtStallCap(t *testing.T) {
	h := newJobHarness(t, 2)

	require.NoError(t, h.job.Start(items(4), 4, tick))
	h.clk.Advance(0)
	require.Equal(t, StateRunning, h.job.State())

	for i := 0; i < maxStalledTicks; i++ {
		h.clk.Advance(tick)
	}

	assert.Equal(t, StateFailed, h.job.State())
	assert.Equal(t, []string{"pool_exhausted"}, h.failures)
	assert.Zero(t, h.clk.PendingTimers(), "a failed job must stop rescheduling")
}

func TestJob_GenerationIncrementsPerRun(t *testing.T) {
	h := newJobHarness(t, 8)

	require.NoError(t, h.job.Start(items(0), 1, tick))
	first := h.job.RunID()
	require.NoError(t, h.job.Start(items(0), 1, tick))
	second := h.job.RunID()

	assert.NotEqual(t, first, second)
}
