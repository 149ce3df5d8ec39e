// Package pool provides a generic bounded object pool with
// reset-on-release semantics and checkout accounting.
//
// Unlike sync.Pool, instances are never reclaimed behind the caller's
// back and the total number of constructed objects is capped: Acquire
// reuses a free instance, constructs a new one while under the cap, and
// otherwise fails with ErrExhausted so callers can degrade gracefully.
package pool

import (
	"errors"
	"io"
	"log/slog"
	"sync"
)

// DefaultMaxSize caps constructed objects when no limit is configured.
const DefaultMaxSize = 24

// ErrExhausted is returned by Acquire when every pooled instance is
// checked out and the construction cap has been reached. Callers must
// treat it as "do less right now", not as a fatal error.
var ErrExhausted = errors.New("pool: exhausted")

// Config configures a Pool.
type Config[T comparable] struct {
	// New constructs a fresh instance. Required.
	New func() T

	// Reset restores a released instance to its baseline before it
	// becomes reusable. Optional.
	Reset func(T)

	// MaxSize caps the number of constructed instances.
	// Defaults to DefaultMaxSize if <= 0.
	MaxSize int

	// Strict makes misuse (double release, release of a foreign
	// instance) panic instead of being logged and ignored. Misuse is a
	// programmer error either way; Strict is meant for tests and
	// development builds.
	Strict bool

	// Logger receives misuse warnings. Defaults to a discard logger.
	Logger *slog.Logger
}

// Stats is a point-in-time snapshot of pool accounting.
type Stats struct {
	Created     int   // instances constructed so far
	FreeCount   int   // instances currently idle in the pool
	ActiveCount int   // instances currently checked out
	Hits        int64 // acquisitions served from the free list
	Misses      int64 // acquisitions that constructed or failed
}

// Pool is a bounded pool of reusable instances. Free instances are
// reused LIFO so recently used objects stay warm.
type Pool[T comparable] struct {
	mu      sync.Mutex
	cfg     Config[T]
	free    []T
	inUse   map[T]struct{}
	created int
	hits    int64
	misses  int64
}

// New creates a pool from cfg. The factory is required.
func New[T comparable](cfg Config[T]) (*Pool[T], error) {
	if cfg.New == nil {
		return nil, errors.New("pool: nil factory")
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultMaxSize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pool[T]{
		cfg:   cfg,
		inUse: make(map[T]struct{}),
	}, nil
}

// Acquire returns a free instance, constructing one if the pool is
// empty and under its cap. It fails with ErrExhausted when the
// cap is reached and nothing is free.
func (p *Pool[T]) Acquire() (T, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n := len(p.free); n > 0 {
		v := p.free[n-1]
		p.free = p.free[:n-1]
		p.inUse[v] = struct{}{}
		p.hits++
		return v, nil
	}

	if p.created < p.cfg.MaxSize {
		v := p.cfg.New()
		p.created++
		p.misses++
		p.inUse[v] = struct{}{}
		return v, nil
	}

	p.misses++
	var zero T
	return zero, ErrExhausted
}

// Release resets v to its baseline and returns it to the free list.
// Releasing an instance that is not checked out (double release, or an
// instance the pool never issued) panics in strict mode and is logged
// and ignored otherwise.
func (p *Pool[T]) Release(v T) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.inUse[v]; !ok {
		if p.cfg.Strict {
			panic("pool: release of instance not checked out")
		}
		p.cfg.Logger.Warn("pool: ignoring release of instance not checked out")
		return
	}
	delete(p.inUse, v)
	if p.cfg.Reset != nil {
		p.cfg.Reset(v)
	}
	p.free = append(p.free, v)
}

// Stats returns current accounting.
func (p *Pool[T]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Created:     p.created,
		FreeCount:   len(p.free),
		ActiveCount: len(p.inUse),
		Hits:        p.hits,
		Misses:      p.misses,
	}
}
