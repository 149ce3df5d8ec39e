// Package debounce coalesces bursts of update requests into a single
// callback invocation carrying the most recent payload.
package debounce

import (
	"sync"
	"time"

	"github.com/hupe1980/listflow/internal/clock"
)

// Scheduler collapses a rapid sequence of Request calls into at most
// one callback per quiet period. Each Request replaces the stored
// payload and restarts the delay timer; the callback fires only once
// the input stream has been quiet for the full delay, with the payload
// of the last Request.
//
// The callback runs on the clock's timer context. All methods are safe
// for concurrent use.
type Scheduler[T any] struct {
	mu      sync.Mutex
	clk     clock.Clock
	delay   time.Duration
	fn      func(T)
	timer   clock.Timer
	pending bool
	payload T

	// gen invalidates timer callbacks that lost the Stop race.
	gen uint64
}

// New creates a scheduler that invokes fn after requests have been
// quiet for delay.
func New[T any](clk clock.Clock, delay time.Duration, fn func(T)) *Scheduler[T] {
	return &Scheduler[T]{clk: clk, delay: delay, fn: fn}
}

// Request stores payload as the pending request and (re)starts the
// delay timer. Latest payload wins.
func (s *Scheduler[T]) Request(payload T) {
	s.mu.Lock()
	s.payload = payload
	s.pending = true
	s.gen++
	gen := s.gen
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = s.clk.AfterFunc(s.delay, func() { s.fire(gen) })
	s.mu.Unlock()
}

// Cancel drops any pending request without firing.
func (s *Scheduler[T]) Cancel() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = false
	s.gen++
	var zero T
	s.payload = zero
	s.mu.Unlock()
}

// Flush fires the pending request immediately, if there is one.
func (s *Scheduler[T]) Flush() {
	s.mu.Lock()
	if !s.pending {
		s.mu.Unlock()
		return
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	payload := s.takeLocked()
	s.mu.Unlock()
	s.fn(payload)
}

// Pending reports whether a request is waiting for the quiet period.
func (s *Scheduler[T]) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

func (s *Scheduler[T]) fire(gen uint64) {
	s.mu.Lock()
	if !s.pending || gen != s.gen {
		s.mu.Unlock()
		return
	}
	payload := s.takeLocked()
	s.mu.Unlock()
	s.fn(payload)
}

func (s *Scheduler[T]) takeLocked() T {
	payload := s.payload
	s.pending = false
	s.timer = nil
	s.gen++
	var zero T
	s.payload = zero
	return payload
}
