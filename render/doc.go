// Package render materializes result sets incrementally.
//
// A Job splits an ordered result set into fixed-size batches and binds
// one batch of pooled Renderables per scheduler tick, so large result
// sets never block the caller for the full set. Cancellation is
// structural: every scheduled tick captures the job generation, and a
// tick whose generation no longer matches is a no-op. There is no
// thread to interrupt; staleness is detected, not signalled.
//
// The Coordinator owns the pool and the single active job, cancelling a
// running job before starting its successor and choosing single-batch
// rendering for small result sets.
package render
