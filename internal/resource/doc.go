// Package resource governs the shared resources of a pipeline
// instance: the single render slot that guarantees at most one
// progressive render job runs against the pool at a time, and an
// optional rate limit on external query execution.
package resource
