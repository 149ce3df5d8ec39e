package listflow

import (
	"time"

	"github.com/hupe1980/listflow/model"
)

// Subscriber receives pipeline events. Callbacks are invoked
// synchronously from the pipeline's execution contexts; long-running
// work belongs elsewhere.
//
// Embed NoopSubscriber to implement only the callbacks you care about.
type Subscriber interface {
	// OnResultsReady delivers the result set for the committed filter
	// state. fromCache reports whether it was served from the cache.
	OnResultsReady(items []model.Item, fromCache bool)

	// OnFilterRejected reports a filter change that failed validation.
	OnFilterRejected(reason string)

	// OnQueryFailed reports a query executor failure. The cache is
	// untouched; previously delivered results remain valid.
	OnQueryFailed(err error)

	OnRenderStarted(total int)
	OnRenderProgress(done, total int)
	OnRenderCompleted(total int, elapsed time.Duration)
	OnRenderError(kind, message string)
}

// NoopSubscriber implements Subscriber with no-ops, for embedding.
type NoopSubscriber struct{}

func (NoopSubscriber) OnResultsReady([]model.Item, bool)    {}
func (NoopSubscriber) OnFilterRejected(string)              {}
func (NoopSubscriber) OnQueryFailed(error)                  {}
func (NoopSubscriber) OnRenderStarted(int)                  {}
func (NoopSubscriber) OnRenderProgress(int, int)            {}
func (NoopSubscriber) OnRenderCompleted(int, time.Duration) {}
func (NoopSubscriber) OnRenderError(string, string)         {}
