// Package listflow is an embeddable pipeline for filterable, cached,
// progressively rendered list views.
//
// A Pipeline coalesces rapid filter changes with a debounce scheduler,
// answers settled states from a fingerprint-keyed result cache with TTL
// and LRU eviction, executes cache misses through a caller-supplied
// QueryExecutor, and binds the resulting items to pooled renderables in
// timed batches so large result sets appear incrementally.
//
//	pipe, err := listflow.New(executor, newRowView,
//		listflow.WithCacheMaxEntries(12),
//		listflow.WithDebounceDelay(250*time.Millisecond),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer pipe.Close()
//
//	pipe.Subscribe(ui)
//	pipe.RequestUpdate(filter.SetSearchTerm("chateau"))
//
// External data mutations are reported through NotifyMutation, which
// invalidates only the cache entries the mutation can have staled.
package listflow
