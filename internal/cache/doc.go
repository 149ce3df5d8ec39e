// Package cache implements the result cache: a fingerprint-keyed map of
// result sets with TTL expiry, LRU eviction, and targeted invalidation.
//
// Expired entries are removed lazily on lookup. Eviction removes the
// least-recently-accessed entry when an insert would exceed capacity.
// Invalidation removes entries by predicate over their fingerprints;
// the common predicates (favorites-sensitive, category-scoped,
// search-scoped) are served from a Roaring-bitmap attribute index
// instead of a full scan.
//
// A miss is a normal path, not an error; no cache operation fails.
package cache
