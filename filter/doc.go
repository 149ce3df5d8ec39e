// Package filter defines the filter criteria value types for listflow.
//
// A State is an immutable snapshot of the active filter criteria. It is
// never mutated in place; every accepted change produces a new value via
// Change.Apply, which also normalizes the result (sentinel category and
// whitespace-only search terms collapse to their empty forms).
//
// A Fingerprint is the deterministic cache key derived from a normalized
// State. Two States that normalize to the same criteria always produce
// equal Fingerprints, and distinct normalized criteria always produce
// distinct Fingerprints, so cache correctness never depends on hash
// collision behavior.
package filter
