package model

import (
	"time"

	"github.com/hupe1980/listflow/filter"
)

// Item is a single list entry. The pipeline only relies on identity and
// ordinality; Data is an opaque payload carried through untouched.
//
// Data must be JSON-marshalable for cache snapshots to round-trip it;
// identity and order survive a snapshot in any case.
type Item struct {
	ID   string `json:"id"`
	Data any    `json:"data,omitempty"`
}

// ResultSet is an ordered sequence of items computed for a filter
// fingerprint, stamped with its creation time.
type ResultSet struct {
	Items       []Item             `json:"items"`
	Fingerprint filter.Fingerprint `json:"fingerprint"`
	CreatedAt   time.Time          `json:"created_at"`
}

// NewResultSet builds a result set over a defensive copy of items, so
// later in-place edits to the caller's slice cannot corrupt it.
func NewResultSet(items []Item, fp filter.Fingerprint, createdAt time.Time) ResultSet {
	cp := make([]Item, len(items))
	copy(cp, items)
	return ResultSet{
		Items:       cp,
		Fingerprint: fp,
		CreatedAt:   createdAt,
	}
}

// Len returns the number of items.
func (rs ResultSet) Len() int { return len(rs.Items) }

// Clone returns a copy with an independent item slice. Item payloads
// are shared; they are treated as immutable by the pipeline.
func (rs ResultSet) Clone() ResultSet {
	cp := make([]Item, len(rs.Items))
	copy(cp, rs.Items)
	rs.Items = cp
	return rs
}
