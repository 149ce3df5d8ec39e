package filter

import "strings"

// SortOption identifies one of the fixed supported result orderings.
type SortOption string

const (
	SortNameAsc  SortOption = "name_asc"
	SortNameDesc SortOption = "name_desc"
	SortNewest   SortOption = "newest"
	SortOldest   SortOption = "oldest"
)

// DefaultSort is the ordering applied when none has been selected.
const DefaultSort = SortNameAsc

// ValidSort reports whether s is a member of the supported sort set.
func ValidSort(s SortOption) bool {
	switch s {
	case SortNameAsc, SortNameDesc, SortNewest, SortOldest:
		return true
	default:
		return false
	}
}

// CategoryAll is the sentinel category value meaning "no category
// constraint". It normalizes to the empty string.
const CategoryAll = "All"

// State is an immutable filter criteria value.
//
// The zero value is not normalized; use NewState or Normalize. An empty
// Category means no category constraint, an empty SearchTerm means no
// search constraint.
type State struct {
	Category      string
	Sort          SortOption
	FavoritesOnly bool
	SearchTerm    string
}

// NewState returns the default (unconstrained) filter state.
func NewState() State {
	return State{Sort: DefaultSort}
}

// Normalize returns a copy of s with all fields in canonical form:
// the category sentinel collapses to "", the search term is trimmed and
// lowercased (whitespace-only terms collapse to ""), and a missing sort
// falls back to DefaultSort.
func (s State) Normalize() State {
	s.Category = strings.TrimSpace(s.Category)
	if strings.EqualFold(s.Category, CategoryAll) {
		s.Category = ""
	}
	s.SearchTerm = strings.ToLower(strings.TrimSpace(s.SearchTerm))
	if s.Sort == "" {
		s.Sort = DefaultSort
	}
	return s
}

// Change is a partial filter update. Nil fields leave the corresponding
// State field untouched; non-nil fields replace it.
type Change struct {
	Category      *string
	Sort          *SortOption
	FavoritesOnly *bool
	SearchTerm    *string
}

// Apply merges the change into s and returns the normalized result.
// The receiver and s are not modified.
func (c Change) Apply(s State) State {
	if c.Category != nil {
		s.Category = *c.Category
	}
	if c.Sort != nil {
		s.Sort = *c.Sort
	}
	if c.FavoritesOnly != nil {
		s.FavoritesOnly = *c.FavoritesOnly
	}
	if c.SearchTerm != nil {
		s.SearchTerm = *c.SearchTerm
	}
	return s.Normalize()
}

// Empty reports whether the change carries no field updates.
func (c Change) Empty() bool {
	return c.Category == nil && c.Sort == nil && c.FavoritesOnly == nil && c.SearchTerm == nil
}

// SetCategory builds a change that selects the given category.
func SetCategory(category string) Change {
	return Change{Category: &category}
}

// SetSort builds a change that selects the given ordering.
func SetSort(sort SortOption) Change {
	return Change{Sort: &sort}
}

// SetFavoritesOnly builds a change that toggles favorites-only filtering.
func SetFavoritesOnly(favoritesOnly bool) Change {
	return Change{FavoritesOnly: &favoritesOnly}
}

// SetSearchTerm builds a change that replaces the free-text search term.
func SetSearchTerm(term string) Change {
	return Change{SearchTerm: &term}
}
