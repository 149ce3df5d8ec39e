package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   State
		want State
	}{
		{
			name: "zero state gains default sort",
			in:   State{},
			want: State{Sort: SortNameAsc},
		},
		{
			name: "category sentinel collapses",
			in:   State{Category: "All", Sort: SortNewest},
			want: State{Sort: SortNewest},
		},
		{
			name: "sentinel match is case insensitive",
			in:   State{Category: "  aLL ", Sort: SortNewest},
			want: State{Sort: SortNewest},
		},
		{
			name: "search term trimmed and lowercased",
			in:   State{SearchTerm: "  ChAteau  ", Sort: SortNameAsc},
			want: State{SearchTerm: "chateau", Sort: SortNameAsc},
		},
		{
			name: "whitespace search collapses to empty",
			in:   State{SearchTerm: "   ", Sort: SortNameAsc},
			want: State{Sort: SortNameAsc},
		},
		{
			name: "regular category kept but trimmed",
			in:   State{Category: " tools ", Sort: SortOldest},
			want: State{Category: "tools", Sort: SortOldest},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}

func TestChangeApply(t *testing.T) {
	base := State{Category: "tools", Sort: SortNameAsc, SearchTerm: "saw"}

	t.Run("empty change only normalizes", func(t *testing.T) {
		got := Change{}.Apply(base)
		assert.Equal(t, base, got)
	})

	t.Run("single field replaced, others kept", func(t *testing.T) {
		got := SetSort(SortNewest).Apply(base)
		assert.Equal(t, "tools", got.Category)
		assert.Equal(t, SortNewest, got.Sort)
		assert.Equal(t, "saw", got.SearchTerm)
	})

	t.Run("multiple fields at once", func(t *testing.T) {
		fav := true
		term := "Hammer"
		got := Change{FavoritesOnly: &fav, SearchTerm: &term}.Apply(base)
		assert.True(t, got.FavoritesOnly)
		assert.Equal(t, "hammer", got.SearchTerm)
		assert.Equal(t, "tools", got.Category)
	})

	t.Run("receiver is not modified", func(t *testing.T) {
		before := base
		_ = SetCategory("games").Apply(base)
		assert.Equal(t, before, base)
	})
}

func TestChangeEmpty(t *testing.T) {
	assert.True(t, Change{}.Empty())
	assert.False(t, SetCategory("x").Empty())
	assert.False(t, SetFavoritesOnly(false).Empty())
}

func TestValidSort(t *testing.T) {
	for _, s := range []SortOption{SortNameAsc, SortNameDesc, SortNewest, SortOldest} {
		assert.True(t, ValidSort(s), string(s))
	}
	assert.False(t, ValidSort(""))
	assert.False(t, ValidSort("name_ASC"))
	assert.False(t, ValidSort("random"))
}
