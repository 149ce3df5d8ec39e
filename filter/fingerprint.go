package filter

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// Fingerprint is the cache key derived from a normalized State.
//
// It is the normalized field tuple itself rather than a hash of it, so
// it is comparable, usable as a map key, and bijective with normalized
// States by construction.
type Fingerprint struct {
	Category      string     `json:"category"`
	Sort          SortOption `json:"sort"`
	FavoritesOnly bool       `json:"favorites_only"`
	SearchTerm    string     `json:"search_term"`
}

// FingerprintOf derives the cache key for s. The state is normalized
// first, so all States that normalize identically share a Fingerprint.
func FingerprintOf(s State) Fingerprint {
	s = s.Normalize()
	return Fingerprint{
		Category:      s.Category,
		Sort:          s.Sort,
		FavoritesOnly: s.FavoritesOnly,
		SearchTerm:    s.SearchTerm,
	}
}

// State reconstructs the normalized State the fingerprint was derived from.
func (fp Fingerprint) State() State {
	return State{
		Category:      fp.Category,
		Sort:          fp.Sort,
		FavoritesOnly: fp.FavoritesOnly,
		SearchTerm:    fp.SearchTerm,
	}
}

// HasCategory reports whether the fingerprint carries a category constraint.
func (fp Fingerprint) HasCategory() bool { return fp.Category != "" }

// HasSearch reports whether the fingerprint carries a search constraint.
func (fp Fingerprint) HasSearch() bool { return fp.SearchTerm != "" }

func (fp Fingerprint) String() string {
	return fmt.Sprintf("cat=%q sort=%s fav=%t q=%q", fp.Category, fp.Sort, fp.FavoritesOnly, fp.SearchTerm)
}

// crc32cTable is pre-computed for the CRC32-Castagnoli polynomial.
var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// Key returns a short CRC32-Castagnoli digest of the fingerprint for
// log correlation and snapshot filenames. It is not the cache key; the
// Fingerprint value itself is.
func (fp Fingerprint) Key() uint32 {
	h := crc32.New(crc32cTable)
	var lenBuf [4]byte
	writeField := func(s string) {
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(s)))
		_, _ = h.Write(lenBuf[:])
		_, _ = h.Write([]byte(s))
	}
	writeField(fp.Category)
	writeField(string(fp.Sort))
	writeField(fp.SearchTerm)
	fav := byte(0)
	if fp.FavoritesOnly {
		fav = 1
	}
	_, _ = h.Write([]byte{fav})
	return h.Sum32()
}
