package cache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/listflow/codec"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.snap")

	src, clk := newTestCache(8)
	live := fpFor("mains")
	dying := fpFor("desserts")
	src.Put(live, resultSet(live, clk.Now(), "a", "b"), 300*time.Second)
	src.Put(dying, resultSet(dying, clk.Now(), "c"), 10*time.Second)

	require.NoError(t, src.SaveSnapshot(path, codec.Default))

	// Restore into a fresh cache sharing the clock, after the short
	// entry has expired.
	clk.Advance(60 * time.Second)
	dst := New(Config{MaxEntries: 8, Clock: clk})
	restored, err := dst.LoadSnapshot(path, codec.Default)
	require.NoError(t, err)
	assert.Equal(t, 1, restored, "expired entries must be skipped on load")

	got, ok := dst.Get(live)
	require.True(t, ok)
	assert.Equal(t, "a", got.Items[0].ID)
	assert.Equal(t, "b", got.Items[1].ID)

	_, ok = dst.Get(dying)
	assert.False(t, ok)
}

func TestSnapshot_PreservesOriginalExpiry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.snap")

	src, clk := newTestCache(4)
	fp := fpFor("mains")
	src.Put(fp, resultSet(fp, clk.Now(), "a"), 100*time.Second)
	require.NoError(t, src.SaveSnapshot(path, codec.Default))

	clk.Advance(50 * time.Second)
	dst := New(Config{MaxEntries: 4, Clock: clk})
	_, err := dst.LoadSnapshot(path, codec.Default)
	require.NoError(t, err)

	// The entry keeps its original deadline, not a fresh TTL.
	clk.Advance(49 * time.Second)
	_, ok := dst.Get(fp)
	assert.True(t, ok)

	clk.Advance(time.Second)
	_, ok = dst.Get(fp)
	assert.False(t, ok)
}

func TestSnapshot_MissingFile(t *testing.T) {
	c, _ := newTestCache(4)
	_, err := c.LoadSnapshot(filepath.Join(t.TempDir(), "absent.snap"), codec.Default)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestSnapshot_CorruptPayloadRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.snap")

	src, clk := newTestCache(4)
	fp := fpFor("mains")
	src.Put(fp, resultSet(fp, clk.Now(), "a"), 0)
	require.NoError(t, src.SaveSnapshot(path, codec.Default))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[len(data)-1] ^= 0xFF
	require.NoError(t, os.WriteFile(path, data, 0o644))

	dst, _ := newTestCache(4)
	_, err = dst.LoadSnapshot(path, codec.Default)
	assert.ErrorIs(t, err, ErrSnapshotCorrupt)
}

func TestSnapshot_BadMagicRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.snap")
	require.NoError(t, os.WriteFile(path, []byte("not a snapshot at all"), 0o644))

	c, _ := newTestCache(4)
	_, err := c.LoadSnapshot(path, codec.Default)
	assert.ErrorIs(t, err, ErrSnapshotCorrupt)
}
