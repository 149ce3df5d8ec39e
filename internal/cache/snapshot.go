package cache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/hupe1980/listflow/codec"
	"github.com/hupe1980/listflow/filter"
	"github.com/hupe1980/listflow/model"
)

// Snapshot layout:
//
//	[4]  magic "LFSN"
//	[1]  version
//	[1]  codec name length
//	[n]  codec name
//	[4]  CRC32-Castagnoli of the compressed payload (little endian)
//	[..] zstd-compressed, codec-encoded []snapshotEntry
const (
	snapshotMagic   = "LFSN"
	snapshotVersion = 1
)

// ErrSnapshotCorrupt is returned when a snapshot fails structural or
// checksum validation.
var ErrSnapshotCorrupt = errors.New("cache: snapshot corrupt")

var snapshotCRCTable = crc32.MakeTable(crc32.Castagnoli)

type snapshotEntry struct {
	Fingerprint filter.Fingerprint `json:"fingerprint"`
	Items       []model.Item       `json:"items"`
	CreatedAt   time.Time          `json:"created_at"`
	ExpiresAt   time.Time          `json:"expires_at"`
}

// SaveSnapshot writes the live entries to path so a later LoadSnapshot
// can warm-start the cache. Entries are written least-recently-used
// first, so reloading reproduces the access order. The write goes
// through a temp file and rename.
func (c *ResultCache) SaveSnapshot(path string, cd codec.Codec) error {
	if cd == nil {
		cd = codec.Default
	}

	c.mu.Lock()
	entries := make([]snapshotEntry, 0, c.evictList.Len())
	for el := c.evictList.Back(); el != nil; el = el.Prev() {
		ent := el.Value.(*entry)
		entries = append(entries, snapshotEntry{
			Fingerprint: ent.key,
			Items:       ent.rs.Clone().Items,
			CreatedAt:   ent.rs.CreatedAt,
			ExpiresAt:   ent.expiresAt,
		})
	}
	c.mu.Unlock()

	payload, err := cd.Marshal(entries)
	if err != nil {
		return fmt.Errorf("cache: encode snapshot: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return fmt.Errorf("cache: snapshot compressor: %w", err)
	}
	compressed := enc.EncodeAll(payload, nil)
	_ = enc.Close()

	name := cd.Name()
	buf := make([]byte, 0, len(snapshotMagic)+2+len(name)+4+len(compressed))
	buf = append(buf, snapshotMagic...)
	buf = append(buf, snapshotVersion)
	buf = append(buf, byte(len(name)))
	buf = append(buf, name...)
	buf = binary.LittleEndian.AppendUint32(buf, crc32.Checksum(compressed, snapshotCRCTable))
	buf = append(buf, compressed...)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cache: snapshot dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf, 0o644); err != nil {
		return fmt.Errorf("cache: write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("cache: rename snapshot: %w", err)
	}

	c.cfg.Logger.Debug("cache snapshot saved", "path", path, "entries", len(entries))
	return nil
}

// LoadSnapshot reads a snapshot written by SaveSnapshot and inserts
// every entry that has not yet expired, preserving each entry's
// original creation time and expiry. It returns the number of entries
// restored. A missing file surfaces as os.ErrNotExist.
func (c *ResultCache) LoadSnapshot(path string, cd codec.Codec) (int, error) {
	if cd == nil {
		cd = codec.Default
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	compressed, err := parseSnapshotHeader(data, cd.Name())
	if err != nil {
		return 0, err
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return 0, fmt.Errorf("cache: snapshot decompressor: %w", err)
	}
	defer dec.Close()
	payload, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: decompress: %w", ErrSnapshotCorrupt, err)
	}

	var entries []snapshotEntry
	if err := cd.Unmarshal(payload, &entries); err != nil {
		return 0, fmt.Errorf("%w: decode: %w", ErrSnapshotCorrupt, err)
	}

	now := c.cfg.Clock.Now()
	restored := 0
	for _, se := range entries {
		if !now.Before(se.ExpiresAt) {
			continue
		}
		rs := model.ResultSet{
			Items:       se.Items,
			Fingerprint: se.Fingerprint,
			CreatedAt:   se.CreatedAt,
		}
		c.Put(se.Fingerprint, rs, se.ExpiresAt.Sub(se.CreatedAt))
		restored++
	}

	c.cfg.Logger.Debug("cache snapshot loaded", "path", path, "restored", restored, "skipped", len(entries)-restored)
	return restored, nil
}

func parseSnapshotHeader(data []byte, wantCodec string) ([]byte, error) {
	if len(data) < len(snapshotMagic)+2 {
		return nil, fmt.Errorf("%w: truncated header", ErrSnapshotCorrupt)
	}
	if string(data[:len(snapshotMagic)]) != snapshotMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrSnapshotCorrupt)
	}
	off := len(snapshotMagic)
	if data[off] != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrSnapshotCorrupt, data[off])
	}
	off++
	nameLen := int(data[off])
	off++
	if len(data) < off+nameLen+4 {
		return nil, fmt.Errorf("%w: truncated header", ErrSnapshotCorrupt)
	}
	name := string(data[off : off+nameLen])
	off += nameLen
	if name != wantCodec {
		return nil, fmt.Errorf("cache: snapshot codec %q, want %q", name, wantCodec)
	}
	sum := binary.LittleEndian.Uint32(data[off : off+4])
	off += 4
	compressed := data[off:]
	if crc32.Checksum(compressed, snapshotCRCTable) != sum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrSnapshotCorrupt)
	}
	return compressed, nil
}
