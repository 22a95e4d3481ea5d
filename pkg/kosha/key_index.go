package kosha

import (
	"encoding/binary"
	"hash/crc32"
	"sort"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// Key index file:
//
//	[magic(8)][version(2)][compression(1)][reserved(1)][count(8)][rawLen(8)][crc32(4)][payload]
//
// The payload, after optional zstd decompression, is rawLen bytes holding
// count front-coded entries:
//
//	[uvarint shared][uvarint suffixLen][suffix][uvarint offsetDelta][uvarint count]
//
// shared is the length of the prefix shared with the previous key, and
// offsetDelta is relative to the previous entry's data offset. The CRC32
// covers the uncompressed payload.

const (
	indexMagic      = "KOSHAIDX"
	indexVersion    = 1
	indexHeaderSize = 32
)

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	return dec
}

// indexEntry locates the run of records stored under one distinct key.
type indexEntry struct {
	key    string
	offset int64
	count  uint32
}

// keyIndex is the decoded, read-only form of keys.idx. Keys are stored
// back to back in one string to keep the number of allocations independent
// of the key count.
type keyIndex struct {
	keys    string
	ends    []int
	offsets []int64
	counts  []uint32
}

func (ix *keyIndex) len() int { return len(ix.ends) }

func (ix *keyIndex) key(i int) string {
	start := 0
	if i > 0 {
		start = ix.ends[i-1]
	}
	return ix.keys[start:ix.ends[i]]
}

// search returns the first position whose key is >= key.
func (ix *keyIndex) search(key string) int {
	return sort.Search(ix.len(), func(i int) bool { return ix.key(i) >= key })
}

func (ix *keyIndex) find(key string) (int, bool) {
	i := ix.search(key)
	return i, i < ix.len() && ix.key(i) == key
}

func commonPrefixLen(a, b string) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

func encodeKeyIndex(entries []indexEntry, c Compression) ([]byte, error) {
	var raw []byte
	prev := ""
	var prevOffset int64
	for _, e := range entries {
		shared := commonPrefixLen(prev, e.key)
		raw = binary.AppendUvarint(raw, uint64(shared))
		raw = binary.AppendUvarint(raw, uint64(len(e.key)-shared))
		raw = append(raw, e.key[shared:]...)
		raw = binary.AppendUvarint(raw, uint64(e.offset-prevOffset))
		raw = binary.AppendUvarint(raw, uint64(e.count))
		prev, prevOffset = e.key, e.offset
	}

	payload := raw
	switch c {
	case CompressionNone:
	case CompressionZstd:
		enc := getZstdEncoder()
		payload = enc.EncodeAll(raw, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, errors.Errorf("unknown index compression %d", c)
	}

	buf := make([]byte, indexHeaderSize, indexHeaderSize+len(payload))
	copy(buf[0:8], indexMagic)
	binary.LittleEndian.PutUint16(buf[8:10], indexVersion)
	buf[10] = uint8(c)
	binary.LittleEndian.PutUint64(buf[12:20], uint64(len(entries)))
	binary.LittleEndian.PutUint64(buf[20:28], uint64(len(raw)))
	binary.LittleEndian.PutUint32(buf[28:32], crc32.ChecksumIEEE(raw))
	return append(buf, payload...), nil
}

type indexHeader struct {
	compression Compression
	count       uint64
	rawLen      uint64
	crc         uint32
}

func parseIndexHeader(data []byte) (indexHeader, error) {
	var h indexHeader
	if len(data) < indexHeaderSize {
		return h, errors.Errorf("index too short: %d bytes", len(data))
	}
	if string(data[0:8]) != indexMagic {
		return h, errors.New("bad index magic")
	}
	if v := binary.LittleEndian.Uint16(data[8:10]); v != indexVersion {
		return h, errors.Errorf("unsupported index version %d", v)
	}
	h.compression = Compression(data[10])
	if h.compression != CompressionNone && h.compression != CompressionZstd {
		return h, errors.Errorf("unknown index compression %d", data[10])
	}
	h.count = binary.LittleEndian.Uint64(data[12:20])
	h.rawLen = binary.LittleEndian.Uint64(data[20:28])
	h.crc = binary.LittleEndian.Uint32(data[28:32])
	return h, nil
}

// decodeKeyIndex parses and validates a key index file. Keys must be
// non-empty and strictly ascending, counts positive and offsets strictly
// increasing.
func decodeKeyIndex(data []byte) (*keyIndex, Compression, error) {
	h, err := parseIndexHeader(data)
	if err != nil {
		return nil, 0, err
	}

	payload := data[indexHeaderSize:]
	raw := payload
	if h.compression == CompressionZstd {
		if h.rawLen > 1<<32 {
			return nil, 0, errors.Errorf("index raw length %d too large", h.rawLen)
		}
		dec := getZstdDecoder()
		raw, err = dec.DecodeAll(payload, make([]byte, 0, h.rawLen))
		zstdDecoderPool.Put(dec)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to decompress index")
		}
	}
	if uint64(len(raw)) != h.rawLen {
		return nil, 0, errors.Errorf("index payload is %d bytes, header says %d", len(raw), h.rawLen)
	}
	if crc := crc32.ChecksumIEEE(raw); crc != h.crc {
		return nil, 0, errors.Errorf("index CRC32 mismatch: %d != %d", crc, h.crc)
	}
	// Every entry takes at least 5 bytes.
	if h.count > uint64(len(raw))/5 {
		return nil, 0, errors.Errorf("index claims %d entries in %d bytes", h.count, len(raw))
	}

	n := int(h.count)
	ix := &keyIndex{
		ends:    make([]int, 0, n),
		offsets: make([]int64, 0, n),
		counts:  make([]uint32, 0, n),
	}
	var keys strings.Builder
	keys.Grow(len(raw))

	pos := 0
	next := func(field string) (uint64, error) {
		v, size := binary.Uvarint(raw[pos:])
		if size <= 0 {
			return 0, errors.Errorf("index entry %d: bad %s", len(ix.ends), field)
		}
		pos += size
		return v, nil
	}

	prev := ""
	var offset int64
	for i := 0; i < n; i++ {
		shared, err := next("shared length")
		if err != nil {
			return nil, 0, err
		}
		suffixLen, err := next("suffix length")
		if err != nil {
			return nil, 0, err
		}
		if shared > uint64(len(prev)) || suffixLen > uint64(len(raw)-pos) {
			return nil, 0, errors.Errorf("index entry %d: key out of bounds", i)
		}
		key := prev[:shared] + string(raw[pos:pos+int(suffixLen)])
		pos += int(suffixLen)

		delta, err := next("offset")
		if err != nil {
			return nil, 0, err
		}
		count, err := next("count")
		if err != nil {
			return nil, 0, err
		}

		switch {
		case key == "":
			return nil, 0, errors.Errorf("index entry %d: empty key", i)
		case i > 0 && key <= prev:
			return nil, 0, errors.Errorf("index entry %d: key %q not after %q", i, key, prev)
		case i > 0 && delta == 0:
			return nil, 0, errors.Errorf("index entry %d: offset does not advance", i)
		case delta > 1<<62:
			return nil, 0, errors.Errorf("index entry %d: offset out of range", i)
		case count == 0 || count > 1<<32-1:
			return nil, 0, errors.Errorf("index entry %d: bad record count %d", i, count)
		}

		offset += int64(delta)
		keys.WriteString(key)
		ix.ends = append(ix.ends, keys.Len())
		ix.offsets = append(ix.offsets, offset)
		ix.counts = append(ix.counts, uint32(count))
		prev = key
	}
	if pos != len(raw) {
		return nil, 0, errors.Errorf("index has %d trailing bytes", len(raw)-pos)
	}

	ix.keys = keys.String()
	return ix, h.compression, nil
}
