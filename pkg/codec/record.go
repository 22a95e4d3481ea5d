package codec

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// HeaderSize is the size of the fixed record header: CRC32(4) + KeySize(4) + ValueSize(4).
const HeaderSize = 12

// Record is one framed kosha entry: a word and one packed pada.
type Record struct {
	CRC32     uint32 // CRC32 checksum for integrity
	KeySize   uint32 // Size of the key in bytes
	ValueSize uint32 // Size of the value in bytes
	Key       []byte // Key data
	Value     []byte // Value data
}

// RecordCodec handles serialization and deserialization of records
type RecordCodec struct{}

// NewRecordCodec creates a new record codec instance
func NewRecordCodec() *RecordCodec {
	return &RecordCodec{}
}

// Encode serializes a key-value pair into a binary record format
// Format: [CRC32(4)][KeySize(4)][ValueSize(4)][Key][Value]
func (c *RecordCodec) Encode(key, value []byte) ([]byte, error) {
	r, err := NewRecord(key, value)
	if err != nil {
		return nil, err
	}
	return c.AppendRecord(make([]byte, 0, r.Size()), r), nil
}

// AppendRecord appends the encoded form of r to dst.
func (c *RecordCodec) AppendRecord(dst []byte, r *Record) []byte {
	r.CRC32 = r.calculateCRC32()

	dst = binary.LittleEndian.AppendUint32(dst, r.CRC32)
	dst = binary.LittleEndian.AppendUint32(dst, r.KeySize)
	dst = binary.LittleEndian.AppendUint32(dst, r.ValueSize)
	dst = append(dst, r.Key...)
	return append(dst, r.Value...)
}

// Decode deserializes a binary record into a Record struct. Key and Value
// alias data. Trailing bytes after the record are ignored so that Decode can
// walk a sequence of records; use Size to advance.
func (c *RecordCodec) Decode(data []byte) (*Record, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("data too short for record header")
	}

	r := &Record{}
	r.CRC32 = binary.LittleEndian.Uint32(data[0:4])
	r.KeySize = binary.LittleEndian.Uint32(data[4:8])
	r.ValueSize = binary.LittleEndian.Uint32(data[8:12])

	// Validate sizes
	total := uint64(HeaderSize) + uint64(r.KeySize) + uint64(r.ValueSize)
	if uint64(len(data)) < total {
		return nil, fmt.Errorf("data too short for key/value sizes: %d < %d", len(data), total)
	}

	keyEnd := HeaderSize + int(r.KeySize)
	r.Key = data[HeaderSize:keyEnd]
	r.Value = data[keyEnd : keyEnd+int(r.ValueSize)]

	return r, nil
}

// Validate checks the integrity of a record using CRC32
func (r *Record) Validate() error {
	if r.CRC32 != r.calculateCRC32() {
		return fmt.Errorf("CRC32 mismatch: %d != %d", r.CRC32, r.calculateCRC32())
	}

	return nil
}

// Size returns the total size of the record when encoded
func (r *Record) Size() int {
	return HeaderSize + len(r.Key) + len(r.Value)
}

// NewRecord creates a new record for key and value.
func NewRecord(key, value []byte) (*Record, error) {
	if uint64(len(key)) > uint64(^uint32(0)) {
		return nil, fmt.Errorf("key too large: %d bytes", len(key))
	}
	if uint64(len(value)) > uint64(^uint32(0)) {
		return nil, fmt.Errorf("value too large: %d bytes", len(value))
	}
	return &Record{
		KeySize:   uint32(len(key)),
		ValueSize: uint32(len(value)),
		Key:       key,
		Value:     value,
	}, nil
}

// calculateCRC32 computes the checksum over KeySize + ValueSize + Key + Value.
func (r *Record) calculateCRC32() uint32 {
	var sizes [8]byte
	binary.LittleEndian.PutUint32(sizes[0:], r.KeySize)
	binary.LittleEndian.PutUint32(sizes[4:], r.ValueSize)

	crc := crc32.Update(0, crc32.IEEETable, sizes[:])
	crc = crc32.Update(crc, crc32.IEEETable, r.Key)
	return crc32.Update(crc, crc32.IEEETable, r.Value)
}
