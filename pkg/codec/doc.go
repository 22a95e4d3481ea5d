// Package codec provides the two binary formats a kosha is built from: the
// packed form of a single Pada, and the checksummed record frame that stores
// one packed Pada under its word on disk.
//
// # Packed Pada Format
//
// A PackedPada starts with a discriminant byte naming the variant:
//
//	None:    [0]
//	Avyaya:  [1][stem]
//	Subanta: [2][linga][vibhakti][vacana][flags][stem]
//	Tinanta: [3][purusha][vacana][lakara][prayoga][flags]([dhatu])
//
// Each dimension takes one byte. 0 means the dimension is unspecified and
// member m of its enumeration is written as m+1. The subanta flags byte
// carries is_purvapada in bit 0; the tinanta flags byte sets bit 0 when a
// dhatu follows. A stem or dhatu is a uvarint length followed by its text.
//
// Decode is strict. Unknown discriminants, out-of-range members, unknown
// flag bits and trailing bytes fail with ErrInvalidTag; input that ends
// early fails with ErrMissingRequiredField. Both are reported as a
// *DecodeError whose Kind is matched by errors.Is.
//
// # Record Format
//
// Records are serialized in a binary format with the following structure:
//
//	[CRC32(4)][KeySize(4)][ValueSize(4)][Key][Value]
//
// Fields:
//   - CRC32: 32-bit CRC checksum for integrity validation (little-endian)
//   - KeySize: 32-bit unsigned integer indicating key length in bytes (little-endian)
//   - ValueSize: 32-bit unsigned integer indicating value length in bytes (little-endian)
//   - Key: the word form
//   - Value: one PackedPada
//
// The total record size is: 12 bytes (header) + len(key) + len(value)
//
// The CRC32 checksum is calculated over every field except the CRC32 field
// itself, so corruption in the sizes or the data is caught by Validate.
//
// # Usage
//
//	rc := codec.NewRecordCodec()
//
//	encoded, err := rc.Encode([]byte("ca"), codec.Encode(pada))
//	if err != nil {
//	    return err
//	}
//
//	record, err := rc.Decode(encoded)
//	if err != nil {
//	    return err
//	}
//	if err := record.Validate(); err != nil {
//	    return err // corrupted
//	}
//
//	pada, err := codec.Decode(record.Value)
//
// Decode aliases its input, so records decoded from a memory mapping stay
// valid only as long as the mapping.
package codec
