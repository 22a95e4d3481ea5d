// Package staging sorts unordered build input on disk so it can be fed to a
// kosha Builder, which only accepts keys in ascending order.
package staging

import (
	"encoding/binary"
	"os"
	"strings"

	"github.com/cockroachdb/pebble"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/ssargent/koshadb/pkg/codec"
)

// ErrInvalidKey is returned for empty keys and keys containing a NUL byte.
var ErrInvalidKey = errors.New("staging: invalid key")

// Sorter is an external sort backed by a scratch pebble database. Records
// are drained in ascending key order; records sharing a key keep the order
// in which they were added.
type Sorter struct {
	db  *pebble.DB
	dir string
	seq uint64
}

// NewSorter creates a scratch database in a new temporary directory under
// dir, or under the system temp directory when dir is empty.
func NewSorter(dir string) (*Sorter, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, errors.Wrap(err, "failed to create staging directory")
		}
	}
	scratch, err := os.MkdirTemp(dir, "kosha-staging-")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create staging directory")
	}

	db, err := pebble.Open(scratch, &pebble.Options{DisableWAL: true})
	if err != nil {
		os.RemoveAll(scratch)
		return nil, errors.Wrap(err, "failed to open staging database")
	}
	return &Sorter{db: db, dir: scratch}, nil
}

// Each record is stored under key, a NUL separator and a big-endian
// sequence number. NUL sorts below every other byte, so "a" still sorts
// before "ab".
func stagingKey(key string, seq uint64) []byte {
	k := make([]byte, 0, len(key)+9)
	k = append(k, key...)
	k = append(k, 0)
	return binary.BigEndian.AppendUint64(k, seq)
}

// Add stages one record.
func (s *Sorter) Add(key string, packed codec.PackedPada) error {
	if key == "" || strings.IndexByte(key, 0) >= 0 {
		return errors.Wrapf(ErrInvalidKey, "%q", key)
	}
	if err := s.db.Set(stagingKey(key, s.seq), packed, pebble.NoSync); err != nil {
		return errors.Wrap(err, "failed to stage record")
	}
	s.seq++
	return nil
}

// Len returns the number of records added.
func (s *Sorter) Len() uint64 { return s.seq }

// Drain calls fn for every staged record in order and stops at the first
// error fn returns.
func (s *Sorter) Drain(fn func(key string, packed codec.PackedPada) error) (err error) {
	iter, err := s.db.NewIter(nil)
	if err != nil {
		return errors.Wrap(err, "failed to iterate staging database")
	}
	defer func() {
		if cerr := iter.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "failed to iterate staging database")
		}
	}()

	for iter.First(); iter.Valid(); iter.Next() {
		k := iter.Key()
		if len(k) < 9 {
			return errors.Errorf("staging key %x too short", k)
		}
		value := append(codec.PackedPada(nil), iter.Value()...)
		if err := fn(string(k[:len(k)-9]), value); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database and removes its directory.
func (s *Sorter) Close() error {
	var result *multierror.Error
	if err := s.db.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := os.RemoveAll(s.dir); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}
