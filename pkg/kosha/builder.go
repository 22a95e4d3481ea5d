package kosha

import (
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ssargent/koshadb/pkg/codec"
	"github.com/ssargent/koshadb/pkg/semantics"
)

// Builder writes a new store. Keys must arrive in non-decreasing byte
// order; records under equal keys keep their insertion order. The store
// becomes loadable only after Finish succeeds.
//
// A Builder is single-owner and not safe for concurrent use. A LOCK file in
// the directory keeps a second Builder out until Finish or Abort.
type Builder struct {
	dir     string
	opts    Options
	log     logrus.FieldLogger
	data    *dataWriter
	entries []indexEntry
	records uint64
	started time.Time
	done    bool
}

// NewBuilder prepares dir for a new store, creating it when needed. It
// fails with ErrStoreExists if dir already holds a finished store and with
// ErrLocked if another Builder is active there.
func NewBuilder(dir string, opts ...Option) (*Builder, error) {
	o := buildOptions(opts)

	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, storageErr("create directory", dir, err)
	}
	if _, err := os.Stat(filepath.Join(dir, ManifestFile)); err == nil {
		return nil, errors.Wrapf(ErrStoreExists, "directory %s", dir)
	}

	lockPath := filepath.Join(dir, LockFile)
	lock, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		if os.IsExist(err) {
			return nil, errors.Wrapf(ErrLocked, "directory %s", dir)
		}
		return nil, storageErr("create", lockPath, err)
	}
	_, err = fmt.Fprintf(lock, "%d\n", os.Getpid())
	if cerr := lock.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(lockPath)
		return nil, storageErr("write", lockPath, err)
	}

	log := o.Logger.WithField("dir", dir)

	// Leftovers of a build that died without Abort.
	for _, name := range []string{DataFile, IndexFile} {
		path := filepath.Join(dir, name)
		if err := os.Remove(path); err == nil {
			log.WithField("file", name).Warn("removed partial file from an earlier build")
		}
	}

	data, err := newDataWriter(filepath.Join(dir, DataFile), o.BufferSize)
	if err != nil {
		os.Remove(lockPath)
		return nil, err
	}

	log.Debug("builder started")
	return &Builder{
		dir:     dir,
		opts:    o,
		log:     log,
		data:    data,
		started: time.Now(),
	}, nil
}

// Insert appends one record. It fails without changing any state when the
// key is invalid, p packs as None (including nil and nil pointers), or key
// sorts before the previous key.
func (b *Builder) Insert(key string, p semantics.Pada) error {
	if err := b.check(key); err != nil {
		return err
	}
	packed := codec.Encode(p)
	if packed.IsNone() {
		return errors.Wrapf(ErrInvalidPada, "key %q: none is not storable", key)
	}
	return b.add(key, packed)
}

// InsertPacked appends an already packed record after checking that it
// decodes to a storable pada.
func (b *Builder) InsertPacked(key string, packed codec.PackedPada) error {
	if err := b.check(key); err != nil {
		return err
	}
	p, err := codec.Decode(packed)
	if err != nil {
		return &PadaError{Key: key, Err: err}
	}
	if p.PartOfSpeech() == semantics.PosNone {
		return errors.Wrapf(ErrInvalidPada, "key %q: none is not storable", key)
	}
	return b.add(key, packed)
}

func (b *Builder) check(key string) error {
	if b.done {
		return ErrAlreadyFinished
	}
	if key == "" {
		return errors.Wrap(ErrInvalidKey, "key must not be empty")
	}
	if strings.IndexByte(key, 0) >= 0 {
		return errors.Wrapf(ErrInvalidKey, "key %q contains a NUL byte", key)
	}
	if n := len(b.entries); n > 0 && key < b.entries[n-1].key {
		return &OrderingError{Previous: b.entries[n-1].key, Key: key}
	}
	return nil
}

func (b *Builder) add(key string, packed codec.PackedPada) error {
	offset, err := b.data.put(key, packed)
	if err != nil {
		return err
	}

	if n := len(b.entries); n > 0 && b.entries[n-1].key == key {
		b.entries[n-1].count++
	} else {
		b.entries = append(b.entries, indexEntry{key: key, offset: offset, count: 1})
	}
	b.records++
	return nil
}

// Len reports the number of distinct keys inserted so far.
func (b *Builder) Len() int { return len(b.entries) }

// Records reports the number of records inserted so far.
func (b *Builder) Records() uint64 { return b.records }

// Finish writes the data file, the key index and finally the manifest.
// Whether or not it succeeds, the Builder is finished afterwards; on
// failure the partial files are removed.
func (b *Builder) Finish() error {
	if b.done {
		return ErrAlreadyFinished
	}
	b.done = true

	m, err := b.finish()
	if err != nil {
		if cerr := b.cleanup(); cerr != nil {
			err = multierror.Append(err, cerr)
		}
		return err
	}

	b.log.WithFields(logrus.Fields{
		"build_id":   m.BuildID,
		"keys":       m.Keys,
		"records":    m.Records,
		"data_size":  m.DataSize,
		"index_size": m.IndexSize,
		"took":       time.Since(b.started),
	}).Info("kosha build finished")
	return nil
}

func (b *Builder) finish() (*Manifest, error) {
	if err := b.data.close(); err != nil {
		return nil, err
	}

	idx, err := encodeKeyIndex(b.entries, b.opts.Compression)
	if err != nil {
		return nil, err
	}
	if err := writeFileAtomic(filepath.Join(b.dir, IndexFile), idx); err != nil {
		return nil, err
	}

	m := newManifest()
	m.Keys = uint64(len(b.entries))
	m.Records = b.records
	m.DataSize = b.data.size()
	m.IndexSize = int64(len(idx))
	m.IndexCRC32 = crc32.ChecksumIEEE(idx)
	m.IndexCompression = b.opts.Compression.String()
	if err := writeManifest(b.dir, m); err != nil {
		return nil, err
	}

	b.entries = nil
	lockPath := filepath.Join(b.dir, LockFile)
	if err := os.Remove(lockPath); err != nil {
		return nil, storageErr("remove", lockPath, err)
	}
	return m, nil
}

// Abort discards the build, removing partial files and the lock.
func (b *Builder) Abort() error {
	if b.done {
		return ErrAlreadyFinished
	}
	b.done = true

	b.data.close()
	err := b.cleanup()
	b.log.Info("kosha build aborted")
	return err
}

func (b *Builder) cleanup() error {
	var result *multierror.Error
	for _, name := range []string{ManifestFile, IndexFile, DataFile, LockFile} {
		path := filepath.Join(b.dir, name)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			result = multierror.Append(result, storageErr("remove", path, err))
		}
	}
	b.entries = nil
	return result.ErrorOrNil()
}
