package kosha

import (
	"hash/crc32"
	"os"
	"path/filepath"
	"strings"

	"github.com/edsrzf/mmap-go"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ssargent/koshadb/pkg/codec"
	"github.com/ssargent/koshadb/pkg/semantics"
)

// Kosha is a finished, read-only store. All query methods are safe for
// concurrent use; none of them may be called after Close.
type Kosha struct {
	dir      string
	manifest Manifest
	index    *keyIndex
	file     *os.File
	data     mmap.MMap
	codec    *codec.RecordCodec
	log      logrus.FieldLogger
}

// Open loads the store in dir. Any missing, truncated or inconsistent file
// makes Open fail with an error matching ErrStorageUnavailable; a store is
// never partially loaded.
func Open(dir string, opts ...Option) (*Kosha, error) {
	o := buildOptions(opts)
	log := o.Logger.WithField("dir", dir)

	m, err := readManifest(dir)
	if err != nil {
		return nil, err
	}

	ix, err := loadIndex(dir, m)
	if err != nil {
		return nil, err
	}

	k := &Kosha{
		dir:      dir,
		manifest: *m,
		index:    ix,
		codec:    codec.NewRecordCodec(),
		log:      log,
	}
	if err := k.mapData(); err != nil {
		return nil, err
	}
	if err := k.checkRecords(); err != nil {
		k.Close()
		return nil, storageErr("validate", filepath.Join(dir, DataFile), err)
	}

	log.WithFields(logrus.Fields{
		"build_id": m.BuildID,
		"keys":     m.Keys,
		"records":  m.Records,
	}).Info("kosha opened")
	return k, nil
}

func loadIndex(dir string, m *Manifest) (*keyIndex, error) {
	path := filepath.Join(dir, IndexFile)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, storageErr("read index", path, err)
	}
	if int64(len(data)) != m.IndexSize {
		return nil, storageErr("read index", path,
			errors.Errorf("index is %d bytes, manifest says %d", len(data), m.IndexSize))
	}
	if crc := crc32.ChecksumIEEE(data); crc != m.IndexCRC32 {
		return nil, storageErr("read index", path,
			errors.Errorf("index CRC32 mismatch: %d != %d", crc, m.IndexCRC32))
	}

	ix, compression, err := decodeKeyIndex(data)
	if err != nil {
		return nil, storageErr("decode index", path, err)
	}
	if compression.String() != m.IndexCompression {
		return nil, storageErr("decode index", path,
			errors.Errorf("index compression %s, manifest says %s", compression, m.IndexCompression))
	}
	if uint64(ix.len()) != m.Keys {
		return nil, storageErr("decode index", path,
			errors.Errorf("index holds %d keys, manifest says %d", ix.len(), m.Keys))
	}
	return ix, nil
}

func (k *Kosha) mapData() error {
	path := filepath.Join(k.dir, DataFile)

	file, err := os.Open(path)
	if err != nil {
		return storageErr("open", path, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return storageErr("stat", path, err)
	}
	if info.Size() != k.manifest.DataSize {
		file.Close()
		return storageErr("open", path,
			errors.Errorf("data file is %d bytes, manifest says %d", info.Size(), k.manifest.DataSize))
	}

	k.file = file
	if info.Size() == 0 {
		return nil
	}

	data, err := mmap.MapRegion(file, int(info.Size()), mmap.RDONLY, 0, 0)
	if err != nil {
		file.Close()
		k.file = nil
		return storageErr("mmap", path, err)
	}
	k.data = data
	return nil
}

// checkRecords walks the whole data file once. Each index entry must cover
// exactly its run of records, every record must pass its CRC and carry the
// entry's key, and the runs must tile the file.
func (k *Kosha) checkRecords() error {
	var off int64
	var records uint64
	for i := 0; i < k.index.len(); i++ {
		key := k.index.key(i)
		if k.index.offsets[i] != off {
			return errors.Errorf("key %q starts at %d, expected %d", key, k.index.offsets[i], off)
		}
		for j := uint32(0); j < k.index.counts[i]; j++ {
			r, err := readRecord(k.codec, k.data, off)
			if err != nil {
				return errors.Wrapf(err, "key %q", key)
			}
			if string(r.Key) != key {
				return errors.Errorf("record at %d has key %q, index says %q", off, r.Key, key)
			}
			off += int64(r.Size())
			records++
		}
	}
	if off != int64(len(k.data)) {
		return errors.Errorf("records end at %d of %d bytes", off, len(k.data))
	}
	if records != k.manifest.Records {
		return errors.Errorf("found %d records, manifest says %d", records, k.manifest.Records)
	}
	return nil
}

// ContainsKey reports whether key has at least one record.
func (k *Kosha) ContainsKey(key string) bool {
	_, ok := k.index.find(key)
	return ok
}

// ContainsPrefix reports whether some key starts with prefix. The empty
// prefix matches any non-empty store.
func (k *Kosha) ContainsPrefix(prefix string) bool {
	i := k.index.search(prefix)
	return i < k.index.len() && strings.HasPrefix(k.index.key(i), prefix)
}

// KeysWithPrefix returns the keys starting with prefix in ascending order.
// A limit <= 0 returns all of them.
func (k *Kosha) KeysWithPrefix(prefix string, limit int) []string {
	var keys []string
	for i := k.index.search(prefix); i < k.index.len(); i++ {
		key := k.index.key(i)
		if !strings.HasPrefix(key, prefix) {
			break
		}
		keys = append(keys, key)
		if limit > 0 && len(keys) == limit {
			break
		}
	}
	return keys
}

// GetAll returns every packed record stored under key in insertion order,
// or nil when the key is absent. The returned slices are copies and stay
// valid after Close.
func (k *Kosha) GetAll(key string) []codec.PackedPada {
	i, ok := k.index.find(key)
	if !ok {
		return nil
	}
	out, err := k.recordsAt(i)
	if err != nil {
		k.log.WithError(err).WithField("key", key).Error("failed to read records")
	}
	return out
}

func (k *Kosha) recordsAt(i int) ([]codec.PackedPada, error) {
	off := k.index.offsets[i]
	out := make([]codec.PackedPada, 0, k.index.counts[i])
	for j := uint32(0); j < k.index.counts[i]; j++ {
		r, err := readRecord(k.codec, k.data, off)
		if err != nil {
			return out, err
		}
		out = append(out, append(codec.PackedPada(nil), r.Value...))
		off += int64(r.Size())
	}
	return out, nil
}

// Unpack decodes one packed record.
func (k *Kosha) Unpack(packed codec.PackedPada) (semantics.Pada, error) {
	return codec.Decode(packed)
}

// GetAllPadas decodes every record under key. Records that fail to decode
// are skipped and reported together in the returned error; the others are
// still returned.
func (k *Kosha) GetAllPadas(key string) ([]semantics.Pada, error) {
	packed := k.GetAll(key)

	var result *multierror.Error
	padas := make([]semantics.Pada, 0, len(packed))
	for j, p := range packed {
		pada, err := codec.Decode(p)
		if err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "key %q record %d", key, j))
			continue
		}
		padas = append(padas, pada)
	}
	return padas, result.ErrorOrNil()
}

// Len returns the number of distinct keys.
func (k *Kosha) Len() int { return k.index.len() }

// Records returns the total number of records.
func (k *Kosha) Records() uint64 { return k.manifest.Records }

// Manifest returns a copy of the store's manifest.
func (k *Kosha) Manifest() Manifest { return k.manifest }

// Dir returns the store directory.
func (k *Kosha) Dir() string { return k.dir }

// Close unmaps the data file and closes it.
func (k *Kosha) Close() error {
	var result *multierror.Error
	if k.data != nil {
		if err := k.data.Unmap(); err != nil {
			result = multierror.Append(result, errors.Wrap(err, "failed to unmap data file"))
		}
		k.data = nil
	}
	if k.file != nil {
		if err := k.file.Close(); err != nil {
			result = multierror.Append(result, errors.Wrap(err, "failed to close data file"))
		}
		k.file = nil
	}
	return result.ErrorOrNil()
}
