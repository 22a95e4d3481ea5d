package kosha

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"
	"gopkg.in/yaml.v3"
)

// File names inside a store directory.
const (
	ManifestFile = "MANIFEST"
	IndexFile    = "keys.idx"
	DataFile     = "padas.dat"
	LockFile     = "LOCK"
)

// FormatVersion is written to every manifest. Open refuses other versions.
const FormatVersion = 1

// Manifest describes a finished store. It is written last, so its presence
// marks the store as complete.
type Manifest struct {
	FormatVersion    int       `yaml:"format_version"`
	BuildID          string    `yaml:"build_id"`
	CreatedAt        time.Time `yaml:"created_at"`
	Keys             uint64    `yaml:"keys"`
	Records          uint64    `yaml:"records"`
	DataSize         int64     `yaml:"data_size"`
	IndexSize        int64     `yaml:"index_size"`
	IndexCRC32       uint32    `yaml:"index_crc32"`
	IndexCompression string    `yaml:"index_compression"`
}

func newManifest() *Manifest {
	return &Manifest{
		FormatVersion: FormatVersion,
		BuildID:       ksuid.New().String(),
		CreatedAt:     time.Now().UTC(),
	}
}

func (m *Manifest) validate() error {
	if m.FormatVersion != FormatVersion {
		return errors.Errorf("unsupported format version %d", m.FormatVersion)
	}
	if _, err := ksuid.Parse(m.BuildID); err != nil {
		return errors.Wrap(err, "invalid build id")
	}
	if _, err := ParseCompression(m.IndexCompression); err != nil {
		return err
	}
	if m.Keys > m.Records {
		return errors.Errorf("%d keys but only %d records", m.Keys, m.Records)
	}
	if m.DataSize < 0 || m.IndexSize <= 0 {
		return errors.New("negative or empty file sizes")
	}
	return nil
}

func readManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFile)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, storageErr("read manifest", path, err)
	}
	if len(data) == 0 {
		return nil, storageErr("read manifest", path, errors.New("empty file"))
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, storageErr("parse manifest", path, err)
	}
	if err := m.validate(); err != nil {
		return nil, storageErr("validate manifest", path, err)
	}
	return &m, nil
}

func writeManifest(dir string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "failed to marshal manifest")
	}
	return writeFileAtomic(filepath.Join(dir, ManifestFile), data)
}

// writeFileAtomic writes data to a temporary sibling, syncs it and renames
// it over path.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return storageErr("create", tmp, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return storageErr("write", tmp, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return storageErr("sync", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return storageErr("close", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return storageErr("rename", path, err)
	}
	return syncDir(filepath.Dir(path))
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return storageErr("open", dir, err)
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		return storageErr("sync", dir, err)
	}
	return nil
}
