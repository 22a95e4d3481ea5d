package kosha

import (
	"bufio"
	"os"

	"github.com/pkg/errors"

	"github.com/ssargent/koshadb/pkg/codec"
)

// dataWriter appends framed records to padas.dat. It is owned by a single
// Builder and is not safe for concurrent use.
type dataWriter struct {
	path   string
	file   *os.File
	writer *bufio.Writer
	codec  *codec.RecordCodec
	buf    []byte
	offset int64 // Current write offset
}

func newDataWriter(path string, bufferSize int) (*dataWriter, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return nil, storageErr("create", path, err)
	}

	return &dataWriter{
		path:   path,
		file:   file,
		writer: bufio.NewWriterSize(file, bufferSize),
		codec:  codec.NewRecordCodec(),
	}, nil
}

// put appends one record and returns the offset it starts at.
func (w *dataWriter) put(key string, value codec.PackedPada) (int64, error) {
	r, err := codec.NewRecord([]byte(key), value)
	if err != nil {
		return 0, err
	}
	w.buf = w.codec.AppendRecord(w.buf[:0], r)

	n, err := w.writer.Write(w.buf)
	if err != nil {
		return 0, storageErr("write", w.path, err)
	}

	recordOffset := w.offset
	w.offset += int64(n)
	return recordOffset, nil
}

func (w *dataWriter) size() int64 { return w.offset }

// close flushes buffered records, fsyncs and closes the file.
func (w *dataWriter) close() error {
	if err := w.writer.Flush(); err != nil {
		w.file.Close()
		return storageErr("flush", w.path, err)
	}
	if err := w.file.Sync(); err != nil {
		w.file.Close()
		return storageErr("sync", w.path, err)
	}
	if err := w.file.Close(); err != nil {
		return storageErr("close", w.path, err)
	}
	return nil
}

// readRecord decodes and checks the record at off within a mapped data file.
func readRecord(rc *codec.RecordCodec, data []byte, off int64) (*codec.Record, error) {
	if off < 0 || off >= int64(len(data)) {
		return nil, errors.Errorf("record offset %d outside data file of %d bytes", off, len(data))
	}
	r, err := rc.Decode(data[off:])
	if err != nil {
		return nil, errors.Wrapf(err, "record at offset %d", off)
	}
	if err := r.Validate(); err != nil {
		return nil, errors.Wrapf(err, "record at offset %d", off)
	}
	return r, nil
}
