package kosha

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrStorageUnavailable is matched by every error caused by a store
	// that is missing, incomplete or inconsistent on disk, and by I/O
	// failures while building one.
	ErrStorageUnavailable = errors.New("kosha: storage unavailable")
	// ErrOrdering is matched when a Builder receives a key that sorts
	// before the previously inserted key.
	ErrOrdering = errors.New("kosha: keys out of order")
	// ErrAlreadyFinished is returned by every Builder call after Finish or
	// Abort.
	ErrAlreadyFinished = errors.New("kosha: builder already finished")
	// ErrInvalidKey is returned for empty keys and keys containing NUL.
	ErrInvalidKey = errors.New("kosha: invalid key")
	// ErrInvalidPada is returned for None padas and packed padas that do
	// not decode.
	ErrInvalidPada = errors.New("kosha: invalid pada")
	// ErrStoreExists is returned by NewBuilder when the directory already
	// holds a finished store.
	ErrStoreExists = errors.New("kosha: store already exists")
	// ErrLocked is returned by NewBuilder when another builder owns the
	// directory.
	ErrLocked = errors.New("kosha: directory locked by another builder")
)

// StorageError reports a failed operation on one of the store files.
type StorageError struct {
	Path string
	Op   string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("kosha: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorageUnavailable }

func storageErr(op, path string, err error) error {
	return &StorageError{Path: path, Op: op, Err: err}
}

// OrderingError is returned by Builder.Insert when Key sorts before
// Previous.
type OrderingError struct {
	Previous string
	Key      string
}

func (e *OrderingError) Error() string {
	return fmt.Sprintf("kosha: key %q inserted after %q", e.Key, e.Previous)
}

func (e *OrderingError) Is(target error) bool { return target == ErrOrdering }

// PadaError is returned by Builder.InsertPacked when the packed pada under
// Key does not decode. It matches ErrInvalidPada and unwraps to the
// *codec.DecodeError.
type PadaError struct {
	Key string
	Err error
}

func (e *PadaError) Error() string {
	return fmt.Sprintf("kosha: invalid pada for key %q: %v", e.Key, e.Err)
}

func (e *PadaError) Unwrap() error { return e.Err }

func (e *PadaError) Is(target error) bool { return target == ErrInvalidPada }
