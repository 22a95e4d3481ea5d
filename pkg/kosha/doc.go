// Package kosha implements an immutable, disk-backed dictionary that maps
// word forms to one or more packed padas.
//
// A store is written once by a Builder and then opened read-only with Open.
// The directory holds three files:
//
//	MANIFEST   YAML summary, written last; its presence marks a finished store
//	keys.idx   sorted, front-coded key index, optionally zstd-compressed
//	padas.dat  CRC32-framed records in key order, memory-mapped when read
//
// Keys are compared as raw bytes and are not normalised. A key may carry
// several records (homographs); they are returned in the order they were
// inserted.
//
// Basic usage:
//
//	b, err := kosha.NewBuilder(dir)
//	if err != nil {
//	    return err
//	}
//	if err := b.Insert("gacCati", tinanta); err != nil {
//	    return err
//	}
//	if err := b.Finish(); err != nil {
//	    return err
//	}
//
//	k, err := kosha.Open(dir)
//	if err != nil {
//	    return err // errors.Is(err, kosha.ErrStorageUnavailable)
//	}
//	defer k.Close()
//
//	padas, err := k.GetAllPadas("gacCati")
package kosha
