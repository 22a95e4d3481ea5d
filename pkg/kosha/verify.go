package kosha

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/ssargent/koshadb/pkg/codec"
)

// Verify decodes every record in the store, splitting the key range across
// workers goroutines. It returns all decode failures together, or the
// context's error if ctx is cancelled first.
func (k *Kosha) Verify(ctx context.Context, workers int) error {
	n := k.index.len()
	if workers <= 0 {
		workers = 1
	}
	if workers > n {
		workers = max(n, 1)
	}
	chunk := (n + workers - 1) / workers

	var (
		mu     sync.Mutex
		result *multierror.Error
	)
	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				for _, err := range k.verifyKey(i) {
					mu.Lock()
					result = multierror.Append(result, err)
					mu.Unlock()
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := result.ErrorOrNil(); err != nil {
		return err
	}
	k.log.WithField("records", k.manifest.Records).Debug("kosha verified")
	return nil
}

func (k *Kosha) verifyKey(i int) []error {
	key := k.index.key(i)
	packed, err := k.recordsAt(i)
	if err != nil {
		return []error{errors.Wrapf(err, "key %q", key)}
	}

	var errs []error
	for j, p := range packed {
		if _, err := codec.Decode(p); err != nil {
			errs = append(errs, errors.Wrapf(err, "key %q record %d", key, j))
		}
	}
	return errs
}
