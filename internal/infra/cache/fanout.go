package cache

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// Invalidator is satisfied by every cache backend in this package.
type Invalidator interface {
	Invalidate(ctx context.Context, paths []string) error
}

// Fanout invalidates through all targets concurrently. Every target is tried;
// the returned error joins all failures.
type Fanout []Invalidator

func (f Fanout) Invalidate(ctx context.Context, paths []string) error {
	errs := make([]error, len(f))
	var g errgroup.Group
	for i, target := range f {
		g.Go(func() error {
			errs[i] = target.Invalidate(ctx, paths)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// Noop is used when no cache backend is configured.
type Noop struct{}

func (Noop) Invalidate(context.Context, []string) error { return nil }
