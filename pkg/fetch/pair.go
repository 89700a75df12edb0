package fetch

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Outcome holds one leg's result of a Pair fetch.
type Outcome[T any] struct {
	Value T
	Err   error
}

// Pair runs two independent fetches concurrently and returns each leg's
// outcome. A failed leg never cancels or discards the other: the caller
// decides which legs it can proceed without.
func Pair[A, B any](ctx context.Context, fetchA func(ctx context.Context) (A, error), fetchB func(ctx context.Context) (B, error)) (Outcome[A], Outcome[B]) {
	var (
		a Outcome[A]
		b Outcome[B]
	)

	var group errgroup.Group
	group.Go(func() error {
		a.Value, a.Err = fetchA(ctx)
		return nil
	})
	group.Go(func() error {
		b.Value, b.Err = fetchB(ctx)
		return nil
	})

	// Errors are reported per leg, Wait only synchronizes.
	_ = group.Wait()
	return a, b
}
