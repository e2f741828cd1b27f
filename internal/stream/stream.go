// Package stream provides channel stages for reshaping value sequences.
//
// Every stage runs as one task under a scope.Spawner and closes its output
// channel when it returns, either because the scope was torn down or because
// an upstream channel closed.
package stream

import (
	"context"

	"github.com/helixml/greenhouse/internal/scope"
)

// Map applies fn to every value of in.
func Map[T, R any](sp scope.Spawner, in <-chan T, fn func(T) R) (<-chan R, error) {
	out := make(chan R)
	err := sp.Spawn(func(ctx context.Context) {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-in:
				if !ok {
					return
				}
				if !send(ctx, out, fn(v)) {
					return
				}
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Distinct drops values equal to the one forwarded just before them.
func Distinct[T any](sp scope.Spawner, in <-chan T, equal func(a, b T) bool) (<-chan T, error) {
	out := make(chan T)
	err := sp.Spawn(func(ctx context.Context) {
		defer close(out)

		var (
			last T
			seen bool
		)
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-in:
				if !ok {
					return
				}
				if seen && equal(last, v) {
					continue
				}
				last, seen = v, true
				if !send(ctx, out, v) {
					return
				}
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// send delivers v unless ctx ends first.
func send[T any](ctx context.Context, out chan<- T, v T) bool {
	select {
	case out <- v:
		return true
	case <-ctx.Done():
		return false
	}
}
