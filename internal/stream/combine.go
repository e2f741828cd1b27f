package stream

import (
	"context"
	"errors"

	"github.com/helixml/greenhouse/internal/scope"
)

// ErrNoInputs is returned when CombineLatest is called without inputs.
var ErrNoInputs = errors.New("stream: combine requires at least one input")

type indexed[T any] struct {
	index  int
	value  T
	closed bool
}

// CombineLatest merges inputs into a sequence of tuples holding the latest
// value of every input. Nothing is emitted until each input has produced a
// value; afterwards every element from any input emits a new tuple, in the
// order the elements were received. The output closes when any input closes.
//
// Each emitted slice is a fresh copy owned by the receiver.
func CombineLatest[T any](sp scope.Spawner, inputs ...<-chan T) (<-chan []T, error) {
	if len(inputs) == 0 {
		return nil, ErrNoInputs
	}

	merged := make(chan indexed[T])
	done := make(chan struct{})
	out := make(chan []T)

	err := sp.Spawn(func(ctx context.Context) {
		defer close(out)
		defer close(done)

		latest := make([]T, len(inputs))
		have := make([]bool, len(inputs))
		ready := 0

		for {
			var item indexed[T]
			select {
			case <-ctx.Done():
				return
			case item = <-merged:
			}

			if item.closed {
				return
			}
			if !have[item.index] {
				have[item.index] = true
				ready++
			}
			latest[item.index] = item.value
			if ready < len(inputs) {
				continue
			}

			tuple := make([]T, len(latest))
			copy(tuple, latest)
			if !send(ctx, out, tuple) {
				return
			}
		}
	})
	if err != nil {
		return nil, err
	}

	for i, in := range inputs {
		err := sp.Spawn(func(ctx context.Context) {
			forwardIndexed(ctx, done, i, in, merged)
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func forwardIndexed[T any](ctx context.Context, done <-chan struct{}, index int, in <-chan T, merged chan<- indexed[T]) {
	for {
		var item indexed[T]
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case v, ok := <-in:
			item = indexed[T]{index: index, value: v, closed: !ok}
		}

		select {
		case merged <- item:
		case <-ctx.Done():
			return
		case <-done:
			return
		}
		if item.closed {
			return
		}
	}
}

// Combine2 is CombineLatest for two inputs of different types. fn builds the
// combined value from the latest element of each input.
func Combine2[A, B, R any](sp scope.Spawner, a <-chan A, b <-chan B, fn func(A, B) R) (<-chan R, error) {
	boxedA, err := Map(sp, a, func(v A) any { return v })
	if err != nil {
		return nil, err
	}
	boxedB, err := Map(sp, b, func(v B) any { return v })
	if err != nil {
		return nil, err
	}
	tuples, err := CombineLatest(sp, boxedA, boxedB)
	if err != nil {
		return nil, err
	}
	return Map(sp, tuples, func(t []any) R {
		return fn(t[0].(A), t[1].(B))
	})
}
