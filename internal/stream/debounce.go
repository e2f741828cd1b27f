package stream

import (
	"context"
	"time"

	"github.com/helixml/greenhouse/internal/scope"
)

// Debounce forwards a value from in only after d has passed without a newer
// one. Each value restarts the timer, so a burst collapses into its last
// element. The first value waits like any other.
//
// Cancelling the owning scope drops a pending value. Closing in flushes it.
// A non-positive d forwards values unchanged.
func Debounce[T any](sp scope.Spawner, in <-chan T, d time.Duration) (<-chan T, error) {
	if d <= 0 {
		return Map(sp, in, func(v T) T { return v })
	}

	out := make(chan T)
	err := sp.Spawn(func(ctx context.Context) {
		defer close(out)

		timer := time.NewTimer(d)
		timer.Stop()
		defer timer.Stop()

		var (
			pending T
			waiting bool
		)
		for {
			var fire <-chan time.Time
			if waiting {
				fire = timer.C
			}

			select {
			case <-ctx.Done():
				return
			case v, ok := <-in:
				if !ok {
					if waiting {
						send(ctx, out, pending)
					}
					return
				}
				pending, waiting = v, true
				timer.Reset(d)
			case <-fire:
				waiting = false
				if !send(ctx, out, pending) {
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
