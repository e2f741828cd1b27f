// Package cell provides an observable, versioned single-value holder.
package cell

import (
	"context"
	"sync"

	"github.com/helixml/greenhouse/internal/scope"
)

// Versioned pairs a value with the update that produced it.
type Versioned[T any] struct {
	Value   T
	Version uint64
}

// Get returns the value without its version.
func (v Versioned[T]) Get() T { return v.Value }

// Cell holds the latest value of one logical input.
//
// Updates are serialized, so versions form a total order. Subscribers receive
// every value in update order; a slow subscriber never blocks Update.
type Cell[T any] struct {
	mu      sync.Mutex
	current Versioned[T]
	subs    map[uint64]*subscriber[T]
	nextID  uint64
}

// New creates a Cell holding initial at version 0.
func New[T any](initial T) *Cell[T] {
	return &Cell[T]{
		current: Versioned[T]{Value: initial},
		subs:    make(map[uint64]*subscriber[T]),
	}
}

// Load returns the current value and its version.
func (c *Cell[T]) Load() Versioned[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Update stores v, bumps the version and notifies subscribers.
func (c *Cell[T]) Update(v T) Versioned[T] {
	return c.Modify(func(T) T { return v })
}

// Modify applies fn to the current value atomically and stores the result.
// fn must not call back into the cell.
func (c *Cell[T]) Modify(fn func(T) T) Versioned[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = Versioned[T]{
		Value:   fn(c.current.Value),
		Version: c.current.Version + 1,
	}
	for _, sub := range c.subs {
		sub.push(c.current)
	}
	return c.current
}

// Subscribe returns a channel that first yields the current value and then
// every later update. The forwarding task runs under sp and the channel is
// closed when that task stops.
func (c *Cell[T]) Subscribe(sp scope.Spawner) (<-chan Versioned[T], error) {
	out := make(chan Versioned[T])
	sub := &subscriber[T]{notify: make(chan struct{}, 1)}

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	sub.push(c.current)
	c.subs[id] = sub
	c.mu.Unlock()

	err := sp.Spawn(func(ctx context.Context) {
		defer close(out)
		defer c.unsubscribe(id)
		sub.forward(ctx, out)
	})
	if err != nil {
		c.unsubscribe(id)
		return nil, err
	}
	return out, nil
}

// Subscribers returns the number of active subscriptions.
func (c *Cell[T]) Subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

func (c *Cell[T]) unsubscribe(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subs, id)
}

// subscriber buffers pending values for one consumer without bound.
type subscriber[T any] struct {
	mu     sync.Mutex
	queue  []Versioned[T]
	notify chan struct{}
}

func (s *subscriber[T]) push(v Versioned[T]) {
	s.mu.Lock()
	s.queue = append(s.queue, v)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *subscriber[T]) drain() []Versioned[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending := s.queue
	s.queue = nil
	return pending
}

func (s *subscriber[T]) forward(ctx context.Context, out chan<- Versioned[T]) {
	for {
		for _, v := range s.drain() {
			select {
			case out <- v:
			case <-ctx.Done():
				return
			}
		}

		select {
		case <-s.notify:
		case <-ctx.Done():
			return
		}
	}
}
