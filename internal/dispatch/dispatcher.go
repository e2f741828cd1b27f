// Package dispatch runs the most recent query for a stream of inputs.
//
// A Dispatcher turns every input into a query, cancels the query already in
// flight and starts the new one. Results are only forwarded while their query
// is still the current one, so a slow, stale query can never overwrite the
// answer to a newer input.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/helixml/greenhouse/internal/scope"
)

// Observer is notified of query lifecycle transitions.
type Observer interface {
	Dispatched(label string)
	Superseded()
	FirstResult(elapsed time.Duration)
	Failed(err error)
}

type noopObserver struct{}

func (noopObserver) Dispatched(string)         {}
func (noopObserver) Superseded()               {}
func (noopObserver) FirstResult(time.Duration) {}
func (noopObserver) Failed(error)              {}

type options struct {
	logger   *slog.Logger
	observer Observer
	name     string
}

// Option configures a Dispatcher.
type Option func(*options)

// WithLogger sets the dispatcher logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver sets the lifecycle observer.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithName labels the dispatcher in log output.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// Dispatcher maps inputs of type In to queries of type Q and runs them
// against a Source yielding T, keeping only the latest one alive.
type Dispatcher[In, Q, T any] struct {
	decide func(In) Q
	source Source[Q, T]
	logger *slog.Logger
	obs    Observer
	name   string
}

// New creates a Dispatcher. decide must be pure.
func New[In, Q, T any](decide func(In) Q, source Source[Q, T], opts ...Option) *Dispatcher[In, Q, T] {
	o := options{
		logger:   slog.Default(),
		observer: noopObserver{},
		name:     "dispatch",
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Dispatcher[In, Q, T]{
		decide: decide,
		source: source,
		logger: o.logger.With(slog.String("dispatcher", o.name)),
		obs:    o.observer,
		name:   o.name,
	}
}

// message carries a worker's output back to the loop.
type message[T any] struct {
	generation uint64
	value      T
	err        error
	done       bool
}

// Run starts the dispatch loop under sp and returns its event channel.
//
// For each handle the channel carries Loading(true), then either
// Loading(false) followed by one or more Results, or Loading(false) followed
// by Failed. A query that completes empty emits only Loading(false).
// The channel is closed when sp is torn down, or after in closes and the
// current query has finished.
func (d *Dispatcher[In, Q, T]) Run(sp scope.Spawner, in <-chan In) (<-chan Event[T], error) {
	out := make(chan Event[T])
	err := sp.Spawn(func(ctx context.Context) {
		defer close(out)
		l := loop[In, Q, T]{
			d:       d,
			sp:      sp,
			out:     out,
			results: make(chan message[T]),
		}
		l.run(ctx, in)
	})
	if err != nil {
		return nil, fmt.Errorf("start %s dispatcher: %w", d.name, err)
	}
	return out, nil
}

// loop holds the state owned by the dispatch goroutine.
type loop[In, Q, T any] struct {
	d          *Dispatcher[In, Q, T]
	sp         scope.Spawner
	out        chan<- Event[T]
	results    chan message[T]
	generation uint64
	current    *Handle[Q]
}

func (l *loop[In, Q, T]) run(ctx context.Context, in <-chan In) {
	defer func() {
		if l.current != nil {
			l.current.cancel()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-in:
			if !ok {
				in = nil
				if l.idle() {
					return
				}
				continue
			}
			if !l.start(ctx, v) {
				return
			}
		case msg := <-l.results:
			if !l.handle(ctx, msg) {
				return
			}
			if in == nil && l.idle() {
				return
			}
		}
	}
}

func (l *loop[In, Q, T]) idle() bool {
	return l.current == nil || !l.current.active()
}

// start supersedes the current handle and launches a query for v.
func (l *loop[In, Q, T]) start(ctx context.Context, v In) bool {
	d := l.d
	q := d.decide(v)

	if prev := l.current; prev != nil {
		prev.cancel()
		if prev.active() {
			_ = prev.transition(StateSuperseded)
			d.obs.Superseded()
			d.logger.Debug("query superseded", slog.Uint64("generation", prev.generation))
		}
	}

	l.generation++
	hctx, cancel := context.WithCancel(ctx)
	h := newHandle(l.generation, q, cancel, time.Now())
	l.current = h

	label := labelOf(q)
	d.obs.Dispatched(label)
	d.logger.Debug("dispatching query",
		slog.Uint64("generation", h.generation),
		slog.String("kind", label),
		slog.String("query", fmt.Sprint(q)),
	)

	// The worker blocks on l.results until this loop reads it, so results
	// cannot overtake the loading event.
	generation := h.generation
	err := l.sp.Spawn(func(context.Context) {
		l.work(hctx, generation, q)
	})
	if err != nil {
		cancel()
		d.logger.Debug("query not started", slog.Uint64("generation", generation), slog.Any("error", err))
		return false
	}
	_ = h.transition(StateRunning)

	return l.emit(ctx, Event[T]{Kind: EventLoading, Generation: generation, Loading: true})
}

// handle forwards msg when it belongs to the current handle.
func (l *loop[In, Q, T]) handle(ctx context.Context, msg message[T]) bool {
	d := l.d
	h := l.current
	if h == nil || msg.generation != h.generation || h.state.Terminal() {
		d.logger.Debug("dropping stale result", slog.Uint64("generation", msg.generation))
		return true
	}

	gen := h.generation
	firstOutcome := h.state == StateRunning

	switch {
	case msg.err != nil:
		h.cancel()
		_ = h.transition(StateFailed)
		qerr := &QueryError{Generation: gen, Query: fmt.Sprint(h.query), Err: msg.err}
		d.obs.Failed(qerr)
		d.logger.Warn("query failed", slog.Uint64("generation", gen), slog.Any("error", msg.err))
		if firstOutcome && !l.emit(ctx, Event[T]{Kind: EventLoading, Generation: gen}) {
			return false
		}
		return l.emit(ctx, Event[T]{Kind: EventFailed, Generation: gen, Err: qerr})

	case msg.done:
		h.finished = true
		h.cancel()
		if !firstOutcome {
			return true
		}
		_ = h.transition(StateDelivered)
		return l.emit(ctx, Event[T]{Kind: EventLoading, Generation: gen})

	default:
		if firstOutcome {
			_ = h.transition(StateDelivered)
			d.obs.FirstResult(time.Since(h.started))
			if !l.emit(ctx, Event[T]{Kind: EventLoading, Generation: gen}) {
				return false
			}
		}
		return l.emit(ctx, Event[T]{Kind: EventResult, Generation: gen, Value: msg.value})
	}
}

func (l *loop[In, Q, T]) emit(ctx context.Context, ev Event[T]) bool {
	select {
	case l.out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// work runs one query and reports every element to the loop. It stops as
// soon as ctx, the handle context, is cancelled.
func (l *loop[In, Q, T]) work(ctx context.Context, generation uint64, q Q) {
	send := func(msg message[T]) bool {
		msg.generation = generation
		select {
		case l.results <- msg:
			return true
		case <-ctx.Done():
			return false
		}
	}

	err := l.execute(ctx, q, func(v T) bool {
		return send(message[T]{value: v})
	})
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		send(message[T]{err: err})
		return
	}
	send(message[T]{done: true})
}

// execute ranges over the source, converting a panic into an error.
func (l *loop[In, Q, T]) execute(ctx context.Context, q Q, yield func(T) bool) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("source panicked: %v", r)
		}
	}()

	for v, serr := range l.d.source.Execute(ctx, q) {
		if serr != nil {
			return serr
		}
		if !yield(v) {
			return nil
		}
	}
	return nil
}

func labelOf(q any) string {
	if lb, ok := q.(Labeler); ok {
		return lb.Label()
	}
	return "query"
}
