// Package scope owns the goroutines tied to one consumer's lifetime.
//
// A Scope is created when a list or gallery session opens and torn down when it
// closes. Every task spawned under it observes the scope's context and TearDown
// blocks until all of them have returned.
package scope

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
)

// ErrTornDown indicates a task was spawned on a scope that has already been torn down.
// It signals a programming error in the caller, not a runtime fault.
var ErrTornDown = errors.New("scope: already torn down")

// Spawner registers cancellable work. Scope implements it; stages accept the
// interface so they can be driven by any owner.
type Spawner interface {
	Spawn(task func(ctx context.Context)) error
}

// Option configures a Scope.
type Option func(*Scope)

// WithLogger sets the logger used to report recovered task panics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scope) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithName labels the scope in log output.
func WithName(name string) Option {
	return func(s *Scope) { s.name = name }
}

// Scope is a bulk-cancellable group of tasks.
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
	name   string

	mu       sync.Mutex
	wg       sync.WaitGroup
	tornDown bool
}

// New creates a Scope whose context derives from parent.
func New(parent context.Context, opts ...Option) *Scope {
	ctx, cancel := context.WithCancel(parent)
	s := &Scope{
		ctx:    ctx,
		cancel: cancel,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Spawn starts task in its own goroutine. The task must return once ctx is done.
func (s *Scope) Spawn(task func(ctx context.Context)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tornDown {
		return ErrTornDown
	}

	s.wg.Go(func() {
		defer s.recoverPanic()
		task(s.ctx)
	})
	return nil
}

// TearDown cancels every task and waits for all of them to return.
// It is safe to call more than once.
func (s *Scope) TearDown() {
	s.mu.Lock()
	s.tornDown = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

// Context returns the scope's context. It is cancelled on TearDown.
func (s *Scope) Context() context.Context {
	return s.ctx
}

// Done is closed once TearDown has started.
func (s *Scope) Done() <-chan struct{} {
	return s.ctx.Done()
}

// Err returns ErrTornDown once TearDown has been called, nil before.
func (s *Scope) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tornDown {
		return ErrTornDown
	}
	return nil
}

func (s *Scope) recoverPanic() {
	if r := recover(); r != nil {
		s.logger.Error("scope task panicked",
			slog.String("scope", s.name),
			slog.Any("panic", r),
			slog.String("stack", string(debug.Stack())),
		)
	}
}
