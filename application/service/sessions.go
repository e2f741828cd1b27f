package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/helixml/greenhouse/internal/scope"
)

// Session is one remote consumer's plant list.
type Session struct {
	id        string
	scope     *scope.Scope
	list      *PlantList
	createdAt time.Time
	claimed   atomic.Bool
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// List returns the session's plant list.
func (s *Session) List() *PlantList { return s.list }

// CreatedAt returns when the session was opened.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// ClaimEvents hands the event channel to a single consumer. The consumer must
// call release when it stops reading so another one can take over.
func (s *Session) ClaimEvents() (events <-chan PlantEvent, release func(), err error) {
	if !s.claimed.CompareAndSwap(false, true) {
		return nil, nil, ErrEventsClaimed
	}
	var once sync.Once
	return s.list.Events(), func() { once.Do(func() { s.claimed.Store(false) }) }, nil
}

// Done is closed once the session has been closed.
func (s *Session) Done() <-chan struct{} { return s.scope.Done() }

// Sessions keeps the open plant list sessions.
type Sessions struct {
	ctx    context.Context
	source PlantSource
	states StateStoreFactory
	opts   []Option
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

// NewSessions creates a registry. Sessions live until closed or until ctx ends.
// states may be nil, in which case sessions keep no saved state.
func NewSessions(ctx context.Context, source PlantSource, states StateStoreFactory, logger *slog.Logger, opts ...Option) *Sessions {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sessions{
		ctx:      ctx,
		source:   source,
		states:   states,
		opts:     opts,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Open starts a session. A non-empty resumeID reopens the session saved
// under that ID, restoring its search text and filters; when that session
// is still open it is returned as is.
func (r *Sessions) Open(resumeID string) (*Session, error) {
	id := uuid.NewString()
	if resumeID != "" {
		parsed, err := uuid.Parse(resumeID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidSessionID, resumeID)
		}
		id = parsed.String()
	}

	if s, err := r.lookupOpen(id); s != nil || err != nil {
		return s, err
	}

	// Building the list reads saved state, so it happens outside the lock.
	logger := r.logger.With(slog.String("session_id", id))
	sc := scope.New(r.ctx, scope.WithLogger(logger), scope.WithName("session"))

	var state StateStore
	if r.states != nil {
		state = r.states(id)
	}
	opts := append([]Option{WithLogger(logger)}, r.opts...)
	list, err := NewPlantList(sc, r.source, state, opts...)
	if err != nil {
		sc.TearDown()
		return nil, fmt.Errorf("open session: %w", err)
	}
	s := &Session{id: id, scope: sc, list: list, createdAt: time.Now()}

	r.mu.Lock()
	existing, ok := r.sessions[id]
	closed := r.closed
	if !closed && !ok {
		r.sessions[id] = s
	}
	r.mu.Unlock()

	switch {
	case closed:
		sc.TearDown()
		return nil, ErrSessionsClosed
	case ok:
		// A concurrent resume of the same ID won.
		sc.TearDown()
		return existing, nil
	}
	logger.Info("session opened", slog.Bool("resumed", resumeID != ""))
	return s, nil
}

// lookupOpen returns the open session with id, or ErrSessionsClosed.
func (r *Sessions) lookupOpen(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrSessionsClosed
	}
	return r.sessions[id], nil
}

// Get returns an open session.
func (r *Sessions) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Close tears a session down. Its saved state is kept for a later resume.
func (r *Sessions) Close(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.scope.TearDown()
	r.logger.Info("session closed", slog.String("session_id", id))
	return nil
}

// Len returns the number of open sessions.
func (r *Sessions) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// CloseAll tears every session down and rejects further opens.
func (r *Sessions) CloseAll() {
	r.mu.Lock()
	r.closed = true
	open := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		open = append(open, s)
	}
	clear(r.sessions)
	r.mu.Unlock()

	for _, s := range open {
		s.scope.TearDown()
	}
}
