package dispatch

import (
	"context"
	"fmt"
	"time"
)

// State is a handle's position in its lifecycle.
//
//	Pending -> Running -> Delivered -> Failed
//	              |           |
//	              +-> Failed  +-> Superseded
//	              +-> Superseded
type State int

// Handle states.
const (
	StatePending State = iota
	StateRunning
	StateDelivered
	StateFailed
	StateSuperseded
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateDelivered:
		return "delivered"
	case StateFailed:
		return "failed"
	case StateSuperseded:
		return "superseded"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateFailed || s == StateSuperseded
}

// Handle tracks one in-flight query. Only the dispatcher loop touches it.
type Handle[Q any] struct {
	generation uint64
	query      Q
	cancel     context.CancelFunc
	state      State
	finished   bool
	started    time.Time
}

func newHandle[Q any](generation uint64, q Q, cancel context.CancelFunc, now time.Time) *Handle[Q] {
	return &Handle[Q]{
		generation: generation,
		query:      q,
		cancel:     cancel,
		state:      StatePending,
		started:    now,
	}
}

// Generation returns the handle's sequence number.
func (h *Handle[Q]) Generation() uint64 { return h.generation }

// Query returns the query the handle runs.
func (h *Handle[Q]) Query() Q { return h.query }

// State returns the handle's lifecycle state.
func (h *Handle[Q]) State() State { return h.state }

// active reports whether the source may still yield values for this handle.
func (h *Handle[Q]) active() bool {
	return !h.state.Terminal() && !h.finished
}

func (h *Handle[Q]) transition(to State) error {
	ok := false
	switch h.state {
	case StatePending:
		ok = to == StateRunning || to == StateSuperseded
	case StateRunning:
		ok = to == StateDelivered || to == StateFailed || to == StateSuperseded
	case StateDelivered:
		ok = to == StateFailed || to == StateSuperseded
	}
	if !ok {
		return fmt.Errorf("handle %d: invalid transition %s -> %s", h.generation, h.state, to)
	}
	h.state = to
	return nil
}
