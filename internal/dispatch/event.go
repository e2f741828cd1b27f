package dispatch

import (
	"context"
	"errors"
	"fmt"
	"iter"
)

// ErrQueryFailed marks every error delivered through an EventFailed.
var ErrQueryFailed = errors.New("query failed")

// Source runs a query and yields its results. A source may yield any number
// of values and must stop once ctx is done. A non-nil error ends the query.
type Source[Q, T any] interface {
	Execute(ctx context.Context, q Q) iter.Seq2[T, error]
}

// SourceFunc adapts a function to a Source.
type SourceFunc[Q, T any] func(ctx context.Context, q Q) iter.Seq2[T, error]

// Execute calls f.
func (f SourceFunc[Q, T]) Execute(ctx context.Context, q Q) iter.Seq2[T, error] {
	return f(ctx, q)
}

// Labeler is implemented by queries that name their shape for metrics and logs.
type Labeler interface {
	Label() string
}

// EventKind distinguishes the events a dispatcher emits.
type EventKind int

// Event kinds.
const (
	EventLoading EventKind = iota
	EventResult
	EventFailed
)

func (k EventKind) String() string {
	switch k {
	case EventLoading:
		return "loading"
	case EventResult:
		return "result"
	case EventFailed:
		return "failed"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is one observation of the current query. Loading is meaningful for
// EventLoading, Value for EventResult and Err for EventFailed.
type Event[T any] struct {
	Kind       EventKind
	Generation uint64
	Loading    bool
	Value      T
	Err        error
}

// QueryError describes a failed query. It matches ErrQueryFailed with errors.Is.
type QueryError struct {
	Generation uint64
	Query      string
	Err        error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %d %s: %v", e.Generation, e.Query, e.Err)
}

// Unwrap returns the source error.
func (e *QueryError) Unwrap() error { return e.Err }

// Is reports whether target is ErrQueryFailed.
func (e *QueryError) Is(target error) bool { return target == ErrQueryFailed }
