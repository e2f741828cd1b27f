package scope

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestScope_TearDownWaitsForTasks(t *testing.T) {
	s := New(context.Background())

	var finished atomic.Int32
	for range 5 {
		err := s.Spawn(func(ctx context.Context) {
			<-ctx.Done()
			time.Sleep(5 * time.Millisecond)
			finished.Add(1)
		})
		require.NoError(t, err)
	}

	s.TearDown()

	assert.Equal(t, int32(5), finished.Load())
}

func TestScope_SpawnAfterTearDown(t *testing.T) {
	s := New(context.Background())
	s.TearDown()

	err := s.Spawn(func(context.Context) {})

	assert.True(t, errors.Is(err, ErrTornDown))
	assert.ErrorIs(t, s.Err(), ErrTornDown)
}

func TestScope_TearDownIsIdempotent(t *testing.T) {
	s := New(context.Background())
	require.NoError(t, s.Spawn(func(ctx context.Context) { <-ctx.Done() }))

	s.TearDown()
	s.TearDown()

	select {
	case <-s.Done():
	default:
		t.Fatal("Done should be closed after TearDown")
	}
}

func TestScope_ParentCancellationStopsTasks(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	s := New(parent)

	stopped := make(chan struct{})
	require.NoError(t, s.Spawn(func(ctx context.Context) {
		<-ctx.Done()
		close(stopped)
	}))

	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("task did not observe parent cancellation")
	}
	s.TearDown()
}

func TestScope_RecoversPanics(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	s := New(context.Background(), WithLogger(logger), WithName("panicky"))

	require.NoError(t, s.Spawn(func(context.Context) { panic("boom") }))
	s.TearDown()

	assert.Contains(t, buf.String(), "scope task panicked")
	assert.Contains(t, buf.String(), "panicky")
}
