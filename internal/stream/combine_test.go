package stream

import (
	"context"
	"fmt"
	"testing"
	"testing/synctest"

	"github.com/helixml/greenhouse/internal/scope"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestCombineLatest_WaitsForEveryInput(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s := scope.New(context.Background())
		defer s.TearDown()

		a, b := make(chan int), make(chan int)
		out, err := CombineLatest(s, a, b)
		require.NoError(t, err)

		a <- 1
		a <- 2
		assertNothingReady(t, out)

		b <- 10
		assert.Equal(t, []int{2, 10}, <-out)
	})
}

func TestCombineLatest_EmitsOnEveryChangeInReceiveOrder(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s := scope.New(context.Background())
		defer s.TearDown()

		a, b := make(chan string), make(chan string)
		out, err := CombineLatest(s, a, b)
		require.NoError(t, err)

		a <- "a1"
		b <- "b1"
		assert.Equal(t, []string{"a1", "b1"}, <-out)

		b <- "b2"
		assert.Equal(t, []string{"a1", "b2"}, <-out)

		a <- "a2"
		assert.Equal(t, []string{"a2", "b2"}, <-out)
	})
}

func TestCombineLatest_TuplesAreCopies(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s := scope.New(context.Background())
		defer s.TearDown()

		a := make(chan int)
		out, err := CombineLatest(s, a)
		require.NoError(t, err)

		a <- 1
		first := <-out
		a <- 2
		second := <-out

		assert.Equal(t, []int{1}, first)
		assert.Equal(t, []int{2}, second)
	})
}

func TestCombineLatest_ClosesWhenAnInputCloses(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s := scope.New(context.Background())
		defer s.TearDown()

		a, b := make(chan int), make(chan int)
		out, err := CombineLatest(s, a, b)
		require.NoError(t, err)

		close(a)

		_, ok := <-out
		assert.False(t, ok)
	})
}

func TestCombineLatest_NoInputs(t *testing.T) {
	s := scope.New(context.Background())
	defer s.TearDown()

	_, err := CombineLatest[int](s)

	assert.ErrorIs(t, err, ErrNoInputs)
}

func TestCombine2_MixedTypes(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s := scope.New(context.Background())
		defer s.TearDown()

		text := make(chan string)
		count := make(chan int)
		out, err := Combine2(s, text, count, func(t string, n int) string {
			return fmt.Sprintf("%s/%d", t, n)
		})
		require.NoError(t, err)

		count <- 0
		text <- "da"
		assert.Equal(t, "da/0", <-out)

		count <- 1
		assert.Equal(t, "da/1", <-out)
	})
}

func TestMap(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s := scope.New(context.Background())
		defer s.TearDown()

		in := make(chan int)
		out, err := Map(s, in, func(n int) int { return n * n })
		require.NoError(t, err)

		in <- 4
		assert.Equal(t, 16, <-out)

		close(in)
		_, ok := <-out
		assert.False(t, ok)
	})
}

func TestDistinct_DropsConsecutiveDuplicates(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s := scope.New(context.Background())
		defer s.TearDown()

		in := make(chan int)
		out, err := Distinct(s, in, func(a, b int) bool { return a == b })
		require.NoError(t, err)

		go func() {
			for _, v := range []int{1, 1, 2, 2, 2, 1} {
				in <- v
			}
			close(in)
		}()

		var got []int
		for v := range out {
			got = append(got, v)
		}
		assert.Equal(t, []int{1, 2, 1}, got)
	})
}
