package chanx

import (
	"context"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
)

// sendEvery sends vals to in with gap between them, waits tail and closes in.
func sendEvery[T any](in chan<- T, gap, tail time.Duration, vals ...T) {
	for _, v := range vals {
		in <- v
		time.Sleep(gap)
	}
	time.Sleep(tail)
	close(in)
}

func TestThrottle_LeadingAndTrailing(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		in := make(chan int)
		out := Throttle(t.Context(), in, 100*time.Millisecond)

		go sendEvery(in, 10*time.Millisecond, 200*time.Millisecond, 1, 2, 3)

		assert.Equal(t, []int{1, 3}, collect(out))
	})
}

func TestThrottle_LeadingOnly(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		in := make(chan int)
		out := Throttle(t.Context(), in, 100*time.Millisecond, WithTrailing(false))

		go func() {
			in <- 1
			in <- 2
			in <- 3
			time.Sleep(200 * time.Millisecond)
			in <- 4
			close(in)
		}()

		assert.Equal(t, []int{1, 4}, collect(out))
	})
}

func TestThrottle_TrailingOnly(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		in := make(chan int)
		out := Throttle(t.Context(), in, 100*time.Millisecond, WithLeading(false))

		go sendEvery(in, 10*time.Millisecond, 200*time.Millisecond, 1, 2, 3)

		assert.Equal(t, []int{3}, collect(out))
	})
}

func TestThrottle_NoEdges(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		in := make(chan int)
		out := Throttle(t.Context(), in, 100*time.Millisecond, WithLeading(false), WithTrailing(false))

		go sendEvery(in, 10*time.Millisecond, 200*time.Millisecond, 1, 2, 3)

		assert.Empty(t, collect(out))
	})
}

func TestThrottle_LatestSentOnClose(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		in := make(chan int)
		out := Throttle(t.Context(), in, time.Hour)

		go func() {
			in <- 1
			in <- 2
			in <- 3
			close(in)
		}()

		assert.Equal(t, []int{1, 3}, collect(out))
	})
}

func TestThrottle_ZeroDurationPassesThrough(t *testing.T) {
	out := Throttle(context.Background(), feed(1, 2, 3), 0)
	assert.Equal(t, []int{1, 2, 3}, collect(out))
}

func TestThrottle_ContextCancellation(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		in := make(chan int)
		out := Throttle(ctx, in, time.Second)

		go func() { in <- 1 }()
		assert.Equal(t, 1, <-out)

		cancel()
		assert.Empty(t, collect(out))
	})
}

func TestThrottle_NilInput(t *testing.T) {
	_, ok := <-Throttle[int](context.Background(), nil, time.Second)
	assert.False(t, ok)
}
