package pace

import (
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottler_LeadingAndTrailing(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var got recorder[int]
		th := NewThrottler(500*time.Millisecond, got.add)
		defer th.Close()

		th.Call(1)
		assert.Equal(t, []int{1}, got.get(), "leading edge invokes synchronously")

		time.Sleep(100 * time.Millisecond)
		th.Call(2)
		time.Sleep(100 * time.Millisecond)
		th.Call(3)
		assert.Equal(t, []int{1}, got.get(), "calls inside the window wait")

		time.Sleep(301 * time.Millisecond)
		synctest.Wait()
		assert.Equal(t, []int{1, 3}, got.get(), "trailing edge delivers the last value")
		assert.Equal(t, 3, th.Value())
	})
}

func TestThrottler_LeadingOnly(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var got recorder[int]
		th := NewThrottler(500*time.Millisecond, got.add, WithTrailing(false))
		defer th.Close()

		th.Call(1)
		th.Call(2)
		th.Call(3)

		time.Sleep(time.Second)
		synctest.Wait()
		assert.Equal(t, []int{1}, got.get())

		// The window has closed; the next call leads a new one.
		th.Call(4)
		assert.Equal(t, []int{1, 4}, got.get())
	})
}

func TestThrottler_TrailingOnly(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var got recorder[string]
		th := NewThrottler(500*time.Millisecond, got.add, WithLeading(false))
		defer th.Close()

		th.Call("a")
		assert.Empty(t, got.get(), "no synchronous invocation without leading")
		assert.True(t, th.Pending())

		time.Sleep(499 * time.Millisecond)
		synctest.Wait()
		assert.Empty(t, got.get())

		time.Sleep(2 * time.Millisecond)
		synctest.Wait()
		assert.Equal(t, []string{"a"}, got.get(), "fires once after the full window")

		time.Sleep(time.Second)
		synctest.Wait()
		assert.Equal(t, []string{"a"}, got.get())
	})
}

func TestThrottler_NoEdgesNeverInvokes(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var calls atomic.Int32
		th := NewThrottler(100*time.Millisecond, func(int) { calls.Add(1) },
			WithLeading(false), WithTrailing(false))
		defer th.Close()

		for i := range 10 {
			th.Call(i)
			time.Sleep(30 * time.Millisecond)
		}
		time.Sleep(time.Second)
		synctest.Wait()

		assert.Equal(t, int32(0), calls.Load())
		assert.Equal(t, 0, th.Value())
	})
}

func TestThrottler_AtMostTwoPerWindow(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var got recorder[int]
		th := NewThrottler(100*time.Millisecond, got.add)
		defer th.Close()

		// 25 calls, 10ms apart, inside a 250ms stretch.
		for i := range 25 {
			th.Call(i)
			time.Sleep(10 * time.Millisecond)
		}
		time.Sleep(200 * time.Millisecond)
		synctest.Wait()

		vals := got.get()
		require.NotEmpty(t, vals)
		assert.Equal(t, 0, vals[0])
		assert.Equal(t, 24, vals[len(vals)-1], "the last value is never lost")
		// Three windows opened by leading edges, each closed by a trailing edge.
		assert.LessOrEqual(t, len(vals), 6)
	})
}

func TestThrottler_CallAfterFlushWaitsForRemainingWindow(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var got recorder[int]
		th := NewThrottler(100*time.Millisecond, got.add, WithLeading(false))
		defer th.Close()

		th.Call(1)
		th.Flush()
		assert.Equal(t, []int{1}, got.get())

		time.Sleep(40 * time.Millisecond)
		th.Call(2)

		// The previous call was 40ms earlier, so 60ms of its window remain.
		time.Sleep(59 * time.Millisecond)
		synctest.Wait()
		assert.Equal(t, []int{1}, got.get())

		time.Sleep(2 * time.Millisecond)
		synctest.Wait()
		assert.Equal(t, []int{1, 2}, got.get())
	})
}

func TestThrottler_Flush(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var got recorder[int]
		th := NewThrottler(time.Second, got.add)
		defer th.Close()

		th.Call(1)
		th.Call(2)
		th.Flush()
		assert.Equal(t, []int{1, 2}, got.get())

		time.Sleep(2 * time.Second)
		synctest.Wait()
		assert.Equal(t, []int{1, 2}, got.get(), "flushed call must not fire again")

		st := th.Stats()
		assert.Equal(t, int64(2), st.Invoked)
		assert.Equal(t, int64(1), st.Flushed)
	})
}

func TestThrottler_Cancel(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var got recorder[int]
		th := NewThrottler(time.Second, got.add)
		defer th.Close()

		th.Call(1)
		th.Call(2)
		th.Cancel()
		assert.False(t, th.Pending())

		time.Sleep(2 * time.Second)
		synctest.Wait()
		assert.Equal(t, []int{1}, got.get())

		// Bookkeeping was reset: the next call leads immediately.
		th.Call(3)
		assert.Equal(t, []int{1, 3}, got.get())
	})
}

func TestThrottler_IdleCancelAndFlushAreNoops(t *testing.T) {
	var calls atomic.Int32
	th := NewThrottler(time.Second, func(int) { calls.Add(1) })
	defer th.Close()

	assert.NotPanics(t, func() {
		th.Flush()
		th.Cancel()
		th.Flush()
	})
	assert.Equal(t, int32(0), calls.Load())
	assert.Equal(t, Stats{}, th.Stats())
}

func TestThrottler_ZeroDelayPassesThrough(t *testing.T) {
	var got recorder[int]
	th := NewThrottler(0, got.add)
	defer th.Close()

	th.Call(1)
	th.Call(2)
	th.Call(3)
	assert.Equal(t, []int{1, 2, 3}, got.get())
	assert.False(t, th.Pending())
}

func TestThrottler_NilFuncUpdatesOutput(t *testing.T) {
	th := NewThrottler[string](time.Hour, nil)
	defer th.Close()

	th.Call("x")
	assert.Equal(t, "x", th.Value())
	assert.Equal(t, "x", th.Output().Get())
}

func TestThrottler_CloseIgnoresCalls(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		clk := &spyClock{}
		var got recorder[int]
		th := NewThrottler(time.Second, got.add, WithClock(clk))

		th.Call(1)
		th.Call(2)
		th.Close()
		assert.GreaterOrEqual(t, clk.stops.Load(), int32(1))

		th.Call(3)
		time.Sleep(2 * time.Second)
		synctest.Wait()
		assert.Equal(t, []int{1}, got.get())
	})
}

func TestThrottler_TrailingPanicRecovered(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var panics atomic.Int32
		th := NewThrottler(100*time.Millisecond, func(v int) {
			if v == 2 {
				panic("bad value")
			}
		}, WithOnPanic(func(*PanicError) { panics.Add(1) }))
		defer th.Close()

		th.Call(1)
		th.Call(2)
		time.Sleep(200 * time.Millisecond)
		synctest.Wait()

		assert.Equal(t, int32(1), panics.Load())
		assert.Equal(t, int64(1), th.Stats().Panicked)
	})
}

func TestThrottle_FollowsSource(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		src := NewCell(0)
		var got recorder[int]
		th := NewThrottle[int](src, 500*time.Millisecond, got.add)
		defer th.Close()

		assert.Equal(t, 0, th.Value(), "output starts at the source value")

		src.Set(1)
		src.Set(2)
		src.Set(3)
		time.Sleep(600 * time.Millisecond)
		synctest.Wait()

		assert.Equal(t, []int{1, 3}, got.get())
	})
}

// pushSource is a Readable whose value and notifications are set apart,
// so Get can report a value no subscriber has seen.
type pushSource[T any] struct {
	val T
	fn  func(T)
}

func (s *pushSource[T]) Get() T { return s.val }

func (s *pushSource[T]) Subscribe(fn func(T)) func() {
	s.fn = fn
	return func() { s.fn = nil }
}

func (s *pushSource[T]) push(v T) {
	s.val = v
	s.fn(v)
}

func TestThrottle_FlushReadsCurrentSource(t *testing.T) {
	src := &pushSource[string]{val: "a"}
	var got recorder[string]
	th := NewThrottle[string](src, time.Hour, got.add)
	defer th.Close()

	src.push("b") // leading edge
	src.push("c") // pending for the trailing edge
	src.val = "d" // changed without a notification
	th.Flush()

	assert.Equal(t, []string{"b", "d"}, got.get(), "flush reads the source, not the last notified value")
}

func TestThrottle_UnchangedWritesInvokeOnce(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		src := NewCell(0)
		var got recorder[int]
		th := NewThrottle[int](src, 500*time.Millisecond, got.add)
		defer th.Close()

		src.Set(1)
		src.Set(1)
		src.Set(1)
		time.Sleep(600 * time.Millisecond)
		synctest.Wait()

		assert.Equal(t, []int{1}, got.get(), "no trailing edge without a change")
		assert.False(t, th.Pending())
	})
}

func TestThrottle_HasNoCall(t *testing.T) {
	th := NewThrottle[int](NewCell(0), time.Second, nil)
	defer th.Close()

	_, ok := any(th).(interface{ Call(int) })
	assert.False(t, ok, "a source-driven throttle must not accept values directly")
}

func TestThrottler_StaleInvocationDropped(t *testing.T) {
	var got recorder[int]
	th := NewThrottler(time.Hour, got.add)
	defer th.Close()

	th.Call(1) // leading edge
	th.Call(2)
	th.Flush()

	// A trailing edge scheduled before the flush arrives late.
	th.invoke(1, 1)
	assert.Equal(t, 2, th.Value())
	assert.Equal(t, []int{1, 2}, got.get())
}

func TestThrottle_CloseUnsubscribes(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		src := NewCell(0)
		var calls atomic.Int32
		s := NewScope(t.Context())
		NewThrottle[int](src, 100*time.Millisecond, func(int) { calls.Add(1) }, WithScope(s))
		require.Equal(t, 1, src.Subscribers())

		src.Set(1)
		src.Set(2)
		require.NoError(t, s.Close())
		assert.Equal(t, 0, src.Subscribers())

		src.Set(3)
		time.Sleep(time.Second)
		synctest.Wait()
		assert.Equal(t, int32(1), calls.Load())
	})
}
