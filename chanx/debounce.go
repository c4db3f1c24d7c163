package chanx

import (
	"context"
	"time"

	"k8s.io/utils/clock"

	"github.com/baxromumarov/pace"
)

// Debounce emits the last value received from in after a quiet period
// of duration d. Each new value resets the timer. A value still pending when
// in closes is emitted before the output closes. The output channel is
// closed when in is closed or ctx is cancelled.
//
// Debounce panics if d < 0. A zero d emits on the next timer turn.
// If in is nil, returns a closed channel immediately.
func Debounce[T any](ctx context.Context, in <-chan T, d time.Duration, opts ...Option) <-chan T {
	if d < 0 {
		panic("chanx: Debounce requires d >= 0")
	}
	out := make(chan T)
	if in == nil {
		close(out)
		return out
	}
	cfg := newConfig(opts)
	go debounceLoop(ctx, in, out, d, cfg.clock, func(_ T, v T) T { return v })
	return out
}

// DebounceBatch collects every value received from in until the input has
// been quiet for d, then emits them as one batch in arrival order.
//
// DebounceBatch panics if d < 0.
// If in is nil, returns a closed channel immediately.
func DebounceBatch[T any](ctx context.Context, in <-chan T, d time.Duration, opts ...Option) <-chan []T {
	if d < 0 {
		panic("chanx: DebounceBatch requires d >= 0")
	}
	out := make(chan []T)
	if in == nil {
		close(out)
		return out
	}
	cfg := newConfig(opts)
	go debounceLoop(ctx, in, out, d, cfg.clock, func(b []T, v T) []T { return append(b, v) })
	return out
}

// debounceLoop folds values from in into an accumulator with add and emits
// the accumulator once in has been quiet for d.
func debounceLoop[T, B any](
	ctx context.Context,
	in <-chan T,
	out chan<- B,
	d time.Duration,
	clk pace.Clock,
	add func(B, T) B,
) {
	defer close(out)

	var (
		timer   clock.Timer
		timerC  <-chan time.Time
		acc     B
		pending bool
	)
	stop := func() {
		if timer != nil {
			timer.Stop()
			timer, timerC = nil, nil
		}
	}
	defer stop()

	for {
		select {
		case v, ok := <-in:
			if !ok {
				if pending {
					_ = Send(ctx, out, acc)
				}
				return
			}
			acc = add(acc, v)
			pending = true
			stop()
			timer = clk.NewTimer(d)
			timerC = timer.C()
		case <-timerC:
			timer, timerC = nil, nil
			if err := Send(ctx, out, acc); err != nil {
				return
			}
			var zero B
			acc, pending = zero, false
		case <-ctx.Done():
			return
		}
	}
}
