package chanx

import (
	"context"
	"time"

	"k8s.io/utils/clock"

	"github.com/baxromumarov/pace"
	"github.com/baxromumarov/pace/internal/window"
)

// Throttle forwards values from in at most once at the start of each window
// of duration d and once, with the latest value, at its end. [WithLeading]
// and [WithTrailing] select the edges; with both off nothing is forwarded.
//
// When in closes during a window with trailing enabled, the latest value is
// forwarded before the output closes. The output channel is closed when in
// is closed or ctx is cancelled.
//
// If in is nil, returns a closed channel immediately.
func Throttle[T any](ctx context.Context, in <-chan T, d time.Duration, opts ...Option) <-chan T {
	out := make(chan T)
	if in == nil {
		close(out)
		return out
	}
	cfg := newConfig(opts)
	w := &window.Throttle{
		Delay:    d,
		Leading:  cfg.leading,
		Trailing: cfg.trailing,
	}
	go throttleLoop(ctx, in, out, w, cfg.clock)
	return out
}

func throttleLoop[T any](
	ctx context.Context,
	in <-chan T,
	out chan<- T,
	w *window.Throttle,
	clk pace.Clock,
) {
	defer close(out)

	var (
		timer  clock.Timer
		timerC <-chan time.Time
		latest T
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case v, ok := <-in:
			if !ok {
				if w.Trailing && w.Pending() {
					_ = Send(ctx, out, latest)
				}
				return
			}
			latest = v
			dec := w.Call(clk.Now())
			if dec.Arm > 0 {
				timer = clk.NewTimer(dec.Arm)
				timerC = timer.C()
			}
			if dec.Invoke {
				if err := Send(ctx, out, latest); err != nil {
					return
				}
			}
		case <-timerC:
			timer, timerC = nil, nil
			if w.Expire(clk.Now()) {
				if err := Send(ctx, out, latest); err != nil {
					return
				}
			}
		case <-ctx.Done():
			return
		}
	}
}
