package chanx

import (
	"context"

	"k8s.io/utils/clock"

	"github.com/baxromumarov/pace"
)

// Send sends v to ch, unblocking early if ctx is canceled.
// It returns nil on successful send, or the context error if canceled.
func Send[T any](ctx context.Context, ch chan<- T, v T) error {
	select {
	case ch <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recv receives a value from ch, unblocking early if ctx is canceled.
// The boolean is false when ch was closed.
func Recv[T any](ctx context.Context, ch <-chan T) (T, bool, error) {
	select {
	case v, ok := <-ch:
		return v, ok, nil
	case <-ctx.Done():
		var zero T
		return zero, false, ctx.Err()
	}
}

type config struct {
	clock    pace.Clock
	leading  bool
	trailing bool
}

// Option configures Debounce, DebounceBatch and Throttle.
type Option func(*config)

func newConfig(opts []Option) config {
	cfg := config{
		clock:    clock.RealClock{},
		leading:  true,
		trailing: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithClock sets the clock timers are created on.
func WithClock(c pace.Clock) Option {
	if c == nil {
		panic("chanx: WithClock requires a non-nil clock")
	}
	return func(cfg *config) {
		cfg.clock = c
	}
}

// WithLeading controls whether Throttle emits at the start of a window.
// The default is true.
func WithLeading(on bool) Option {
	return func(cfg *config) {
		cfg.leading = on
	}
}

// WithTrailing controls whether Throttle emits the latest value at the end
// of a window. The default is true.
func WithTrailing(on bool) Option {
	return func(cfg *config) {
		cfg.trailing = on
	}
}
