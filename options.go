package pace

import (
	"time"

	"k8s.io/utils/clock"
)

type config struct {
	clock    Clock
	name     string
	leading  bool
	trailing bool
	maxWait  time.Duration
	scope    *Scope
	onEvent  func(Event)
	onPanic  func(*PanicError)
}

// Option configures a debounce or throttle primitive.
type Option func(*config)

func defaultConfig() config {
	return config{
		clock:    clock.RealClock{},
		leading:  true,
		trailing: true,
	}
}

func newConfig(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithClock sets the clock used for timestamps and timers.
// It panics if c is nil.
func WithClock(c Clock) Option {
	if c == nil {
		panic("pace: WithClock requires a non-nil clock")
	}
	return func(cfg *config) {
		cfg.clock = c
	}
}

// WithName labels the primitive in the events it reports.
func WithName(name string) Option {
	return func(cfg *config) {
		cfg.name = name
	}
}

// WithLeading controls whether a throttle invokes its sink at the start of
// a window. The default is true. Debounce ignores it.
func WithLeading(on bool) Option {
	return func(cfg *config) {
		cfg.leading = on
	}
}

// WithTrailing controls whether a throttle invokes its sink at the end of
// a window when calls arrived during it. The default is true. Debounce
// ignores it.
func WithTrailing(on bool) Option {
	return func(cfg *config) {
		cfg.trailing = on
	}
}

// WithMaxWait bounds how long a continuous burst can postpone a debounced
// emission. Zero (the default) means no bound.
// WithMaxWait panics if d is negative.
func WithMaxWait(d time.Duration) Option {
	if d < 0 {
		panic("pace: WithMaxWait requires d >= 0")
	}
	return func(cfg *config) {
		cfg.maxWait = d
	}
}

// WithScope ties the primitive's lifetime to s: closing s closes the
// primitive and clears its timer.
func WithScope(s *Scope) Option {
	return func(cfg *config) {
		cfg.scope = s
	}
}

// WithOnEvent registers a hook receiving an [Event] for every scheduling
// decision. The hook runs synchronously on the goroutine that caused the
// event and must not block.
func WithOnEvent(fn func(Event)) Option {
	return func(cfg *config) {
		cfg.onEvent = fn
	}
}

// WithOnPanic recovers panics raised by the sink when it runs on a timer
// goroutine and hands them to fn as [*PanicError] values. Without it such a
// panic is re-raised on the timer goroutine and crashes the program.
//
// Panics from sinks invoked synchronously (a leading edge, Flush) always
// propagate to the caller.
func WithOnPanic(fn func(*PanicError)) Option {
	return func(cfg *config) {
		cfg.onPanic = fn
	}
}
