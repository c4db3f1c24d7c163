package pace

import (
	"sync"
	"time"

	"github.com/baxromumarov/pace/internal/window"
)

// Throttler limits how often a function sees a stream of values: at most
// once at the start of each window (leading edge) and once at its end
// (trailing edge), with the latest value.
//
// Both edges are on by default; see [WithLeading] and [WithTrailing].
// With both off the function is never called.
//
// Invocations racing each other (a trailing edge firing while another
// goroutine calls or flushes) are ordered: an invocation scheduled before
// one that already ran is dropped, so [Throttler.Value] never moves back.
type Throttler[T any] struct {
	base
	fn      func(T)
	output  *outputCell[T]
	current func() T

	mu     sync.Mutex
	win    window.Throttle
	timer  slot
	latest T
	closed bool
	seq    uint64
}

// NewThrottler returns a Throttler that passes values to fn at most once per
// delay on each edge. fn may be nil when only [Throttler.Output] is needed.
// A delay of zero or less passes every value through synchronously.
func NewThrottler[T any](delay time.Duration, fn func(T), opts ...Option) *Throttler[T] {
	var zero T
	t := newThrottler(zero, delay, fn, opts)
	t.current = func() T { return t.latest }

	if s := t.cfg.scope; s != nil {
		s.Defer(t.Close)
	}
	return t
}

func newThrottler[T any](initial T, delay time.Duration, fn func(T), opts []Option) *Throttler[T] {
	t := &Throttler[T]{
		fn:     fn,
		output: newOutputCell(initial),
		latest: initial,
	}
	t.base.init(opts)
	t.timer.clock = t.cfg.clock
	t.win = window.Throttle{
		Delay:    delay,
		Leading:  t.cfg.leading,
		Trailing: t.cfg.trailing,
	}
	return t
}

// Call feeds v to the throttle at the clock's current time.
// A leading-edge invocation runs on the calling goroutine.
func (t *Throttler[T]) Call(v T) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.latest = v
	d := t.win.Call(t.cfg.clock.Now())
	if d.Arm > 0 {
		t.timer.arm(d.Arm, t.expire)
	}
	seq, cur := t.next(d.Invoke)
	t.mu.Unlock()

	switch {
	case d.Arm > 0:
		t.notify(EventScheduled, nil)
	case !d.Invoke:
		t.notify(EventSkipped, nil)
	}
	if d.Invoke {
		t.invoke(seq, cur)
		t.notify(EventInvoked, nil)
	}
}

// next reads the value to invoke with and, when an invocation follows,
// assigns it a sequence number. t.mu must be held.
func (t *Throttler[T]) next(invoke bool) (uint64, T) {
	if invoke {
		t.seq++
	}
	return t.seq, t.current()
}

func (t *Throttler[T]) expire(gen uint64) {
	t.mu.Lock()
	if !t.timer.claim(gen) {
		t.mu.Unlock()
		return
	}
	ok := t.win.Expire(t.cfg.clock.Now())
	seq, cur := t.next(ok)
	t.mu.Unlock()

	if ok {
		t.fire(func() { t.invoke(seq, cur) })
	}
}

// invoke updates the output and calls fn unless a newer invocation already
// ran.
func (t *Throttler[T]) invoke(seq uint64, v T) {
	if !t.output.deliver(seq, v) {
		return
	}
	if t.fn != nil {
		t.fn(v)
	}
}

// Flush clears the pending timer and, if a call arrived since the last
// invocation, invokes with the current source value on the calling goroutine.
func (t *Throttler[T]) Flush() {
	t.mu.Lock()
	t.timer.stop()
	ok := t.win.Flush(t.cfg.clock.Now())
	seq, cur := t.next(ok)
	t.mu.Unlock()

	if ok {
		t.invoke(seq, cur)
		t.notify(EventInvoked, nil)
		t.notify(EventFlushed, nil)
	}
}

// Cancel clears the pending timer and forgets all calls without invoking.
func (t *Throttler[T]) Cancel() {
	t.mu.Lock()
	dropped := t.win.Pending()
	t.timer.stop()
	t.win.Reset()
	t.mu.Unlock()

	if dropped {
		t.notify(EventCancelled, nil)
	}
}

// Pending reports whether a call is waiting for the trailing edge.
func (t *Throttler[T]) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.win.Pending() && t.timer.armed()
}

// Output returns the cell holding the last invoked value.
func (t *Throttler[T]) Output() Readable[T] { return t.output }

// Value returns the last invoked value.
func (t *Throttler[T]) Value() T { return t.output.Get() }

// Close cancels and ignores later calls. It is idempotent.
func (t *Throttler[T]) Close() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	t.Cancel()
}

// Throttle throttles the changes of a [Readable] source into a function.
// It has no Call: the source drives it.
type Throttle[T any] struct {
	th    *Throttler[T]
	unsub func()
	once  sync.Once
}

// NewThrottle subscribes to source and throttles its changes into fn.
// The output starts at the source's current value. Invocations, including
// Flush, always read the source's current value.
func NewThrottle[T any](source Readable[T], delay time.Duration, fn func(T), opts ...Option) *Throttle[T] {
	th := newThrottler(source.Get(), delay, fn, opts)
	th.current = source.Get
	t := &Throttle[T]{th: th}
	t.unsub = source.Subscribe(th.Call)

	if s := th.cfg.scope; s != nil {
		s.Defer(t.Close)
	}
	return t
}

// Flush invokes now with the source's current value if a change arrived
// since the last invocation.
func (t *Throttle[T]) Flush() { t.th.Flush() }

// Cancel clears the pending timer and forgets all changes without invoking.
func (t *Throttle[T]) Cancel() { t.th.Cancel() }

// Pending reports whether a change is waiting for the trailing edge.
func (t *Throttle[T]) Pending() bool { return t.th.Pending() }

// Output returns the cell holding the last invoked value.
func (t *Throttle[T]) Output() Readable[T] { return t.th.Output() }

// Value returns the last invoked value.
func (t *Throttle[T]) Value() T { return t.th.Value() }

// Stats returns a snapshot of the scheduling counters.
func (t *Throttle[T]) Stats() Stats { return t.th.Stats() }

// Close unsubscribes from the source and clears the pending timer.
func (t *Throttle[T]) Close() {
	t.once.Do(func() {
		t.unsub()
		t.th.Close()
	})
}
