package pace

import (
	"sync"
	"time"
)

// debounce is the scheduling core shared by Debounced and Debouncer.
// current reads the source value when an emission happens; sink delivers it
// with the emission's sequence number, which grows with every emission.
type debounce[T any] struct {
	base
	delay   time.Duration
	current func() T
	sink    func(seq uint64, v T)

	mu      sync.Mutex
	wait    slot
	max     slot
	pending bool
	closed  bool
	seq     uint64
}

func (d *debounce[T]) init(delay time.Duration, opts []Option) {
	if delay < 0 {
		panic("pace: debounce requires delay >= 0")
	}
	d.base.init(opts)
	d.delay = delay
	d.wait.clock = d.cfg.clock
	d.max.clock = d.cfg.clock
}

// touch records a source update and restarts the quiet period.
func (d *debounce[T]) touch() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	kind := EventScheduled
	if d.pending {
		kind = EventSkipped
	}
	d.pending = true
	d.wait.arm(d.delay, func(gen uint64) { d.expire(&d.wait, gen) })
	if d.cfg.maxWait > 0 && !d.max.armed() {
		d.max.arm(d.cfg.maxWait, func(gen uint64) { d.expire(&d.max, gen) })
	}
	d.mu.Unlock()

	d.notify(kind, nil)
}

// expire runs when either timer fires.
func (d *debounce[T]) expire(s *slot, gen uint64) {
	d.mu.Lock()
	if !s.claim(gen) || !d.pending {
		d.mu.Unlock()
		return
	}
	d.wait.stop()
	d.max.stop()
	d.pending = false
	d.seq++
	seq, v := d.seq, d.current()
	d.mu.Unlock()

	d.fire(func() { d.sink(seq, v) })
}

func (d *debounce[T]) flush() {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return
	}
	d.wait.stop()
	d.max.stop()
	d.pending = false
	d.seq++
	seq, v := d.seq, d.current()
	d.mu.Unlock()

	d.sink(seq, v)
	d.notify(EventInvoked, nil)
	d.notify(EventFlushed, nil)
}

func (d *debounce[T]) cancel() {
	d.mu.Lock()
	dropped := d.pending
	d.wait.stop()
	d.max.stop()
	d.pending = false
	d.mu.Unlock()

	if dropped {
		d.notify(EventCancelled, nil)
	}
}

func (d *debounce[T]) close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.cancel()
}

func (d *debounce[T]) isPending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Debounced is a value whose output trails its state by a quiet period.
//
// Every change of [Debounced.State] restarts a timer of the configured delay;
// writing the value the state already holds does nothing. When the timer
// fires without an intervening change, the state's value at that moment is
// copied to [Debounced.Output]. Intermediate values are dropped, never
// queued.
//
// Emissions racing each other (a timer firing while another goroutine
// flushes) are ordered: the output never moves back to a value emitted
// earlier. Output subscribers of racing emissions may still run concurrently.
type Debounced[T any] struct {
	core   debounce[T]
	state  *Cell[T]
	output *outputCell[T]
	unsub  func()
	once   sync.Once
}

// NewDebounced returns a Debounced whose state and output both start at
// initial. A delay of zero emits on the next timer turn.
// NewDebounced panics if delay is negative.
func NewDebounced[T any](initial T, delay time.Duration, opts ...Option) *Debounced[T] {
	d := &Debounced[T]{
		state:  NewCell(initial),
		output: newOutputCell(initial),
	}
	d.core.init(delay, opts)
	d.core.current = d.state.Get
	d.core.sink = func(seq uint64, v T) { d.output.deliver(seq, v) }
	d.unsub = d.state.Subscribe(func(T) { d.core.touch() })

	if s := d.core.cfg.scope; s != nil {
		s.Defer(d.Close)
	}
	return d
}

// State returns the source cell. Changing it schedules an emission.
func (d *Debounced[T]) State() *Cell[T] { return d.state }

// Output returns the cell holding the last emitted value.
func (d *Debounced[T]) Output() Readable[T] { return d.output }

// Set writes v to the source cell.
func (d *Debounced[T]) Set(v T) { d.state.Set(v) }

// Get returns the source value.
func (d *Debounced[T]) Get() T { return d.state.Get() }

// Value returns the last emitted value.
func (d *Debounced[T]) Value() T { return d.output.Get() }

// Flush emits the source value immediately if an update is pending.
func (d *Debounced[T]) Flush() { d.core.flush() }

// Cancel drops a pending update; the output keeps its value.
func (d *Debounced[T]) Cancel() { d.core.cancel() }

// Pending reports whether an emission is scheduled.
func (d *Debounced[T]) Pending() bool { return d.core.isPending() }

// Stats returns a snapshot of the scheduling counters.
func (d *Debounced[T]) Stats() Stats { return d.core.Stats() }

// Close clears the pending timer and detaches from the source cell.
// Writes after Close still reach State but are never emitted.
// Close is idempotent.
func (d *Debounced[T]) Close() {
	d.once.Do(func() {
		d.unsub()
		d.core.close()
	})
}

// Debouncer calls a function once triggers have been quiet for a delay.
type Debouncer struct {
	core debounce[struct{}]
}

// NewDebouncer returns a Debouncer that calls fn after delay has elapsed
// since the last [Debouncer.Trigger].
// NewDebouncer panics if delay is negative or fn is nil.
func NewDebouncer(delay time.Duration, fn func(), opts ...Option) *Debouncer {
	if fn == nil {
		panic("pace: NewDebouncer requires a non-nil func")
	}
	d := &Debouncer{}
	d.core.init(delay, opts)
	d.core.current = func() struct{} { return struct{}{} }
	d.core.sink = func(uint64, struct{}) { fn() }

	if s := d.core.cfg.scope; s != nil {
		s.Defer(d.Close)
	}
	return d
}

// Trigger restarts the quiet period.
func (d *Debouncer) Trigger() { d.core.touch() }

// Flush calls fn now if a trigger is pending.
func (d *Debouncer) Flush() { d.core.flush() }

// Cancel drops a pending call. Trigger may be called again afterwards.
func (d *Debouncer) Cancel() { d.core.cancel() }

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool { return d.core.isPending() }

// Stats returns a snapshot of the scheduling counters.
func (d *Debouncer) Stats() Stats { return d.core.Stats() }

// Close cancels a pending call and ignores later triggers.
func (d *Debouncer) Close() { d.core.close() }
