package pace

import (
	"sync/atomic"
	"time"
)

// EventKind identifies a scheduling decision reported to [WithOnEvent].
type EventKind int

const (
	// EventScheduled means a timer was armed for a pending update.
	EventScheduled EventKind = iota

	// EventSkipped means an update was absorbed by an already pending
	// timer and will not cause an invocation of its own.
	EventSkipped

	// EventInvoked means the sink ran.
	EventInvoked

	// EventFlushed means Flush delivered a pending update.
	EventFlushed

	// EventCancelled means Cancel or Close dropped a pending update.
	EventCancelled

	// EventPanicked means the sink panicked on a timer goroutine and the
	// panic was recovered by [WithOnPanic]. Event.Err holds the [*PanicError].
	EventPanicked

	numEventKinds
)

func (k EventKind) String() string {
	switch k {
	case EventScheduled:
		return "scheduled"
	case EventSkipped:
		return "skipped"
	case EventInvoked:
		return "invoked"
	case EventFlushed:
		return "flushed"
	case EventCancelled:
		return "cancelled"
	case EventPanicked:
		return "panicked"
	default:
		return "unknown"
	}
}

// Event describes one scheduling decision of a primitive.
type Event struct {
	Kind EventKind
	Name string // set via WithName
	At   time.Time
	Err  error
}

// Stats is a point-in-time snapshot of a primitive's counters.
type Stats struct {
	Scheduled int64 // timers armed
	Skipped   int64 // updates absorbed by a pending timer
	Invoked   int64 // sink invocations, flushes included
	Flushed   int64 // flushes that delivered an update
	Cancelled int64 // pending updates dropped by Cancel or Close
	Panicked  int64 // recovered sink panics
}

// base carries the configuration and counters shared by every primitive.
type base struct {
	cfg    config
	counts [numEventKinds]atomic.Int64
}

func (b *base) init(opts []Option) {
	b.cfg = newConfig(opts)
}

// Stats returns a snapshot of the primitive's counters.
func (b *base) Stats() Stats {
	return Stats{
		Scheduled: b.counts[EventScheduled].Load(),
		Skipped:   b.counts[EventSkipped].Load(),
		Invoked:   b.counts[EventInvoked].Load(),
		Flushed:   b.counts[EventFlushed].Load(),
		Cancelled: b.counts[EventCancelled].Load(),
		Panicked:  b.counts[EventPanicked].Load(),
	}
}

// notify counts kind and reports it to the event hook. Callers must not
// hold their own mutex.
func (b *base) notify(kind EventKind, err error) {
	b.counts[kind].Add(1)
	if b.cfg.onEvent != nil {
		b.cfg.onEvent(Event{
			Kind: kind,
			Name: b.cfg.name,
			At:   b.cfg.clock.Now(),
			Err:  err,
		})
	}
}

// fire runs fn on behalf of a timer, applying the WithOnPanic policy.
func (b *base) fire(fn func()) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		pe := newPanicError(r)
		if b.cfg.onPanic == nil {
			panic(pe)
		}
		b.notify(EventPanicked, pe)
		b.cfg.onPanic(pe)
	}()
	fn()
	b.notify(EventInvoked, nil)
}
