// Package window holds the timer-free bookkeeping of a leading/trailing
// throttle window. Callers own the timer and the value being throttled.
package window

import "time"

// Decision tells the caller what to do after a call.
type Decision struct {
	// Invoke is true when the sink must run now.
	Invoke bool

	// Arm is the duration to arm the trailing timer for. Zero means leave
	// the timer as it is.
	Arm time.Duration
}

// Throttle tracks the last call and the last invocation of a throttled sink.
//
// At most one trailing timer is outstanding: Call returns a non-zero Arm only
// when no timer is armed, and the caller reports its expiry through Expire.
// The zero value with only Delay set behaves as a trailing-only throttle; set
// Leading and Trailing explicitly.
type Throttle struct {
	Delay    time.Duration
	Leading  bool
	Trailing bool

	lastCall   time.Time
	lastInvoke time.Time
	pending    bool
	armed      bool
}

// Call records a source update at now.
//
// A window starts when no call is on record, when the previous call is at
// least Delay old, or, with Leading set, when the previous invocation is at
// least Delay old. Starting a window arms a timer for Delay and invokes at
// once when Leading is set. Calls inside a window arm a timer for what is
// left of it unless one is already armed.
//
// A non-positive Delay invokes on every call unless both edges are off.
func (w *Throttle) Call(now time.Time) Decision {
	if w.Delay <= 0 {
		w.lastCall = now
		if !w.Leading && !w.Trailing {
			return Decision{}
		}
		w.lastInvoke = now
		w.pending = false
		return Decision{Invoke: true}
	}

	starting := w.lastCall.IsZero() ||
		now.Sub(w.lastCall) >= w.Delay ||
		(w.Leading && now.Sub(w.lastInvoke) >= w.Delay)

	prev := w.lastCall
	w.lastCall = now
	w.pending = true

	if w.armed {
		return Decision{}
	}
	w.armed = true

	if !starting {
		return Decision{Arm: w.Delay - now.Sub(prev)}
	}

	w.lastInvoke = now
	if w.Leading {
		w.pending = false
		return Decision{Invoke: true, Arm: w.Delay}
	}
	return Decision{Arm: w.Delay}
}

// Expire is the trailing edge. It must be called when the armed timer fires
// and reports whether the sink must run. The window closes either way.
func (w *Throttle) Expire(now time.Time) bool {
	w.armed = false
	invoke := w.Trailing && w.pending
	w.pending = false
	w.lastCall = time.Time{}
	if invoke {
		w.lastInvoke = now
	}
	return invoke
}

// Flush disarms the window and reports whether a call arrived since the
// last invocation. The caller must stop its timer.
func (w *Throttle) Flush(now time.Time) bool {
	w.armed = false
	invoke := w.pending
	w.pending = false
	if invoke {
		w.lastInvoke = now
	}
	return invoke
}

// Reset forgets all calls and invocations. The caller must stop its timer.
func (w *Throttle) Reset() {
	w.lastCall = time.Time{}
	w.lastInvoke = time.Time{}
	w.pending = false
	w.armed = false
}

// Pending reports whether a call arrived since the last invocation.
func (w *Throttle) Pending() bool { return w.pending }

// Armed reports whether the caller's trailing timer should be running.
func (w *Throttle) Armed() bool { return w.armed }
