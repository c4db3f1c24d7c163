package pace

import (
	"time"

	"k8s.io/utils/clock"
)

// Clock is the time source a primitive reads and arms its timer on.
//
// [clock.RealClock] is used unless [WithClock] says otherwise. Any clock from
// k8s.io/utils/clock that supports delayed execution satisfies Clock,
// including the fake clock in k8s.io/utils/clock/testing.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) clock.Timer
	NewTimer(d time.Duration) clock.Timer
}

// slot holds the single pending timer of a primitive.
//
// The owner's mutex must be held around every method. gen increases each time
// the timer is replaced or stopped, so a timer that already started firing
// when it was replaced can recognise itself as stale.
type slot struct {
	clock Clock
	timer clock.Timer
	gen   uint64
}

// arm stops any pending timer and schedules fire after d.
func (s *slot) arm(d time.Duration, fire func(gen uint64)) {
	s.stop()
	gen := s.gen
	s.timer = s.clock.AfterFunc(d, func() { fire(gen) })
}

// stop disarms the slot. It reports whether a timer was pending.
func (s *slot) stop() bool {
	if s.timer == nil {
		return false
	}
	s.timer.Stop()
	s.timer = nil
	s.gen++
	return true
}

func (s *slot) armed() bool {
	return s.timer != nil
}

// claim reports whether gen belongs to the pending timer and, if so,
// disarms the slot without stopping anything.
func (s *slot) claim(gen uint64) bool {
	if s.timer == nil || gen != s.gen {
		return false
	}
	s.timer = nil
	s.gen++
	return true
}
