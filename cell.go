package pace

import (
	"reflect"
	"slices"
	"sync"
)

// Readable is a value that can be read and watched for changes.
type Readable[T any] interface {
	// Get returns the current value.
	Get() T

	// Subscribe registers fn to be called with every change made after
	// the call. The returned function removes the subscription; calling it
	// more than once has no further effect.
	Subscribe(fn func(T)) (unsubscribe func())
}

// Writable is a [Readable] that can also be written.
type Writable[T any] interface {
	Readable[T]
	Set(v T)
	Update(fn func(T) T)
}

// Cell is a mutable value that notifies subscribers when it changes.
//
// Subscribers run synchronously on the writing goroutine, in subscription
// order, after the cell's lock has been released. They may read or write the
// cell. A write of a value equal to the current one notifies nobody.
//
// Values are compared with == when T and everything it holds are comparable
// without interfaces; other types notify on every write. [NewCellFunc]
// supplies a custom comparison.
//
// The zero value is an empty cell holding the zero value of T.
type Cell[T any] struct {
	mu   sync.RWMutex
	val  T
	subs []*subscription[T]

	custom bool
	equal  func(a, b T) bool
	eqOnce sync.Once
}

type subscription[T any] struct {
	fn func(T)
}

var _ Writable[int] = (*Cell[int])(nil)

// NewCell returns a cell holding initial.
func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{val: initial}
}

// NewCellFunc returns a cell holding initial that skips notification when
// equal reports the new value equal to the old one. A nil equal notifies on
// every write. equal runs under the cell's lock and must not touch the cell.
func NewCellFunc[T any](initial T, equal func(a, b T) bool) *Cell[T] {
	return &Cell[T]{val: initial, custom: true, equal: equal}
}

func (c *Cell[T]) same(a, b T) bool {
	c.eqOnce.Do(func() {
		if !c.custom && plainComparable(reflect.TypeFor[T]()) {
			c.equal = func(a, b T) bool { return any(a) == any(b) }
		}
	})
	return c.equal != nil && c.equal(a, b)
}

// plainComparable reports whether == on t can never panic.
func plainComparable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface:
		return false
	case reflect.Array:
		return plainComparable(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if !plainComparable(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return t.Comparable()
	}
}

func (c *Cell[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.val
}

func (c *Cell[T]) Set(v T) {
	c.write(v, nil, nil)
}

// Update replaces the value with fn applied to it. fn runs under the cell's
// lock and must not touch the cell.
func (c *Cell[T]) Update(fn func(T) T) {
	c.mu.Lock()
	old := c.val
	v := fn(old)
	c.val = v
	if c.same(old, v) {
		c.mu.Unlock()
		return
	}
	subs := slices.Clone(c.subs)
	c.mu.Unlock()

	notify(subs, v, nil)
}

// write stores v unless admit, called under the lock, refuses it, and
// notifies every subscriber except skip. It reports whether v was stored.
func (c *Cell[T]) write(v T, admit func() bool, skip *subscription[T]) bool {
	c.mu.Lock()
	if admit != nil && !admit() {
		c.mu.Unlock()
		return false
	}
	old := c.val
	c.val = v
	if c.same(old, v) {
		c.mu.Unlock()
		return true
	}
	subs := slices.Clone(c.subs)
	c.mu.Unlock()

	notify(subs, v, skip)
	return true
}

func notify[T any](subs []*subscription[T], v T, skip *subscription[T]) {
	for _, s := range subs {
		if s != skip {
			s.fn(v)
		}
	}
}

func (c *Cell[T]) Subscribe(fn func(T)) func() {
	s := c.subscribe(fn)
	var once sync.Once
	return func() {
		once.Do(func() { c.unsubscribe(s) })
	}
}

func (c *Cell[T]) subscribe(fn func(T)) *subscription[T] {
	s := &subscription[T]{fn: fn}
	c.mu.Lock()
	c.subs = append(c.subs, s)
	c.mu.Unlock()
	return s
}

func (c *Cell[T]) unsubscribe(s *subscription[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = slices.DeleteFunc(c.subs, func(x *subscription[T]) bool {
		return x == s
	})
}

// Subscribers returns the number of active subscriptions.
func (c *Cell[T]) Subscribers() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subs)
}

// outputCell is a cell written by deliveries that may race each other.
// Each delivery carries the sequence number it was scheduled with; a
// delivery older than the last one stored is dropped, so the value never
// moves backwards.
type outputCell[T any] struct {
	*Cell[T]
	seq uint64 // guarded by Cell.mu
}

func newOutputCell[T any](initial T) *outputCell[T] {
	return &outputCell[T]{Cell: NewCell(initial)}
}

// deliver stores v if seq is newer than every stored delivery.
func (c *outputCell[T]) deliver(seq uint64, v T) bool {
	return c.write(v, func() bool {
		if seq <= c.seq {
			return false
		}
		c.seq = seq
		return true
	}, nil)
}
