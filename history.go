package pace

import "sync"

// History keeps a bounded undo/redo record of a value.
//
// It holds the current value plus at most capacity earlier snapshots; a
// commit beyond that drops the oldest. A commit clears the redo record.
type History[T any] struct {
	mu       sync.Mutex
	capacity int
	current  T
	undo     []T // oldest first
	redo     []T // most recently undone last

	// onMove, when set, receives the value Undo or Redo moved to.
	onMove func(T)
}

// NewHistory returns a history positioned at initial.
// NewHistory panics if capacity is not positive.
func NewHistory[T any](capacity int, initial T) *History[T] {
	if capacity <= 0 {
		panic("pace: NewHistory requires capacity > 0")
	}
	return &History[T]{
		capacity: capacity,
		current:  initial,
	}
}

// Commit makes v the current value.
func (h *History[T]) Commit(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.undo = append(h.undo, h.current)
	if over := len(h.undo) - h.capacity; over > 0 {
		clear(h.undo[:over])
		h.undo = h.undo[over:]
	}
	h.current = v
	h.redo = nil
}

// Undo steps back one snapshot. It returns false when there is none.
func (h *History[T]) Undo() (T, bool) {
	h.mu.Lock()
	if len(h.undo) == 0 {
		h.mu.Unlock()
		var zero T
		return zero, false
	}
	h.redo = append(h.redo, h.current)
	h.current = h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	v, onMove := h.current, h.onMove
	h.mu.Unlock()

	if onMove != nil {
		onMove(v)
	}
	return v, true
}

// Redo reverts the last Undo. It returns false when there is nothing to redo.
func (h *History[T]) Redo() (T, bool) {
	h.mu.Lock()
	if len(h.redo) == 0 {
		h.mu.Unlock()
		var zero T
		return zero, false
	}
	h.undo = append(h.undo, h.current)
	h.current = h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	v, onMove := h.current, h.onMove
	h.mu.Unlock()

	if onMove != nil {
		onMove(v)
	}
	return v, true
}

// Current returns the current value.
func (h *History[T]) Current() T {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

func (h *History[T]) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undo) > 0
}

func (h *History[T]) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redo) > 0
}

// Len returns the number of snapshots available to Undo.
func (h *History[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undo)
}

// Clear drops every snapshot, keeping the current value.
func (h *History[T]) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.undo = nil
	h.redo = nil
}

// TrackHistory records every change of c in a new History. Undo and Redo on
// the returned history write the restored value back to c without recording
// it again; changes made by other writers meanwhile, including writes from
// other subscribers reacting to the restore, are recorded as usual. The
// disposer stops recording.
func TrackHistory[T any](c *Cell[T], capacity int) (*History[T], Disposer) {
	h := NewHistory(capacity, c.Get())

	sub := c.subscribe(h.Commit)
	h.onMove = func(v T) {
		c.write(v, nil, sub)
	}
	return h, Once(func() { c.unsubscribe(sub) })
}
