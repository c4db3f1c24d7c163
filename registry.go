package pace

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"k8s.io/utils/set"
)

// ErrTypeMismatch is returned by [Shared] when a key already holds a cell of
// a different element type.
var ErrTypeMismatch = errors.New("pace: registry key holds a different type")

// Registry is a set of named cells shared by every caller holding the same
// Registry. Pass it explicitly or through a context with [WithRegistry].
//
// The zero value is not usable; use [NewRegistry].
type Registry struct {
	mu    sync.RWMutex
	cells map[string]any
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{cells: make(map[string]any)}
}

// Shared returns the cell stored under key, creating it with the value of
// init when absent. init may be nil, in which case the cell starts at the
// zero value. Concurrent callers for the same key get the same cell; init may
// run more than once but only one result is kept.
func Shared[T any](r *Registry, key string, init func() T) (*Cell[T], error) {
	r.mu.RLock()
	existing, ok := r.cells[key]
	r.mu.RUnlock()
	if ok {
		return typedCell[T](key, existing)
	}

	var v T
	if init != nil {
		v = init()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.cells[key]; ok {
		return typedCell[T](key, existing)
	}
	c := NewCell(v)
	r.cells[key] = c
	return c, nil
}

func typedCell[T any](key string, v any) (*Cell[T], error) {
	c, ok := v.(*Cell[T])
	if !ok {
		return nil, fmt.Errorf("%w: %q is %T, want %T", ErrTypeMismatch, key, v, c)
	}
	return c, nil
}

// Has reports whether key is present.
func (r *Registry) Has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.cells[key]
	return ok
}

// Delete removes key. Holders of the cell keep using it; the next [Shared]
// call for key creates a new one.
func (r *Registry) Delete(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cells, key)
}

// Keys returns the registered keys in sorted order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return set.KeySet(r.cells).SortedList()
}

// Len returns the number of registered keys.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cells)
}

type registryKey struct{}

// WithRegistry returns a copy of ctx carrying r.
func WithRegistry(ctx context.Context, r *Registry) context.Context {
	return context.WithValue(ctx, registryKey{}, r)
}

// RegistryFrom returns the registry carried by ctx, if any.
func RegistryFrom(ctx context.Context) (*Registry, bool) {
	r, ok := ctx.Value(registryKey{}).(*Registry)
	return r, ok && r != nil
}
