package chanx

import "context"

// Map transforms values from in by applying fn and sends the results
// to the returned channel. The output channel is closed when in is
// closed or ctx is cancelled.
//
// If in is nil, returns a closed channel immediately.
func Map[T, U any](ctx context.Context, in <-chan T, fn func(T) U) <-chan U {
	return forward(ctx, in, func(v T) (U, bool) { return fn(v), true })
}

// Filter passes values from in to the returned channel only if keep
// returns true. The output channel is closed when in is closed or
// ctx is cancelled.
//
// If in is nil, returns a closed channel immediately.
func Filter[T any](ctx context.Context, in <-chan T, keep func(T) bool) <-chan T {
	return forward(ctx, in, func(v T) (T, bool) { return v, keep(v) })
}

// Compact removes repeated values from each batch received from in,
// keeping the first occurrence of each. It pairs with [DebounceBatch]
// when a burst may carry the same value several times.
//
// If in is nil, returns a closed channel immediately.
func Compact[T comparable](ctx context.Context, in <-chan []T) <-chan []T {
	return forward(ctx, in, func(batch []T) ([]T, bool) {
		seen := make(map[T]struct{}, len(batch))
		out := make([]T, 0, len(batch))
		for _, v := range batch {
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
		return out, true
	})
}

func forward[T, U any](ctx context.Context, in <-chan T, fn func(T) (U, bool)) <-chan U {
	out := make(chan U)
	if in == nil {
		close(out)
		return out
	}

	go func() {
		defer close(out)
		for {
			v, ok, err := Recv(ctx, in)
			if err != nil || !ok {
				return
			}
			u, keep := fn(v)
			if !keep {
				continue
			}
			if Send(ctx, out, u) != nil {
				return
			}
		}
	}()
	return out
}
