// Package chanx applies pace's timing policies to channels.
//
//   - [Debounce]: emits the last value of each burst once the input has been
//     quiet for a duration.
//   - [DebounceBatch]: emits every value of each burst as one slice.
//   - [Throttle]: emits at most once at the start of each window and once,
//     with the latest value, at its end.
//   - [Map], [Filter] and [Compact]: stages for building pipelines around
//     the above.
//   - [Send] and [Recv]: context-aware send and receive.
//
// Every function that spawns a goroutine ties it to a [context.Context] and
// closes its output when the input closes or the context is cancelled.
// Timers come from the clock given with [WithClock], by default the real one.
package chanx
