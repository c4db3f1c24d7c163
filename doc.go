// Package pace provides rate-limited reactive values for Go.
//
// A rate-limited value has three parts: a source that changes, a scheduler
// that owns at most one pending timer, and a sink that receives the values
// the timing policy lets through. pace implements the two common policies
// and the small amount of plumbing they need.
//
// # Cells
//
// [Cell] is a mutable value with change subscriptions. It implements
// [Writable], and anything implementing [Readable] can feed a throttle.
//
//	query := pace.NewCell("")
//	stop := query.Subscribe(func(q string) { fmt.Println("query:", q) })
//	defer stop()
//	query.Set("go")
//
// # Debounce
//
// [Debounced] copies its state to its output once writes have been quiet for
// a delay. Only the value present when the timer fires is delivered:
//
//	d := pace.NewDebounced("", 300*time.Millisecond)
//	d.Set("a")
//	d.Set("ab")
//	d.Set("abc")
//	// 300ms later d.Value() == "abc"
//
// [Debounced.Flush] emits a pending value immediately and
// [Debounced.Cancel] drops it. [Debouncer] is the callback-only flavour.
// [WithMaxWait] bounds how long a continuous burst may postpone emission.
//
// # Throttle
//
// [Throttler] passes values to a function at most once at the start of a
// window and once at its end:
//
//	t := pace.NewThrottler(500*time.Millisecond, func(v int) {
//	    fmt.Println(v)
//	})
//	t.Call(1) // prints 1
//	t.Call(2)
//	t.Call(3) // 500ms later prints 3
//
// [WithLeading] and [WithTrailing] select the edges. [Throttle] binds a
// throttler to a [Readable] source.
//
// # Scopes
//
// Every primitive holds one timer and must be closed when its owner goes
// away. [Scope] collects such resources: [WithScope] registers a primitive,
// [Scope.Defer] registers any other [Disposer], and [Scope.Close] releases
// them all in reverse order. [Scope.Go] starts background tasks that stop
// with the scope; [Run] closes the scope on every exit path.
//
// # Shared state
//
// [Registry] holds named cells shared by everyone holding the registry.
// [Shared] gets or creates a cell; [WithRegistry] and [RegistryFrom] carry a
// registry through a context.
//
// # History
//
// [History] keeps a bounded undo/redo record; [TrackHistory] records every
// write of a cell.
//
// # Observability
//
// [WithOnEvent] reports each scheduling decision as an [Event], and every
// primitive exposes counters through Stats. Sink panics on timer goroutines
// crash the program unless [WithOnPanic] recovers them.
//
// # Clocks
//
// Timers come from a [Clock], by default the real clock from
// k8s.io/utils/clock. [WithClock] substitutes another one.
//
// # Channel Utilities
//
// The [github.com/baxromumarov/pace/chanx] subpackage applies the same
// policies to channels: Debounce, DebounceBatch and Throttle.
package pace
