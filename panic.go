package pace

import (
	"fmt"
	"runtime"
)

// PanicError carries a recovered panic value and the stack of the goroutine
// that panicked.
//
// Sinks running on timer goroutines produce one when [WithOnPanic] is set.
// Scope tasks produce one for every panic; see [WithPanicAsError].
type PanicError struct {
	// Value is the value passed to panic().
	Value any

	// Stack is the goroutine stack trace at the point of panic.
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v\n\n%s", e.Value, e.Stack)
}

// Unwrap returns the panic value when it is an error, so errors.Is can see
// through a panic(err).
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

func newPanicError(v any) *PanicError {
	if pe, ok := v.(*PanicError); ok {
		return pe
	}
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)
	return &PanicError{
		Value: v,
		Stack: string(buf[:n]),
	}
}
