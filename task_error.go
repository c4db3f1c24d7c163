package pace

import (
	"errors"
	"fmt"
)

// TaskError attributes a failure to the [Scope.Go] task that returned it.
type TaskError struct {
	Task TaskInfo
	Err  error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %q failed: %v", e.Task.Name, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// TaskOf returns the [TaskInfo] of the first [*TaskError] in err's chain.
func TaskOf(err error) (TaskInfo, bool) {
	var te *TaskError
	if errors.As(err, &te) {
		return te.Task, true
	}
	return TaskInfo{}, false
}

// AllTaskErrors collects every [*TaskError] in err's tree, following
// errors joined by [Scope.Close]. It returns nil if there are none.
func AllTaskErrors(err error) []*TaskError {
	var out []*TaskError
	collectTaskErrors(err, &out)
	return out
}

func collectTaskErrors(err error, out *[]*TaskError) {
	switch e := err.(type) {
	case nil:
	case *TaskError:
		*out = append(*out, e)
	case interface{ Unwrap() []error }:
		for _, sub := range e.Unwrap() {
			collectTaskErrors(sub, out)
		}
	case interface{ Unwrap() error }:
		collectTaskErrors(e.Unwrap(), out)
	}
}
