package pace

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrScopeClosed is returned by [Scope.Go] after the scope has been closed.
// It is also the cancellation cause of a closed scope's context.
var ErrScopeClosed = errors.New("pace: scope is closed")

// Disposer releases a resource. Scopes call each registered Disposer
// exactly once.
type Disposer func()

// Once wraps fn so that only its first call has an effect.
func Once(fn func()) Disposer {
	var once sync.Once
	return func() {
		once.Do(fn)
	}
}

// TaskFunc is a background task bound to a scope. ctx is cancelled when the
// scope closes.
type TaskFunc func(ctx context.Context) error

// TaskInfo identifies a task started with [Scope.Go].
type TaskInfo struct {
	Name string
}

type scopeConfig struct {
	panicAsErr bool
	onDone     func(TaskInfo, error, time.Duration)
}

// ScopeOption configures a [Scope].
type ScopeOption func(*scopeConfig)

// WithPanicAsError turns task panics into [*PanicError] values returned by
// [Scope.Close] instead of re-raising the first one there.
func WithPanicAsError() ScopeOption {
	return func(c *scopeConfig) {
		c.panicAsErr = true
	}
}

// WithOnTaskDone registers a hook invoked when each task finishes, with its
// error (nil on success) and wall-clock duration. The hook runs inside the
// task's goroutine.
func WithOnTaskDone(fn func(TaskInfo, error, time.Duration)) ScopeOption {
	return func(c *scopeConfig) {
		c.onDone = fn
	}
}

// Scope owns resources and background tasks whose lifetime ends together.
//
// Resources register a [Disposer] with [Scope.Defer]; tasks start with
// [Scope.Go]. [Scope.Close] cancels the scope's context, runs disposers in
// reverse registration order and waits for every task. Debounce and throttle
// primitives join a scope through [WithScope].
type Scope struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
	cfg    scopeConfig

	mu        sync.Mutex
	closed    bool
	disposers []Disposer

	wg sync.WaitGroup

	errMu  sync.Mutex
	errs   []error
	panics []*PanicError

	closeOnce sync.Once
	closeErr  error
	panicVal  *PanicError
}

// NewScope returns an open scope whose context derives from parent.
// The caller must call [Scope.Close].
func NewScope(parent context.Context, opts ...ScopeOption) *Scope {
	var cfg scopeConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return newScope(parent, cfg)
}

func newScope(parent context.Context, cfg scopeConfig) *Scope {
	ctx, cancel := context.WithCancelCause(parent)
	return &Scope{
		ctx:    ctx,
		cancel: cancel,
		cfg:    cfg,
	}
}

// Run creates a [Scope], invokes fn with it, and closes it when fn returns,
// panics included. It returns the error of [Scope.Close].
func Run(parent context.Context, fn func(s *Scope), opts ...ScopeOption) (err error) {
	s := NewScope(parent, opts...)

	defer func() {
		runPanic := recover()
		closeErr, closePanic := s.shutdown()

		// fn's own panic wins over a task panic.
		if runPanic != nil {
			panic(runPanic)
		}
		if closePanic != nil {
			panic(closePanic)
		}
		err = closeErr
	}()

	fn(s)
	return nil
}

// Context returns the scope's context. It is cancelled with cause
// [ErrScopeClosed] when the scope closes, or earlier if the parent is.
func (s *Scope) Context() context.Context {
	return s.ctx
}

// Done is shorthand for s.Context().Done().
func (s *Scope) Done() <-chan struct{} {
	return s.ctx.Done()
}

// Closed reports whether Close has started.
func (s *Scope) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Defer registers fn to run when the scope closes. If the scope is already
// closed, fn runs immediately.
func (s *Scope) Defer(fn func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		fn()
		return
	}
	s.disposers = append(s.disposers, fn)
	s.mu.Unlock()
}

// Add registers d like [Scope.Defer].
func (s *Scope) Add(d Disposer) {
	s.Defer(d)
}

// Go starts fn in a new goroutine. Its error, wrapped in a [*TaskError], is
// returned by Close. Go returns [ErrScopeClosed] without starting fn if the
// scope is closed.
func (s *Scope) Go(name string, fn TaskFunc) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrScopeClosed
	}
	// Add under mu so Close cannot reach wg.Wait between the check and Add.
	s.wg.Add(1)
	s.mu.Unlock()

	info := TaskInfo{Name: name}
	go func() {
		defer s.wg.Done()

		start := time.Now()
		err := s.exec(fn)
		if s.cfg.onDone != nil {
			s.cfg.onDone(info, err, time.Since(start))
		}
		if err != nil {
			s.record(&TaskError{Task: info, Err: err})
		}
	}()
	return nil
}

// Child returns a scope that is closed when s closes. If s is the one that
// closes it, the child's errors and panics are reported by s's Close.
func (s *Scope) Child() *Scope {
	child := newScope(s.ctx, s.cfg)
	s.Defer(func() {
		closedHere := false
		child.closeOnce.Do(func() {
			closedHere = true
			child.closeNow()
		})
		if !closedHere {
			return
		}
		if p := child.panicVal; p != nil {
			s.errMu.Lock()
			s.panics = append(s.panics, p)
			s.errMu.Unlock()
		}
		if child.closeErr != nil {
			s.record(child.closeErr)
		}
	})
	return child
}

// Close cancels the scope's context, runs the registered disposers in
// reverse order, waits for all tasks and returns their errors joined.
// Close is idempotent; later calls return the same error.
//
// If a task panicked and [WithPanicAsError] was not set, Close re-panics
// with the first [*PanicError] after cleanup.
func (s *Scope) Close() error {
	err, p := s.shutdown()
	if p != nil {
		panic(p)
	}
	return err
}

func (s *Scope) shutdown() (error, *PanicError) {
	s.closeOnce.Do(s.closeNow)
	return s.closeErr, s.panicVal
}

// closeNow must run under closeOnce.
func (s *Scope) closeNow() {
	s.mu.Lock()
	s.closed = true
	disposers := s.disposers
	s.disposers = nil
	s.mu.Unlock()

	s.cancel(ErrScopeClosed)
	for i := len(disposers) - 1; i >= 0; i-- {
		disposers[i]()
	}
	s.wg.Wait()

	s.errMu.Lock()
	defer s.errMu.Unlock()
	if !s.cfg.panicAsErr && len(s.panics) > 0 {
		s.panicVal = s.panics[0]
	}
	s.closeErr = errors.Join(s.errs...)
}

func (s *Scope) exec(fn TaskFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			pe := newPanicError(r)
			if s.cfg.panicAsErr {
				err = pe
				return
			}
			s.errMu.Lock()
			s.panics = append(s.panics, pe)
			s.errMu.Unlock()
			s.cancel(pe)
		}
	}()
	return fn(s.ctx)
}

func (s *Scope) record(err error) {
	s.errMu.Lock()
	s.errs = append(s.errs, err)
	s.errMu.Unlock()
}
