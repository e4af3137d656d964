package future

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrPending is returned by Value when the future has not settled yet.
	ErrPending = errors.New("future: not settled")
	// ErrCanceled is the rejection reason used by Cancel.
	ErrCanceled = errors.New("future: canceled")
)

// Waiter is anything whose completion can be observed on a channel.
type Waiter interface {
	Done() <-chan struct{}
}

// Future is a single-assignment asynchronous result.
type Future[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

// New returns an unsettled future.
func New[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolved returns a future already resolved with v.
func Resolved[T any](v T) *Future[T] {
	f := New[T]()
	f.Resolve(v)
	return f
}

// Signal returns an unsettled future carrying no value, the usual shape of a
// delay gate.
func Signal() *Future[struct{}] {
	return New[struct{}]()
}

// Resolve settles the future with v. It reports whether this call settled it.
func (f *Future[T]) Resolve(v T) bool {
	return f.settle(v, nil)
}

// Reject settles the future with err. A nil err is replaced by ErrCanceled so
// a rejected future always carries a reason.
func (f *Future[T]) Reject(err error) bool {
	if err == nil {
		err = ErrCanceled
	}
	var zero T
	return f.settle(zero, err)
}

// Cancel rejects the future with ErrCanceled.
func (f *Future[T]) Cancel() bool {
	return f.Reject(ErrCanceled)
}

func (f *Future[T]) settle(v T, err error) bool {
	settled := false
	f.once.Do(func() {
		f.value = v
		f.err = err
		close(f.done)
		settled = true
	})
	return settled
}

// Done is closed once the future settles.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Settled reports whether the future has settled.
func (f *Future[T]) Settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Value returns the settled value and error without blocking. It returns
// ErrPending while the future is unsettled.
func (f *Future[T]) Value() (T, error) {
	if !f.Settled() {
		var zero T
		return zero, ErrPending
	}
	return f.value, f.err
}

// Await blocks until the future settles or ctx is done.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// AllSettled returns a future resolved once every waiter has completed,
// whatever the outcome. Nil waiters count as settled and an empty list
// resolves immediately.
func AllSettled(ws ...Waiter) *Future[struct{}] {
	out := New[struct{}]()
	pending := make([]Waiter, 0, len(ws))
	for _, w := range ws {
		if w != nil {
			pending = append(pending, w)
		}
	}
	if len(pending) == 0 {
		out.Resolve(struct{}{})
		return out
	}
	go func() {
		for _, w := range pending {
			<-w.Done()
		}
		out.Resolve(struct{}{})
	}()
	return out
}
