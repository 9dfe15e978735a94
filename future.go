package grove

import (
	"context"
	"sync"
)

// Future is the eventual outcome of a resolution: either a ready instance or
// the error that prevented it. A Future completes exactly once and may be
// awaited by any number of goroutines.
type Future struct {
	done chan struct{}
	once sync.Once

	value any
	err   error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Resolved returns a completed Future holding v.
func Resolved(v any) *Future {
	f := newFuture()
	f.complete(v, nil)
	return f
}

// Failed returns a completed Future holding err.
func Failed(err error) *Future {
	f := newFuture()
	f.complete(nil, err)
	return f
}

// Go runs fn in a new goroutine and returns a Future for its result. Factories
// can return it to signal that their instance is produced asynchronously.
func Go(fn func() (any, error)) *Future {
	f := newFuture()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				f.complete(nil, panicError(r))
			}
		}()
		f.complete(fn())
	}()
	return f
}

func (f *Future) complete(v any, err error) {
	f.once.Do(func() {
		f.value, f.err = v, err
		close(f.done)
	})
}

// Done returns a channel that is closed once the Future has completed.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the Future completes or ctx is done. Giving up on ctx
// does not cancel the underlying resolution.
func (f *Future) Await(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Ready reports whether the Future has completed.
func (f *Future) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
