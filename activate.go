package grove

import (
	"context"
	"io"
	"reflect"
)

// Awaitable is a value whose instance becomes available later. [*Future]
// implements it.
type Awaitable interface {
	Await(ctx context.Context) (any, error)
}

// Starter is implemented by services that need asynchronous initialization.
// Dependents are not handed the instance until Start returns nil.
type Starter interface {
	Start(ctx context.Context) error
}

// CallbackStarter is the callback form of [Starter]: done must be called
// exactly once, with nil on success.
type CallbackStarter interface {
	Start(done func(error))
}

// Stopper is implemented by services that must be stopped on shutdown.
// Instances that only implement [io.Closer] are closed instead.
type Stopper interface {
	Stop(ctx context.Context) error
}

// CallbackStopper is the callback form of [Stopper].
type CallbackStopper interface {
	Stop(done func(error))
}

// shape is the classification of a factory's return value.
type shape int

const (
	shapeEmpty shape = iota
	shapeAwaitable
	shapeStarter
	shapeCallbackStarter
	shapeReady
)

func (s shape) String() string {
	switch s {
	case shapeEmpty:
		return "empty"
	case shapeAwaitable:
		return "awaitable"
	case shapeStarter:
		return "starter"
	case shapeCallbackStarter:
		return "callback-starter"
	default:
		return "ready"
	}
}

func classify(v any) shape {
	if isNil(v) {
		return shapeEmpty
	}

	switch v.(type) {
	case Awaitable:
		return shapeAwaitable
	case Starter:
		return shapeStarter
	case CallbackStarter:
		return shapeCallbackStarter
	default:
		return shapeReady
	}
}

// activate turns a raw factory result into a ready instance, waiting for
// awaitables and start capabilities to complete.
func activate(v any) (any, error) {
	switch classify(v) {
	case shapeAwaitable:
		return v.(Awaitable).Await(context.Background())
	case shapeStarter:
		if err := v.(Starter).Start(context.Background()); err != nil {
			return nil, err
		}
		return v, nil
	case shapeCallbackStarter:
		if err := callbackResult(v.(CallbackStarter).Start); err != nil {
			return nil, err
		}
		return v, nil
	default:
		return v, nil
	}
}

// stopFunc returns the stop capability of v adapted to a context-aware call,
// or nil if v cannot be stopped.
func stopFunc(v any) func(ctx context.Context) error {
	if isNil(v) {
		return nil
	}

	switch s := v.(type) {
	case Stopper:
		return s.Stop
	case CallbackStopper:
		return func(ctx context.Context) error {
			done := make(chan error, 1)
			go func() { done <- callbackResult(s.Stop) }()

			select {
			case err := <-done:
				return err
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	case io.Closer:
		return func(context.Context) error { return s.Close() }
	default:
		return nil
	}
}

// callbackResult adapts a single-callback operation into a blocking call.
// Panics inside fn are reported as errors.
func callbackResult(fn func(done func(error))) (err error) {
	done := make(chan error, 1)

	func() {
		defer func() {
			if r := recover(); r != nil {
				select {
				case done <- panicError(r):
				default:
				}
			}
		}()
		fn(func(err error) {
			select {
			case done <- err:
			default:
			}
		})
	}()

	return <-done
}

func isNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
