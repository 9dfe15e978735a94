package grove

import (
	"fmt"
	"reflect"
)

// Deps maps dependency names to their resolved instances. It is what a
// factory receives; dependencies are addressed by name, not position.
type Deps map[string]any

// Factory is the canonical factory shape. Register also accepts func() T,
// func() (T, error), func(Deps) T and func(Deps) (T, error) for any T.
//
// The returned value may be a ready instance, an [Awaitable] (such as a
// [*Future]) or a value implementing [Starter] or [CallbackStarter].
type Factory func(deps Deps) (any, error)

// factoryFunc is the normalized form every accepted factory is turned into.
type factoryFunc func(deps Deps) (any, error)

// Dep returns the dependency registered under name, asserted to T.
//
//	db, err := grove.Dep[*sql.DB](deps, "db")
func Dep[T any](d Deps, name string) (T, error) {
	var zero T

	v, ok := d[name]
	if !ok {
		return zero, fmt.Errorf("%w: dependency %q was not declared", ErrServiceNotFound, name)
	}

	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("dependency %q: cannot convert %T to %s", name, v, reflect.TypeOf((*T)(nil)).Elem())
	}

	return out, nil
}

// MustDep is like [Dep] but panics on error. The container recovers factory
// panics and fails the resolution with them.
func MustDep[T any](d Deps, name string) T {
	v, err := Dep[T](d, name)
	if err != nil {
		panic(err)
	}
	return v
}

var (
	depsType  = reflect.TypeOf(Deps(nil))
	errorType = reflect.TypeOf((*error)(nil)).Elem()
)

// newFactoryFunc validates factory and adapts it to factoryFunc. Common
// shapes are matched directly; everything else goes through reflection.
func newFactoryFunc(factory any) (factoryFunc, error) {
	switch f := factory.(type) {
	case nil:
		return nil, fmt.Errorf("%w: factory is nil", ErrInvalidFactory)
	case Factory:
		if f == nil {
			return nil, fmt.Errorf("%w: factory is nil", ErrInvalidFactory)
		}
		return factoryFunc(f), nil
	case func(Deps) (any, error):
		if f == nil {
			return nil, fmt.Errorf("%w: factory is nil", ErrInvalidFactory)
		}
		return f, nil
	}

	val := reflect.ValueOf(factory)
	typ := val.Type()

	if typ.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: %s is not a function", ErrInvalidFactory, typ)
	}
	if val.IsNil() {
		return nil, fmt.Errorf("%w: factory is nil", ErrInvalidFactory)
	}

	if typ.IsVariadic() || typ.NumIn() > 1 || (typ.NumIn() == 1 && typ.In(0) != depsType) {
		return nil, fmt.Errorf("%w: %s must take no arguments or a single grove.Deps", ErrInvalidFactory, typ)
	}

	if typ.NumOut() == 0 || typ.NumOut() > 2 {
		return nil, fmt.Errorf("%w: %s must return (T) or (T, error)", ErrInvalidFactory, typ)
	}

	if typ.NumOut() == 2 && !typ.Out(1).Implements(errorType) {
		return nil, fmt.Errorf("%w: second return value of %s must implement error", ErrInvalidFactory, typ)
	}

	takesDeps := typ.NumIn() == 1

	return func(deps Deps) (any, error) {
		var args []reflect.Value
		if takesDeps {
			args = []reflect.Value{reflect.ValueOf(deps)}
		}

		results := val.Call(args)
		if len(results) == 2 && !results[1].IsNil() {
			return nil, results[1].Interface().(error)
		}

		return results[0].Interface(), nil
	}, nil
}

func panicError(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", r)
}
