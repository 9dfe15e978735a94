package grove

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ---------------------------------------------------------------------------
// Container methods
// ---------------------------------------------------------------------------

func (c *container) Get(name string) *Future {
	c.mu.Lock()
	r, ok := c.services[name]
	if !ok {
		c.mu.Unlock()
		return Failed(fmt.Errorf("%w: %q", ErrServiceNotFound, name))
	}
	f := c.acquire(r)
	c.mu.Unlock()

	return f
}

func (c *container) Start(name string) *Future {
	return c.Get(name)
}

// ---------------------------------------------------------------------------
// Generic helpers
// ---------------------------------------------------------------------------

// Resolve is a generic helper that resolves a service and asserts its type.
// It blocks until the service is ready or ctx is done:
//
//	db, err := grove.Resolve[*Database](ctx, c, "db")
func Resolve[T any](ctx context.Context, c Container, name string) (T, error) {
	var zero T

	v, err := c.Get(name).Await(ctx)
	if err != nil {
		return zero, err
	}

	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("service %q: cannot convert %T to %s", name, v, reflect.TypeOf((*T)(nil)).Elem())
	}

	return out, nil
}

// ---------------------------------------------------------------------------
// Internal
// ---------------------------------------------------------------------------

// acquire returns the resolution for r, starting one if needed. For
// singletons the slot is filled before the pipeline goroutine is started, so
// any later caller observes the in-flight Future. c.mu must be held.
func (c *container) acquire(r *registration) *Future {
	switch r.lifetime {
	case Singleton:
		if r.slot == nil {
			r.slot = newFuture()
			go c.resolve(r, r.slot, c.stops)
		}
		return r.slot
	case Transient:
		f := newFuture()
		go c.resolve(r, f, c.stops)
		return f
	default:
		return Failed(fmt.Errorf("resolving %q: %w: %s (%d)", r.names[0], ErrUnsupportedLifetime, r.lifetime, int(r.lifetime)))
	}
}

// resolve runs the pipeline for r and completes f with its outcome.
func (c *container) resolve(r *registration, f *Future, stops *stopSequence) {
	name := r.names[0]
	begin := time.Now()

	c.debugLog("resolving service", zap.String("service", name), zap.Strings("dependencies", r.deps))

	v, err := c.build(r, stops)
	if err != nil {
		err = fmt.Errorf("resolving %q: %w", name, err)
		c.logger().Error("service resolution failed", zap.String("service", name), zap.Error(err))
	} else {
		c.debugLog("service resolved", zap.String("service", name), zap.Duration("elapsed", time.Since(begin)))
	}

	c.metrics.resolved(name, err)
	f.complete(v, err)
}

// build resolves the dependencies of r, invokes its factory, activates the
// result and applies any definition.
func (c *container) build(r *registration, stops *stopSequence) (any, error) {
	name := r.names[0]

	if err := c.checkCycles(r); err != nil {
		return nil, err
	}

	deps, err := c.resolveDeps(r.deps)
	if err != nil {
		return nil, err
	}

	begin := time.Now()
	inst, err := construct(r.factory, deps)
	if err != nil {
		return nil, err
	}
	c.metrics.activated(name, time.Since(begin))

	out, err := c.wrap(r, inst)
	if err != nil {
		return nil, err
	}

	if stop := stopFunc(inst); stop != nil {
		c.mu.Lock()
		stops.push(name, stop)
		c.mu.Unlock()
	}

	return out, nil
}

// construct calls the factory and activates its result, turning panics into
// errors.
func construct(fn factoryFunc, deps Deps) (inst any, err error) {
	defer func() {
		if r := recover(); r != nil {
			inst, err = nil, panicError(r)
		}
	}()

	raw, err := fn(deps)
	if err != nil {
		return nil, err
	}

	return activate(raw)
}

// resolveDeps resolves names concurrently. It returns on the first failure;
// resolutions already started keep running and stay cached.
func (c *container) resolveDeps(names []string) (Deps, error) {
	deps := make(Deps, len(names))
	if len(names) == 0 {
		return deps, nil
	}

	type result struct {
		name  string
		value any
		err   error
	}

	results := make(chan result, len(names))
	pending := 0

	for _, name := range compact(slices.Clone(names)) {
		c.mu.Lock()
		r, ok := c.services[name]
		var f *Future
		if ok {
			f = c.acquire(r)
		}
		c.mu.Unlock()

		if !ok {
			return nil, fmt.Errorf("%w: dependency %q", ErrServiceNotFound, name)
		}

		pending++
		go func() {
			v, err := f.Await(context.Background())
			results <- result{name: name, value: v, err: err}
		}()
	}

	for range pending {
		res := <-results
		if res.err != nil {
			return nil, res.err
		}
		deps[res.name] = res.value
	}

	return deps, nil
}

func (c *container) wrap(r *registration, inst any) (any, error) {
	c.mu.Lock()
	var (
		def     Definition
		defName string
	)
	for _, n := range r.names {
		if d, ok := c.definitions[n]; ok {
			def, defName = d, n
			break
		}
	}
	c.mu.Unlock()

	if def == nil {
		return inst, nil
	}

	return def.Wrap(defName, inst)
}

// ---------------------------------------------------------------------------
// Cycle detection
// ---------------------------------------------------------------------------

type visitState int

const (
	unvisited visitState = iota
	visiting
	visited
)

// checkCycles walks the declared dependency graph reachable from r
// depth-first. Unregistered dependencies are skipped here and reported by
// resolveDeps.
func (c *container) checkCycles(r *registration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.visit(r, r.names[0], make(map[*registration]visitState), nil)
}

func (c *container) visit(r *registration, name string, states map[*registration]visitState, stack []string) error {
	switch states[r] {
	case visiting:
		return circularError(name, stack)
	case visited:
		return nil
	}

	states[r] = visiting
	stack = append(stack, name)

	for _, dep := range r.deps {
		d, ok := c.services[dep]
		if !ok {
			continue
		}
		if err := c.visit(d, dep, states, stack); err != nil {
			return err
		}
	}

	states[r] = visited
	return nil
}

func circularError(name string, stack []string) error {
	chain := append(slices.Clone(stack), name)
	return fmt.Errorf("%w: %s", ErrCircularDependency, strings.Join(chain, " -> "))
}
