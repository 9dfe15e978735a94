package grove

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ARTM2000/grove/loader"
)

// DefaultStopTimeout bounds each stop call during shutdown unless
// [WithStopTimeout] or [Container.StopTimeout] says otherwise.
const DefaultStopTimeout = 10 * time.Second

// Container defines the interface for the dependency injection container.
// Use [New] to create an instance. All methods are safe for concurrent use.
type Container interface {
	// Register adds a factory under name. The factory must be a function
	// shaped func() T, func() (T, error), func(Deps) T or
	// func(Deps) (T, error); anything else fails with [ErrInvalidFactory].
	// Registering a name twice fails with [ErrDuplicateService] unless
	// [WithReplace] is given.
	Register(name string, factory any, opts ...Option) error

	// RegisterAll registers every service descriptor found under dir,
	// taking factories from catalog. See package loader for the descriptor
	// format.
	RegisterAll(dir string, catalog loader.Catalog) error

	// Define attaches a definition to a service name. Once an instance for
	// that name is ready, the definition's Wrap decides what callers receive.
	Define(name string, def Definition) error

	// DefineAll loads contract definitions from dir and defines each of
	// them. See package contract for the file format.
	DefineAll(dir string) error

	// Get resolves the named service, its dependencies first. Singleton
	// services are constructed at most once; concurrent callers share the
	// same Future.
	Get(name string) *Future

	// Start is Get under a name that reads better at call sites that only
	// want a service running.
	Start(name string) *Future

	// Services returns the sorted names of all registered services,
	// aliases included.
	Services() []string

	// StopOn triggers [Container.Shutdown] whenever one of sigs is
	// delivered to the process.
	StopOn(sigs ...os.Signal) Container

	// Shutdown stops every started service implementing [Stopper],
	// [CallbackStopper] or [io.Closer], last started first, one at a time. Each stop is
	// bounded by the stop timeout; failures and timeouts are logged and
	// the walk moves on. A call made while a walk is running joins it. The
	// context only bounds how long the caller waits.
	Shutdown(ctx context.Context) error

	// Stopped returns a channel closed when the next shutdown walk
	// completes.
	Stopped() <-chan struct{}

	// Debug toggles debug logging of registration and resolution.
	Debug(on bool) Container

	// LogTo replaces the logger. A nil logger disables logging.
	LogTo(l *zap.Logger) Container

	// StopTimeout sets the bound applied to each stop call. Non-positive
	// values restore [DefaultStopTimeout].
	StopTimeout(d time.Duration) Container

	// Reset drops every registration, definition, cached instance and the
	// stop sequence. Logger, debug flag, stop timeout and metrics are kept.
	Reset() Container
}

type container struct {
	id string

	mu sync.Mutex

	services    map[string]*registration
	definitions map[string]Definition
	stops       *stopSequence

	// walk is closed when the running shutdown walk completes; nil when no
	// walk is running. stopped is handed out by Stopped.
	walk    chan struct{}
	stopped chan struct{}

	log         atomic.Pointer[zap.Logger]
	debug       atomic.Bool
	stopTimeout atomic.Int64

	metrics *metrics
}

// New creates an empty [Container] ready for registration.
func New(opts ...ContainerOption) Container {
	c := &container{
		id:          uuid.NewString(),
		services:    make(map[string]*registration),
		definitions: make(map[string]Definition),
		stops:       &stopSequence{},
		stopped:     make(chan struct{}),
	}
	c.setLogger(nil)
	c.setStopTimeout(DefaultStopTimeout)

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *container) Register(name string, factory any, opts ...Option) error {
	r, err := newRegistration(name, factory, opts)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkNames(r, nil); err != nil {
		return err
	}
	c.insert(r)

	return nil
}

// RegisterAll registers nothing unless every descriptor can be registered.
func (c *container) RegisterAll(dir string, catalog loader.Catalog) error {
	entries, err := loader.LoadDir(dir, catalog)
	if err != nil {
		return err
	}

	regs := make([]*registration, 0, len(entries))
	for _, e := range entries {
		r, err := newRegistration(e.Names[0], e.Factory, []Option{
			WithAliases(e.Names[1:]...),
			WithDependencies(e.Inject...),
			WithLifetime(ParseLifetime(e.Lifecycle)),
		})
		if err != nil {
			return fmt.Errorf("%s: %w", e.Path, err)
		}
		regs = append(regs, r)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	claimed := make(map[string]bool)
	for i, r := range regs {
		if err := c.checkNames(r, claimed); err != nil {
			return fmt.Errorf("%s: %w", entries[i].Path, err)
		}
		for _, n := range r.names {
			claimed[n] = true
		}
	}

	for _, r := range regs {
		c.insert(r)
	}

	return nil
}

func newRegistration(name string, factory any, opts []Option) (*registration, error) {
	if name == "" {
		return nil, errors.New("service name cannot be empty")
	}

	fn, err := newFactoryFunc(factory)
	if err != nil {
		return nil, fmt.Errorf("registering %q: %w", name, err)
	}

	r := &registration{
		names:    []string{name},
		factory:  fn,
		lifetime: Singleton,
	}

	for _, opt := range opts {
		opt(r)
	}

	r.names = compact(r.names)
	if slices.Contains(r.names, "") {
		return nil, fmt.Errorf("registering %q: alias cannot be empty", name)
	}

	return r, nil
}

// checkNames fails if a name of r is taken, in the table or in pending,
// unless r replaces. c.mu must be held.
func (c *container) checkNames(r *registration, pending map[string]bool) error {
	if r.replace {
		return nil
	}
	for _, n := range r.names {
		if _, exists := c.services[n]; exists || pending[n] {
			return fmt.Errorf("%w: %q", ErrDuplicateService, n)
		}
	}
	return nil
}

// insert maps every name of r to it. c.mu must be held.
func (c *container) insert(r *registration) {
	for _, n := range r.names {
		c.services[n] = r
	}

	c.debugLog("service registered",
		zap.Strings("names", r.names),
		zap.Strings("dependencies", r.deps),
		zap.Stringer("lifetime", r.lifetime),
		zap.Bool("replace", r.replace),
	)
}

func (c *container) Services() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(c.services))
	for name := range c.services {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (c *container) Debug(on bool) Container {
	c.debug.Store(on)
	return c
}

func (c *container) LogTo(l *zap.Logger) Container {
	c.setLogger(l)
	return c
}

func (c *container) StopTimeout(d time.Duration) Container {
	c.setStopTimeout(d)
	return c
}

func (c *container) Reset() Container {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.services = make(map[string]*registration)
	c.definitions = make(map[string]Definition)
	c.stops = &stopSequence{}

	c.debugLog("container reset")
	return c
}

// ---------------------------------------------------------------------------
// Logging
// ---------------------------------------------------------------------------

func (c *container) setLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	c.log.Store(l.With(zap.String("container", c.id)))
}

// setStopTimeout keeps every stop call bounded: d <= 0 means the default.
func (c *container) setStopTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultStopTimeout
	}
	c.stopTimeout.Store(int64(d))
}

func (c *container) logger() *zap.Logger {
	return c.log.Load()
}

func (c *container) debugLog(msg string, fields ...zap.Field) {
	if c.debug.Load() {
		c.logger().Debug(msg, fields...)
	}
}

// compact drops repeated names, keeping the first occurrence.
func compact(names []string) []string {
	out := names[:0]
	for _, n := range names {
		if !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	return out
}
