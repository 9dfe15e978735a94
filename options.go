package grove

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// registration holds everything the container knows about one service. All
// aliases of a service point at the same registration, so they share the
// lifecycle slot.
type registration struct {
	names    []string
	deps     []string
	lifetime Lifetime
	factory  factoryFunc
	replace  bool

	// slot is the singleton cell: nil, or the one in-flight or completed
	// resolution. Guarded by container.mu.
	slot *Future
}

// Option configures a service during registration.
type Option func(*registration)

// WithLifetime sets the [Lifetime] of the service. The default is
// [Singleton].
func WithLifetime(l Lifetime) Option {
	return func(r *registration) {
		r.lifetime = l
	}
}

// WithDependencies declares the services the factory needs. They are
// resolved concurrently and handed to the factory as [Deps].
func WithDependencies(names ...string) Option {
	return func(r *registration) {
		r.deps = append(r.deps, names...)
	}
}

// WithAliases registers additional names for the same service. Resolving any
// of them yields the same instance.
func WithAliases(names ...string) Option {
	return func(r *registration) {
		r.names = append(r.names, names...)
	}
}

// WithReplace allows the registration to overwrite existing services with the
// same names.
func WithReplace() Option {
	return func(r *registration) {
		r.replace = true
	}
}

// ContainerOption configures a container at construction time.
type ContainerOption func(*container)

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(l *zap.Logger) ContainerOption {
	return func(c *container) {
		c.setLogger(l)
	}
}

// WithDebug enables debug logging of registration and resolution.
func WithDebug(on bool) ContainerOption {
	return func(c *container) {
		c.debug.Store(on)
	}
}

// WithStopTimeout bounds every individual stop call during shutdown. The
// default is [DefaultStopTimeout], which also replaces non-positive values.
func WithStopTimeout(d time.Duration) ContainerOption {
	return func(c *container) {
		c.setStopTimeout(d)
	}
}

// WithRegisterer exports container metrics to the given registerer.
func WithRegisterer(reg prometheus.Registerer) ContainerOption {
	return func(c *container) {
		c.metrics = newMetrics(reg)
	}
}
