package grove

import "errors"

var (
	// ErrInvalidFactory is returned by Register when the factory is not a
	// function of a supported shape.
	ErrInvalidFactory = errors.New("invalid factory")

	// ErrDuplicateService is returned when a name is registered more than
	// once without [WithReplace].
	ErrDuplicateService = errors.New("duplicate service")

	// ErrUnsupportedLifetime is returned when a registration carries a
	// lifetime the container does not know how to resolve. It is reported on
	// resolution, not on registration.
	ErrUnsupportedLifetime = errors.New("unsupported lifetime")

	// ErrServiceNotFound is returned when no registration exists for the
	// requested service or dependency name.
	ErrServiceNotFound = errors.New("service not found")

	// ErrCircularDependency is returned when the declared dependencies of a
	// service lead back to itself. The error message includes the full chain.
	ErrCircularDependency = errors.New("circular dependency detected")

	// ErrStopTimeout is logged when a service does not finish stopping within
	// the configured stop timeout.
	ErrStopTimeout = errors.New("stop timed out")
)
