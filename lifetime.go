package grove

// Lifetime controls how many instances of a service the container creates.
type Lifetime int

const (
	// Singleton is the default lifetime. The factory runs at most once per
	// container and every requester shares the same in-flight or completed
	// result.
	Singleton Lifetime = iota

	// Transient means the full pipeline, dependencies included, runs again
	// on every [Container.Get] call.
	Transient
)

// String returns the human-readable name of the lifetime.
func (l Lifetime) String() string {
	switch l {
	case Singleton:
		return "singleton"
	case Transient:
		return "transient"
	default:
		return "unknown"
	}
}

// ParseLifetime maps a lifetime name to its value. An empty string is
// [Singleton]. Unrecognized names yield a value that fails with
// [ErrUnsupportedLifetime] once the service is resolved.
func ParseLifetime(s string) Lifetime {
	switch s {
	case "", "singleton":
		return Singleton
	case "transient":
		return Transient
	default:
		return Lifetime(-1)
	}
}
