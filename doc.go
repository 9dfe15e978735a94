// Package grove provides a dependency injection container that resolves
// named services asynchronously and coordinates their startup and shutdown.
//
// Services are registered by name with a factory and the names of the
// services they depend on. Requesting a service resolves its dependencies
// concurrently, calls the factory with them, and waits for the result to be
// ready before handing it out.
//
// # Quick Start
//
//	c := grove.New()
//	c.Register("config", NewConfig)
//	c.Register("db", NewDatabase, grove.WithDependencies("config"))
//
//	db, err := grove.Resolve[*Database](ctx, c, "db")
//
// # Factories
//
// A factory is func() T, func() (T, error), func(Deps) T or
// func(Deps) (T, error). [Deps] maps each declared dependency name to its
// instance; use [Dep] to read one with its type.
//
// What a factory returns decides when the service is ready:
//
//   - an [Awaitable], such as a [*Future] from [Go]: ready once it completes,
//     with its value as the instance;
//   - a [Starter] or [CallbackStarter]: ready once Start succeeds;
//   - anything else, nil included: ready immediately.
//
// # Lifetimes
//
// [Singleton] (default): at most one construction per container. Callers
// that arrive while it is still being built share the same [Future].
//
// [Transient]: a fresh instance, dependencies included, on every
// [Container.Get].
//
//	c.Register("request", NewRequest, grove.WithLifetime(grove.Transient))
//
// # Shutdown
//
// Instances implementing [Stopper], [CallbackStopper] or [io.Closer] are
// recorded when they become ready. [Container.Shutdown] stops them in reverse order, one at
// a time, each bounded by the stop timeout. A failing or hanging stop is
// logged and skipped so the rest still get stopped.
//
//	c.StopOn(syscall.SIGINT, syscall.SIGTERM)
//	<-c.Stopped()
package grove
