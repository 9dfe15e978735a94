package grove

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Shared test types and factories used across test files.

// mustRegister calls t.Fatal if registration fails.
func mustRegister(t *testing.T, c Container, name string, factory any, opts ...Option) {
	t.Helper()
	require.NoError(t, c.Register(name, factory, opts...), "Register(%q)", name)
}

// mustGet awaits the named service with a generous deadline.
func mustGet(t *testing.T, c Container, name string) any {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	v, err := c.Get(name).Await(ctx)
	require.NoError(t, err, "Get(%q)", name)
	return v
}

// getErr awaits the named service and returns its error.
func getErr(t *testing.T, c Container, name string) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := c.Get(name).Await(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded, "Get(%q) did not complete", name)
	return err
}

type testLogger struct{ Prefix string }
type testConfig struct{ DSN string }

type testDatabase struct {
	Config *testConfig
	Logger *testLogger
}

type testUserRepo struct {
	DB     *testDatabase
	Logger *testLogger
}

type testUserService struct {
	Repo   *testUserRepo
	Logger *testLogger
}

func (s *testUserService) Name() string { return "user" }

func newTestLogger() *testLogger { return &testLogger{Prefix: "app"} }
func newTestConfig() *testConfig { return &testConfig{DSN: "postgres://localhost"} }

func newTestDatabase(d Deps) (*testDatabase, error) {
	cfg, err := Dep[*testConfig](d, "config")
	if err != nil {
		return nil, err
	}
	log, err := Dep[*testLogger](d, "logger")
	if err != nil {
		return nil, err
	}
	return &testDatabase{Config: cfg, Logger: log}, nil
}

func newTestUserRepo(d Deps) *testUserRepo {
	return &testUserRepo{DB: MustDep[*testDatabase](d, "db"), Logger: MustDep[*testLogger](d, "logger")}
}

func newTestUserService(d Deps) *testUserService {
	return &testUserService{Repo: MustDep[*testUserRepo](d, "repo"), Logger: MustDep[*testLogger](d, "logger")}
}

// registerUserApp registers the layered user application used by several
// tests: service -> repo -> db -> (config, logger).
func registerUserApp(t *testing.T, c Container) {
	t.Helper()
	mustRegister(t, c, "logger", newTestLogger)
	mustRegister(t, c, "config", newTestConfig)
	mustRegister(t, c, "db", newTestDatabase, WithDependencies("config", "logger"))
	mustRegister(t, c, "repo", newTestUserRepo, WithDependencies("db", "logger"))
	mustRegister(t, c, "service", newTestUserService, WithDependencies("repo", "logger"))
}

// counter returns a factory that counts its invocations and builds a fresh
// *testLogger each time.
func counter(calls *atomic.Int32) func() *testLogger {
	return func() *testLogger {
		calls.Add(1)
		return &testLogger{Prefix: "counted"}
	}
}

// delayed returns a factory that sleeps for d before producing v.
func delayed(d time.Duration, v any) func() any {
	return func() any {
		time.Sleep(d)
		return v
	}
}

// recorder collects names in call order.
type recorder struct {
	mu    sync.Mutex
	names []string
}

func (r *recorder) add(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, name)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

// testServer implements Starter and Stopper.
type testServer struct {
	name     string
	started  atomic.Bool
	stopped  atomic.Bool
	startErr error
	stopErr  error

	// startGate, when set, blocks Start until closed.
	startGate chan struct{}
	// stopDelay makes Stop wait before returning, honoring ctx.
	stopDelay time.Duration

	order *recorder
}

func (s *testServer) Start(ctx context.Context) error {
	if s.startGate != nil {
		<-s.startGate
	}
	if s.startErr != nil {
		return s.startErr
	}
	s.started.Store(true)
	return nil
}

func (s *testServer) Stop(ctx context.Context) error {
	if s.order != nil {
		s.order.add(s.name)
	}
	if s.stopDelay > 0 {
		select {
		case <-time.After(s.stopDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if s.stopErr != nil {
		return s.stopErr
	}
	s.stopped.Store(true)
	return nil
}

// callbackServer implements CallbackStarter and CallbackStopper.
type callbackServer struct {
	started  atomic.Bool
	stopped  atomic.Bool
	startErr error
}

func (s *callbackServer) Start(done func(error)) {
	go func() {
		time.Sleep(10 * time.Millisecond)
		if s.startErr != nil {
			done(s.startErr)
			return
		}
		s.started.Store(true)
		done(nil)
	}()
}

func (s *callbackServer) Stop(done func(error)) {
	s.stopped.Store(true)
	done(nil)
}

var errBoom = errors.New("boom")
