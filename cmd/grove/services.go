package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ARTM2000/grove"
	"github.com/ARTM2000/grove/loader"
)

// catalog returns the built-in factories descriptors can refer to.
func catalog(cfg *Config, log *zap.Logger, reg *prometheus.Registry) loader.Catalog {
	return loader.Catalog{
		"config":  func() *Config { return cfg },
		"logger":  func() *zap.Logger { return log },
		"metrics": func() *prometheus.Registry { return reg },
		"router":  newRouter,
		"http":    newHTTPServer,
	}
}

// registerDefaults wires the built-in services when no descriptor directory
// is given.
func registerDefaults(c grove.Container, cat loader.Catalog) error {
	regs := []struct {
		name string
		deps []string
	}{
		{"config", nil},
		{"logger", nil},
		{"metrics", nil},
		{"router", []string{"metrics"}},
		{"http", []string{"config", "logger", "router"}},
	}

	for _, r := range regs {
		if err := c.Register(r.name, cat[r.name], grove.WithDependencies(r.deps...)); err != nil {
			return err
		}
	}

	return nil
}

func newRouter(d grove.Deps) (http.Handler, error) {
	reg, err := grove.Dep[*prometheus.Registry](d, "metrics")
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return r, nil
}

// httpServer is started and stopped by the container.
type httpServer struct {
	srv *http.Server
	log *zap.Logger
}

func newHTTPServer(d grove.Deps) (*httpServer, error) {
	cfg, err := grove.Dep[*Config](d, "config")
	if err != nil {
		return nil, err
	}
	log, err := grove.Dep[*zap.Logger](d, "logger")
	if err != nil {
		return nil, err
	}
	handler, err := grove.Dep[http.Handler](d, "router")
	if err != nil {
		return nil, err
	}

	return &httpServer{
		srv: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}, nil
}

// Start binds the listener before returning so dependents only see a
// server that accepts connections.
func (s *httpServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}

	s.log.Info("http server listening", zap.String("addr", ln.Addr().String()))

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server failed", zap.Error(err))
		}
	}()

	return nil
}

func (s *httpServer) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
