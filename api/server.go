package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/thisisjab/herdcomp/autocomplete"
	"github.com/thisisjab/herdcomp/executor"
	"github.com/thisisjab/herdcomp/metrics"
)

// Pinger reports whether the storage behind the executor is reachable.
type Pinger interface {
	Name() string
	Connect(ctx context.Context) error
}

// Services are the components the handlers call into.
type Services struct {
	Executor     *executor.Executor
	Autocomplete *autocomplete.Engine
	Metrics      *metrics.Metrics

	// Storage backs the healthcheck. Nil always reports healthy.
	Storage Pinger

	// Gatherer serves /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

type server struct {
	cfg      Config
	logger   *slog.Logger
	services Services
}

func NewServer(cfg Config, logger *slog.Logger, services Services) (*server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if services.Autocomplete == nil {
		services.Autocomplete = autocomplete.New()
	}

	return &server{
		cfg:      cfg,
		logger:   logger,
		services: services,
	}, nil
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()

	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, s.instrument(pattern, h))
	}

	handle("GET /api/healthcheck", s.healthCheckHandler)
	handle("GET /api/sections", s.sectionsHandler)
	handle("POST /api/commands/parse", s.parseHandler)
	handle("POST /api/commands/suggest", s.suggestHandler)
	handle("POST /api/commands/complete", s.completeHandler)
	handle("POST /api/commands/highlight", s.highlightHandler)
	handle("POST /api/commands/execute", s.requireSession(s.executeHandler))

	if s.services.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.services.Gatherer, promhttp.HandlerOpts{}))
	}

	return s.recoverPanicMiddleware(s.requestIDMiddleware(s.requestLoggerMiddleware(s.corsMiddleware(s.sessionMiddleware(mux)))))
}

func (s *server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.routes(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info("shutting down server", "addr", s.cfg.Addr)
		if err := srv.Shutdown(context.WithoutCancel(ctx)); err != nil {
			s.logger.Error("failed to shutdown server", "addr", s.cfg.Addr, "error", err)
		}
	}()

	var serverErr error
	if s.cfg.CertFile != "" && s.cfg.KeyFile != "" {
		s.logger.Info("starting server with TLS", "addr", s.cfg.Addr)
		serverErr = srv.ListenAndServeTLS(s.cfg.CertFile, s.cfg.KeyFile)
	} else {
		s.logger.Info("starting server without TLS", "addr", s.cfg.Addr)
		serverErr = srv.ListenAndServe()
	}

	if serverErr != nil && serverErr != http.ErrServerClosed {
		return serverErr
	}

	return nil
}
