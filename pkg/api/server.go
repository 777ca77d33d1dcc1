package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dd0wney/cluso-genremap/pkg/api/middleware"
	"github.com/dd0wney/cluso-genremap/pkg/catalog"
	"github.com/dd0wney/cluso-genremap/pkg/health"
	"github.com/dd0wney/cluso-genremap/pkg/logging"
	"github.com/dd0wney/cluso-genremap/pkg/metrics"
)

// NewServer creates a server for the given store.
func NewServer(store *catalog.Store, cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.DefaultRegistry()
	}
	if cfg.Health == nil {
		cfg.Health = health.NewHealthChecker()
	}
	if cfg.MetricsInterval <= 0 {
		cfg.MetricsInterval = DefaultMetricsInterval
	}

	s := &Server{
		store:           store,
		healthChecker:   cfg.Health,
		metricsRegistry: cfg.Metrics,
		logger:          cfg.Logger.With(logging.Component("api")),
		tlsEnabled:      cfg.TLSEnabled,
		startTime:       time.Now(),
		metricsInterval: cfg.MetricsInterval,
		metricsStopCh:   make(chan struct{}),
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Page and its assets
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.Handle("GET /static/js/", http.FileServerFS(staticFS))

	// Artifacts and lookups
	mux.HandleFunc("GET /static/data/points.json", s.handlePoints)
	mux.HandleFunc("GET /static/data/edges.json", s.handleEdges)
	mux.HandleFunc("GET /api/genre/{id}", s.handleGenre)

	// Health and metrics
	mux.Handle("GET /health", s.healthChecker.HTTPHandler())
	mux.Handle("GET /health/ready", s.healthChecker.ReadinessHandler())
	mux.Handle("GET /health/live", s.healthChecker.LivenessHandler())
	mux.Handle("GET /metrics", promhttp.HandlerFor(
		s.metricsRegistry.GetPrometheusRegistry(),
		promhttp.HandlerOpts{},
	))

	var handler http.Handler = mux
	handler = middleware.Metrics(s.metricsRegistry)(handler)
	handler = middleware.SecurityHeaders(&middleware.SecurityHeadersConfig{TLSEnabled: s.tlsEnabled})(handler)
	handler = middleware.Logging(s.logger, middleware.GetRequestID)(handler)
	handler = middleware.RequestID()(handler)
	handler = middleware.PanicRecovery(s.logger)(handler)
	return handler
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown. A clean shutdown returns nil.
func (s *Server) Serve(ln net.Listener) error {
	s.startMetrics()
	s.logger.Info("http server listening", logging.String("addr", ln.Addr().String()))

	err := s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.StopMetrics()
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) startMetrics() {
	s.metricsRegistry.UpdateSystemMetrics()
	s.metricsWg.Add(1)
	go s.updateMetricsPeriodically()
}

// updateMetricsPeriodically refreshes system gauges until StopMetrics.
func (s *Server) updateMetricsPeriodically() {
	defer s.metricsWg.Done()

	ticker := time.NewTicker(s.metricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.metricsStopCh:
			return
		case <-ticker.C:
			s.metricsRegistry.UpdateSystemMetrics()
		}
	}
}

// StopMetrics stops the system metrics goroutine and waits for it to exit.
// It is safe to call more than once.
func (s *Server) StopMetrics() {
	s.stopOnce.Do(func() {
		close(s.metricsStopCh)
	})
	s.metricsWg.Wait()
}
