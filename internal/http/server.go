package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"taxilog/internal/core"
	applog "taxilog/internal/log"
	"taxilog/internal/metrics"
	"taxilog/internal/middleware/ratelimit"
	"taxilog/internal/middleware/security"
	"taxilog/internal/middleware/trace"
	"taxilog/internal/telemetry"
)

// Engine is the part of metrics.Engine the API needs.
type Engine interface {
	Compute(ctx context.Context, driverID, period string) (metrics.Report, error)
	ComputeAt(ctx context.Context, driverID, period string, at time.Time) (metrics.Report, error)
	Location() *time.Location
	DefaultPeriod() core.Period
	Ping(ctx context.Context) error
}

// Options configures NewServer.
type Options struct {
	Addr               string
	RateLimitPerMinute int
	// TrustedProxies are CIDRs, on top of the private ranges, whose
	// forwarding headers are believed.
	TrustedProxies []string
	Logger         *applog.Logger
	Telemetry      *telemetry.Recorder
	// ReadyTimeout bounds the store ping behind /readyz.
	ReadyTimeout time.Duration
}

// Server is the API server. Shutdown also stops the rate limiter.
type Server struct {
	http.Server
	engine       Engine
	logger       *applog.Logger
	telemetry    *telemetry.Recorder
	limiter      *ratelimit.Limiter
	readyTimeout time.Duration
	shutdownOnce sync.Once
}

var routes = map[string]bool{
	"/api/metrics": true,
	"/api/periods": true,
	"/healthz":     true,
	"/readyz":      true,
	"/metrics":     true,
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(opts Options, engine Engine) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	clientIP, err := security.NewClientIP(opts.TrustedProxies...)
	if err != nil {
		return nil, err
	}

	readyTimeout := opts.ReadyTimeout
	if readyTimeout <= 0 {
		readyTimeout = 3 * time.Second
	}

	s := &Server{
		engine:       engine,
		logger:       logger,
		telemetry:    opts.Telemetry,
		limiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		readyTimeout: readyTimeout,
	}

	limited := s.limiter.Middleware(clientIP.Extract, func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).
			WarnContext(r.Context(), "Rate limit exceeded", applog.FieldClientIP, clientIP.Extract(r), applog.FieldPath, r.URL.Path)
		TooManyRequestsError().Write(w)
	})

	mux := http.NewServeMux()
	mux.Handle("GET /api/metrics", limited(http.HandlerFunc(s.handleMetrics)))
	mux.Handle("GET /api/periods", limited(http.HandlerFunc(s.handlePeriods)))
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.telemetry.Handler())

	tracer := trace.NewMiddleware(trace.Options{
		ExtractIP: clientIP.Extract,
		Route:     routeLabel,
		Logger:    logger,
		Observe:   s.telemetry.ObserveHTTP,
	})
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           applog.Middleware(logger)(tracer.Middleware(headers.Middleware(mux))),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Shutdown gracefully shuts down the server and the limiter cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// routeLabel keeps the request counter's path label bounded.
func routeLabel(r *http.Request) string {
	if routes[r.URL.Path] {
		return r.URL.Path
	}
	return "other"
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.readyTimeout)
	defer cancel()

	if err := s.engine.Ping(ctx); err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed",
			applog.FieldError, err, applog.FieldOperation, applog.OpPing)
		ErrorResponse(http.StatusServiceUnavailable, "record store unavailable", err.Error()).Write(w)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
