// Package trace assigns request ids and logs every API request.
package trace

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	applog "taxilog/internal/log"
)

// ContextKey type for context keys
type ContextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey ContextKey = "request_id"

	// HeaderRequestID is read from callers and echoed on every response.
	HeaderRequestID = "X-Request-ID"

	maxRequestIDLen = 64
)

// Observer is told the route and final status of each request.
type Observer func(route string, status int)

// Middleware handles request tracing and logging
type Middleware struct {
	extractIP func(*http.Request) string
	route     func(*http.Request) string
	logger    *applog.StructuredLogger
	observe   Observer
}

// Options configures NewMiddleware. Every field is optional.
type Options struct {
	ExtractIP func(*http.Request) string
	// Route maps a request to a low-cardinality label for Observer.
	// Defaults to the URL path.
	Route   func(*http.Request) string
	Logger  *applog.Logger
	Observe Observer
}

// NewMiddleware creates a new trace middleware
func NewMiddleware(opts Options) *Middleware {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	route := opts.Route
	if route == nil {
		route = func(r *http.Request) string { return r.URL.Path }
	}
	return &Middleware{
		extractIP: opts.ExtractIP,
		route:     route,
		logger:    applog.NewStructuredLogger(logger),
		observe:   opts.Observe,
	}
}

// Middleware returns HTTP middleware for request tracing. The request
// context carries the id and a logger tagged with it.
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		requestID := r.Header.Get(HeaderRequestID)
		if !validRequestID(requestID) {
			requestID = GenerateRequestID()
		}
		w.Header().Set(HeaderRequestID, requestID)

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		logger := applog.FromContext(ctx).With(applog.FieldRequestID, requestID)
		ctx = applog.IntoContext(ctx, logger)
		r = r.WithContext(ctx)

		logger.DebugContext(ctx, "HTTP request started",
			applog.NewFields().
				WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
				WithClientIP(clientIP).
				ToSlice()...)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		m.logger.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
		if m.observe != nil {
			m.observe(m.route(r), rw.statusCode)
		}
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

// GenerateRequestID creates a unique request ID for tracing
func GenerateRequestID() string {
	return "req_" + uuid.NewString()
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// validRequestID accepts short ids made of letters, digits, '-', '_' and '.'.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}
