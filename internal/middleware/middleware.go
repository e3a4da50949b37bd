// Package middleware provides HTTP middleware components for the gateway
// including CORS, logging, metrics, security headers, and request validation.
package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/arnaudderison/logtime19/internal/config"
	"github.com/arnaudderison/logtime19/internal/constants"
	"github.com/arnaudderison/logtime19/internal/metrics"
	"github.com/arnaudderison/logtime19/internal/models"
	"github.com/arnaudderison/logtime19/pkg/logger"
)

const (
	// HTTPClientError minimum status code (4xx).
	HTTPClientError = 400
	// HTTPServerError minimum status code (5xx).
	HTTPServerError = 500
	// CORSMaxAge is the preflight cache duration in seconds.
	CORSMaxAge = 600
	// unmatchedRoute labels requests no route matched.
	unmatchedRoute = "unmatched"
)

// contextKey is an unexported type for keys stored in context to avoid collisions.
type contextKey string

// requestIDKey is the context key used to store the request ID.
const requestIDKey contextKey = "request_id"

// Stack holds all middleware dependencies and provides
// methods to create HTTP middleware handlers.
type Stack struct {
	allowedOrigin string
	metrics       *metrics.Metrics
	logger        *logrus.Logger
	cors          func(http.Handler) http.Handler
}

// NewStack creates a new middleware stack. m may be nil when metrics are
// disabled.
func NewStack(cfg *config.Config, m *metrics.Metrics, logger *logrus.Logger) *Stack {
	origin := cfg.AllowedOrigin()
	return &Stack{
		allowedOrigin: origin,
		metrics:       m,
		logger:        logger,
		cors: handlers.CORS(
			handlers.AllowedOrigins([]string{origin}),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
			handlers.AllowedHeaders([]string{constants.HeaderAuthorization, constants.HeaderContentType}),
			handlers.ExposedHeaders([]string{constants.HeaderXRequestID}),
			handlers.MaxAge(CORSMaxAge),
			handlers.OptionStatusCode(http.StatusNoContent),
		),
	}
}

// Chain applies multiple middleware functions to an HTTP handler.
func (m *Stack) Chain(h http.Handler, middleware ...func(http.Handler) http.Handler) http.Handler {
	for i := range middleware {
		h = middleware[len(middleware)-1-i](h)
	}
	return h
}

// RequestID returns the request ID stored by RequestLogger, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// RequestLogger logs HTTP requests with structured logging including
// request details, response status, and processing duration.
func (m *Stack) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := requestIDFrom(r)
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)

		// Also store the correlation ID using the logger's correlation ID system
		ctx = logger.SetCorrelationID(ctx, requestID)
		r = r.WithContext(ctx)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		wrapped.Header().Set(constants.HeaderXRequestID, requestID)

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)

		logEntry := logger.WithCorrelationID(r.Context(), m.logger)
		fields := logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      wrapped.statusCode,
			"duration":    duration.String(),
			"duration_ms": duration.Milliseconds(),
			"remote_addr": getClientIP(r),
			"user_agent":  r.UserAgent(),
		}

		if origin := r.Header.Get(constants.HeaderOrigin); origin != "" {
			fields["origin"] = origin
		}

		level := logrus.InfoLevel
		if wrapped.statusCode >= HTTPClientError {
			level = logrus.WarnLevel
		}
		if wrapped.statusCode >= HTTPServerError {
			level = logrus.ErrorLevel
		}

		logEntry.WithFields(fields).Log(level, "HTTP request processed")
	})
}

// Metrics records request count and latency per route template. It must be
// installed with mux.Router.Use so the matched route is known.
func (m *Stack) Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		m.metrics.ObserveRequest(r.Method, routeTemplate(r), wrapped.statusCode, time.Since(start))
	})
}

func routeTemplate(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return unmatchedRoute
	}
	tpl, err := route.GetPathTemplate()
	if err != nil {
		return unmatchedRoute
	}
	return tpl
}

// CORS rejects requests whose Origin names anything but the UI with 403,
// then lets gorilla/handlers answer preflights and set the CORS headers.
// Requests without an Origin header pass through untouched.
func (m *Stack) CORS(next http.Handler) http.Handler {
	withHeaders := m.cors(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get(constants.HeaderOrigin)
		if origin != "" && origin != m.allowedOrigin {
			logger.WithCorrelationID(r.Context(), m.logger).WithFields(logrus.Fields{
				"origin": origin,
				"path":   r.URL.Path,
			}).Warn("Rejected cross-origin request")
			m.writeError(w, models.NewForbiddenOrigin(origin))
			return
		}
		withHeaders.ServeHTTP(w, r)
	})
}

// SecurityHeaders adds security-related HTTP headers to responses.
func (m *Stack) SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")

		// JSON only, nothing to render
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		// HSTS header for HTTPS
		if r.TLS != nil {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

// Recovery recovers from panics and logs them while returning a proper error response.
func (m *Stack) Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logEntry := logger.WithCorrelationID(r.Context(), m.logger)

				logEntry.WithFields(logrus.Fields{
					"method": r.Method,
					"path":   r.URL.Path,
					"panic":  err,
				}).Error("Panic recovered")

				m.writeError(w, models.NewServerError("An unexpected error occurred"))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// ContentType requires a JSON Content-Type on POST requests carrying a body.
func (m *Stack) ContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.ContentLength != 0 {
			contentType := r.Header.Get(constants.HeaderContentType)
			if !strings.HasPrefix(strings.ToLower(contentType), constants.ContentTypeJSON) {
				m.writeError(w, models.NewUnsupportedMediaType("Content-Type must be application/json"))
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func (m *Stack) writeError(w http.ResponseWriter, apiErr *models.APIError) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(apiErr.StatusCode)
	if err := json.NewEncoder(w).Encode(apiErr); err != nil {
		m.logger.WithError(err).Error("Failed to encode error response")
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter

	statusCode  int
	wroteHeader bool
}

// WriteHeader captures the status code.
func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

// requestIDFrom keeps an incoming X-Request-ID when it is a UUID and
// generates a new one otherwise.
func requestIDFrom(r *http.Request) string {
	if incoming := r.Header.Get(constants.HeaderXRequestID); incoming != "" {
		if id, err := uuid.Parse(incoming); err == nil {
			return id.String()
		}
	}
	return uuid.NewString()
}

// getClientIP extracts the real client IP address from various headers.
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header (load balancers, proxies)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}

	// Check X-Real-IP header (nginx, some proxies)
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
