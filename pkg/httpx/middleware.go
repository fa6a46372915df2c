package httpx

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/regalator/wms/pkg/logger"
)

// statusWriter wraps http.ResponseWriter to capture the status code
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// RegisterMiddlewares attaches the standard middleware chain to the router:
// recovery, timeout, request id, structured logging, tracing.
func RegisterMiddlewares(router *mux.Router, serviceName string, timeout time.Duration) {
	router.Use(RecoveryMiddleware())
	router.Use(TimeoutMiddleware(timeout))
	router.Use(RequestIDMiddleware())
	router.Use(LoggingMiddleware)
	router.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, serviceName+"-http-request")
	})
}

// RecoveryMiddleware recovers from panics and returns 500
func RecoveryMiddleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Logger.Error().
						Interface("panic", err).
						Str("method", r.Method).
						Str("path", r.URL.Path).
						Msg("Panic recovered")

					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// TimeoutMiddleware sets a timeout for HTTP requests
func TimeoutMiddleware(timeout time.Duration) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, "Request timeout")
	}
}

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.NewString()
			}

			w.Header().Set("X-Request-ID", requestID)
			r.Header.Set("X-Request-ID", requestID)

			next.ServeHTTP(w, r)
		})
	}
}

// LoggingMiddleware logs every request with method, path, status and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		duration := time.Since(start)

		logEvent := logger.Info(r.Context())
		if sw.status >= 500 {
			logEvent = logger.Error(r.Context())
		} else if sw.status >= 400 {
			logEvent = logger.Warn(r.Context())
		}

		logEvent.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.status).
			Dur("duration", duration).
			Str("request_id", r.Header.Get("X-Request-ID")).
			Msg("Request completed")
	})
}
