package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	traceIDKey
)

// TraceHeader carries the request trace id in both directions
const TraceHeader = "X-Trace-ID"

// RequestObserver receives one call per finished request
type RequestObserver interface {
	ObserveRequest(route, method string, status int, elapsed time.Duration)
}

// LoggerMiddleware attaches a trace id and a request scoped logger to every
// request and logs its start and finish.
func LoggerMiddleware(logger *slog.Logger, observer RequestObserver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// honour a caller supplied trace id only when it is a uuid
			traceID := r.Header.Get(TraceHeader)
			if _, err := uuid.Parse(traceID); err != nil {
				traceID = uuid.New().String()
			}
			w.Header().Set(TraceHeader, traceID)

			reqLogger := logger.With("trace_id", traceID)
			httpLogger := reqLogger.With(
				"http_method", r.Method,
				"http_path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)

			ctx := context.WithValue(r.Context(), loggerKey, reqLogger)
			ctx = context.WithValue(ctx, traceIDKey, traceID)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			httpLogger.Debug("request started")

			next.ServeHTTP(ww, r.WithContext(ctx))

			elapsed := time.Since(start)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			httpLogger.Info("request finished",
				"status_code", status,
				"bytes_written", ww.BytesWritten(),
				"duration_ms", elapsed.Milliseconds(),
			)

			if observer != nil {
				observer.ObserveRequest(routePattern(r), r.Method, status, elapsed)
			}
		})
	}
}

// routePattern keeps metric labels bounded by using the matched chi pattern
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// LoggerFromContext returns the request logger, or the default logger outside
// a request.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// TraceIDFromContext returns the trace id of the current request
func TraceIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey).(string)
	return id
}
