package http

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	context_ "github.com/mkrupp/chatapp/internal/infra/context"
	"github.com/mkrupp/chatapp/internal/infra/logging"
)

// TraceIDHeader carries the request trace id in both directions.
const TraceIDHeader = "X-Request-ID"

// Middleware wraps handler with tracing, access logging and panic recovery,
// outermost first.
func Middleware(handler http.Handler, log logging.Logger) http.Handler {
	return TracingMiddleware(LoggingMiddleware(RecoveringMiddleware(handler, log), log))
}

// TracingMiddleware puts the caller's X-Request-ID, or a fresh trace id, into
// the request context and echoes it in the response.
func TracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(TraceIDHeader)
		if traceID == "" {
			traceID = context_.NewTraceID()
		}

		w.Header().Set(TraceIDHeader, traceID)

		next.ServeHTTP(w, r.WithContext(context_.WithTraceID(r.Context(), traceID)))
	})
}

// LoggingMiddleware logs one entry per response. 5xx responses log as errors,
// 4xx as warnings. Query strings are left out since they carry credentials.
func LoggingMiddleware(next http.Handler, log logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		level := logging.LevelInfo

		switch {
		case status >= http.StatusInternalServerError:
			level = logging.LevelError
		case status >= http.StatusBadRequest:
			level = logging.LevelWarn
		}

		log.Log(r.Context(), level, "response", slog.Group("http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		))
	})
}

// RecoveringMiddleware turns a handler panic into a logged 500 response.
func RecoveringMiddleware(next http.Handler, log logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			p := recover()
			if p == nil {
				return
			}

			if p == http.ErrAbortHandler { //nolint:errorlint,err113
				panic(p)
			}

			log.ErrorContext(r.Context(), "request panic",
				slog.Group("http", "method", r.Method, "path", r.URL.Path),
				slog.Group("error", "panic", p, "stack", string(debug.Stack())),
			)

			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}
