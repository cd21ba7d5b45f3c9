package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"rangestream/internal/observability"
)

type ActivityNotifier interface {
	NotifyActivity()
}

// WithLogging logs one line per request and reports it to monitor, if any.
func WithLogging(logger *slog.Logger, monitor ActivityNotifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// keeps the idle shutdown timer from firing
			if monitor != nil {
				monitor.NotifyActivity()
			}

			serveRecorded(w, r, next, func(rec *responseRecorder, elapsed time.Duration) {
				level := slog.LevelDebug
				if rec.aborted {
					level = slog.LevelWarn
				}

				logger.Log(r.Context(), level, "request",
					"id", RequestID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"range", r.Header.Get("Range"),
					"remote", r.RemoteAddr,
					"status", rec.Status(),
					"bytes", rec.written,
					"aborted", rec.aborted,
					"duration_ms", elapsed.Milliseconds(),
				)
			})
		})
	}
}

func WithObservability() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			serveRecorded(w, r, next, func(rec *responseRecorder, elapsed time.Duration) {
				// the mux pattern keeps label cardinality bounded, unlike the raw path
				route := r.Pattern
				if route == "" {
					route = "unmatched"
				}

				status := strconv.Itoa(rec.Status())
				if rec.aborted {
					status = "aborted"
				}

				observability.RequestDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())
				observability.RequestsTotal.WithLabelValues(r.Method, route, status).Inc()
			})
		})
	}
}
