package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"todo-api/internal/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todoapp_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "todoapp_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// requestLogger writes a Started trace before the rest of the chain runs and
// a Finished trace after it returns, even if it panics.
func requestLogger(now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			method, path := r.Method, r.URL.Path

			logger.Info(r.Context(), trace(method, path, now(), "Started"))
			defer func() {
				logger.Info(r.Context(), trace(method, path, now(), "Finished"), "status", status(ww))
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

func trace(method, path string, at time.Time, event string) string {
	return fmt.Sprintf("[%s %s %s] %s.", method, path, at.UTC().Format(time.RFC3339Nano), event)
}

// status reports 200 when the handler never wrote a header, as net/http does.
func status(ww middleware.WrapResponseWriter) int {
	if ww.Status() == 0 {
		return http.StatusOK
	}
	return ww.Status()
}

func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		httpRequestCount.WithLabelValues(r.Method, route, strconv.Itoa(status(ww))).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// redirectTasks answers /tasks/<rest> with a redirect to /todos/<rest>.
func redirectTasks(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rest, ok := strings.CutPrefix(r.URL.EscapedPath(), "/tasks/")
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		target := "/todos/" + rest
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, target, http.StatusFound)
	})
}
