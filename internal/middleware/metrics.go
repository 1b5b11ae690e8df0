package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"lingoclass/internal/httputil"
	"lingoclass/internal/metrics"
)

const requestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// RouteMatcher resolves the registered pattern for a request. *http.ServeMux
// satisfies it.
type RouteMatcher interface {
	Handler(r *http.Request) (http.Handler, string)
}

// Metrics tags each request with an ID and records count and latency per
// route pattern. Raw paths are never used as labels.
func Metrics(m *metrics.Metrics, routes RouteMatcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, id)
			r = httputil.WithRequestID(r, id)

			route := "unmatched"
			if _, pattern := routes.Handler(r); pattern != "" {
				route = pattern
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r)

			m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}
