// Package httpmw holds the chi middleware stack shared by the front-end and
// the backend routers.
package httpmw

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/artpar/newsdemo/adapters/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const defaultTimeout = 60 * time.Second

// Install adds request ids, real IP, request observation, panic recovery
// and a request timeout. m may be nil.
func Install(r chi.Router, logger zerolog.Logger, m *metrics.Collector, timeout time.Duration) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		Observe(logger, m),
		middleware.Recoverer,
		middleware.Timeout(timeout),
	)
}

// Observe logs each request at debug level and, when m is set, records
// count, duration and the in-flight gauge. Health, metrics and swagger
// paths pass through untouched.
func Observe(logger zerolog.Logger, m *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if quiet(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			if m != nil {
				m.RequestsInFlight.Inc()
				defer m.RequestsInFlight.Dec()
			}

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			took := time.Since(start)

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", took).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")

			if m != nil {
				labels := []string{r.Method, metrics.NormalizePath(r.URL.Path), StatusLabel(ww.Status())}
				m.RequestsTotal.WithLabelValues(labels...).Inc()
				m.RequestDuration.WithLabelValues(labels...).Observe(took.Seconds())
			}
		})
	}
}

func quiet(path string) bool {
	return path == "/metrics" || strings.HasPrefix(path, "/health") || strings.HasPrefix(path, "/swagger")
}

// StatusLabel buckets a status code, e.g. 404 becomes "4xx".
func StatusLabel(status int) string {
	switch {
	case status == 0:
		// Nothing written means net/http sends 200.
		return "2xx"
	case status < 100 || status > 599:
		return "other"
	}
	return strconv.Itoa(status/100) + "xx"
}
