package middleware

import (
	"net/http"
	"strconv"
	"time"

	"groupevents/internal/metrics"
)

// Metrics records request counts and latency by matched route.
// The route label is the ServeMux pattern, so path parameters do not blow up cardinality.
func Metrics(m *metrics.HTTPMetrics, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := wrap(w)
		next.ServeHTTP(wrapped, r)

		rt := route(r)
		m.Requests.WithLabelValues(r.Method, rt, strconv.Itoa(wrapped.status)).Inc()
		m.Duration.WithLabelValues(r.Method, rt).Observe(time.Since(start).Seconds())
	})
}
