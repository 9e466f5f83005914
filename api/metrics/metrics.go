// Package metrics holds the prometheus instrumentation for the API server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BuildInfo is set once at startup from the LDFLAGS version info.
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "jalapeno_api_build_info",
		Help: "Build information of the running binary",
	}, []string{"version", "commit", "date"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "jalapeno_api_request_duration_seconds",
		Help:    "HTTP request latency by route and status",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	graphQueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "jalapeno_api_graph_query_duration_seconds",
		Help:    "ArangoDB query latency",
		Buckets: prometheus.DefBuckets,
	})

	graphQueryErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jalapeno_api_graph_query_errors_total",
		Help: "ArangoDB queries that returned an error",
	})
)

// Middleware records per-request durations labeled with the chi route
// pattern, so path parameters do not explode cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		requestDuration.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).
			Observe(time.Since(start).Seconds())
	})
}

// RecordGraphQuery observes one graph-store query. Wired into the ArangoDB
// client as its query observer.
func RecordGraphQuery(d time.Duration, err error) {
	graphQueryDuration.Observe(d.Seconds())
	if err != nil {
		graphQueryErrors.Inc()
	}
}
