package gateway

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics mirrors internal/webhook/worker.go's per-package Prometheus
// convention: a package-level collector set plus a MustRegister(reg)
// entry point, here covering the proxy's request outcomes and latency
// instead of the dispatcher's delivery attempts.
var (
	proxyRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mycelium",
		Subsystem: "gateway",
		Name:      "proxy_requests_total",
		Help:      "Proxied requests by service and HTTP status class.",
	}, []string{"service", "status_class"})

	proxyDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mycelium",
		Subsystem: "gateway",
		Name:      "proxy_request_duration_seconds",
		Help:      "Time spent proxying a request to its downstream service.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"service"})
)

// MustRegister registers the package's metrics with reg. A nil reg is a
// no-op, matching internal/webhook.MustRegister's test-friendly shape.
func MustRegister(reg *prometheus.Registry) {
	if reg == nil {
		return
	}
	reg.MustRegister(proxyRequestsTotal, proxyDuration)
}

func observeProxyOutcome(service string, status int, start time.Time) {
	proxyRequestsTotal.WithLabelValues(service, statusClass(status)).Inc()
	proxyDuration.WithLabelValues(service).Observe(time.Since(start).Seconds())
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
