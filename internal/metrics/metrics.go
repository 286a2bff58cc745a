// Package metrics holds the process-wide Prometheus registry every
// other package's MustRegister(reg) call wires into (internal/webhook,
// internal/gateway). Grounded on internal/webhook/worker.go's per-
// package metrics convention: this package only owns the registry and
// the HTTP exposition handler, not any domain-specific collector.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry builds a fresh Prometheus registry with the standard Go
// runtime and process collectors, matching promauto's default registry
// shape without relying on the global DefaultRegisterer (so tests and
// multiple in-process servers never collide on metric names).
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())
	reg.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	return reg
}

// Handler exposes reg on the conventional /metrics path.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
