// Package observability exposes request metrics on /metrics.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Provider struct {
	registry           *prometheus.Registry
	httpRequestCounter *prometheus.CounterVec
	httpRequestLatency *prometheus.HistogramVec
}

func Setup() *Provider {
	registry := prometheus.NewRegistry()

	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_http_requests_total",
		Help: "HTTP requests processed, by method, route and status.",
	}, []string{"method", "route", "status"})

	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_http_request_duration_seconds",
		Help:    "HTTP request latency, by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	registry.MustRegister(counter, latency)

	return &Provider{
		registry:           registry,
		httpRequestCounter: counter,
		httpRequestLatency: latency,
	}
}

// RecordHTTPRequest observes one completed request.
func (p *Provider) RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if p == nil {
		return
	}
	p.httpRequestCounter.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpRequestLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler returns the /metrics endpoint handler.
func (p *Provider) Handler() http.Handler {
	if p == nil {
		return nil
	}
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
