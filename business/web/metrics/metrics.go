// Package metrics constructs the prometheus metrics the web layer updates.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors updated by the middleware and handlers.
type Metrics struct {
	Requests    *prometheus.CounterVec
	Errors      prometheus.Counter
	Panics      prometheus.Counter
	Duration    *prometheus.HistogramVec
	Withdrawals *prometheus.CounterVec
}

// New registers the collectors with the registry. The go runtime and
// process collectors are registered as well.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Number of requests handled by method and status code.",
		}, []string{"method", "code"}),
		Errors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Number of requests that returned an error.",
		}),
		Panics: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "panics_total",
			Help:      "Number of handler panics recovered.",
		}),
		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Request latency by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		Withdrawals: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "withdrawals_total",
			Help:      "Number of settled withdrawals by path.",
		}, []string{"path"}),
	}
}
