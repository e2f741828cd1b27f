// Package metrics exports query dispatch metrics in the Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/helixml/greenhouse/internal/dispatch"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "greenhouse"

// Metrics owns a registry and the dispatch collectors registered in it.
type Metrics struct {
	registry    *prometheus.Registry
	dispatched  *prometheus.CounterVec
	superseded  *prometheus.CounterVec
	failed      *prometheus.CounterVec
	firstResult *prometheus.HistogramVec
}

// New creates Metrics with Go runtime and process collectors registered.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_dispatched_total",
			Help:      "Queries started, by component and query kind.",
		}, []string{"component", "kind"}),
		superseded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_superseded_total",
			Help:      "Queries cancelled because a newer input arrived.",
		}, []string{"component"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_failed_total",
			Help:      "Queries that ended with an error.",
		}, []string{"component"}),
		firstResult: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_first_result_seconds",
			Help:      "Time from dispatch to the first delivered result.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"component"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.dispatched,
		m.superseded,
		m.failed,
		m.firstResult,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Observer returns a dispatch.Observer recording under the given component label.
func (m *Metrics) Observer(component string) dispatch.Observer {
	return observer{m: m, component: component}
}

type observer struct {
	m         *Metrics
	component string
}

func (o observer) Dispatched(kind string) {
	o.m.dispatched.WithLabelValues(o.component, kind).Inc()
}

func (o observer) Superseded() {
	o.m.superseded.WithLabelValues(o.component).Inc()
}

func (o observer) FirstResult(elapsed time.Duration) {
	o.m.firstResult.WithLabelValues(o.component).Observe(elapsed.Seconds())
}

func (o observer) Failed(error) {
	o.m.failed.WithLabelValues(o.component).Inc()
}
