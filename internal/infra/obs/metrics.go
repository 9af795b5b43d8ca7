package obs

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"staysearch/internal/domain/search"
	"staysearch/internal/infra/resilience"
)

// Metrics owns the service's Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	searches        *prometheus.CounterVec
	searchLatency   *prometheus.HistogramVec
	upstreamCalls   *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	circuitState    *prometheus.GaugeVec
	rankingPaths    *prometheus.CounterVec
	eventsPublished *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "staysearch_searches_total",
			Help: "Searches by outcome.",
		}, []string{"outcome"}),
		searchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "staysearch_search_duration_seconds",
			Help:    "End-to-end search latency.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		}, []string{"outcome"}),
		upstreamCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "staysearch_upstream_calls_total",
			Help: "Upstream fetches by source and outcome.",
		}, []string{"source", "outcome"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "staysearch_upstream_call_duration_seconds",
			Help:    "Latency of guarded upstream fetches, retries included.",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		circuitState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "staysearch_circuit_state",
			Help: "Circuit state per source: 0 closed, 1 half open, 2 open.",
		}, []string{"source"}),
		rankingPaths: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "staysearch_ranking_path_total",
			Help: "Which ranking path produced the final order.",
		}, []string{"path"}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "staysearch_events_published_total",
			Help: "Operational events handed to the broker, by result.",
		}, []string{"event", "result"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.searches, m.searchLatency,
		m.upstreamCalls, m.upstreamLatency,
		m.circuitState, m.rankingPaths, m.eventsPublished,
	)
	return m
}

func (m *Metrics) ObserveSearch(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(outcome).Inc()
	m.searchLatency.WithLabelValues(outcome).Observe(took.Seconds())
}

func (m *Metrics) ObserveUpstream(source, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.upstreamCalls.WithLabelValues(source, outcome).Inc()
	m.upstreamLatency.WithLabelValues(source).Observe(took.Seconds())
}

func (m *Metrics) ObserveRanking(path search.RankingPath) {
	if m == nil {
		return
	}
	m.rankingPaths.WithLabelValues(string(path)).Inc()
}

func (m *Metrics) ObservePublish(event string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.eventsPublished.WithLabelValues(event, result).Inc()
}

// OnCircuitChange matches resilience.StateListener.
func (m *Metrics) OnCircuitChange(source string, _, to resilience.CircuitStatus) {
	if m == nil {
		return
	}
	value := 0.0
	switch to {
	case resilience.StatusHalfOpen:
		value = 1
	case resilience.StatusOpen:
		value = 2
	}
	m.circuitState.WithLabelValues(source).Set(value)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
