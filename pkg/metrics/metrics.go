// Package metrics exposes Prometheus instruments for grammar compilation
// and phrase evaluation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests and multiple servers never
// collide on the default one.
type Metrics struct {
	registry    *prometheus.Registry
	evaluations *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	cacheHits   *prometheus.CounterVec
	compiles    *prometheus.CounterVec
	states      *prometheus.GaugeVec
	compileTime *prometheus.GaugeVec
}

// New registers every instrument on a fresh registry, plus the Go and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cardinal_evaluations_total",
			Help: "Phrases evaluated, by language and outcome.",
		}, []string{"lang", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cardinal_evaluation_seconds",
			Help:    "Time spent evaluating one phrase.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"lang"}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cardinal_cache_lookups_total",
			Help: "Result cache lookups, by language and hit/miss.",
		}, []string{"lang", "result"}),
		compiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cardinal_compilations_total",
			Help: "Grammar compilations, by language and outcome.",
		}, []string{"lang", "outcome"}),
		states: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cardinal_grammar_states",
			Help: "States of the compiled tagged transducer.",
		}, []string{"lang"}),
		compileTime: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cardinal_compile_seconds",
			Help: "Duration of the last successful compilation.",
		}, []string{"lang"}),
	}
	m.registry.MustRegister(
		m.evaluations, m.latency, m.cacheHits, m.compiles, m.states, m.compileTime,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Evaluated records one evaluation. A nil receiver is a no-op.
func (m *Metrics) Evaluated(lang, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(lang, status).Inc()
	m.latency.WithLabelValues(lang).Observe(d.Seconds())
}

// CacheLookup records a result cache hit or miss.
func (m *Metrics) CacheLookup(lang string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheHits.WithLabelValues(lang, result).Inc()
}

// Compiled records a successful compilation.
func (m *Metrics) Compiled(lang string, states int, d time.Duration) {
	if m == nil {
		return
	}
	m.compiles.WithLabelValues(lang, "ok").Inc()
	m.states.WithLabelValues(lang).Set(float64(states))
	m.compileTime.WithLabelValues(lang).Set(d.Seconds())
}

// CompileFailed records a lexicon that could not be compiled.
func (m *Metrics) CompileFailed(lang string) {
	if m == nil {
		return
	}
	m.compiles.WithLabelValues(lang, "error").Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
