package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records engine counters on its own registry. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	turnsTotal    *prometheus.CounterVec
	selections    *prometheus.CounterVec
	llmFallbacks  *prometheus.CounterVec
	turnDuration  prometheus.Histogram
	queryDuration prometheus.Histogram
}

// NewMetrics creates the engine metrics on a fresh registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		turnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "furnisher_turns_total",
				Help: "Chat turns processed, by outcome",
			},
			[]string{"outcome"},
		),
		selections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "furnisher_selections_total",
				Help: "Line selections, by reason",
			},
			[]string{"reason"},
		),
		llmFallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "furnisher_llm_fallbacks_total",
				Help: "LLM collaborator failures replaced by the deterministic path, by stage",
			},
			[]string{"stage"},
		),
		turnDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "furnisher_turn_duration_seconds",
			Help:    "Duration of a chat turn",
			Buckets: prometheus.DefBuckets,
		}),
		queryDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "furnisher_catalog_query_duration_seconds",
			Help:    "Duration of catalog gateway queries",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
	}
}

// Registry exposes the registry for the /metrics handler
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Turn records one finished turn
func (m *Metrics) Turn(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(outcome).Inc()
	m.turnDuration.Observe(d.Seconds())
}

// Selection records how a line was resolved
func (m *Metrics) Selection(reason string) {
	if m == nil {
		return
	}
	m.selections.WithLabelValues(reason).Inc()
}

// LLMFallback records a collaborator failure at stage
func (m *Metrics) LLMFallback(stage string) {
	if m == nil {
		return
	}
	m.llmFallbacks.WithLabelValues(stage).Inc()
}

// CatalogQuery records the latency of one gateway call
func (m *Metrics) CatalogQuery(d time.Duration) {
	if m == nil {
		return
	}
	m.queryDuration.Observe(d.Seconds())
}
