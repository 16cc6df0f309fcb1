// Package metrics defines the Prometheus collectors for statement and reply
// composition and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	CompositionsTotal *prometheus.CounterVec
	ComposeRetries    *prometheus.HistogramVec
	ReplyScopesTotal  *prometheus.CounterVec
	ModelSentences    prometheus.Gauge
	ModelTokens       prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg uses
// prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		CompositionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ebooks_compositions_total",
				Help: "Composed texts by kind (statement, reply) and outcome (ideal, exhausted).",
			},
			[]string{"kind", "outcome"},
		),
		ComposeRetries: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ebooks_compose_retries",
				Help:    "Rejected candidates before a text was accepted.",
				Buckets: []float64{0, 1, 2, 3, 5, 8, 10, 20},
			},
			[]string{"kind"},
		),
		ReplyScopesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ebooks_reply_scopes_total",
				Help: "Replies by the sentence scope they were generated from.",
			},
			[]string{"scope"},
		),
		ModelSentences: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "ebooks_model_sentences",
				Help: "Sentences in the loaded model.",
			},
		),
		ModelTokens: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "ebooks_model_tokens",
				Help: "Interned tokens in the loaded model.",
			},
		),
	}

	reg.MustRegister(
		m.CompositionsTotal,
		m.ComposeRetries,
		m.ReplyScopesTotal,
		m.ModelSentences,
		m.ModelTokens,
	)
	return m
}

// ObserveComposition records one composed text.
func (m *Metrics) ObserveComposition(kind string, exhausted bool, retries int) {
	if m == nil {
		return
	}
	outcome := "ideal"
	if exhausted {
		outcome = "exhausted"
	}
	m.CompositionsTotal.WithLabelValues(kind, outcome).Inc()
	m.ComposeRetries.WithLabelValues(kind).Observe(float64(retries))
}

// ObserveReplyScope records which scope a reply was generated from.
func (m *Metrics) ObserveReplyScope(scope string) {
	if m == nil {
		return
	}
	m.ReplyScopesTotal.WithLabelValues(scope).Inc()
}

// SetModelSize records the size of the loaded model.
func (m *Metrics) SetModelSize(tokens, sentences int) {
	if m == nil {
		return
	}
	m.ModelTokens.Set(float64(tokens))
	m.ModelSentences.Set(float64(sentences))
}

// Handler returns the scrape handler for the given gatherer. A nil gatherer
// uses prometheus.DefaultGatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
