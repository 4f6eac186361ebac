// Package metrics defines the Prometheus collectors for a counting run and
// exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vocabstats"

// Metrics holds all Prometheus collectors for a run. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	DocumentsTotal    *prometheus.CounterVec
	UnitsTotal        *prometheus.CounterVec
	TokensTotal       prometheus.Counter
	UnitFoldDuration  prometheus.Histogram
	MergeDuration     prometheus.Histogram
	VocabularySize    prometheus.Gauge
	WorkersActive     prometheus.Gauge
	SinkWritesTotal   *prometheus.CounterVec
	SinkWriteDuration *prometheus.HistogramVec
	RetryAttempts     *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DocumentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "documents_total",
				Help:      "Documents seen by outcome (counted, ineligible, failed).",
			},
			[]string{"outcome"},
		),
		UnitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "units_total",
				Help:      "Input units processed by status (ok, failed).",
			},
			[]string{"status"},
		),
		TokensTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tokens_total",
				Help:      "Token occurrences folded into partial tables.",
			},
		),
		UnitFoldDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "unit_fold_duration_seconds",
				Help:      "Time to decode and fold one input unit.",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
		),
		MergeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "merge_duration_seconds",
				Help:      "Time to reduce worker partials into the final table.",
				Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
		),
		VocabularySize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "vocabulary_size",
				Help:      "Distinct tokens in the final table after filtering.",
			},
		),
		WorkersActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "workers_active",
				Help:      "Workers currently folding units.",
			},
		),
		SinkWritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sink_writes_total",
				Help:      "Result writes by sink and status.",
			},
			[]string{"sink", "status"},
		),
		SinkWriteDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sink_write_duration_seconds",
				Help:      "Time to write the result table to a sink.",
				Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
			},
			[]string{"sink"},
		),
		RetryAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "retry_attempts_total",
				Help:      "Retried operations by name.",
			},
			[]string{"operation"},
		),
	}

	reg.MustRegister(
		m.DocumentsTotal,
		m.UnitsTotal,
		m.TokensTotal,
		m.UnitFoldDuration,
		m.MergeDuration,
		m.VocabularySize,
		m.WorkersActive,
		m.SinkWritesTotal,
		m.SinkWriteDuration,
		m.RetryAttempts,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler for g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// ObserveDocument counts one document outcome.
func (m *Metrics) ObserveDocument(outcome string) {
	if m == nil {
		return
	}
	m.DocumentsTotal.WithLabelValues(outcome).Inc()
}

// ObserveUnit records a finished unit and the tokens it contributed.
func (m *Metrics) ObserveUnit(status string, tokens int64, d time.Duration) {
	if m == nil {
		return
	}
	m.UnitsTotal.WithLabelValues(status).Inc()
	m.TokensTotal.Add(float64(tokens))
	m.UnitFoldDuration.Observe(d.Seconds())
}

// WorkerStarted and WorkerStopped track the number of busy workers.
func (m *Metrics) WorkerStarted() {
	if m != nil {
		m.WorkersActive.Inc()
	}
}

func (m *Metrics) WorkerStopped() {
	if m != nil {
		m.WorkersActive.Dec()
	}
}

// ObserveMerge records the reduce phase and the final vocabulary size.
func (m *Metrics) ObserveMerge(d time.Duration, vocabulary int) {
	if m == nil {
		return
	}
	m.MergeDuration.Observe(d.Seconds())
	m.VocabularySize.Set(float64(vocabulary))
}

// ObserveSink records one sink write.
func (m *Metrics) ObserveSink(sink string, err error, d time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.SinkWritesTotal.WithLabelValues(sink, status).Inc()
	m.SinkWriteDuration.WithLabelValues(sink).Observe(d.Seconds())
}

// ObserveRetry counts one retried attempt of operation.
func (m *Metrics) ObserveRetry(operation string) {
	if m != nil {
		m.RetryAttempts.WithLabelValues(operation).Inc()
	}
}
