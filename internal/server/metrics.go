package server

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/KaramelBytes/adcorr-cli/internal/session"
)

// Metrics counts dataset uploads. Hook Observe into session.Config.OnLoad.
type Metrics struct {
	uploads *prometheus.CounterVec
	rows    *prometheus.CounterVec
	skipped *prometheus.CounterVec
}

// NewMetrics registers the upload collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "adcorr",
			Name:      "uploads_total",
			Help:      "Dataset load attempts by source and outcome.",
		}, []string{"source", "outcome"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "adcorr",
			Name:      "rows_ingested_total",
			Help:      "Source rows accepted from uploads.",
		}, []string{"source"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "adcorr",
			Name:      "rows_skipped_total",
			Help:      "Source rows dropped as malformed.",
		}, []string{"source"}),
	}
	reg.MustRegister(m.uploads, m.rows, m.skipped)
	return m
}

// Observe records one load attempt.
func (m *Metrics) Observe(ev session.LoadEvent) {
	if m == nil {
		return
	}
	if ev.Err != nil {
		m.uploads.WithLabelValues(ev.Source, "rejected").Inc()
		return
	}
	m.uploads.WithLabelValues(ev.Source, "accepted").Inc()
	m.rows.WithLabelValues(ev.Source).Add(float64(ev.Read - ev.Skipped))
	m.skipped.WithLabelValues(ev.Source).Add(float64(ev.Skipped))
}
