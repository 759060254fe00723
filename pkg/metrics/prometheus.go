package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	signalsTotal *prometheus.CounterVec
	trapsTotal   *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	lastScore    *prometheus.GaugeVec
	latency      *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		signalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketsense_signals_total",
				Help: "Total signals generated by asset and action",
			},
			[]string{"asset", "action"},
		),
		trapsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketsense_traps_detected_total",
				Help: "Total trap checks triggered by type",
			},
			[]string{"type"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketsense_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastScore: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "marketsense_last_score",
				Help: "Last strategy score for an asset",
			},
			[]string{"asset"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketsense_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordSignal records a generated signal.
func (r *Recorder) RecordSignal(asset, action string) {
	r.signalsTotal.WithLabelValues(asset, action).Inc()
}

// RecordTrapDetected records a triggered trap check.
func (r *Recorder) RecordTrapDetected(trapType string) {
	r.trapsTotal.WithLabelValues(trapType).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordScore records the latest strategy score for an asset.
func (r *Recorder) RecordScore(asset string, score float64) {
	r.lastScore.WithLabelValues(asset).Set(score)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
