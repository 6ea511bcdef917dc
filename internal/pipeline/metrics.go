package pipeline

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/example/dermascan/internal/classify"
)

// Metrics holds the Prometheus instruments the pipeline reports into.
type Metrics struct {
	predictions *prometheus.CounterVec
	failures    *prometheus.CounterVec
	duration    prometheus.Histogram
}

// NewMetrics creates the pipeline instruments and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dermascan_predictions_total",
			Help: "Completed predictions by verdict.",
		}, []string{"result"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dermascan_prediction_failures_total",
			Help: "Failed predictions by error kind.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dermascan_prediction_duration_seconds",
			Help:    "End-to-end prediction pipeline latency.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.predictions, m.failures, m.duration)
	return m
}

func (m *Metrics) observePrediction(result string, elapsed time.Duration) {
	m.predictions.WithLabelValues(result).Inc()
	m.duration.Observe(elapsed.Seconds())
}

func (m *Metrics) observeFailure(kind Kind) {
	m.failures.WithLabelValues(kind.String()).Inc()
}

// Summary represents aggregated prediction insights from persisted records.
type Summary struct {
	TotalPredictions int64   `json:"total_predictions"`
	CancerCount      int64   `json:"cancer_count"`
	NonCancerCount   int64   `json:"non_cancer_count"`
	CancerRate       float64 `json:"cancer_rate"`
}

// GetSummary aggregates verdict counts from the record store.
func (p *Pipeline) GetSummary(ctx context.Context) (*Summary, error) {
	stats, err := p.records.AggregateStats(ctx)
	if err != nil {
		return nil, &Error{Kind: KindStorage, Err: err}
	}

	summary := &Summary{
		CancerCount:    stats[classify.VerdictCancer],
		NonCancerCount: stats[classify.VerdictNonCancer],
	}
	summary.TotalPredictions = summary.CancerCount + summary.NonCancerCount
	if summary.TotalPredictions > 0 {
		summary.CancerRate = float64(summary.CancerCount) / float64(summary.TotalPredictions)
	}
	return summary, nil
}
