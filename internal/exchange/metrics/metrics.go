package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for exchange operations.
type Metrics struct {
	ExchangesCreated    *prometheus.CounterVec
	TransactionsStarted *prometheus.CounterVec
	Submissions         *prometheus.CounterVec
	Reviews             *prometheus.CounterVec
	Callbacks           *prometheus.CounterVec

	VerificationLatency prometheus.Histogram
}

// New registers and returns exchange metrics collectors on reg.
// A nil reg uses the default Prometheus registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		ExchangesCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vpexchange_exchanges_created_total",
			Help: "Total number of exchange definitions created, labeled by interact type",
		}, []string{"interact_type"}),
		TransactionsStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vpexchange_transactions_started_total",
			Help: "Total number of transactions started, labeled by interact type",
		}, []string{"interact_type"}),
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vpexchange_submissions_total",
			Help: "Total number of presentation submissions, labeled by outcome",
		}, []string{"outcome"}),
		Reviews: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vpexchange_reviews_total",
			Help: "Total number of reviewer decisions, labeled by result",
		}, []string{"result"}),
		Callbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vpexchange_callbacks_total",
			Help: "Total number of callback deliveries, labeled by outcome",
		}, []string{"outcome"}),
		VerificationLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "vpexchange_verification_latency_seconds",
			Help:    "Latency of presentation verification in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

func (m *Metrics) IncrementExchangesCreated(interactType string) {
	m.ExchangesCreated.WithLabelValues(interactType).Inc()
}

func (m *Metrics) IncrementTransactionsStarted(interactType string) {
	m.TransactionsStarted.WithLabelValues(interactType).Inc()
}

func (m *Metrics) IncrementSubmissions(outcome string) {
	m.Submissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementReviews(result string) {
	m.Reviews.WithLabelValues(result).Inc()
}

func (m *Metrics) IncrementCallbacks(outcome string) {
	m.Callbacks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveVerificationLatency(durationSeconds float64) {
	m.VerificationLatency.Observe(durationSeconds)
}
