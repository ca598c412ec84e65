package webhook

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the delivery queue.
type Metrics struct {
	EnqueuedTotal    prometheus.Counter
	DeliveriesTotal  *prometheus.CounterVec
	DrainErrorsTotal prometheus.Counter
	DeliveryDuration prometheus.Histogram
}

// NewMetrics registers and returns delivery metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EnqueuedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kairos_webhook_enqueued_total",
			Help: "Total webhook jobs enqueued.",
		}),
		DeliveriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kairos_webhook_deliveries_total",
			Help: "Total webhook job outcomes by resulting status.",
		}, []string{"status"}),
		DrainErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kairos_webhook_drain_errors_total",
			Help: "Total drain cycles that failed or panicked.",
		}),
		DeliveryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kairos_webhook_delivery_duration_seconds",
			Help:    "Duration of webhook POST attempts in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}

	reg.MustRegister(
		m.EnqueuedTotal,
		m.DeliveriesTotal,
		m.DrainErrorsTotal,
		m.DeliveryDuration,
	)

	return m
}
