package fetcher

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for feed ingestion.
type Metrics struct {
	FetchesTotal       *prometheus.CounterVec
	ItemsIngestedTotal prometheus.Counter
	FetchDuration      prometheus.Histogram
}

// NewMetrics registers and returns ingestion metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kairos_feed_fetches_total",
			Help: "Total per-feed fetch attempts by result.",
		}, []string{"result"}),
		ItemsIngestedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kairos_items_ingested_total",
			Help: "Total new items persisted by ingestion.",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kairos_feed_fetch_duration_seconds",
			Help:    "Duration of successful per-feed fetches in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 0.1s .. ~51s
		}),
	}

	reg.MustRegister(
		m.FetchesTotal,
		m.ItemsIngestedTotal,
		m.FetchDuration,
	)

	return m
}
