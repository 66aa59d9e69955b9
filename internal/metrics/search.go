package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lookbook",
			Name:      "search_requests_total",
			Help:      "Total number of searches by sort criterion and outcome",
		},
		[]string{"sort", "status"},
	)

	// SearchTopConfidence observes the confidence of the best hit of each successful search.
	SearchTopConfidence = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "lookbook",
			Name:      "search_top_confidence",
			Help:      "Confidence (0-100) of the top-ranked hit",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		},
	)

	SearchHitsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "lookbook",
			Name:      "search_hits_returned",
			Help:      "Number of hits returned per search",
			Buckets:   []float64{0, 1, 3, 5, 10, 15, 20},
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchTopConfidence)
	prometheus.MustRegister(SearchHitsReturned)
	searchMetricsRegistered = true
}
