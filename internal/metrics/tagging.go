package metrics

import "github.com/prometheus/client_golang/prometheus"

// Tagging Prometheus metrics.
var (
	TaggingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lookbook",
			Name:      "tagging_requests_total",
			Help:      "Total number of image tagging requests",
		},
		[]string{"model", "status"},
	)

	TaggingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lookbook",
			Name:      "tagging_request_duration_seconds",
			Help:      "Image tagging request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		},
		[]string{"model"},
	)

	TaggingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lookbook",
			Name:      "tagging_tokens_total",
			Help:      "Total tagging model tokens consumed",
		},
		[]string{"model"},
	)

	// IngestItemsTotal counts processed upload files by outcome ("ok" / "error").
	IngestItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lookbook",
			Name:      "ingest_items_total",
			Help:      "Uploaded files processed, by outcome",
		},
		[]string{"status"},
	)
)

var taggingMetricsRegistered bool

// RegisterTaggingMetrics registers Prometheus tagging metrics. Must be called once from main.
func RegisterTaggingMetrics() {
	if taggingMetricsRegistered {
		return
	}
	prometheus.MustRegister(TaggingRequestsTotal)
	prometheus.MustRegister(TaggingRequestDuration)
	prometheus.MustRegister(TaggingTokensTotal)
	prometheus.MustRegister(IngestItemsTotal)
	taggingMetricsRegistered = true
}
