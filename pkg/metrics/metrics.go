package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cloudvid",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cloudvid",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 120},
		},
		[]string{"method", "endpoint"},
	)

	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cloudvid",
			Subsystem: "videos",
			Name:      "uploads_total",
			Help:      "Video uploads by outcome",
		},
		[]string{"status"},
	)

	UploadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cloudvid",
			Subsystem: "videos",
			Name:      "upload_bytes_total",
			Help:      "Bytes received from clients for successful uploads",
		},
	)

	DeletesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cloudvid",
			Subsystem: "videos",
			Name:      "deletes_total",
			Help:      "Video deletions by outcome",
		},
		[]string{"status"},
	)

	// Media provider calls
	ProviderOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cloudvid",
			Subsystem: "media_provider",
			Name:      "operations_total",
			Help:      "Media provider operations",
		},
		[]string{"operation", "status"},
	)

	ProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cloudvid",
			Subsystem: "media_provider",
			Name:      "duration_seconds",
			Help:      "Media provider operation duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 600},
		},
		[]string{"operation"},
	)

	// Cleanup of remote objects or records left behind by partial failures
	CompensationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cloudvid",
			Subsystem: "videos",
			Name:      "compensations_total",
			Help:      "Compensating actions by kind and outcome",
		},
		[]string{"kind", "status"},
	)
)

func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

func RecordUpload(status string, bytes int64) {
	UploadsTotal.WithLabelValues(status).Inc()
	if status == "success" {
		UploadBytesTotal.Add(float64(bytes))
	}
}

func RecordDelete(status string) {
	DeletesTotal.WithLabelValues(status).Inc()
}

func RecordProviderOperation(operation, status string, durationSec float64) {
	ProviderOperationsTotal.WithLabelValues(operation, status).Inc()
	ProviderDuration.WithLabelValues(operation).Observe(durationSec)
}

func RecordCompensation(kind, status string) {
	CompensationsTotal.WithLabelValues(kind, status).Inc()
}
