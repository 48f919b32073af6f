package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Tenant metrics
	CachedOwnerConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pod_cached_owner_connections",
			Help: "Number of owner database connections currently cached by the tenant gate",
		},
	)

	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pod_api_requests_total",
			Help: "Total number of API requests by route and status",
		},
		[]string{"route", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pod_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// Item operation metrics
	ItemCreateDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pod_item_create_duration_seconds",
			Help:    "Time taken to create an item in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ItemUpdateDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pod_item_update_duration_seconds",
			Help:    "Time taken to update an item in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ItemSearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pod_item_search_duration_seconds",
			Help:    "Time taken to run a search in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// File store metrics
	FileUploadsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pod_file_uploads_total",
			Help: "Total number of blob uploads accepted",
		},
	)

	FileUploadBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pod_file_upload_bytes_total",
			Help: "Total bytes accepted by the file store",
		},
	)

	// Plugin metrics
	PluginLaunchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pod_plugin_launches_total",
			Help: "Total number of plugin launches by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	PluginLaunchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pod_plugin_launch_duration_seconds",
			Help:    "Plugin launch duration in seconds by kind",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(CachedOwnerConnections)
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
	prometheus.MustRegister(ItemCreateDuration)
	prometheus.MustRegister(ItemUpdateDuration)
	prometheus.MustRegister(ItemSearchDuration)
	prometheus.MustRegister(FileUploadsTotal)
	prometheus.MustRegister(FileUploadBytesTotal)
	prometheus.MustRegister(PluginLaunchesTotal)
	prometheus.MustRegister(PluginLaunchDuration)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
