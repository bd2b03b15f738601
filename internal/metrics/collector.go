package metrics

import (
	"net/http"
	"time"

	"github.com/jase-perf/p4-migrate-depot-to-s3/internal/progress"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector collects and exposes migration metrics
type Collector struct {
	registry        *prometheus.Registry
	filesTotal      *prometheus.CounterVec
	bytesTotal      prometheus.Counter
	duration        prometheus.Histogram
	progressTracker *progress.Tracker
}

// New creates a new metrics collector with its own registry
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		filesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "migrate_files_total",
				Help: "Total number of files processed",
			},
			[]string{"status"},
		),
		bytesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "migrate_bytes_total",
				Help: "Total bytes uploaded",
			},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "migrate_file_duration_seconds",
				Help:    "Time taken to migrate a file",
				Buckets: prometheus.DefBuckets,
			},
		),
		progressTracker: progress.NewTracker(),
	}

	c.registry.MustRegister(c.filesTotal)
	c.registry.MustRegister(c.bytesTotal)
	c.registry.MustRegister(c.duration)

	return c
}

// IncUploaded records a completed upload
func (c *Collector) IncUploaded(bytes int64) {
	c.filesTotal.WithLabelValues("uploaded").Inc()
	c.bytesTotal.Add(float64(bytes))
	c.progressTracker.AddUploaded(bytes)
}

// IncSkipped records a file that already existed at its destination
func (c *Collector) IncSkipped(bytes int64) {
	c.filesTotal.WithLabelValues("skipped").Inc()
	c.progressTracker.AddSkipped(bytes)
}

// IncFailed records a file that could not be migrated
func (c *Collector) IncFailed() {
	c.filesTotal.WithLabelValues("failed").Inc()
	c.progressTracker.AddFailed()
}

// ObserveDuration observes per-file migration duration
func (c *Collector) ObserveDuration(duration time.Duration) {
	c.duration.Observe(duration.Seconds())
}

// StartServer starts the metrics HTTP server
func (c *Collector) StartServer(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
	return http.ListenAndServe(addr, mux)
}

// GetProgressTracker returns the progress tracker
func (c *Collector) GetProgressTracker() *progress.Tracker {
	return c.progressTracker
}

// SetTotalCounts sets the totals for progress tracking
func (c *Collector) SetTotalCounts(files, bytes int64) {
	c.progressTracker.SetTotal(files, bytes)
}
