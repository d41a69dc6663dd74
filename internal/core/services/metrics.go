package services

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsIngest holds Prometheus metrics for ingestion passes.
type metricsIngest struct {
	once sync.Once

	// Passes
	passes       *prometheus.CounterVec
	passDuration prometheus.Histogram

	// Files
	files    *prometheus.CounterVec
	failures *prometheus.CounterVec
	deletes  prometheus.Counter

	// Folders
	foldersSkipped prometheus.Counter
	folderErrors   prometheus.Counter

	// Per-file duration
	fileDuration prometheus.Histogram
}

var ingMetrics metricsIngest

func (m *metricsIngest) init() {
	m.once.Do(func() {
		m.passes = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "mdingest_passes_total", Help: "Ingestion passes by outcome"}, []string{"outcome"})
		m.files = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "mdingest_files_total", Help: "Listed files by diff result"}, []string{"result"})
		m.failures = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "mdingest_file_failures_total", Help: "Failed files by error category"}, []string{"category"})
		m.deletes = prometheus.NewCounter(prometheus.CounterOpts{Name: "mdingest_deletes_total", Help: "Vanished files reconciled"})
		m.foldersSkipped = prometheus.NewCounter(prometheus.CounterOpts{Name: "mdingest_folders_skipped_total", Help: "Folders not listed because their token was unchanged"})
		m.folderErrors = prometheus.NewCounter(prometheus.CounterOpts{Name: "mdingest_folder_errors_total", Help: "Sub-folders that could not be listed"})

		buckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}
		m.passDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "mdingest_pass_seconds", Help: "Duration of ingestion passes", Buckets: buckets})
		m.fileDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "mdingest_file_seconds", Help: "Duration of processing one file", Buckets: buckets})

		prometheus.MustRegister(
			m.passes, m.passDuration,
			m.files, m.failures, m.deletes,
			m.foldersSkipped, m.folderErrors,
			m.fileDuration,
		)
	})
}

// record helpers - used by the ingestor
func recordPass(outcome string, d time.Duration) {
	ingMetrics.init()
	ingMetrics.passes.WithLabelValues(outcome).Inc()
	ingMetrics.passDuration.Observe(d.Seconds())
}

func recordFile(result string) { ingMetrics.init(); ingMetrics.files.WithLabelValues(result).Inc() }

func recordFailure(category string) {
	ingMetrics.init()
	ingMetrics.failures.WithLabelValues(category).Inc()
}

func recordFileDuration(d time.Duration) { ingMetrics.init(); ingMetrics.fileDuration.Observe(d.Seconds()) }
func recordDelete()                       { ingMetrics.init(); ingMetrics.deletes.Inc() }
func recordFolderSkipped()                { ingMetrics.init(); ingMetrics.foldersSkipped.Inc() }
func recordFolderError()                  { ingMetrics.init(); ingMetrics.folderErrors.Inc() }
