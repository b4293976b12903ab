package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for extraction and sync runs.
type Metrics struct {
	FilesProcessed    prometheus.Counter
	FilesSkipped      *prometheus.CounterVec // labels: reason={year,open,projection,bands,grid,other}
	RowsWritten       prometheus.Counter
	OutputsWritten    prometheus.Counter
	ReprojectDuration prometheus.Histogram
	PipelineRunning   prometheus.Gauge

	// Downloader metrics.
	Downloads     *prometheus.CounterVec // labels: outcome={downloaded,skipped,not_found,failed}
	DownloadBytes prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		FilesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "daymet",
			Name:      "files_processed_total",
			Help:      "Raster files reprojected and written to an output.",
		}),
		FilesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "daymet",
			Name:      "files_skipped_total",
			Help:      "Raster files skipped by failure reason.",
		}, []string{"reason"}),
		RowsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "daymet",
			Name:      "rows_written_total",
			Help:      "CSV data rows written across all outputs.",
		}),
		OutputsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "daymet",
			Name:      "outputs_written_total",
			Help:      "CSV output files completed.",
		}),
		ReprojectDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "daymet",
			Name:      "reproject_duration_seconds",
			Help:      "Duration of reprojecting one raster onto the reference grid.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "daymet",
			Name:      "pipeline_running",
			Help:      "1 while a run is active, 0 otherwise.",
		}),
		Downloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "daymet",
			Name:      "downloads_total",
			Help:      "Remote files handled by the downloader, by outcome.",
		}, []string{"outcome"}),
		DownloadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "daymet",
			Name:      "download_bytes_total",
			Help:      "Bytes written by completed downloads.",
		}),
	}

	prometheus.MustRegister(
		m.FilesProcessed,
		m.FilesSkipped,
		m.RowsWritten,
		m.OutputsWritten,
		m.ReprojectDuration,
		m.PipelineRunning,
		m.Downloads,
		m.DownloadBytes,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		FilesProcessed:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "daymet", Name: "files_processed_total"}),
		FilesSkipped:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "daymet", Name: "files_skipped_total"}, []string{"reason"}),
		RowsWritten:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "daymet", Name: "rows_written_total"}),
		OutputsWritten:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "daymet", Name: "outputs_written_total"}),
		ReprojectDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "daymet", Name: "reproject_duration_seconds"}),
		PipelineRunning:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "daymet", Name: "pipeline_running"}),
		Downloads:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "daymet", Name: "downloads_total"}, []string{"outcome"}),
		DownloadBytes:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "daymet", Name: "download_bytes_total"}),
	}
}
