package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for a pipeline run.
type Metrics struct {
	RowsLoaded  prometheus.Counter
	RowsCleaned prometheus.Counter
	RowsDropped *prometheus.CounterVec // labels: reason={aggregate_row,missing_field,invalid_date,invalid_number,out_of_range}
	RowsWritten *prometheus.CounterVec // labels: sink={csv,sqlite,kafka}

	StageDuration *prometheus.HistogramVec // labels: stage={load,clean,derive,sink,report,render}

	LastRunTimestamp prometheus.Gauge
	LastRunSuccess   prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)

	prometheus.MustRegister(
		m.RowsLoaded,
		m.RowsCleaned,
		m.RowsDropped,
		m.RowsWritten,
		m.StageDuration,
		m.LastRunTimestamp,
		m.LastRunSuccess,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}

	return &Metrics{
		RowsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "air_quality",
			Name:      "rows_loaded_total",
			Help:      help("Rows read from the source table."),
		}),
		RowsCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "air_quality",
			Name:      "rows_cleaned_total",
			Help:      help("Rows that survived cleaning."),
		}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "air_quality",
			Name:      "rows_dropped_total",
			Help:      help("Rows discarded during cleaning, by reason."),
		}, []string{"reason"}),
		RowsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "air_quality",
			Name:      "rows_written_total",
			Help:      help("Observations written, by sink."),
		}, []string{"sink"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "air_quality",
			Name:      "stage_duration_seconds",
			Help:      help("Duration of each pipeline stage."),
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}, []string{"stage"}),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "air_quality",
			Name:      "last_run_timestamp_seconds",
			Help:      help("Unix time the last run finished."),
		}),
		LastRunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "air_quality",
			Name:      "last_run_success",
			Help:      help("1 if the last run completed, 0 if it failed."),
		}),
	}
}

// WriteTextfile dumps the default registry in the node-exporter textfile format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
