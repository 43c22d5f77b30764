package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for dimension
// generation and the job scheduler.
type Metrics struct {
	RunsTotal     *prometheus.CounterVec // labels: outcome={success,input_error,io_error,error}
	RowsGenerated *prometheus.CounterVec // labels: table={date,weather}
	RunDuration   prometheus.Histogram
	SinkErrors    *prometheus.CounterVec // labels: sink

	// Scheduler metrics.
	JobRuns          *prometheus.CounterVec // labels: job, outcome={success,failure,retry}
	JobDuration      *prometheus.HistogramVec
	SchedulerRunning prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RunsTotal,
		m.RowsGenerated,
		m.RunDuration,
		m.SinkErrors,
		m.JobRuns,
		m.JobDuration,
		m.SchedulerRunning,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dimgen",
			Name:      "runs_total",
			Help:      "Dimension generation runs by outcome.",
		}, []string{"outcome"}),
		RowsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dimgen",
			Name:      "rows_generated_total",
			Help:      "Rows generated per dimension table.",
		}, []string{"table"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dimgen",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete generate-and-write run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dimgen",
			Name:      "sink_errors_total",
			Help:      "Failed writes per output sink.",
		}, []string{"sink"}),
		JobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dimgen",
			Name:      "job_runs_total",
			Help:      "Scheduled job attempts by job and outcome.",
		}, []string{"job", "outcome"}),
		JobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dimgen",
			Name:      "job_duration_seconds",
			Help:      "Duration of a single job attempt.",
			Buckets:   []float64{0.1, 1, 5, 30, 60, 300, 900, 1800},
		}, []string{"job"}),
		SchedulerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dimgen",
			Name:      "scheduler_running",
			Help:      "1 when the scheduler loop is active, 0 when shut down.",
		}),
	}
}
