package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the extraction daemon.
type Metrics struct {
	// Pipeline runs by pipeline and outcome code
	Runs *prometheus.CounterVec

	// Pipeline duration by pipeline
	RunDuration *prometheus.HistogramVec

	// Unique valid CPFs found across runs
	CPFsFound prometheus.Counter

	// Workbook sheets written across runs
	TablesWritten prometheus.Counter
}

// New creates a Metrics instance registered with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "extract_runs_total",
			Help: "Total pipeline runs by pipeline and outcome",
		}, []string{"pipeline", "outcome"}), // outcome: "ok" or an error code

		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "extract_run_duration_seconds",
			Help:    "Duration of pipeline runs",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"pipeline"}),

		CPFsFound: factory.NewCounter(prometheus.CounterOpts{
			Name: "extract_cpfs_unique_total",
			Help: "Unique valid CPFs reported by CPF runs",
		}),

		TablesWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "extract_tables_written_total",
			Help: "Sheets written by JSON runs",
		}),
	}
}

// ObserveRun records one pipeline run.
func (m *Metrics) ObserveRun(pipeline, outcome string, d time.Duration) {
	if m != nil {
		m.Runs.WithLabelValues(pipeline, outcome).Inc()
		m.RunDuration.WithLabelValues(pipeline).Observe(d.Seconds())
	}
}

// AddCPFs records the unique CPFs of a run.
func (m *Metrics) AddCPFs(n int) {
	if m != nil {
		m.CPFsFound.Add(float64(n))
	}
}

// AddTables records the sheets of a run.
func (m *Metrics) AddTables(n int) {
	if m != nil {
		m.TablesWritten.Add(float64(n))
	}
}
