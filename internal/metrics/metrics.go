package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Flush outcomes used as the "outcome" label.
const (
	OutcomeEmpty   = "empty"
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds the collectors of one pipeline. Each Engine owns its own set,
// registered against whatever Registerer the caller supplies.
type Metrics struct {
	EventsSubmitted prometheus.Counter
	EventsPersisted prometheus.Counter
	EventsRequeued  prometheus.Counter
	FlatFileLines   prometheus.Counter
	FlatFileErrors  prometheus.Counter
	FlushCycles     *prometheus.CounterVec
	FlushDuration   prometheus.Histogram
	QueueDepth      prometheus.Gauge
	MigrationsRun   *prometheus.CounterVec
}

// New registers a fresh set of collectors on reg.
// Pass prometheus.DefaultRegisterer in production and a new registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EventsSubmitted: f.NewCounter(prometheus.CounterOpts{
			Name: "blockwatch_events_submitted_total",
			Help: "Total number of events pushed onto the pipeline queue.",
		}),
		EventsPersisted: f.NewCounter(prometheus.CounterOpts{
			Name: "blockwatch_events_persisted_total",
			Help: "Total number of events committed to the relational store.",
		}),
		EventsRequeued: f.NewCounter(prometheus.CounterOpts{
			Name: "blockwatch_events_requeued_total",
			Help: "Total number of events handed back to the queue after a failed write.",
		}),
		FlatFileLines: f.NewCounter(prometheus.CounterOpts{
			Name: "blockwatch_flatfile_lines_total",
			Help: "Total number of lines appended to per-actor flat files.",
		}),
		FlatFileErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "blockwatch_flatfile_errors_total",
			Help: "Total number of events the flat-file mirror failed to write.",
		}),
		FlushCycles: f.NewCounterVec(prometheus.CounterOpts{
			Name: "blockwatch_flush_cycles_total",
			Help: "Total number of flush cycles, labelled by outcome.",
		}, []string{"outcome"}),
		FlushDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "blockwatch_flush_duration_ms",
			Help:    "Duration of non-empty flush cycles in milliseconds.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 10000},
		}),
		QueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "blockwatch_queue_depth",
			Help: "Events waiting for the next flush cycle.",
		}),
		MigrationsRun: f.NewCounterVec(prometheus.CounterOpts{
			Name: "blockwatch_migrations_total",
			Help: "Schema migration steps attempted, labelled by status.",
		}, []string{"status"}),
	}
}
