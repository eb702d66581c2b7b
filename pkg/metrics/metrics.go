package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config controls metrics collection for a scheduler instance.
type Config struct {
	// Enabled turns metrics collection on.
	Enabled bool

	// Registry is the Prometheus registerer to use. If nil, a private
	// registry is created so that multiple schedulers never collide.
	Registry prometheus.Registerer
}

// Registry holds all metric instances for a scheduler.
type Registry struct {
	// Process metrics
	ProcessesScheduled *prometheus.CounterVec
	ProcessesCompleted prometheus.Counter
	ProcessesCancelled prometheus.Counter
	AwaitTimeouts      prometheus.Counter
	RunDuration        prometheus.Histogram

	// Dispatch metrics
	DeferredQueueDepth prometheus.Gauge
	DelayedQueueDepth  prometheus.Gauge
	TickElapsed        prometheus.Histogram

	// Context pool metrics
	ContextsPooled *prometheus.GaugeVec
	ContextsLive   *prometheus.GaugeVec
}

// NewRegistry creates a metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Registry{
		ProcessesScheduled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "coopsched",
				Subsystem: "sched",
				Name:      "processes_scheduled_total",
				Help:      "Total number of processes handed to the scheduler",
			},
			[]string{"kind", "mode"},
		),

		ProcessesCompleted: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "coopsched",
				Subsystem: "sched",
				Name:      "processes_completed_total",
				Help:      "Total number of managed processes that reached Done",
			},
		),

		ProcessesCancelled: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "coopsched",
				Subsystem: "sched",
				Name:      "processes_cancelled_total",
				Help:      "Total number of managed processes that reached Cancelled",
			},
		),

		AwaitTimeouts: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "coopsched",
				Subsystem: "sched",
				Name:      "await_timeouts_total",
				Help:      "Total number of awaits that ended by timeout",
			},
		),

		RunDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "coopsched",
				Subsystem: "sched",
				Name:      "run_duration_seconds",
				Help:      "Wall time spent inside executor bodies per run",
				Buckets:   prometheus.DefBuckets,
			},
		),

		DeferredQueueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "coopsched",
				Subsystem: "sched",
				Name:      "deferred_queue_depth",
				Help:      "Entries waiting in the deferred queue after a tick",
			},
		),

		DelayedQueueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "coopsched",
				Subsystem: "sched",
				Name:      "delayed_queue_depth",
				Help:      "Entries waiting in the delayed queue after a tick",
			},
		),

		TickElapsed: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "coopsched",
				Subsystem: "sched",
				Name:      "tick_elapsed_seconds",
				Help:      "Elapsed time reported by the tick source between ticks",
				Buckets:   []float64{.001, .005, .01, .0167, .033, .05, .1, .25, .5, 1},
			},
		),

		ContextsPooled: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "coopsched",
				Subsystem: "sched",
				Name:      "contexts_pooled",
				Help:      "Idle execution contexts held by each pool",
			},
			[]string{"pool"},
		),

		ContextsLive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "coopsched",
				Subsystem: "sched",
				Name:      "contexts_live",
				Help:      "Execution contexts currently alive per pool",
			},
			[]string{"pool"},
		),
	}
}
