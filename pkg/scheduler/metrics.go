package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "newsdraft_scheduler"

// run results reported by the collector
const (
	resultDelivered = "delivered"
	resultFailed    = "failed"
	resultGaveUp    = "gave_up"
	resultSkipped   = "skipped"
	resultPanic     = "panic"
)

// Collector is a prometheus.Collector with metrics of delivery runs
type Collector struct {
	runs        *prometheus.CounterVec
	runDuration prometheus.Histogram
	inFlight    prometheus.Gauge
	transports  *prometheus.CounterVec
	ticks       prometheus.Counter
}

// NewMetricsCollector returns a new Collector
func NewMetricsCollector() *Collector {
	return &Collector{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "runs_total",
				Help:      "The number of pipeline runs by result.",
			}, []string{"result"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "run_duration_seconds",
				Help:      "The wall-clock time of a pipeline run.",
				Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
			},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "runs_in_flight",
				Help:      "The number of pipeline runs submitted and not finished.",
			},
		),
		transports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "transport_deliveries_total",
				Help:      "The number of transport deliveries by transport and result.",
			}, []string{"transport", "result"},
		),
		ticks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "ticks_total",
				Help:      "The number of schedule evaluations.",
			},
		),
	}
}

// Describe is part of the prometheus.Collector interface
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.runs.Describe(ch)
	c.runDuration.Describe(ch)
	c.inFlight.Describe(ch)
	c.transports.Describe(ch)
	c.ticks.Describe(ch)
}

// Collect is part of the prometheus.Collector interface
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.runs.Collect(ch)
	c.runDuration.Collect(ch)
	c.inFlight.Collect(ch)
	c.transports.Collect(ch)
	c.ticks.Collect(ch)
}
