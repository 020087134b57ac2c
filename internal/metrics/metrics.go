// Package metrics exposes Prometheus counters for the watch loop and an HTTP
// server for /metrics and /healthz.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"dropsort/internal/organizer"
)

const namespace = "dropsort"

// Recorder owns a private registry so tests and multiple daemons never share
// global collectors.
type Recorder struct {
	registry *prometheus.Registry

	// FilesTotal counts reported results per category and outcome.
	FilesTotal *prometheus.CounterVec
	// EventsTotal counts notifications per kind.
	EventsTotal *prometheus.CounterVec
	// InflightWorkers tracks running organize jobs.
	InflightWorkers prometheus.Gauge
	// ProcessingSeconds observes time from dispatch to result.
	ProcessingSeconds prometheus.Histogram
}

// New registers the dropsort collectors plus the Go and process collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		FilesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "files_total",
				Help:      "Files handled by the organizer, by category and outcome",
			},
			[]string{"category", "outcome"},
		),
		EventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Filesystem notifications received, by kind",
			},
			[]string{"kind"},
		),
		InflightWorkers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inflight_workers",
			Help:      "Organize jobs currently running",
		}),
		ProcessingSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "processing_seconds",
			Help:      "Time spent settling, classifying and placing one file",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

// Registry returns the registry backing r.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

func (r *Recorder) EventObserved(kind string) {
	r.EventsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) ResultObserved(result organizer.Result) {
	category := string(result.Category)
	if category == "" {
		category = "none"
	}
	r.FilesTotal.WithLabelValues(category, string(result.Outcome)).Inc()
	if result.Elapsed > 0 {
		r.ProcessingSeconds.Observe(result.Elapsed.Seconds())
	}
}

func (r *Recorder) WorkerStarted()  { r.InflightWorkers.Inc() }
func (r *Recorder) WorkerFinished() { r.InflightWorkers.Dec() }
