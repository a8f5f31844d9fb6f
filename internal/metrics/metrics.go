// Package metrics records per-run migration metrics and writes them in the
// node-exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the metrics for one process run. A nil *Recorder is valid
// and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	// StepsTotal counts finished steps by direction and result.
	StepsTotal *prometheus.CounterVec

	// StepDuration observes the time spent in each phase of a step.
	StepDuration *prometheus.HistogramVec

	// HeadCommitsTotal counts successful head commits.
	HeadCommitsTotal prometheus.Counter
}

func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		StepsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "schemahead_steps_total",
				Help: "Total migration steps finished",
			},
			[]string{"direction", "result"},
		),
		StepDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "schemahead_step_duration_seconds",
				Help:    "Duration of each migration step phase",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
			},
			[]string{"direction", "phase"},
		),
		HeadCommitsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "schemahead_head_commits_total",
				Help: "Total head pointer commits",
			},
		),
	}
}

// ObservePhase records how long a phase took.
func (r *Recorder) ObservePhase(direction, phase string, d time.Duration) {
	if r == nil {
		return
	}
	r.StepDuration.WithLabelValues(direction, phase).Observe(d.Seconds())
}

// StepFinished counts a step as "applied" or "failed".
func (r *Recorder) StepFinished(direction, result string) {
	if r == nil {
		return
	}
	r.StepsTotal.WithLabelValues(direction, result).Inc()
}

// HeadCommitted counts a head commit.
func (r *Recorder) HeadCommitted() {
	if r == nil {
		return
	}
	r.HeadCommitsTotal.Inc()
}

// WriteFile writes every metric to path atomically. It is a no-op when r is
// nil or path is empty.
func (r *Recorder) WriteFile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}

// Gatherer exposes the private registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}
