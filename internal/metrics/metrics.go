// Package metrics records pipeline stage runs as Prometheus series.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ezoic/finml/pipeline"
	finErrors "github.com/ezoic/finml/pkg/errors"
)

// Stage run outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeWarning = "warning"
	OutcomeError   = "error"
)

// Recorder implements pipeline.Observer using Prometheus. Each Recorder owns
// its registry so several can coexist in tests.
type Recorder struct {
	registry *prometheus.Registry
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New creates a Recorder registered with a fresh registry. Go runtime and
// process collectors are included when withRuntime is set.
func New(withRuntime bool) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "finml",
				Name:      "stage_runs_total",
				Help:      "Stage handler invocations by outcome",
			},
			[]string{"stage", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "finml",
				Name:      "stage_duration_seconds",
				Help:      "Duration of stage handlers in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"stage"},
		),
	}
	r.registry.MustRegister(r.runs, r.duration)
	if withRuntime {
		r.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return r
}

// StageCompleted counts the run and observes its duration. Refused runs are
// counted as warnings and not timed.
func (r *Recorder) StageCompleted(stage pipeline.Stage, elapsed time.Duration, err error) {
	outcome := Outcome(err)
	r.runs.WithLabelValues(stage.String(), outcome).Inc()
	if outcome != OutcomeWarning {
		r.duration.WithLabelValues(stage.String()).Observe(elapsed.Seconds())
	}
}

// Outcome classifies a handler result.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, finErrors.ErrPrerequisiteNotMet):
		return OutcomeWarning
	default:
		return OutcomeError
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

var _ pipeline.Observer = (*Recorder)(nil)
