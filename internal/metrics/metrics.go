// Package metrics records analysis metrics on a private Prometheus registry.
// A nil *Recorder is valid and records nothing.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ats_scorer"

// Outcomes of a generator call.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Recorder holds the analysis metrics.
type Recorder struct {
	registry       *prometheus.Registry
	stageDuration  *prometheus.HistogramVec
	fallbacks      *prometheus.CounterVec
	generatorCalls *prometheus.CounterVec
	generatorTime  *prometheus.HistogramVec
	analyses       *prometheus.CounterVec
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of analysis stages.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage", "state"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Local fallbacks taken instead of a generated or computed result.",
		}, []string{"component", "reason"}),
		generatorCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generator_calls_total",
			Help:      "Text generation calls by generator and outcome.",
		}, []string{"generator", "outcome"}),
		generatorTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generator_call_duration_seconds",
			Help:      "Duration of text generation calls.",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		}, []string{"generator"}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Completed analyses by mode.",
		}, []string{"mode"}),
	}

	r.registry.MustRegister(r.stageDuration, r.fallbacks, r.generatorCalls, r.generatorTime, r.analyses)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) ObserveStage(stage, state string, d time.Duration) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage, state).Observe(d.Seconds())
}

func (r *Recorder) Fallback(component, reason string) {
	if r == nil {
		return
	}
	r.fallbacks.WithLabelValues(component, reason).Inc()
}

// ObserveGenerator matches ai.ObserveFunc.
func (r *Recorder) ObserveGenerator(generator string, d time.Duration, err error) {
	if r == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	r.generatorCalls.WithLabelValues(generator, outcome).Inc()
	r.generatorTime.WithLabelValues(generator).Observe(d.Seconds())
}

func (r *Recorder) Analysis(mode string) {
	if r == nil {
		return
	}
	r.analyses.WithLabelValues(mode).Inc()
}

// WriteTextfile writes every metric in the text exposition format, for the
// node_exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
