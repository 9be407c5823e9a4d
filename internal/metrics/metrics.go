// Package metrics records run outcomes as Prometheus metrics and exports them
// in the node-exporter textfile format for hosts that scrape CI runners.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/stolostron/capitest/internal/report"
	"github.com/stolostron/capitest/internal/suite"
)

const namespace = "capitest"

// Recorder collects metrics for a single run on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	stepsTotal    *prometheus.CounterVec
	stepDuration  *prometheus.HistogramVec
	suitesTotal   *prometheus.CounterVec
	suiteDuration *prometheus.HistogramVec
	runSuccess    prometheus.Gauge
	runExitCode   prometheus.Gauge
	runTimestamp  prometheus.Gauge
	runDuration   prometheus.Gauge
	invalidSuites prometheus.Gauge
}

// NewRecorder creates a Recorder with every collector registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		stepsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "step",
				Name:      "results_total",
				Help:      "Step results by suite and status",
			},
			[]string{"suite", "status"},
		),
		stepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "step",
				Name:      "duration_seconds",
				Help:      "Duration of executed steps in seconds",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~34min
			},
			[]string{"suite"},
		),
		suitesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "suite",
				Name:      "results_total",
				Help:      "Suite outcomes",
			},
			[]string{"suite", "outcome"},
		),
		suiteDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "suite",
				Name:      "duration_seconds",
				Help:      "Duration of suites in seconds",
				Buckets:   prometheus.ExponentialBuckets(10, 2, 10), // 10s to ~85min
			},
			[]string{"suite"},
		),
		runSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "success",
			Help:      "1 if every suite in the last run passed",
		}),
		runExitCode: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "exit_code",
			Help:      "Exit code of the last run",
		}),
		runTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "last_completion_timestamp_seconds",
			Help:      "Unix time the last run completed",
		}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Duration of the last run in seconds",
		}),
		invalidSuites: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "invalid_suites",
			Help:      "Suite records rejected during loading",
		}),
	}
	r.registry.MustRegister(
		r.stepsTotal,
		r.stepDuration,
		r.suitesTotal,
		r.suiteDuration,
		r.runSuccess,
		r.runExitCode,
		r.runTimestamp,
		r.runDuration,
		r.invalidSuites,
	)
	return r
}

// Registry exposes the underlying registry, e.g. for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// SuiteStarted is a no-op; suites are counted when they finish.
func (r *Recorder) SuiteStarted(suite.Definition) {}

// StepStarted is a no-op; steps are counted when they finish.
func (r *Recorder) StepStarted(string, suite.Step) {}

// StepFinished counts the step and, if it ran, observes its duration.
func (r *Recorder) StepFinished(suiteID string, result report.StepResult) {
	r.stepsTotal.WithLabelValues(suiteID, string(result.Status)).Inc()
	if result.Executed() {
		r.stepDuration.WithLabelValues(suiteID).Observe(result.Duration.Seconds())
	}
}

// SuiteFinished counts the suite outcome and observes its duration.
func (r *Recorder) SuiteFinished(result report.SuiteResult) {
	r.suitesTotal.WithLabelValues(result.ID, string(result.Outcome)).Inc()
	r.suiteDuration.WithLabelValues(result.ID).Observe(result.Duration.Seconds())
}

// ObserveRun records run-level gauges from the final report.
func (r *Recorder) ObserveRun(run report.RunReport) {
	success := 0.0
	if run.Succeeded() {
		success = 1
	}
	r.runSuccess.Set(success)
	r.runExitCode.Set(float64(run.ExitCode))
	r.runTimestamp.Set(float64(run.EndTime.Unix()))
	r.runDuration.Set(run.Duration.Seconds())
	r.invalidSuites.Set(float64(len(run.Invalid)))
}

// WriteTextfile writes every metric to path atomically in the text
// exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile %q: %w", path, err)
	}
	return nil
}
