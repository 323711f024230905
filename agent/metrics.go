package agent

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the Prometheus collectors of the agent loop. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	Steps           *prometheus.CounterVec
	Actions         *prometheus.CounterVec
	EditorRecovered prometheus.Counter
	RenderedChars   prometheus.Counter
	ModelDuration   *prometheus.HistogramVec
	LoopsDetected   prometheus.Counter
}

// NewMetrics creates the collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	steps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "codeact_steps_total",
		Help: "Agent steps by the parser branch that produced the action",
	}, []string{"branch"})

	actions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "codeact_actions_total",
		Help: "Parsed actions by kind",
	}, []string{"kind"})

	recovered := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "codeact_editor_recovered_total",
		Help: "Editor spans that could not be parsed and became an invalid-operation message",
	})

	chars := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "codeact_rendered_chars_total",
		Help: "Characters exchanged with the model (prompt plus reply)",
	})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "codeact_model_duration_seconds",
		Help:    "Model completion latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	loops := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "codeact_loops_detected_total",
		Help: "Repeating action patterns detected",
	})

	reg.MustRegister(steps, actions, recovered, chars, duration, loops)

	return &Metrics{
		registry:        reg,
		Steps:           steps,
		Actions:         actions,
		EditorRecovered: recovered,
		RenderedChars:   chars,
		ModelDuration:   duration,
		LoopsDetected:   loops,
	}
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordStep records the outcome of one parsed step.
func (m *Metrics) RecordStep(res StepResult) {
	if m == nil {
		return
	}
	branch := string(res.Branch)
	if branch == "" {
		branch = "short_circuit"
	}
	m.Steps.WithLabelValues(branch).Inc()
	if res.Action != nil {
		m.Actions.WithLabelValues(string(res.Action.Kind())).Inc()
	}
	if res.Recovered != nil {
		m.EditorRecovered.Inc()
	}
	m.RenderedChars.Add(float64(res.Chars))
}

// RecordModelCall observes one completion.
func (m *Metrics) RecordModelCall(d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.ModelDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// RecordLoop counts a detected loop.
func (m *Metrics) RecordLoop() {
	if m == nil {
		return
	}
	m.LoopsDetected.Inc()
}
