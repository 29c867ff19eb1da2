// Package metrics exports society run activity as Prometheus collectors.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/rolemesh/society"
)

const namespace = "rolemesh"

// Metrics is a society.Observer that records run, round and token counters.
type Metrics struct {
	runsActive    prometheus.Gauge
	runsTotal     *prometheus.CounterVec
	roundsTotal   prometheus.Counter
	roundDuration prometheus.Histogram
	toolCalls     prometheus.Counter
	tokens        *prometheus.CounterVec
	runRounds     prometheus.Histogram
}

var _ society.Observer = (*Metrics)(nil)

// MustNewMetrics constructs a Metrics instance using the provided registerer.
// Collectors already registered under the same names are reused; any other
// registration error panics.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		runsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "society",
			Name:      "runs_active",
			Help:      "Number of society runs currently in progress.",
		}),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "society",
			Name:      "runs_total",
			Help:      "Finished society runs by final state.",
		}, []string{"state"}),
		roundsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "society",
			Name:      "rounds_total",
			Help:      "Completed director/executor rounds.",
		}),
		roundDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "society",
			Name:      "round_duration_seconds",
			Help:      "Wall time of one round including model and tool calls.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		toolCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "society",
			Name:      "tool_calls_total",
			Help:      "Tool calls issued by executors.",
		}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "society",
			Name:      "tokens_total",
			Help:      "Accumulated model tokens by kind.",
		}, []string{"kind"}),
		runRounds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "society",
			Name:      "run_rounds",
			Help:      "Rounds needed per finished run.",
			Buckets:   prometheus.LinearBuckets(1, 1, 15),
		}),
	}

	m.runsActive = register(reg, m.runsActive)
	m.runsTotal = register(reg, m.runsTotal)
	m.roundsTotal = register(reg, m.roundsTotal)
	m.roundDuration = register(reg, m.roundDuration)
	m.toolCalls = register(reg, m.toolCalls)
	m.tokens = register(reg, m.tokens)
	m.runRounds = register(reg, m.runRounds)

	return m
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// RunStarted implements society.Observer.
func (m *Metrics) RunStarted(society.RunInfo) {
	if m == nil {
		return
	}
	m.runsActive.Inc()
}

// RoundCompleted implements society.Observer.
func (m *Metrics) RoundCompleted(ev society.RoundEvent) {
	if m == nil {
		return
	}
	m.roundsTotal.Inc()
	m.roundDuration.Observe(ev.Duration.Seconds())
	m.toolCalls.Add(float64(ev.ToolCalls))
	if ev.RoundUsage != nil {
		m.tokens.WithLabelValues("prompt").Add(float64(ev.RoundUsage.PromptTokens))
		m.tokens.WithLabelValues("completion").Add(float64(ev.RoundUsage.CompletionTokens))
	}
}

// RunFinished implements society.Observer. Failed runs are counted under
// the "error" state.
func (m *Metrics) RunFinished(_ society.RunInfo, res society.Result, err error) {
	if m == nil {
		return
	}
	m.runsActive.Dec()

	state := res.State.String()
	if err != nil {
		state = "error"
	}
	m.runsTotal.WithLabelValues(state).Inc()
	m.runRounds.Observe(float64(res.Rounds))
}
