package production

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/comalice/tickfsm"
)

const namespace = "tickfsm"

// Metrics holds the collectors shared by every MetricsObserver registered
// against the same registry.
type Metrics struct {
	ticks       *prometheus.CounterVec
	transitions *prometheus.CounterVec
	resets      *prometheus.CounterVec
	timeInState *prometheus.HistogramVec
	current     *prometheus.GaugeVec
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ticks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Total number of ticks run",
		}, []string{"machine"}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Total number of state transitions",
		}, []string{"machine", "from", "to"}),
		resets: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resets_total",
			Help:      "Total number of resets to the initial state",
		}, []string{"machine"}),
		timeInState: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "time_in_state_seconds",
			Help:      "Time spent in a state before leaving it",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"machine", "state"}),
		current: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "current_state",
			Help:      "1 for the state the machine is in, 0 for states it has left",
		}, []string{"machine", "state"}),
	}
}

// MetricsObserver records one machine's activity into Metrics.
type MetricsObserver[K tickfsm.StateKey] struct {
	metrics *Metrics
	machine string
	ticks   prometheus.Counter
	resets  prometheus.Counter
	last    K
	seen    bool
}

// NewMetricsObserver returns an observer labelling its samples with machine.
func NewMetricsObserver[K tickfsm.StateKey](m *Metrics, machine string) *MetricsObserver[K] {
	return &MetricsObserver[K]{
		metrics: m,
		machine: machine,
		ticks:   m.ticks.WithLabelValues(machine),
		resets:  m.resets.WithLabelValues(machine),
	}
}

func (o *MetricsObserver[K]) OnTick(current K, _ tickfsm.Timestamp, _ time.Duration) {
	o.ticks.Inc()
	o.setCurrent(current)
}

func (o *MetricsObserver[K]) OnTransition(t tickfsm.Transition[K]) {
	from, to := t.From.String(), t.To.String()
	o.metrics.transitions.WithLabelValues(o.machine, from, to).Inc()
	o.metrics.timeInState.WithLabelValues(o.machine, from).Observe(t.TimeInState.Seconds())
	o.setCurrent(t.To)
}

func (o *MetricsObserver[K]) OnReset(_, initial K, _ tickfsm.Timestamp) {
	o.resets.Inc()
	o.setCurrent(initial)
}

func (o *MetricsObserver[K]) setCurrent(current K) {
	if o.seen && o.last == current {
		return
	}
	if o.seen {
		o.metrics.current.WithLabelValues(o.machine, o.last.String()).Set(0)
	}
	o.metrics.current.WithLabelValues(o.machine, current.String()).Set(1)
	o.last, o.seen = current, true
}
