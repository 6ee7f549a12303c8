package observability

import (
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports tick and node state counters to Prometheus.
type Metrics struct {
	ticks  prometheus.Counter
	states *prometheus.CounterVec
	runs   *prometheus.CounterVec
	length prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arbor_ticks_total",
			Help: "Number of ticks evaluated.",
		}),
		states: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arbor_node_states_total",
			Help: "Node states recorded, by node kind and status.",
		}, []string{"kind", "status"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arbor_runs_total",
			Help: "Finished runs, by outcome.",
		}, []string{"outcome"}),
		length: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "arbor_run_ticks",
			Help:    "Ticks needed to finish a run.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
	for _, c := range []prometheus.Collector{m.ticks, m.states, m.runs, m.length} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Tracer returns a tracer counting the events of a run over graph g.
func (m *Metrics) Tracer(g *domain.Graph) ports.Tracer {
	return ports.TracerFunc(func(e domain.Event) {
		switch e.Kind {
		case domain.EventNextTick:
			m.ticks.Inc()
		case domain.EventNewState:
			kind := "unknown"
			if n, ok := g.Nodes[e.NodeID]; ok {
				kind = n.Kind.String()
			}
			m.states.WithLabelValues(kind, e.State.Status.String()).Inc()
		}
	})
}

// ObserveRun records a finished run. Errored runs are labelled "error".
func (m *Metrics) ObserveRun(out domain.Outcome, ticks int64, err error) {
	label := out.Status.String()
	if err != nil {
		label = "error"
	}
	m.runs.WithLabelValues(label).Inc()
	m.length.Observe(float64(ticks))
}
