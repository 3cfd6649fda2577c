// Package metrics exports solver activity as Prometheus metrics.
package metrics

import (
	"github.com/chazu/tessera/pkg/catalog"
	"github.com/chazu/tessera/pkg/grid"
	"github.com/chazu/tessera/pkg/solver"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tessera"

// Recorder implements solver.Recorder on top of Prometheus collectors.
type Recorder struct {
	steps          *prometheus.CounterVec
	collapses      *prometheus.CounterVec
	contradictions prometheus.Counter
	generations    prometheus.Counter
	finishes       prometheus.Counter
	components     prometheus.Gauge
	finalComps     prometheus.Histogram
}

var _ solver.Recorder = (*Recorder)(nil)

// New creates a Recorder and registers its collectors on reg.
func New(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Solver ticks, by the state the tick ended in.",
		}, []string{"state"}),
		collapses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collapses_total",
			Help:      "Cells collapsed, by tile category.",
		}, []string{"category"}),
		contradictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contradictions_total",
			Help:      "Cells left with no candidates.",
		}),
		generations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Grid generations started, including the first.",
		}),
		finishes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "finishes_total",
			Help:      "Grids solved without contradiction.",
		}),
		components: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "components",
			Help:      "Connected structures in the current grid.",
		}),
		finalComps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "finished_components",
			Help:      "Structure count of each finished grid.",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		}),
	}
	for _, c := range []prometheus.Collector{
		r.steps, r.collapses, r.contradictions, r.generations,
		r.finishes, r.components, r.finalComps,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Recorder) Step(state solver.State) {
	r.steps.WithLabelValues(state.String()).Inc()
}

func (r *Recorder) Collapse(_ grid.Position, m *catalog.TileModel) {
	if m == nil {
		return
	}
	r.collapses.WithLabelValues(m.Category.String()).Inc()
}

func (r *Recorder) Contradiction(grid.Position) { r.contradictions.Inc() }

func (r *Recorder) Restart(string) { r.generations.Inc() }

func (r *Recorder) Finish(components int) {
	r.finishes.Inc()
	r.finalComps.Observe(float64(components))
}

func (r *Recorder) Components(n int) { r.components.Set(float64(n)) }
