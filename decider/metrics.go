package decider

import (
	"github.com/prometheus/client_golang/prometheus"
)

const labelType = "type"

// Edge-type labels used by the tally and the edge counter.
const (
	TypeICP2D = "ICP2D"
	TypeLC    = "LC"
)

type metrics struct {
	edges      *prometheus.CounterVec
	partitions prometheus.Gauge
	candidates prometheus.Counter
	invalid    prometheus.Gauge
	projection prometheus.Histogram
}

func newMetrics() *metrics {
	m := &metrics{
		edges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lvslam_edges_registered_total",
			Help: "The number of edges the decider inserted, by type",
		}, []string{labelType}),
		partitions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lvslam_partitions",
			Help: "The number of map partitions after the last refresh",
		}),
		candidates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lvslam_loop_closure_candidates_total",
			Help: "The number of partitions flagged as loop-closure candidates",
		}),
		invalid: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lvslam_consecutive_invalid_observations",
			Help: "The number of consecutive observations without usable range data",
		}),
		projection: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lvslam_projection_duration_seconds",
			Help:    "The time it takes to recompute the optimal-path table",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
	}
	m.edges.WithLabelValues(TypeICP2D)
	m.edges.WithLabelValues(TypeLC)

	return m
}

func (m *metrics) register(r prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.edges, m.partitions, m.candidates, m.invalid, m.projection} {
		if err := r.Register(c); err != nil {
			return err
		}
	}

	return nil
}
