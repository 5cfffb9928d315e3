package decider

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/katalvlaran/lvslam/config"
	"github.com/katalvlaran/lvslam/consistency"
	"github.com/katalvlaran/lvslam/detector"
	"github.com/katalvlaran/lvslam/icp"
	"github.com/katalvlaran/lvslam/partition"
	"github.com/katalvlaran/lvslam/posegraph"
	"github.com/katalvlaran/lvslam/projection"
	"github.com/katalvlaran/lvslam/registrar"
	"github.com/katalvlaran/lvslam/scan"
)

// ErrUnusableDataset is returned by UpdateState once too many consecutive
// observations lacked range data. It is terminal.
var ErrUnusableDataset = errors.New("decider: dataset has no usable range scans")

type options struct {
	log *zap.Logger
	reg prometheus.Registerer
}

// Option configures a Decider.
type Option func(*options)

// WithLogger attaches a logger; nil means zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l == nil {
			l = zap.NewNop()
		}
		o.log = l
	}
}

// WithRegisterer registers the decider's collectors on r.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(o *options) { o.reg = r }
}

// Decider registers scan-match and loop-closure edges into a pose graph.
type Decider struct {
	mu sync.Mutex

	g    posegraph.Graph
	cfg  config.Config
	log  *zap.Logger
	met  *metrics
	reg  *registrar.Registrar
	det  *detector.Detector
	proj *projection.Projector
	eval *consistency.Evaluator

	scans    *scan.Store
	lastScan *scan.Scan
	seen     int // node count at the previous update

	tally   map[string]int
	invalid int
	usable  bool
	justLC  bool
}

// New wires a decider over g.
//
// A nil matcher selects icp.NewPointToPoint(); a nil partitioner selects a
// partition.Grid with cfg.Partitions.CellSize; a nil cfg selects
// config.Default(). The configuration is validated and copied.
//
// Errors: posegraph.ErrNilGraph, config.ErrInvalid, collector registration errors.
func New(g posegraph.Graph, m icp.Matcher, p partition.Partitioner, cfg *config.Config, opts ...Option) (*Decider, error) {
	if g == nil {
		return nil, posegraph.ErrNilGraph
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if m == nil {
		m = icp.NewPointToPoint()
	}
	if p == nil {
		p = partition.NewGrid(cfg.Partitions.CellSize)
	}

	d := &Decider{
		g:      g,
		cfg:    *cfg,
		log:    o.log.Named("decider"),
		met:    newMetrics(),
		scans:  scan.NewStore(),
		tally:  map[string]int{TypeICP2D: 0, TypeLC: 0},
		usable: true,
	}
	if o.reg != nil {
		if err := d.met.register(o.reg); err != nil {
			return nil, fmt.Errorf("decider: register metrics: %w", err)
		}
	}

	var err error
	if d.reg, err = registrar.New(g, m, d.scans,
		registrar.WithWindow(cfg.Registration.Window),
		registrar.WithGoodnessThreshold(cfg.Registration.GoodnessThreshold),
		registrar.WithPrior(cfg.Projection.Prior),
		registrar.WithLogger(o.log),
	); err != nil {
		return nil, err
	}
	if d.det, err = detector.New(p, g, d.scans,
		detector.WithMinNodeIDDiff(cfg.LoopClosure.MinNodeIDDiff),
		detector.WithLogger(o.log),
	); err != nil {
		return nil, err
	}
	if d.proj, err = projection.NewProjector(g,
		projection.WithPrior(cfg.Projection.Prior),
		projection.WithMinNodes(cfg.Projection.MinNodes),
		projection.WithLogger(o.log),
	); err != nil {
		return nil, err
	}
	if d.eval, err = consistency.New(g, m, d.scans, d.proj,
		consistency.WithGoodnessThreshold(cfg.LoopClosure.GoodnessThreshold),
		consistency.WithHypothesisBounds(cfg.LoopClosure.MinHypotheses, cfg.LoopClosure.MaxHypotheses),
		consistency.WithEigenRatio(cfg.LoopClosure.EigenRatio),
		consistency.WithFallbackVariance(cfg.LoopClosure.FallbackVariance),
		consistency.WithPrior(cfg.Projection.Prior),
		consistency.WithLogger(o.log),
	); err != nil {
		return nil, err
	}

	return d, nil
}

// UpdateState consumes one observation.
//
// Implementation:
//   - Stage 1: Classify the observation; too many scan-less frames in a row
//     make the dataset unusable.
//   - Stage 2: Remember a usable scan as the last scan.
//   - Stage 3: If the graph grew, attach the last scan to the newest node,
//     register scan matches, refresh partitions, project periodically, then
//     detect and evaluate loop-closure candidates.
//
// Errors: ErrUnusableDataset (terminal), plus collaborator errors.
func (d *Decider) UpdateState(obs scan.Observation) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.usable {
		return ErrUnusableDataset
	}
	if obs.HasScan() {
		d.invalid = 0
		d.lastScan = obs.Scan
	} else {
		d.invalid++
		if d.invalid > d.cfg.Dataset.InvalidThreshold {
			d.usable = false
			d.log.Error("dataset unusable", zap.Int("consecutive_invalid", d.invalid))
			d.met.invalid.Set(float64(d.invalid))

			return ErrUnusableDataset
		}
	}
	d.met.invalid.Set(float64(d.invalid))

	d.justLC = false
	n := d.g.NodeCount()
	if n <= d.seen {
		return nil
	}
	d.seen = n

	return d.onNewNode(posegraph.NodeID(n - 1))
}

func (d *Decider) onNewNode(newest posegraph.NodeID) error {
	if d.lastScan != nil {
		d.scans.Put(newest, d.lastScan)
		edges, err := d.reg.RegisterScanMatches(newest)
		d.count(TypeICP2D, len(edges))
		if err != nil {
			return err
		}
	}

	n := int(newest) + 1
	if err := d.det.RefreshPartitions(n%d.cfg.Partitions.FullUpdatePeriod == 0); err != nil {
		return err
	}
	d.met.partitions.Set(float64(len(d.det.Current())))

	d.proj.Invalidate()
	if n%d.cfg.Projection.Interval == 0 {
		start := time.Now()
		if err := d.proj.Project(); err != nil {
			return err
		}
		d.met.projection.Observe(time.Since(start).Seconds())
	}

	cands := d.det.FindLoopClosureCandidates()
	d.met.candidates.Add(float64(len(cands)))
	for _, c := range cands {
		edges, err := d.eval.Evaluate(c)
		d.count(TypeLC, len(edges))
		if len(edges) > 0 {
			d.justLC = true
			d.proj.Invalidate()
		}
		if err != nil {
			return err
		}
	}

	return nil
}

func (d *Decider) count(kind string, k int) {
	if k == 0 {
		return
	}
	d.tally[kind] += k
	d.met.edges.WithLabelValues(kind).Add(float64(k))
}

// EdgeTypeTally returns a copy of the per-type count of inserted edges.
func (d *Decider) EdgeTypeTally() map[string]int {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make(map[string]int, len(d.tally))
	for k, v := range d.tally {
		out[k] = v
	}

	return out
}

// QueryOptimalPath returns the projected root→id path, if any.
func (d *Decider) QueryOptimalPath(id posegraph.NodeID) (projection.Path, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.proj.Optimal(id)
}

// Project forces a projection now, regardless of the interval.
func (d *Decider) Project() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	start := time.Now()
	if err := d.proj.Project(); err != nil {
		return err
	}
	d.met.projection.Observe(time.Since(start).Seconds())

	return nil
}

// JustInsertedLoopClosure reports whether the last UpdateState committed a loop closure.
func (d *Decider) JustInsertedLoopClosure() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.justLC
}

// DatasetUsable reports whether the dataset is still considered usable.
func (d *Decider) DatasetUsable() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.usable
}

// Partitions returns the current map partitions.
func (d *Decider) Partitions() []partition.Partition {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.det.Current()
}

// LastEvaluation returns the report of the most recent consistency evaluation.
func (d *Decider) LastEvaluation() consistency.Report {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.eval.LastReport()
}

// Params returns a copy of the configuration in use.
func (d *Decider) Params() config.Config { return d.cfg }

// Report is a plain-text summary of parameters, tally and partitions.
func (d *Decider) Report() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	var sb strings.Builder
	c := d.cfg
	sb.WriteString("------------[ loop closure decider ]------------\n")
	fmt.Fprintf(&sb, "ICP goodness threshold      = %.2f\n", c.Registration.GoodnessThreshold)
	fmt.Fprintf(&sb, "Previous nodes for ICP      = %d\n", c.Registration.Window)
	fmt.Fprintf(&sb, "Full partition update every = %d nodes\n", c.Partitions.FullUpdatePeriod)
	fmt.Fprintf(&sb, "Min node ID difference      = %d\n", c.LoopClosure.MinNodeIDDiff)
	fmt.Fprintf(&sb, "Projection every            = %d nodes\n", c.Projection.Interval)
	fmt.Fprintf(&sb, "Nodes seen                  = %d\n", d.seen)
	fmt.Fprintf(&sb, "Scans recorded              = %d\n", d.scans.Len())
	fmt.Fprintf(&sb, "Partitions                  = %d\n", len(d.det.Current()))
	fmt.Fprintf(&sb, "Optimal paths               = %d\n", d.proj.Len())
	fmt.Fprintf(&sb, "Dataset usable              = %t\n", d.usable)

	kinds := make([]string, 0, len(d.tally))
	for k := range d.tally {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(&sb, "Edges %-21s = %d\n", k, d.tally[k])
	}

	return sb.String()
}
