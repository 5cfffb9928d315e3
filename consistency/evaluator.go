package consistency

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/katalvlaran/lvslam/detector"
	"github.com/katalvlaran/lvslam/icp"
	"github.com/katalvlaran/lvslam/matrix"
	"github.com/katalvlaran/lvslam/partition"
	"github.com/katalvlaran/lvslam/posegraph"
	"github.com/katalvlaran/lvslam/projection"
	"github.com/katalvlaran/lvslam/scan"
	"github.com/katalvlaran/lvslam/se2"
)

// ErrNilMatcher indicates New was called without a scan matcher.
var ErrNilMatcher = errors.New("consistency: matcher is nil")

// Defaults for New.
const (
	DefaultGoodnessThreshold = 0.75
	DefaultMaxHypotheses     = 40
	DefaultMinHypotheses     = 2
	DefaultEigenRatio        = 2.0
	DefaultFallbackVariance  = 0.01
	DefaultPrior             = 1e-4
)

// Decision is the outcome of evaluating one partition.
type Decision int

const (
	// Accepted means at least one hypothesis was committed.
	Accepted Decision = iota
	// AlreadyEvaluated means the partition was seen before and skipped.
	AlreadyEvaluated
	// TooFewHypotheses means fewer matches than the minimum cleared the threshold.
	TooFewHypotheses
	// Ambiguous means λ1/λ2 was below the eigen ratio.
	Ambiguous
)

// String implements fmt.Stringer.
func (d Decision) String() string {
	switch d {
	case Accepted:
		return "accepted"
	case AlreadyEvaluated:
		return "already-evaluated"
	case TooFewHypotheses:
		return "too-few-hypotheses"
	case Ambiguous:
		return "ambiguous"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// Hypothesis is a proposed loop-closing transform from an early node to a late one.
type Hypothesis struct {
	From, To posegraph.NodeID
	PDF      se2.PDF
	Goodness float64
}

// Report describes the most recent evaluation.
type Report struct {
	Partition   partition.Partition
	Decision    Decision
	Hypotheses  []Hypothesis
	Matrix      *matrix.Dense
	Eigenvalues []float64
	Ratio       float64
	Accepted    []Hypothesis
}

// Options holds the evaluator's tunables.
type Options struct {
	GoodnessThreshold float64
	MaxHypotheses     int
	MinHypotheses     int
	EigenRatio        float64
	FallbackVariance  float64
	Prior             float64
	Logger            *zap.Logger
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		GoodnessThreshold: DefaultGoodnessThreshold,
		MaxHypotheses:     DefaultMaxHypotheses,
		MinHypotheses:     DefaultMinHypotheses,
		EigenRatio:        DefaultEigenRatio,
		FallbackVariance:  DefaultFallbackVariance,
		Prior:             DefaultPrior,
		Logger:            zap.NewNop(),
	}
}

// Option mutates Options.
type Option func(*Options)

// WithGoodnessThreshold sets the goodness a hypothesis must exceed.
// Panics unless 0 <= t <= 1.
func WithGoodnessThreshold(t float64) Option {
	if t < 0 || t > 1 {
		panic(fmt.Sprintf("consistency: WithGoodnessThreshold(%g): must be within [0,1]", t))
	}

	return func(o *Options) { o.GoodnessThreshold = t }
}

// WithHypothesisBounds sets the minimum and maximum hypothesis counts.
// Panics unless 2 <= lo <= hi.
func WithHypothesisBounds(lo, hi int) Option {
	if lo < 2 || hi < lo {
		panic(fmt.Sprintf("consistency: WithHypothesisBounds(%d, %d): need 2 <= lo <= hi", lo, hi))
	}

	return func(o *Options) { o.MinHypotheses, o.MaxHypotheses = lo, hi }
}

// WithEigenRatio sets the λ1/λ2 ratio below which a partition is ambiguous.
// Panics if r < 1.
func WithEigenRatio(r float64) Option {
	if r < 1 {
		panic(fmt.Sprintf("consistency: WithEigenRatio(%g): must be >= 1", r))
	}

	return func(o *Options) { o.EigenRatio = r }
}

// WithFallbackVariance sets the per-node variance used for relative poses
// the projector cannot supply. Panics if v <= 0.
func WithFallbackVariance(v float64) Option {
	if v <= 0 {
		panic(fmt.Sprintf("consistency: WithFallbackVariance(%g): must be positive", v))
	}

	return func(o *Options) { o.FallbackVariance = v }
}

// WithPrior sets k for the k·I substitute applied to degenerate match uncertainty.
// Panics if k <= 0.
func WithPrior(k float64) Option {
	if k <= 0 {
		panic(fmt.Sprintf("consistency: WithPrior(%g): must be positive", k))
	}

	return func(o *Options) { o.Prior = k }
}

// WithLogger attaches a logger; nil means zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		if l == nil {
			l = zap.NewNop()
		}
		o.Logger = l
	}
}

type pair struct{ from, to posegraph.NodeID }

// Evaluator runs the pairwise consistency check on candidate partitions.
type Evaluator struct {
	g     posegraph.Graph
	m     icp.Matcher
	scans *scan.Store
	proj  *projection.Projector
	opts  Options
	log   *zap.Logger

	evaluated map[string]struct{}
	committed map[pair]struct{}
	last      Report
}

// New binds an evaluator to its collaborators. proj may be nil, in which
// case every relative pose falls back to the graph poses.
// Errors: posegraph.ErrNilGraph, ErrNilMatcher.
func New(g posegraph.Graph, m icp.Matcher, scans *scan.Store, proj *projection.Projector, opts ...Option) (*Evaluator, error) {
	if g == nil {
		return nil, posegraph.ErrNilGraph
	}
	if m == nil {
		return nil, ErrNilMatcher
	}
	if scans == nil {
		scans = scan.NewStore()
	}
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &Evaluator{
		g:         g,
		m:         m,
		scans:     scans,
		proj:      proj,
		opts:      o,
		log:       o.Logger.Named("consistency"),
		evaluated: make(map[string]struct{}),
		committed: make(map[pair]struct{}),
	}, nil
}

// LastReport returns the report of the most recent Evaluate call.
func (ev *Evaluator) LastReport() Report { return ev.last }

// Evaluated reports how many distinct partitions have been evaluated.
func (ev *Evaluator) Evaluated() int { return len(ev.evaluated) }

// Evaluate validates the hypotheses of one candidate partition and commits
// the mutually consistent ones as loop-closure edges.
//
// Implementation:
//   - Stage 1: Skip partitions already evaluated (by member set).
//   - Stage 2: Generate hypotheses early→late.
//   - Stage 3: Build the consistency matrix and select the dominant cluster.
//   - Stage 4: Insert one LoopClosure edge per accepted hypothesis.
//
// Returns the committed edges. Rejections are not errors.
func (ev *Evaluator) Evaluate(c detector.Candidate) ([]posegraph.Edge, error) {
	key := c.Partition.Key()
	if _, seen := ev.evaluated[key]; seen {
		ev.last = Report{Partition: c.Partition, Decision: AlreadyEvaluated}
		return nil, nil
	}
	ev.evaluated[key] = struct{}{}

	hyps, err := ev.hypotheses(c)
	if err != nil {
		return nil, err
	}
	rep := Report{Partition: c.Partition, Hypotheses: hyps}
	if len(hyps) < ev.opts.MinHypotheses {
		rep.Decision = TooFewHypotheses
		ev.last = rep
		ev.log.Debug("too few hypotheses", zap.String("partition", key), zap.Int("count", len(hyps)))

		return nil, nil
	}

	a := ev.consistencyMatrix(hyps)
	sel, err := selectDominant(a)
	if err != nil {
		return nil, fmt.Errorf("consistency: %w", err)
	}
	rep.Matrix, rep.Eigenvalues, rep.Ratio = a, sel.values, sel.ratio
	if sel.ratio < ev.opts.EigenRatio {
		rep.Decision = Ambiguous
		ev.last = rep
		ev.log.Info("ambiguous partition",
			zap.String("partition", key), zap.Float64("ratio", sel.ratio))

		return nil, nil
	}

	var edges []posegraph.Edge
	for _, i := range sel.members {
		h := hyps[i]
		e := posegraph.Edge{From: h.From, To: h.To, PDF: h.PDF, Kind: posegraph.LoopClosure}
		if err = ev.g.InsertEdge(e); err != nil {
			ev.last = rep

			return edges, fmt.Errorf("consistency: %w", err)
		}
		ev.committed[pair{h.From, h.To}] = struct{}{}
		rep.Accepted = append(rep.Accepted, h)
		edges = append(edges, e)
	}
	rep.Decision = Accepted
	ev.last = rep
	ev.log.Info("loop closures accepted",
		zap.String("partition", key),
		zap.Int("hypotheses", len(hyps)),
		zap.Int("accepted", len(edges)),
		zap.Float64("ratio", sel.ratio))

	return edges, nil
}

// hypotheses matches every early scan against every late scan in ID order
// until MaxHypotheses have cleared the threshold.
func (ev *Evaluator) hypotheses(c detector.Candidate) ([]Hypothesis, error) {
	var early, late []posegraph.NodeID
	for _, id := range c.Partition {
		switch {
		case id <= c.GapFrom:
			early = append(early, id)
		case id >= c.GapTo:
			late = append(late, id)
		}
	}

	form := ev.g.Form()
	var out []Hypothesis
	for _, a := range early {
		sa, ok := ev.scans.Get(a)
		if !ok {
			continue
		}
		pa, err := ev.g.Pose(a)
		if err != nil {
			return nil, err
		}
		for _, b := range late {
			if len(out) == ev.opts.MaxHypotheses {
				return out, nil
			}
			if _, done := ev.committed[pair{a, b}]; done {
				continue
			}
			sb, ok := ev.scans.Get(b)
			if !ok {
				continue
			}
			pb, err := ev.g.Pose(b)
			if err != nil {
				return nil, err
			}
			res, err := ev.m.Match(sa, sb, pb.Sub(pa))
			if err != nil || res.Goodness <= ev.opts.GoodnessThreshold {
				continue
			}
			pdf := res.Pose
			pdf.Unc = pdf.Unc.Regularize(ev.opts.Prior)
			if pdf.Unc, err = pdf.Unc.To(form); err != nil {
				continue
			}
			out = append(out, Hypothesis{From: a, To: b, PDF: pdf, Goodness: res.Goodness})
		}
	}

	return out, nil
}
