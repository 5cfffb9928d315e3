// Package registrar adds local scan-matching constraints: for each new node
// it matches the node's scan against a bounded window of preceding nodes and
// commits an edge prior→node for every match whose goodness clears the
// threshold.
//
// Window selection: with W the window size, node id is matched against all
// earlier nodes when id < W, and against id-1 … id-W otherwise.
//
// The node being registered must already have a scan recorded; calling
// RegisterScanMatches without one is a precondition violation reported as
// ErrMissingScan, with no edge inserted. Window nodes without a scan are
// skipped silently.
package registrar

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/katalvlaran/lvslam/icp"
	"github.com/katalvlaran/lvslam/posegraph"
	"github.com/katalvlaran/lvslam/scan"
)

// Sentinel errors.
var (
	// ErrMissingScan indicates the node being registered has no recorded scan.
	ErrMissingScan = errors.New("registrar: current node has no scan")

	// ErrNilMatcher indicates a nil scan matcher.
	ErrNilMatcher = errors.New("registrar: matcher is nil")

	// ErrNilStore indicates a nil scan store.
	ErrNilStore = errors.New("registrar: scan store is nil")
)

// Defaults for New.
const (
	DefaultWindow    = 10
	DefaultThreshold = 0.75
	DefaultPrior     = 1e-4
)

type options struct {
	window    int
	threshold float64
	prior     float64
	log       *zap.Logger
}

// Option configures a Registrar.
type Option func(*options)

// WithWindow sets W, the number of preceding nodes matched. Panics if w < 1.
func WithWindow(w int) Option {
	if w < 1 {
		panic(fmt.Sprintf("registrar: WithWindow(%d): window must be >= 1", w))
	}

	return func(o *options) { o.window = w }
}

// WithGoodnessThreshold sets the goodness an ICP result must exceed.
// Panics unless 0 <= t <= 1.
func WithGoodnessThreshold(t float64) Option {
	if t < 0 || t > 1 {
		panic(fmt.Sprintf("registrar: WithGoodnessThreshold(%g): must be within [0,1]", t))
	}

	return func(o *options) { o.threshold = t }
}

// WithPrior sets k for the k·I substitute applied to degenerate match uncertainty.
// Panics if k <= 0.
func WithPrior(k float64) Option {
	if k <= 0 {
		panic(fmt.Sprintf("registrar: WithPrior(%g): must be positive", k))
	}

	return func(o *options) { o.prior = k }
}

// WithLogger attaches a logger; nil means zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l == nil {
			l = zap.NewNop()
		}
		o.log = l
	}
}

// Registrar commits scan-match edges into a pose graph.
type Registrar struct {
	g     posegraph.Graph
	m     icp.Matcher
	scans *scan.Store
	opts  options
	log   *zap.Logger
}

// New binds a registrar to its collaborators.
// Errors: posegraph.ErrNilGraph, ErrNilMatcher, ErrNilStore.
func New(g posegraph.Graph, m icp.Matcher, scans *scan.Store, opts ...Option) (*Registrar, error) {
	switch {
	case g == nil:
		return nil, posegraph.ErrNilGraph
	case m == nil:
		return nil, ErrNilMatcher
	case scans == nil:
		return nil, ErrNilStore
	}
	o := options{
		window:    DefaultWindow,
		threshold: DefaultThreshold,
		prior:     DefaultPrior,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Registrar{g: g, m: m, scans: scans, opts: o, log: o.log.Named("registrar")}, nil
}

// Window returns the prior nodes id is matched against, nearest first.
func (r *Registrar) Window(id posegraph.NodeID) []posegraph.NodeID {
	lo := id - posegraph.NodeID(r.opts.window)
	if lo < 0 {
		lo = 0
	}
	out := make([]posegraph.NodeID, 0, id-lo)
	for p := id - 1; p >= lo; p-- {
		out = append(out, p)
	}

	return out
}

// RegisterScanMatches matches id against its window and commits every edge
// prior→id whose goodness exceeds the threshold.
//
// Implementation:
//   - Stage 1: Require a scan for id (ErrMissingScan otherwise).
//   - Stage 2: For each window node with a scan, guess pose(id) ⊖ pose(prior)
//     and run the matcher. Matcher failures skip the candidate.
//   - Stage 3: Regularise degenerate uncertainty, convert to the graph's form, insert.
//
// Returns the committed edges. On an insertion error the edges committed so
// far are returned with the error.
func (r *Registrar) RegisterScanMatches(id posegraph.NodeID) ([]posegraph.Edge, error) {
	curr, ok := r.scans.Get(id)
	if !ok {
		return nil, fmt.Errorf("node %d: %w", id, ErrMissingScan)
	}
	currPose, err := r.g.Pose(id)
	if err != nil {
		return nil, err
	}

	var committed []posegraph.Edge
	for _, prior := range r.Window(id) {
		prev, ok := r.scans.Get(prior)
		if !ok {
			continue
		}
		prevPose, err := r.g.Pose(prior)
		if err != nil {
			return committed, err
		}
		res, err := r.m.Match(prev, curr, currPose.Sub(prevPose))
		if err != nil {
			r.log.Debug("match failed", zap.Int("from", int(prior)), zap.Int("to", int(id)), zap.Error(err))
			continue
		}
		if res.Goodness <= r.opts.threshold {
			continue
		}

		pdf := res.Pose
		pdf.Unc = pdf.Unc.Regularize(r.opts.prior)
		if pdf.Unc, err = pdf.Unc.To(r.g.Form()); err != nil {
			r.log.Debug("uncertainty conversion failed", zap.Int("from", int(prior)), zap.Int("to", int(id)), zap.Error(err))
			continue
		}
		e := posegraph.Edge{From: prior, To: id, PDF: pdf, Kind: posegraph.ScanMatch}
		if err = r.g.InsertEdge(e); err != nil {
			return committed, fmt.Errorf("registrar: %w", err)
		}
		committed = append(committed, e)
		r.log.Debug("scan match committed",
			zap.Int("from", int(prior)), zap.Int("to", int(id)), zap.Float64("goodness", res.Goodness))
	}

	return committed, nil
}
