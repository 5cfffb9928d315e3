package icp

import (
	"errors"

	"github.com/katalvlaran/lvslam/scan"
	"github.com/katalvlaran/lvslam/se2"
)

// Sentinel errors returned by matchers.
var (
	// ErrEmptyScan indicates a nil scan or one without usable readings.
	ErrEmptyScan = errors.New("icp: scan has no usable points")

	// ErrTooFewCorrespondences indicates fewer than three point pairs survived.
	ErrTooFewCorrespondences = errors.New("icp: too few correspondences")
)

// Result is the outcome of one scan match.
type Result struct {
	// Pose is b's pose in a's frame, information form.
	Pose se2.PDF

	// Goodness is the fraction of b's points with a correspondence in a, in [0,1].
	Goodness float64

	// Iterations actually run.
	Iterations int

	// Converged is true when the residual improvement fell below the threshold.
	Converged bool
}

// Matcher aligns scan b onto scan a starting from guess.
type Matcher interface {
	Match(a, b *scan.Scan, guess se2.Pose) (Result, error)
}

// MatcherFunc adapts a plain function to the Matcher interface.
type MatcherFunc func(a, b *scan.Scan, guess se2.Pose) (Result, error)

// Match calls f(a, b, guess).
func (f MatcherFunc) Match(a, b *scan.Scan, guess se2.Pose) (Result, error) {
	return f(a, b, guess)
}

// Options configures PointToPoint.
type Options struct {
	MaxIterations     int     // iteration cap
	MaxCorrespondence float64 // metres; pairs farther apart are ignored
	OutlierPercentile float64 // keep pairs at or below this distance percentile, (0,1]
	Convergence       float64 // stop when the mean residual improves by less than this
	MinVariance       float64 // floor for σ², keeps the information matrix finite on perfect fits
}

// DefaultOptions returns the defaults used by NewPointToPoint.
//
//   - MaxIterations:     40
//   - MaxCorrespondence: 0.5 m
//   - OutlierPercentile: 0.9
//   - Convergence:       1e-5 m
//   - MinVariance:       1e-6 m²
func DefaultOptions() Options {
	return Options{
		MaxIterations:     40,
		MaxCorrespondence: 0.5,
		OutlierPercentile: 0.9,
		Convergence:       1e-5,
		MinVariance:       1e-6,
	}
}

// Option is a functional option for PointToPoint.
type Option func(*Options)

// WithMaxIterations caps ICP iterations. Panics if n < 1.
func WithMaxIterations(n int) Option {
	if n < 1 {
		panic("icp: WithMaxIterations requires n >= 1")
	}

	return func(o *Options) { o.MaxIterations = n }
}

// WithMaxCorrespondence sets the correspondence gate in metres. Panics if d <= 0.
func WithMaxCorrespondence(d float64) Option {
	if d <= 0 {
		panic("icp: WithMaxCorrespondence requires d > 0")
	}

	return func(o *Options) { o.MaxCorrespondence = d }
}

// WithOutlierPercentile keeps the closest fraction p of pairs. Panics unless 0 < p <= 1.
func WithOutlierPercentile(p float64) Option {
	if p <= 0 || p > 1 {
		panic("icp: WithOutlierPercentile requires 0 < p <= 1")
	}

	return func(o *Options) { o.OutlierPercentile = p }
}

// WithConvergence sets the residual-improvement stop threshold. Panics if eps < 0.
func WithConvergence(eps float64) Option {
	if eps < 0 {
		panic("icp: WithConvergence requires eps >= 0")
	}

	return func(o *Options) { o.Convergence = eps }
}
