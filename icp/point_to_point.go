package icp

import (
	"fmt"
	"math"
	"sort"

	"github.com/katalvlaran/lvslam/matrix"
	"github.com/katalvlaran/lvslam/scan"
	"github.com/katalvlaran/lvslam/se2"
)

// PointToPoint is the reference ICP matcher. It is stateless and safe for
// concurrent use.
type PointToPoint struct {
	opts Options
}

var _ Matcher = (*PointToPoint)(nil)

// NewPointToPoint builds a matcher from DefaultOptions plus opts.
func NewPointToPoint(opts ...Option) *PointToPoint {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &PointToPoint{opts: o}
}

// Options returns the effective configuration.
func (m *PointToPoint) Options() Options { return m.opts }

// pair is one correspondence: src is a transformed point of b, tgt its nearest point in a.
type pair struct {
	src, tgt scan.Point
	d        float64
}

// Match estimates b's pose in a's frame starting from guess.
//
// Implementation:
//   - Stage 1: Project both scans; index a's points in a hash grid.
//   - Stage 2: Iterate correspondence, outlier rejection and rigid fit until
//     the mean residual stops improving or diverges by more than 10%.
//   - Stage 3: Score goodness at the final estimate and build the information matrix.
//
// Errors: ErrEmptyScan, ErrTooFewCorrespondences.
//
// Complexity: O(I·n) expected for I iterations over n points of b, given a
// roughly uniform point density in a.
func (m *PointToPoint) Match(a, b *scan.Scan, guess se2.Pose) (Result, error) {
	target, source := a.Points(), b.Points()
	if len(target) == 0 || len(source) == 0 {
		return Result{}, ErrEmptyScan
	}
	idx := newGrid(target, m.opts.MaxCorrespondence)

	res := Result{}
	est := guess
	prevErr := math.MaxFloat64
	var (
		pairs   []pair
		next    se2.Pose
		curErr  float64
		improve float64
	)
	for iter := 0; iter < m.opts.MaxIterations; iter++ {
		res.Iterations = iter + 1

		pairs = rejectOutliers(idx.correspond(transform(source, est)), m.opts.OutlierPercentile)
		if len(pairs) < 3 {
			break
		}
		delta := rigidFit(pairs)
		next = delta.Compose(est)
		curErr = meanDistance(pairs, delta)

		improve = prevErr - curErr
		if improve >= 0 && improve < m.opts.Convergence {
			res.Converged = true
			est = next
			break
		}
		if curErr > prevErr*1.1 {
			break
		}
		prevErr = curErr
		est = next
	}

	all := idx.correspond(transform(source, est))
	if len(all) < 3 {
		return Result{}, fmt.Errorf("%d of %d points matched: %w", len(all), len(source), ErrTooFewCorrespondences)
	}
	res.Goodness = float64(len(all)) / float64(len(source))

	info := information(rejectOutliers(all, m.opts.OutlierPercentile), est, m.opts.MinVariance)
	unc, err := se2.NewUncertainty(se2.Information, info)
	if err != nil {
		return Result{}, err
	}
	res.Pose = se2.PDF{Mean: est, Unc: unc}

	return res, nil
}

// transform applies p to every point.
func transform(pts []scan.Point, p se2.Pose) []scan.Point {
	c, s := math.Cos(p.Phi), math.Sin(p.Phi)
	out := make([]scan.Point, len(pts))
	for i, q := range pts {
		out[i] = scan.Point{X: p.X + c*q.X - s*q.Y, Y: p.Y + s*q.X + c*q.Y}
	}

	return out
}

// rejectOutliers keeps pairs whose distance is at or below the given percentile.
func rejectOutliers(pairs []pair, percentile float64) []pair {
	if len(pairs) == 0 || percentile >= 1 {
		return pairs
	}
	ds := make([]float64, len(pairs))
	for i := range pairs {
		ds[i] = pairs[i].d
	}
	sort.Float64s(ds)
	k := int(float64(len(ds)) * percentile)
	if k >= len(ds) {
		k = len(ds) - 1
	}
	limit := ds[k]

	out := pairs[:0:0]
	for _, p := range pairs {
		if p.d <= limit {
			out = append(out, p)
		}
	}

	return out
}

// rigidFit returns the rigid transform minimising Σ|T(src) − tgt|² in closed form.
func rigidFit(pairs []pair) se2.Pose {
	n := float64(len(pairs))
	var csx, csy, ctx, cty float64
	for _, p := range pairs {
		csx += p.src.X
		csy += p.src.Y
		ctx += p.tgt.X
		cty += p.tgt.Y
	}
	csx, csy, ctx, cty = csx/n, csy/n, ctx/n, cty/n

	var sxx, sxy, syx, syy float64
	for _, p := range pairs {
		ax, ay := p.src.X-csx, p.src.Y-csy
		bx, by := p.tgt.X-ctx, p.tgt.Y-cty
		sxx += ax * bx
		sxy += ax * by
		syx += ay * bx
		syy += ay * by
	}
	th := math.Atan2(sxy-syx, sxx+syy)
	c, s := math.Cos(th), math.Sin(th)

	return se2.Pose{
		X:   ctx - (c*csx - s*csy),
		Y:   cty - (s*csx + c*csy),
		Phi: th,
	}
}

// meanDistance is the mean residual after applying delta to every src.
func meanDistance(pairs []pair, delta se2.Pose) float64 {
	c, s := math.Cos(delta.Phi), math.Sin(delta.Phi)
	var sum float64
	for _, p := range pairs {
		x := delta.X + c*p.src.X - s*p.src.Y
		y := delta.Y + s*p.src.X + c*p.src.Y
		sum += math.Hypot(x-p.tgt.X, y-p.tgt.Y)
	}

	return sum / float64(len(pairs))
}

// information builds JᵀJ/σ² for point-to-point residuals r = R·p + t − q,
// whose Jacobian row pair is [[1, 0, −p′y], [0, 1, p′x]] with p′ = R·p.
func information(pairs []pair, est se2.Pose, minVar float64) *matrix.Dense {
	n := float64(len(pairs))
	var sx, sy, sr, se float64
	for _, p := range pairs {
		rx, ry := p.src.X-est.X, p.src.Y-est.Y
		sx += rx
		sy += ry
		sr += rx*rx + ry*ry
		se += p.d * p.d
	}
	sigma2 := math.Max(se/n, minVar)

	h, _ := matrix.NewFromRows([][]float64{
		{n, 0, -sy},
		{0, n, sx},
		{-sy, sx, sr},
	})
	out, _ := matrix.Scale(h, 1/sigma2)

	return out
}
