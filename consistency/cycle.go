package consistency

import (
	"math"

	"github.com/katalvlaran/lvslam/matrix"
	"github.com/katalvlaran/lvslam/posegraph"
	"github.com/katalvlaran/lvslam/se2"
)

// relative estimates the pose of y in the frame of x. A nil result is the
// identity (x == y).
func (ev *Evaluator) relative(x, y posegraph.NodeID) (*se2.PDF, error) {
	if x == y {
		return nil, nil
	}
	if pdf, ok, err := ev.projected(x, y); ok || err != nil {
		return pdf, err
	}

	px, err := ev.g.Pose(x)
	if err != nil {
		return nil, err
	}
	py, err := ev.g.Pose(y)
	if err != nil {
		return nil, err
	}
	d := float64(y - x)
	v := ev.opts.FallbackVariance * math.Abs(d)
	unc, err := se2.Diagonal(se2.Covariance, v, v, v).To(ev.g.Form())
	if err != nil {
		return nil, err
	}

	return &se2.PDF{Mean: py.Sub(px), Unc: unc}, nil
}

// projected composes inv(P_root→x) ⊕ P_root→y from the optimal-path table.
// It reports false when either endpoint is missing from the table.
func (ev *Evaluator) projected(x, y posegraph.NodeID) (*se2.PDF, bool, error) {
	if ev.proj == nil {
		return nil, false, nil
	}
	root := ev.g.Root()
	lookup := func(id posegraph.NodeID) (*se2.PDF, bool) {
		if id == root {
			return nil, true
		}
		p, ok := ev.proj.Optimal(id)
		if !ok {
			return nil, false
		}
		pdf, _ := p.PDF()

		return &pdf, true
	}

	fx, ok := lookup(x)
	if !ok {
		return nil, false, nil
	}
	fy, ok := lookup(y)
	if !ok {
		return nil, false, nil
	}
	if fx == nil {
		return fy, true, nil
	}
	inv, err := fx.Inverse()
	if err != nil {
		return nil, true, err
	}
	if fy == nil {
		return &inv, true, nil
	}
	out, err := inv.Compose(*fy)
	if err != nil {
		return nil, true, err
	}

	return &out, true, nil
}

// chain composes the non-nil links left to right. All nil means identity.
func chain(links ...*se2.PDF) (*se2.PDF, error) {
	var acc *se2.PDF
	for _, l := range links {
		if l == nil {
			continue
		}
		if acc == nil {
			c := *l
			acc = &c
			continue
		}
		c, err := acc.Compose(*l)
		if err != nil {
			return nil, err
		}
		acc = &c
	}

	return acc, nil
}

// score returns A_ij for hypotheses hi and hj. Any numerical failure along
// the cycle scores the pair as inconsistent.
func (ev *Evaluator) score(hi, hj Hypothesis) float64 {
	bb, err := ev.relative(hi.To, hj.To)
	if err != nil {
		return 0
	}
	aa, err := ev.relative(hj.From, hi.From)
	if err != nil {
		return 0
	}
	hjInv, err := hj.PDF.Inverse()
	if err != nil {
		return 0
	}
	hiPDF := hi.PDF
	cycle, err := chain(&hiPDF, bb, &hjInv, aa)
	if err != nil || cycle == nil {
		return 0
	}
	d2, err := cycle.MahalanobisSq()
	if err != nil || math.IsNaN(d2) || d2 < 0 {
		return 0
	}

	return math.Exp(-0.5 * d2)
}

// consistencyMatrix builds the symmetric matrix A with A_ii = 1.
func (ev *Evaluator) consistencyMatrix(hyps []Hypothesis) *matrix.Dense {
	n := len(hyps)
	a, _ := matrix.Identity(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			s := ev.score(hyps[i], hyps[j])
			_ = a.Set(i, j, s)
			_ = a.Set(j, i, s)
		}
	}

	return a
}
