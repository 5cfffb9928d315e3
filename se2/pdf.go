// SPDX-License-Identifier: MIT

package se2

import (
	"fmt"
	"math"

	"github.com/katalvlaran/lvslam/matrix"
)

// PDF is a Gaussian estimate of a planar pose.
type PDF struct {
	Mean Pose
	Unc  Uncertainty
}

// NewPDF pairs mean with unc after validating the matrix shape.
func NewPDF(mean Pose, unc Uncertainty) (PDF, error) {
	if err := unc.validate(); err != nil {
		return PDF{}, err
	}

	return PDF{Mean: mean, Unc: unc}, nil
}

// Form returns the uncertainty form carried by p.
func (p PDF) Form() Form { return p.Unc.Form }

// Compose returns p ⊕ q with first-order uncertainty propagation.
//
// Implementation:
//   - Stage 1: Reject mixed forms; convert both operands to covariance.
//   - Stage 2: Build J1 = ∂(a⊕b)/∂a and J2 = ∂(a⊕b)/∂b at the means.
//   - Stage 3: C = J1·C1·J1ᵀ + J2·C2·J2ᵀ, converted back to p's form.
//
// Errors: ErrMixedForm, ErrBadUncertainty, matrix.ErrSingular.
//
// Complexity: O(1) (fixed 3×3 algebra).
func (p PDF) Compose(q PDF) (PDF, error) {
	if p.Unc.Form != q.Unc.Form {
		return PDF{}, fmt.Errorf("compose %s with %s: %w", p.Unc.Form, q.Unc.Form, ErrMixedForm)
	}
	c1, err := p.Unc.ToCovariance()
	if err != nil {
		return PDF{}, err
	}
	c2, err := q.Unc.ToCovariance()
	if err != nil {
		return PDF{}, err
	}

	c, s := math.Cos(p.Mean.Phi), math.Sin(p.Mean.Phi)
	bx, by := q.Mean.X, q.Mean.Y
	j1 := mat3(
		1, 0, -s*bx-c*by,
		0, 1, c*bx-s*by,
		0, 0, 1,
	)
	j2 := mat3(
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	)

	a, err := matrix.Sandwich(j1, c1.M)
	if err != nil {
		return PDF{}, err
	}
	b, err := matrix.Sandwich(j2, c2.M)
	if err != nil {
		return PDF{}, err
	}
	sum, err := matrix.Add(a, b)
	if err != nil {
		return PDF{}, err
	}

	out, err := Uncertainty{Form: Covariance, M: sum}.To(p.Unc.Form)
	if err != nil {
		return PDF{}, err
	}

	return PDF{Mean: p.Mean.Compose(q.Mean), Unc: out}, nil
}

// Inverse returns p⁻¹ with the uncertainty propagated through the
// Jacobian of pose inversion. The result keeps p's form.
func (p PDF) Inverse() (PDF, error) {
	cov, err := p.Unc.ToCovariance()
	if err != nil {
		return PDF{}, err
	}
	c, s := math.Cos(p.Mean.Phi), math.Sin(p.Mean.Phi)
	x, y := p.Mean.X, p.Mean.Y
	j := mat3(
		-c, -s, s*x-c*y,
		s, -c, c*x+s*y,
		0, 0, -1,
	)
	m, err := matrix.Sandwich(j, cov.M)
	if err != nil {
		return PDF{}, err
	}
	out, err := Uncertainty{Form: Covariance, M: m}.To(p.Unc.Form)
	if err != nil {
		return PDF{}, err
	}

	return PDF{Mean: p.Mean.Inverse(), Unc: out}, nil
}

// MahalanobisSq returns εᵀ·Σ⁻¹·ε where ε is p.Mean read as a residual
// vector (x, y, wrapped φ) and Σ is p's covariance.
func (p PDF) MahalanobisSq() (float64, error) {
	info, err := p.Unc.ToInformation()
	if err != nil {
		return 0, err
	}
	e := p.Mean.Vector()
	ie, err := matrix.MatVec(info.M, e)
	if err != nil {
		return 0, err
	}

	return e[0]*ie[0] + e[1]*ie[1] + e[2]*ie[2], nil
}

// String implements fmt.Stringer.
func (p PDF) String() string {
	return fmt.Sprintf("%v ~ %s", p.Mean, p.Unc.Form)
}
