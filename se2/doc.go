// Package se2 models planar rigid-body poses and Gaussian pose estimates.
//
// A Pose is (x, y, φ) with φ wrapped to (-π, π]. Poses compose with the
// usual SE(2) group law:
//
//	(a ⊕ b).x = a.x + cos(a.φ)·b.x − sin(a.φ)·b.y
//	(a ⊕ b).y = a.y + sin(a.φ)·b.x + cos(a.φ)·b.y
//	(a ⊕ b).φ = wrap(a.φ + b.φ)
//
// Uncertainty is an explicit tagged variant: a 3×3 matrix plus a Form that
// says whether it is an information matrix or a covariance matrix. The two
// forms order differently (larger determinant is better for Information,
// smaller for Covariance), so every binary operation requires both operands
// to carry the same Form and fails with ErrMixedForm otherwise.
//
// PDF pairs a mean Pose with its Uncertainty. Composition propagates the
// covariance to first order:
//
//	C = J1·C1·J1ᵀ + J2·C2·J2ᵀ
//
// Information-form PDFs are composed by inverting to covariance, composing,
// and inverting back. An all-zero uncertainty is degenerate and must be
// regularised (Regularize) before it takes part in any composition.
//
// Errors (sentinel):
//
//   - ErrMixedForm        operands carry different uncertainty forms.
//   - ErrBadUncertainty   nil or non-3×3 uncertainty matrix.
package se2
