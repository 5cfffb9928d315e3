// Package matrix provides the small dense linear-algebra kernels used by the
// loop-closure decider: 3×3 pose uncertainty algebra (composition, inversion,
// determinants) and the symmetric eigen-decomposition behind the pairwise
// consistency check.
//
// Dense is a row-major matrix of float64 values. All kernels allocate a fresh
// result and never mutate their operands.
//
// Kernels:
//
//   - Add, Sub, Scale, Mul, Transpose, MatVec: elementwise and product algebra.
//   - LU, Inverse: Doolittle factorization without pivoting (deterministic).
//   - Det: determinant via Gaussian elimination with partial pivoting.
//   - Eigen: Jacobi rotations for real symmetric matrices, eigenpairs sorted by
//     descending eigenvalue.
//
// Errors (sentinel):
//
//   - ErrBadShape          non-positive or ragged shape.
//   - ErrOutOfRange        row/column index outside bounds.
//   - ErrDimensionMismatch operands are not conformable.
//   - ErrNonSquare         a square matrix was required.
//   - ErrAsymmetry         Eigen input is not symmetric within tolerance.
//   - ErrSingular          zero pivot in LU/Inverse.
//   - ErrEigenFailed       Jacobi sweeps did not converge.
//   - ErrNilMatrix         nil operand.
//
// Complexity is O(n³) for LU, Inverse, Det and each Jacobi sweep. The decider
// only ever feeds 3×3 pose matrices and k×k consistency matrices with k bounded
// by the hypothesis cap, so none of this is a hot path.
package matrix
