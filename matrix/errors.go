// SPDX-License-Identifier: MIT

package matrix

import (
	"errors"
	"fmt"
)

// Every message is prefixed with "matrix: ..." so log lines stay greppable.
// Kernels wrap sentinels with their operation tag via matrixErrorf; callers
// match with errors.Is.
var (
	// ErrBadShape is returned when requested shape is invalid (r<=0, c<=0 or ragged rows).
	ErrBadShape = errors.New("matrix: invalid shape")

	// ErrOutOfRange indicates that an index (row or column) is outside valid bounds.
	ErrOutOfRange = errors.New("matrix: index out of range")

	// ErrDimensionMismatch indicates incompatible dimensions between operands.
	ErrDimensionMismatch = errors.New("matrix: dimension mismatch")

	// ErrNonSquare signals that a square matrix was required but the input wasn't.
	ErrNonSquare = errors.New("matrix: matrix is not square")

	// ErrAsymmetry signals that a matrix expected to be symmetric is not, within tolerance.
	ErrAsymmetry = errors.New("matrix: matrix is not symmetric within eps")

	// ErrSingular is returned when a zero pivot is encountered during LU/Inverse.
	ErrSingular = errors.New("matrix: singular matrix")

	// ErrEigenFailed indicates that the Jacobi routine failed to converge.
	ErrEigenFailed = errors.New("matrix: eigen decomposition failed")

	// ErrNilMatrix indicates that a nil *Dense operand was used.
	ErrNilMatrix = errors.New("matrix: nil receiver")
)

// Operation tags for uniform error wrapping.
const (
	opAdd       = "Add"
	opSub       = "Sub"
	opMul       = "Mul"
	opTranspose = "Transpose"
	opScale     = "Scale"
	opMatVec    = "MatVec"
	opLU        = "LU"
	opInverse   = "Inverse"
	opDet       = "Det"
	opEigen     = "Eigen"
)

// matrixErrorf wraps err with an operation tag, preserving the sentinel for errors.Is.
// Only call with err != nil.
func matrixErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}
