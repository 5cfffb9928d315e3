// SPDX-License-Identifier: MIT

package matrix

import "fmt"

// validateSameShape ensures both operands are non-nil and identically shaped.
func validateSameShape(a, b *Dense) error {
	if a == nil || b == nil {
		return ErrNilMatrix
	}
	if a.r != b.r || a.c != b.c {
		return fmt.Errorf("%dx%d vs %dx%d: %w", a.r, a.c, b.r, b.c, ErrDimensionMismatch)
	}

	return nil
}

// addSub computes out = a + sign*b. Shared by Add and Sub.
// Complexity: O(r*c).
func addSub(a, b *Dense, sign float64, opTag string) (*Dense, error) {
	if err := validateSameShape(a, b); err != nil {
		return nil, matrixErrorf(opTag, err)
	}
	res := &Dense{r: a.r, c: a.c, data: make([]float64, len(a.data))}
	for i := range a.data { // single flat walk
		res.data[i] = a.data[i] + sign*b.data[i]
	}

	return res, nil
}

// Add returns a + b.
// Errors: ErrNilMatrix, ErrDimensionMismatch.
// Complexity: O(r*c).
func Add(a, b *Dense) (*Dense, error) { return addSub(a, b, +1, opAdd) }

// Sub returns a − b.
// Errors: ErrNilMatrix, ErrDimensionMismatch.
// Complexity: O(r*c).
func Sub(a, b *Dense) (*Dense, error) { return addSub(a, b, -1, opSub) }

// Scale returns alpha·m.
// Complexity: O(r*c).
func Scale(m *Dense, alpha float64) (*Dense, error) {
	if m == nil {
		return nil, matrixErrorf(opScale, ErrNilMatrix)
	}
	res := m.Clone()
	for i := range res.data {
		res.data[i] *= alpha
	}

	return res, nil
}

// Mul returns the matrix product a·b.
// Stage 1 (Validate): a.Cols() must equal b.Rows().
// Stage 2 (Execute): i-k-j loop order over flat storage, skipping zero a[i][k].
// Errors: ErrNilMatrix, ErrDimensionMismatch.
// Complexity: O(r·k·c).
func Mul(a, b *Dense) (*Dense, error) {
	if a == nil || b == nil {
		return nil, matrixErrorf(opMul, ErrNilMatrix)
	}
	if a.c != b.r {
		return nil, matrixErrorf(opMul, fmt.Errorf("%dx%d · %dx%d: %w", a.r, a.c, b.r, b.c, ErrDimensionMismatch))
	}
	res := &Dense{r: a.r, c: b.c, data: make([]float64, a.r*b.c)}
	var (
		i, j, k int
		av      float64
	)
	for i = 0; i < a.r; i++ {
		for k = 0; k < a.c; k++ {
			av = a.data[i*a.c+k]
			if av == 0 {
				continue
			}
			for j = 0; j < b.c; j++ {
				res.data[i*b.c+j] += av * b.data[k*b.c+j]
			}
		}
	}

	return res, nil
}

// Transpose returns mᵀ as a new matrix.
// Complexity: O(r*c).
func Transpose(m *Dense) (*Dense, error) {
	if m == nil {
		return nil, matrixErrorf(opTranspose, ErrNilMatrix)
	}
	res := &Dense{r: m.c, c: m.r, data: make([]float64, len(m.data))}
	for i := 0; i < m.r; i++ {
		for j := 0; j < m.c; j++ {
			res.data[j*m.r+i] = m.data[i*m.c+j]
		}
	}

	return res, nil
}

// MatVec returns m·x.
// Errors: ErrNilMatrix, ErrDimensionMismatch when len(x) != m.Cols().
// Complexity: O(r*c).
func MatVec(m *Dense, x []float64) ([]float64, error) {
	if m == nil {
		return nil, matrixErrorf(opMatVec, ErrNilMatrix)
	}
	if len(x) != m.c {
		return nil, matrixErrorf(opMatVec, fmt.Errorf("len(x)=%d, cols=%d: %w", len(x), m.c, ErrDimensionMismatch))
	}
	out := make([]float64, m.r)
	var sum float64
	for i := 0; i < m.r; i++ {
		sum = 0
		for j := 0; j < m.c; j++ {
			sum += m.data[i*m.c+j] * x[j]
		}
		out[i] = sum
	}

	return out, nil
}

// Sandwich returns a·b·aᵀ, the congruence transform used to propagate
// covariances through a Jacobian.
// Errors: propagated from Mul/Transpose.
func Sandwich(a, b *Dense) (*Dense, error) {
	ab, err := Mul(a, b)
	if err != nil {
		return nil, err
	}
	at, err := Transpose(a)
	if err != nil {
		return nil, err
	}

	return Mul(ab, at)
}
