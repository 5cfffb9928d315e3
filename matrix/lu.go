// SPDX-License-Identifier: MIT

package matrix

import (
	"fmt"
	"math"
)

// zeroPivot is the sentinel for detecting a zero pivot in LU/Inverse routines.
const zeroPivot = 0.0

func validateSquare(m *Dense) error {
	if m == nil {
		return ErrNilMatrix
	}
	if m.r != m.c {
		return fmt.Errorf("%dx%d: %w", m.r, m.c, ErrNonSquare)
	}

	return nil
}

// LU computes the Doolittle factorization A = L·U with unit diagonal on L (no pivoting).
//
// Implementation:
//   - Stage 1: Validate m (not nil, square); allocate L, U; set diag(L)=1.
//   - Stage 2: For i=0..n-1, build row i of U and column i of L in fixed order.
//
// Errors: ErrNilMatrix, ErrNonSquare, ErrSingular (U[i,i]==0 while building L).
//
// Complexity: Time O(n³), Space O(n²).
//
// Notes:
//   - Without pivoting, inputs with vanishing leading minors fail with ErrSingular.
//     Covariance and information matrices are symmetric positive definite, so
//     every leading minor is positive and the factorization is safe for them.
func LU(m *Dense) (*Dense, *Dense, error) {
	if err := validateSquare(m); err != nil {
		return nil, nil, matrixErrorf(opLU, err)
	}
	n := m.r
	L, _ := Identity(n)
	U := &Dense{r: n, c: n, data: make([]float64, n*n)}

	var (
		i, j, k int
		sum     float64
		pivot   float64
	)
	for i = 0; i < n; i++ {
		// Row i of U
		for j = i; j < n; j++ {
			sum = 0
			for k = 0; k < i; k++ {
				sum += L.data[i*n+k] * U.data[k*n+j]
			}
			U.data[i*n+j] = m.data[i*n+j] - sum
		}
		pivot = U.data[i*n+i]
		if pivot == zeroPivot && i < n-1 {
			return nil, nil, matrixErrorf(opLU, fmt.Errorf("zero pivot at %d: %w", i, ErrSingular))
		}
		// Column i of L
		for j = i + 1; j < n; j++ {
			sum = 0
			for k = 0; k < i; k++ {
				sum += L.data[j*n+k] * U.data[k*n+i]
			}
			L.data[j*n+i] = (m.data[j*n+i] - sum) / pivot
		}
	}

	return L, U, nil
}

// Inverse returns m⁻¹ using LU decomposition and forward/backward substitution.
//
// Implementation:
//   - Stage 1: Validate square; decompose A = L·U.
//   - Stage 2: For each identity column e_col, solve L·y = e_col then U·x = y.
//   - Stage 3: Write x into column col of the result.
//
// Errors: ErrNilMatrix, ErrNonSquare, ErrSingular.
//
// Complexity: Time O(n³), Space O(n²).
func Inverse(m *Dense) (*Dense, error) {
	if err := validateSquare(m); err != nil {
		return nil, matrixErrorf(opInverse, err)
	}
	L, U, err := LU(m)
	if err != nil {
		return nil, matrixErrorf(opInverse, err)
	}

	n := m.r
	inv := &Dense{r: n, c: n, data: make([]float64, n*n)}
	var (
		col, i, k  int
		sum, pivot float64
		y          = make([]float64, n) // forward substitution workspace
		x          = make([]float64, n) // backward substitution workspace
	)
	for col = 0; col < n; col++ {
		// Forward substitution: L·y = e_col
		for i = 0; i < n; i++ {
			sum = 0
			for k = 0; k < i; k++ {
				sum += L.data[i*n+k] * y[k]
			}
			if i == col {
				y[i] = 1.0 - sum
			} else {
				y[i] = -sum
			}
		}
		// Backward substitution: U·x = y
		for i = n - 1; i >= 0; i-- {
			sum = 0
			for k = i + 1; k < n; k++ {
				sum += U.data[i*n+k] * x[k]
			}
			pivot = U.data[i*n+i]
			if pivot == zeroPivot {
				return nil, matrixErrorf(opInverse, fmt.Errorf("zero pivot at %d: %w", i, ErrSingular))
			}
			x[i] = (y[i] - sum) / pivot
		}
		for i = 0; i < n; i++ {
			inv.data[i*n+col] = x[i]
		}
	}

	return inv, nil
}

// Det returns the determinant of a square matrix using Gaussian elimination
// with partial pivoting. A singular matrix yields 0 without error.
//
// Errors: ErrNilMatrix, ErrNonSquare.
//
// Complexity: Time O(n³), Space O(n²) for the working copy.
func Det(m *Dense) (float64, error) {
	if err := validateSquare(m); err != nil {
		return 0, matrixErrorf(opDet, err)
	}
	n := m.r
	a := m.Clone()
	det := 1.0
	var (
		i, j, k, p int
		maxAbs, f  float64
	)
	for i = 0; i < n; i++ {
		// pick the largest pivot in column i
		p, maxAbs = i, math.Abs(a.data[i*n+i])
		for k = i + 1; k < n; k++ {
			if v := math.Abs(a.data[k*n+i]); v > maxAbs {
				p, maxAbs = k, v
			}
		}
		if maxAbs == zeroPivot {
			return 0, nil
		}
		if p != i {
			for j = 0; j < n; j++ {
				a.data[i*n+j], a.data[p*n+j] = a.data[p*n+j], a.data[i*n+j]
			}
			det = -det
		}
		det *= a.data[i*n+i]
		for k = i + 1; k < n; k++ {
			f = a.data[k*n+i] / a.data[i*n+i]
			for j = i; j < n; j++ {
				a.data[k*n+j] -= f * a.data[i*n+j]
			}
		}
	}

	return det, nil
}
