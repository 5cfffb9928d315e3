// SPDX-License-Identifier: MIT

package matrix

import (
	"fmt"
	"math"
	"sort"
)

// Eigen computes all eigenvalues and eigenvectors of a real symmetric matrix
// using the classical Jacobi rotation method.
//
// Implementation:
//   - Stage 1: Validate square and symmetric within tol.
//   - Stage 2: Repeatedly annihilate the largest off-diagonal element |a_pq|
//     with a plane rotation, accumulating rotations into V.
//   - Stage 3: Sort eigenpairs by descending eigenvalue.
//
// Returns:
//   - []float64: eigenvalues, descending.
//   - *Dense:    eigenvectors as columns, in the same order.
//
// Errors: ErrNilMatrix, ErrNonSquare, ErrAsymmetry, ErrEigenFailed.
//
// Complexity: O(n²) per rotation search, O(n) per rotation update; maxIter caps the rotations.
func Eigen(m *Dense, tol float64, maxIter int) ([]float64, *Dense, error) {
	if err := validateSquare(m); err != nil {
		return nil, nil, matrixErrorf(opEigen, err)
	}
	n := m.r
	var i, j int
	for i = 0; i < n; i++ {
		for j = i + 1; j < n; j++ {
			if math.Abs(m.data[i*n+j]-m.data[j*n+i]) > tol {
				return nil, nil, matrixErrorf(opEigen, fmt.Errorf("a[%d][%d] != a[%d][%d]: %w", i, j, j, i, ErrAsymmetry))
			}
		}
	}

	a := m.Clone()
	v, _ := Identity(n)

	var (
		iter, p, q, k      int
		maxOff, off        float64
		theta, t, c, s     float64
		app, aqq, apq      float64
		akp, akq, vkp, vkq float64
		converged          bool
	)
	for iter = 0; iter < maxIter; iter++ {
		// locate the largest off-diagonal magnitude
		maxOff = 0
		for i = 0; i < n; i++ {
			for j = i + 1; j < n; j++ {
				off = math.Abs(a.data[i*n+j])
				if off > maxOff {
					maxOff, p, q = off, i, j
				}
			}
		}
		if maxOff < tol {
			converged = true
			break
		}

		app, aqq, apq = a.data[p*n+p], a.data[q*n+q], a.data[p*n+q]
		theta = (aqq - app) / (2 * apq)
		t = math.Copysign(1.0, theta) / (math.Abs(theta) + math.Sqrt(theta*theta+1))
		c = 1.0 / math.Sqrt(t*t+1)
		s = t * c

		for k = 0; k < n; k++ {
			if k == p || k == q {
				continue
			}
			akp, akq = a.data[k*n+p], a.data[k*n+q]
			a.data[k*n+p] = c*akp - s*akq
			a.data[p*n+k] = a.data[k*n+p]
			a.data[k*n+q] = s*akp + c*akq
			a.data[q*n+k] = a.data[k*n+q]
		}
		a.data[p*n+p] = app - t*apq
		a.data[q*n+q] = aqq + t*apq
		a.data[p*n+q] = 0
		a.data[q*n+p] = 0

		for k = 0; k < n; k++ {
			vkp, vkq = v.data[k*n+p], v.data[k*n+q]
			v.data[k*n+p] = c*vkp - s*vkq
			v.data[k*n+q] = s*vkp + c*vkq
		}
	}
	if !converged {
		return nil, nil, matrixErrorf(opEigen, fmt.Errorf("after %d rotations: %w", maxIter, ErrEigenFailed))
	}

	// sort eigenpairs by descending eigenvalue
	order := make([]int, n)
	for i = range order {
		order[i] = i
	}
	sort.SliceStable(order, func(x, y int) bool {
		return a.data[order[x]*n+order[x]] > a.data[order[y]*n+order[y]]
	})
	vals := make([]float64, n)
	vecs := &Dense{r: n, c: n, data: make([]float64, n*n)}
	for j = 0; j < n; j++ {
		vals[j] = a.data[order[j]*n+order[j]]
		for i = 0; i < n; i++ {
			vecs.data[i*n+j] = v.data[i*n+order[j]]
		}
	}

	return vals, vecs, nil
}
