// Package matrix_test contains unit tests for the Dense type and the
// linear-algebra kernels.
package matrix_test

import (
	"math"
	"testing"

	"github.com/katalvlaran/lvslam/matrix"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

func mustRows(t *testing.T, rows [][]float64) *matrix.Dense {
	t.Helper()
	m, err := matrix.NewFromRows(rows)
	require.NoError(t, err)

	return m
}

// TestNewDenseInvalidDimensions ensures that NewDense rejects non-positive dimensions.
func TestNewDenseInvalidDimensions(t *testing.T) {
	_, err := matrix.NewDense(0, 5)
	require.ErrorIs(t, err, matrix.ErrBadShape)

	_, err = matrix.NewDense(5, 0)
	require.ErrorIs(t, err, matrix.ErrBadShape)

	_, err = matrix.NewFromRows([][]float64{{1, 2}, {3}})
	require.ErrorIs(t, err, matrix.ErrBadShape) // ragged
}

// TestAtSetOutOfBounds ensures At() and Set() return ErrOutOfRange on invalid access.
func TestAtSetOutOfBounds(t *testing.T) {
	m, err := matrix.NewDense(2, 2)
	require.NoError(t, err)

	_, err = m.At(-1, 0)
	require.ErrorIs(t, err, matrix.ErrOutOfRange)
	require.ErrorIs(t, m.Set(2, 0, 1.23), matrix.ErrOutOfRange)

	require.NoError(t, m.Set(1, 1, 7.5))
	v, err := m.At(1, 1)
	require.NoError(t, err)
	require.Equal(t, 7.5, v)
}

// TestCloneIndependence ensures Clone() returns a deep copy that does not share storage.
func TestCloneIndependence(t *testing.T) {
	m := mustRows(t, [][]float64{{1, 0}, {0, 2}})
	c := m.Clone()
	require.NoError(t, c.Set(0, 0, 3))

	v, _ := m.At(0, 0)
	require.Equal(t, 1.0, v)
}

func TestIsZero(t *testing.T) {
	z, err := matrix.NewDense(3, 3)
	require.NoError(t, err)
	require.True(t, z.IsZero())

	require.NoError(t, z.Set(2, 1, 1e-300))
	require.False(t, z.IsZero())

	var nilM *matrix.Dense
	require.True(t, nilM.IsZero())
}

func TestAddSubScale(t *testing.T) {
	a := mustRows(t, [][]float64{{1, 2}, {3, 4}})
	b := mustRows(t, [][]float64{{4, 3}, {2, 1}})

	sum, err := matrix.Add(a, b)
	require.NoError(t, err)
	require.True(t, matrix.Equal(sum, mustRows(t, [][]float64{{5, 5}, {5, 5}}), eps))

	diff, err := matrix.Sub(a, b)
	require.NoError(t, err)
	require.True(t, matrix.Equal(diff, mustRows(t, [][]float64{{-3, -1}, {1, 3}}), eps))

	sc, err := matrix.Scale(a, 2)
	require.NoError(t, err)
	require.True(t, matrix.Equal(sc, mustRows(t, [][]float64{{2, 4}, {6, 8}}), eps))

	_, err = matrix.Add(a, mustRows(t, [][]float64{{1, 2, 3}}))
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}

func TestMulTranspose(t *testing.T) {
	a := mustRows(t, [][]float64{{1, 2, 3}, {4, 5, 6}})
	at, err := matrix.Transpose(a)
	require.NoError(t, err)
	require.Equal(t, 3, at.Rows())
	require.Equal(t, 2, at.Cols())

	p, err := matrix.Mul(a, at)
	require.NoError(t, err)
	require.True(t, matrix.Equal(p, mustRows(t, [][]float64{{14, 32}, {32, 77}}), eps))

	_, err = matrix.Mul(a, a)
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}

func TestMatVec(t *testing.T) {
	a := mustRows(t, [][]float64{{1, 2}, {3, 4}})
	out, err := matrix.MatVec(a, []float64{1, 1})
	require.NoError(t, err)
	require.Equal(t, []float64{3, 7}, out)

	_, err = matrix.MatVec(a, []float64{1})
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}

func TestSandwich(t *testing.T) {
	// Rotating an isotropic covariance leaves it unchanged.
	c, s := math.Cos(0.7), math.Sin(0.7)
	r := mustRows(t, [][]float64{{c, -s, 0}, {s, c, 0}, {0, 0, 1}})
	iso := mustRows(t, [][]float64{{2, 0, 0}, {0, 2, 0}, {0, 0, 1}})

	out, err := matrix.Sandwich(r, iso)
	require.NoError(t, err)
	require.True(t, matrix.Equal(out, iso, 1e-12))
}

func TestInverse(t *testing.T) {
	a := mustRows(t, [][]float64{{4, 1, 0}, {1, 3, 1}, {0, 1, 2}})
	inv, err := matrix.Inverse(a)
	require.NoError(t, err)

	id, _ := matrix.Identity(3)
	prod, err := matrix.Mul(a, inv)
	require.NoError(t, err)
	require.True(t, matrix.Equal(prod, id, 1e-12))

	_, err = matrix.Inverse(mustRows(t, [][]float64{{1, 2}, {2, 4}}))
	require.ErrorIs(t, err, matrix.ErrSingular)

	_, err = matrix.Inverse(mustRows(t, [][]float64{{1, 2, 3}}))
	require.ErrorIs(t, err, matrix.ErrNonSquare)
}

func TestDet(t *testing.T) {
	cases := []struct {
		name string
		rows [][]float64
		want float64
	}{
		{"identity", [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}, 1},
		{"diag", [][]float64{{2, 0, 0}, {0, 3, 0}, {0, 0, 4}}, 24},
		{"needs pivot", [][]float64{{0, 1}, {1, 0}}, -1},
		{"singular", [][]float64{{1, 2}, {2, 4}}, 0},
		{"general", [][]float64{{6, 1, 1}, {4, -2, 5}, {2, 8, 7}}, -306},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := matrix.Det(mustRows(t, tc.rows))
			require.NoError(t, err)
			require.InDelta(t, tc.want, d, 1e-9)
		})
	}
}

func TestEigenSymmetric(t *testing.T) {
	a := mustRows(t, [][]float64{{2, 1, 0}, {1, 2, 0}, {0, 0, 5}})
	vals, vecs, err := matrix.Eigen(a, 1e-12, 100)
	require.NoError(t, err)
	require.InDeltaSlice(t, []float64{5, 3, 1}, vals, 1e-9)

	// A·v = λ·v for every pair
	for j, lambda := range vals {
		v := vecs.Column(j)
		av, err := matrix.MatVec(a, v)
		require.NoError(t, err)
		for i := range v {
			require.InDelta(t, lambda*v[i], av[i], 1e-9)
		}
	}
}

func TestEigenRejectsAsymmetric(t *testing.T) {
	_, _, err := matrix.Eigen(mustRows(t, [][]float64{{1, 2}, {0, 1}}), 1e-9, 10)
	require.ErrorIs(t, err, matrix.ErrAsymmetry)
}
