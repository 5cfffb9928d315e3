package projection_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvslam/posegraph"
	"github.com/katalvlaran/lvslam/projection"
	"github.com/katalvlaran/lvslam/se2"
)

func step(x float64) se2.PDF {
	return se2.PDF{Mean: se2.Pose{X: x}, Unc: se2.Diagonal(se2.Information, 100, 100, 1000)}
}

func chain(t *testing.T, ids ...posegraph.NodeID) projection.Path {
	t.Helper()
	p := projection.NewPath(ids[0])
	for _, id := range ids[1:] {
		require.NoError(t, p.Append(id, step(1)))
	}

	return p
}

func TestConcatJoinsAtSharedNode(t *testing.T) {
	a := chain(t, 0, 1, 2)
	b := chain(t, 2, 3)

	require.NoError(t, a.Concat(b))
	require.Empty(t, cmp.Diff([]posegraph.NodeID{0, 1, 2, 3}, a.Nodes()))

	pdf, ok := a.PDF()
	require.True(t, ok)
	require.True(t, pdf.Mean.ApproxEqual(se2.Pose{X: 3}, 1e-9))
}

func TestConcatRejectsDisjointPaths(t *testing.T) {
	a := chain(t, 0, 1)
	b := chain(t, 3, 4)
	before := a.Nodes()

	err := a.Concat(b)
	require.ErrorIs(t, err, projection.ErrDisjointPaths)
	require.Empty(t, cmp.Diff(before, a.Nodes()), "failed concat leaves the path unchanged")
}

func TestSingleNodePathIsIdentity(t *testing.T) {
	id := projection.NewPath(2)
	b := chain(t, 2, 3, 4)
	wantConf, err := b.Confidence()
	require.NoError(t, err)

	require.NoError(t, id.Concat(b))
	require.Empty(t, cmp.Diff([]posegraph.NodeID{2, 3, 4}, id.Nodes()))
	got, err := id.Confidence()
	require.NoError(t, err)
	require.InDelta(t, wantConf, got, 1e-9)

	// and on the right
	c := chain(t, 0, 1)
	require.NoError(t, c.Concat(projection.NewPath(1)))
	require.Equal(t, 2, c.Len())

	single := projection.NewPath(7)
	_, err = single.Confidence()
	require.ErrorIs(t, err, projection.ErrNoEstimate)
	_, ok := single.SecondToLast()
	require.False(t, ok)
}

func TestConfidenceCacheInvalidatedOnMutation(t *testing.T) {
	p := chain(t, 0, 1)
	c1, err := p.Confidence()
	require.NoError(t, err)
	require.NoError(t, p.Append(2, step(1)))
	c2, err := p.Confidence()
	require.NoError(t, err)
	require.Less(t, c2, c1, "a longer chain is less certain in information form")
}

func TestCloneDoesNotAlias(t *testing.T) {
	p := chain(t, 0, 1)
	q := p.Clone()
	require.NoError(t, q.Append(2, step(1)))
	require.Equal(t, 2, p.Len())
	require.Equal(t, 3, q.Len())
}

func TestBetterRejectsMixedForms(t *testing.T) {
	a := projection.Hop(0, 1, step(1))
	b := projection.Hop(0, 1, se2.PDF{Unc: se2.Diagonal(se2.Covariance, 1, 1, 1)})
	_, err := a.Better(&b)
	require.ErrorIs(t, err, se2.ErrMixedForm)

	c := projection.Hop(0, 1, se2.PDF{Unc: se2.Diagonal(se2.Information, 1, 1, 1)})
	better, err := a.Better(&c)
	require.NoError(t, err)
	require.True(t, better)
}
