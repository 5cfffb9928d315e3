package posegraph_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/katalvlaran/lvslam/posegraph"
	"github.com/katalvlaran/lvslam/se2"
)

type MemorySuite struct {
	suite.Suite
	g *posegraph.Memory
}

func (s *MemorySuite) SetupTest() {
	s.g = posegraph.New()
	for i := 0; i < 4; i++ {
		s.g.AddNode(se2.Pose{X: float64(i)})
	}
}

func infoEdge(from, to posegraph.NodeID) posegraph.Edge {
	return posegraph.Edge{
		From: from,
		To:   to,
		PDF:  se2.PDF{Mean: se2.Pose{X: 1}, Unc: se2.Diagonal(se2.Information, 10, 10, 100)},
		Kind: posegraph.Odometry,
	}
}

func (s *MemorySuite) TestAddNodeAssignsDenseIDs() {
	require := require.New(s.T())
	require.Equal(4, s.g.NodeCount())
	id := s.g.AddNode(se2.Pose{Y: 7})
	require.Equal(posegraph.NodeID(4), id)

	p, err := s.g.Pose(id)
	require.NoError(err)
	require.Equal(7.0, p.Y)

	_, err = s.g.Pose(99)
	require.ErrorIs(err, posegraph.ErrNodeNotFound)
}

func (s *MemorySuite) TestSetPose() {
	require := require.New(s.T())
	require.NoError(s.g.SetPose(2, se2.Pose{X: 5, Phi: 1}))
	p, _ := s.g.Pose(2)
	require.Equal(se2.Pose{X: 5, Phi: 1}, p)
	require.ErrorIs(s.g.SetPose(-1, se2.Pose{}), posegraph.ErrNodeNotFound)
}

func (s *MemorySuite) TestInsertEdgeAndQueries() {
	require := require.New(s.T())
	require.NoError(s.g.InsertEdge(infoEdge(0, 1)))
	require.NoError(s.g.InsertEdge(infoEdge(0, 1))) // parallel edge
	require.NoError(s.g.InsertEdge(infoEdge(2, 0)))

	require.True(s.g.EdgeExists(0, 1))
	require.False(s.g.EdgeExists(1, 0), "edges are directed")
	require.Len(s.g.Edges(0, 1), 2)
	require.Nil(s.g.Edges(1, 3))
	require.Equal(3, s.g.EdgeCount())

	nb, err := s.g.Neighbors(0)
	require.NoError(err)
	require.Empty(cmp.Diff([]posegraph.NodeID{1, 2}, nb))

	nb, err = s.g.Neighbors(3)
	require.NoError(err)
	require.Empty(nb)

	_, err = s.g.Neighbors(42)
	require.ErrorIs(err, posegraph.ErrNodeNotFound)
}

func (s *MemorySuite) TestInsertEdgeValidation() {
	require := require.New(s.T())
	require.ErrorIs(s.g.InsertEdge(infoEdge(0, 9)), posegraph.ErrNodeNotFound)
	require.ErrorIs(s.g.InsertEdge(infoEdge(1, 1)), posegraph.ErrSelfLoop)

	bad := infoEdge(0, 1)
	bad.PDF.Unc.M = nil
	require.ErrorIs(s.g.InsertEdge(bad), se2.ErrBadUncertainty)

	cov := infoEdge(0, 1)
	cov.PDF.Unc = se2.Diagonal(se2.Covariance, 0.1, 0.1, 0.01)
	require.ErrorIs(s.g.InsertEdge(cov), se2.ErrMixedForm)

	require.Zero(s.g.EdgeCount(), "rejected edges leave no trace")
}

func (s *MemorySuite) TestCountByKind() {
	require := require.New(s.T())
	e := infoEdge(0, 1)
	require.NoError(s.g.InsertEdge(e))
	e.Kind = posegraph.LoopClosure
	e.From, e.To = 3, 0
	require.NoError(s.g.InsertEdge(e))

	got := s.g.CountByKind()
	require.Equal(1, got[posegraph.Odometry])
	require.Equal(1, got[posegraph.LoopClosure])
	require.Zero(got[posegraph.ScanMatch])
	require.Len(s.g.AllEdges(), 2)
}

func TestMemorySuite(t *testing.T) {
	suite.Run(t, new(MemorySuite))
}

func TestOptions(t *testing.T) {
	g := posegraph.New(posegraph.WithRoot(3), posegraph.WithForm(se2.Covariance))
	require.Equal(t, posegraph.NodeID(3), g.Root())
	require.Equal(t, se2.Covariance, g.Form())

	require.Panics(t, func() { posegraph.WithRoot(-1) })
}
