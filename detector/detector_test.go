package detector_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/katalvlaran/lvslam/detector"
	"github.com/katalvlaran/lvslam/partition"
	"github.com/katalvlaran/lvslam/posegraph"
	"github.com/katalvlaran/lvslam/scan"
	"github.com/katalvlaran/lvslam/se2"
)

// fixed is a partitioner that returns a canned partitioning.
type fixed struct {
	parts []partition.Partition
	added []posegraph.NodeID
	reset int
}

func (f *fixed) AddObservation(id posegraph.NodeID, _ se2.Pose, _ *scan.Scan) {
	f.added = append(f.added, id)
}
func (f *fixed) ComputePartitions() []partition.Partition { return f.parts }
func (f *fixed) Reset()                                   { f.reset++; f.added = nil }

func newDetector(t *testing.T, p partition.Partitioner, n int) (*detector.Detector, *posegraph.Memory, *scan.Store) {
	t.Helper()
	g := posegraph.New()
	st := scan.NewStore()
	for i := 0; i < n; i++ {
		id := g.AddNode(se2.Pose{X: float64(i)})
		st.Put(id, &scan.Scan{Ranges: []float64{1}, MaxRange: 10})
	}
	d, err := detector.New(p, g, st, detector.WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)

	return d, g, st
}

func TestCandidateNeedsLargeGap(t *testing.T) {
	f := &fixed{parts: []partition.Partition{
		{46},
		{0, 1, 2, 3, 45},
		{4, 5, 6, 7, 8},
	}}
	d, _, _ := newDetector(t, f, 47)
	require.NoError(t, d.RefreshPartitions(false))

	got := d.FindLoopClosureCandidates()
	require.Len(t, got, 1)
	require.Empty(t, cmp.Diff(partition.Partition{0, 1, 2, 3, 45}, got[0].Partition))
	require.Equal(t, posegraph.NodeID(3), got[0].GapFrom)
	require.Equal(t, posegraph.NodeID(45), got[0].GapTo)
}

func TestFirstPartitionAndSingletonsNeverFlagged(t *testing.T) {
	f := &fixed{parts: []partition.Partition{
		{0, 100}, // holds the newest node
		{50},
		{},
	}}
	d, _, _ := newDetector(t, f, 101)
	require.NoError(t, d.RefreshPartitions(false))
	require.Empty(t, d.FindLoopClosureCandidates())
}

func TestGapEqualToMinimumIsNotEnough(t *testing.T) {
	f := &fixed{parts: []partition.Partition{{70}, {0, 30}, {0, 31}}}
	d, _, _ := newDetector(t, f, 71)
	require.NoError(t, d.RefreshPartitions(false))

	got := d.FindLoopClosureCandidates()
	require.Len(t, got, 1)
	require.Equal(t, posegraph.NodeID(31), got[0].GapTo)
}

func TestOneFlagPerPartition(t *testing.T) {
	f := &fixed{parts: []partition.Partition{{200}, {0, 40, 80, 120}}}
	d, _, _ := newDetector(t, f, 201)
	require.NoError(t, d.RefreshPartitions(false))

	got := d.FindLoopClosureCandidates()
	require.Len(t, got, 1)
	require.Equal(t, posegraph.NodeID(0), got[0].GapFrom)
	require.Equal(t, posegraph.NodeID(40), got[0].GapTo)
}

func TestRefreshSubmitsNewestOrEverything(t *testing.T) {
	f := &fixed{}
	d, g, st := newDetector(t, f, 3)

	require.NoError(t, d.RefreshPartitions(false))
	require.Equal(t, []posegraph.NodeID{2}, f.added)

	require.NoError(t, d.RefreshPartitions(true))
	require.Equal(t, 1, f.reset)
	require.Equal(t, []posegraph.NodeID{0, 1, 2}, f.added)

	// a newest node without a scan is not submitted
	g.AddNode(se2.Pose{})
	require.NoError(t, d.RefreshPartitions(false))
	require.Equal(t, []posegraph.NodeID{0, 1, 2}, f.added)
	require.Equal(t, 3, st.Len())
}

func TestIncrementalRefreshIsIdempotent(t *testing.T) {
	grid := partition.NewGrid(5)
	d, _, _ := newDetector(t, grid, 12)
	require.NoError(t, d.RefreshPartitions(true))
	first := d.Current()

	require.NoError(t, d.RefreshPartitions(false))
	require.NoError(t, d.RefreshPartitions(false))
	require.Empty(t, cmp.Diff(first, d.Current()))
	require.True(t, d.Stale().Empty())
}

func TestStaleTracksChangedPartitions(t *testing.T) {
	f := &fixed{parts: []partition.Partition{{0, 1}}}
	d, _, _ := newDetector(t, f, 2)
	require.NoError(t, d.RefreshPartitions(false))

	f.parts = []partition.Partition{{0}, {1}}
	require.NoError(t, d.RefreshPartitions(false))

	ch := d.Stale()
	require.Empty(t, cmp.Diff([]partition.Partition{{0, 1}}, ch.Stale))
	require.Len(t, ch.Fresh, 2)
	require.Empty(t, cmp.Diff([]partition.Partition{{0, 1}}, d.Previous()))
}

func TestNewRejectsNil(t *testing.T) {
	_, err := detector.New(nil, posegraph.New(), nil)
	require.ErrorIs(t, err, detector.ErrNilPartitioner)
	_, err = detector.New(&fixed{}, nil, nil)
	require.ErrorIs(t, err, posegraph.ErrNilGraph)
	require.Panics(t, func() { detector.WithMinNodeIDDiff(-1) })
}
