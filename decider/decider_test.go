package decider_test

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/katalvlaran/lvslam/config"
	"github.com/katalvlaran/lvslam/decider"
	"github.com/katalvlaran/lvslam/icp"
	"github.com/katalvlaran/lvslam/posegraph"
	"github.com/katalvlaran/lvslam/scan"
	"github.com/katalvlaran/lvslam/se2"
	"github.com/katalvlaran/lvslam/sim"
)

var valid = scan.Observation{Scan: &scan.Scan{Ranges: []float64{1, 2}, AngleStep: 0.1, MaxRange: 10}}

func TestUnusableAfterTooManyInvalid(t *testing.T) {
	d, err := decider.New(posegraph.New(), nil, nil, nil)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		require.NoError(t, d.UpdateState(scan.Observation{}), "observation %d", i)
	}
	require.True(t, d.DatasetUsable())
	require.ErrorIs(t, d.UpdateState(scan.Observation{}), decider.ErrUnusableDataset)
	require.False(t, d.DatasetUsable())

	// terminal
	require.ErrorIs(t, d.UpdateState(valid), decider.ErrUnusableDataset)
}

func TestValidScanResetsInvalidCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	d, err := decider.New(posegraph.New(), nil, nil, nil, decider.WithRegisterer(reg))
	require.NoError(t, err)

	for i := 0; i < 19; i++ {
		require.NoError(t, d.UpdateState(scan.Observation{}))
	}
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP lvslam_consecutive_invalid_observations The number of consecutive observations without usable range data
# TYPE lvslam_consecutive_invalid_observations gauge
lvslam_consecutive_invalid_observations 19
`), "lvslam_consecutive_invalid_observations"))

	require.NoError(t, d.UpdateState(valid))
	for i := 0; i < 20; i++ {
		require.NoError(t, d.UpdateState(scan.Observation{}))
	}
	require.True(t, d.DatasetUsable())

	// A scan whose every reading is out of range counts as invalid.
	dead := scan.Observation{Scan: &scan.Scan{Ranges: []float64{10, 0}, MaxRange: 10}}
	require.ErrorIs(t, d.UpdateState(dead), decider.ErrUnusableDataset)
}

func TestTallyStartsWithBothLabels(t *testing.T) {
	d, err := decider.New(posegraph.New(), nil, nil, nil)
	require.NoError(t, err)
	require.Equal(t, map[string]int{decider.TypeICP2D: 0, decider.TypeLC: 0}, d.EdgeTypeTally())

	tally := d.EdgeTypeTally()
	tally[decider.TypeLC] = 99
	require.Zero(t, d.EdgeTypeTally()[decider.TypeLC], "tally is returned by copy")
	require.False(t, d.JustInsertedLoopClosure())
}

func TestNewValidates(t *testing.T) {
	_, err := decider.New(nil, nil, nil, nil)
	require.ErrorIs(t, err, posegraph.ErrNilGraph)

	cfg := config.Default()
	cfg.Registration.Window = 0
	_, err = decider.New(posegraph.New(), nil, nil, cfg)
	require.ErrorIs(t, err, config.ErrInvalid)

	reg := prometheus.NewRegistry()
	_, err = decider.New(posegraph.New(), nil, nil, nil, decider.WithRegisterer(reg))
	require.NoError(t, err)
	_, err = decider.New(posegraph.New(), nil, nil, nil, decider.WithRegisterer(reg))
	require.Error(t, err, "collectors cannot be registered twice on one registry")
}

// tagged returns a scan whose first reading encodes the node ID.
func tagged(id int) *scan.Scan {
	return &scan.Scan{Ranges: []float64{float64(id + 1)}, MaxRange: 1e6}
}

// truthMatcher answers with the exact relative pose between the tagged
// nodes when they are within reach metres of each other.
func truthMatcher(poses []se2.Pose, reach float64) icp.MatcherFunc {
	return func(a, b *scan.Scan, _ se2.Pose) (icp.Result, error) {
		pa, pb := poses[int(a.Ranges[0])-1], poses[int(b.Ranges[0])-1]
		if math.Hypot(pb.X-pa.X, pb.Y-pa.Y) > reach {
			return icp.Result{Goodness: 0.1}, nil
		}

		return icp.Result{
			Pose:     se2.PDF{Mean: pb.Sub(pa), Unc: se2.Diagonal(se2.Information, 400, 400, 900)},
			Goodness: 0.95,
		}, nil
	}
}

func drive(t *testing.T, g *posegraph.Memory, d *decider.Decider, poses []se2.Pose, obs func(i int) scan.Observation) bool {
	t.Helper()
	odo := sim.New()
	sawLC := false
	for i, p := range poses {
		id := g.AddNode(p)
		if i > 0 {
			pdf, err := odo.Odometry(poses[i-1], p, g.Form())
			require.NoError(t, err)
			require.NoError(t, g.InsertEdge(posegraph.Edge{From: id - 1, To: id, PDF: pdf, Kind: posegraph.Odometry}))
		}
		require.NoError(t, d.UpdateState(obs(i)), "node %d", id)
		sawLC = sawLC || d.JustInsertedLoopClosure()
	}

	return sawLC
}

func TestLoopClosureEndToEnd(t *testing.T) {
	poses, err := sim.Loop(1.5, 1.2, 10.5, 6.8, 0.5, 2)
	require.NoError(t, err)

	g := posegraph.New()
	reg := prometheus.NewRegistry()
	d, err := decider.New(g, truthMatcher(poses, 1.0), nil, nil,
		decider.WithLogger(zaptest.NewLogger(t)),
		decider.WithRegisterer(reg))
	require.NoError(t, err)

	sawLC := drive(t, g, d, poses, func(i int) scan.Observation { return scan.Observation{Scan: tagged(i)} })

	tally := d.EdgeTypeTally()
	require.Positive(t, tally[decider.TypeICP2D])
	require.Positive(t, tally[decider.TypeLC])
	require.True(t, sawLC)

	kinds := g.CountByKind()
	require.Equal(t, tally[decider.TypeICP2D], kinds[posegraph.ScanMatch])
	require.Equal(t, tally[decider.TypeLC], kinds[posegraph.LoopClosure])
	require.Equal(t, len(poses)-1, kinds[posegraph.Odometry])

	// Loop-closure edges always run from an early node to a much later one.
	for _, e := range g.AllEdges() {
		if e.Kind == posegraph.LoopClosure {
			require.Greater(t, int(e.To-e.From), config.Default().LoopClosure.MinNodeIDDiff)
		}
	}

	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(fmt.Sprintf(`
# HELP lvslam_edges_registered_total The number of edges the decider inserted, by type
# TYPE lvslam_edges_registered_total counter
lvslam_edges_registered_total{type="ICP2D"} %d
lvslam_edges_registered_total{type="LC"} %d
`, tally[decider.TypeICP2D], tally[decider.TypeLC])), "lvslam_edges_registered_total"))
	n, err := testutil.GatherAndCount(reg, "lvslam_projection_duration_seconds")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	// Projection ran at node 60; force one more over the whole graph.
	require.NoError(t, d.Project())
	last := posegraph.NodeID(len(poses) - 1)
	p, ok := d.QueryOptimalPath(last)
	require.True(t, ok)
	require.Equal(t, g.Root(), p.Source())
	require.Equal(t, last, p.Destination())
	pdf, _ := p.PDF()
	root, _ := g.Pose(g.Root())
	end, _ := g.Pose(last)
	want := end.Sub(root)
	require.True(t, pdf.Mean.ApproxEqual(want, 1e-6), "got %v want %v", pdf.Mean, want)
	// With loop closures in place the path home is short.
	require.Less(t, p.Len(), len(poses)/2)

	require.NotEmpty(t, d.Partitions())
	rep := d.Report()
	require.Contains(t, rep, "Edges LC")
	require.Regexp(t, `Dataset usable\s+= true`, rep)
	require.Equal(t, 10, d.Params().Registration.Window)
}

func TestRegistrationWithRayCastScans(t *testing.T) {
	poses, err := sim.Loop(1.5, 1.2, 10.5, 6.8, 0.5, 1)
	require.NoError(t, err)
	world := sim.Room(12, 8)
	caster := sim.New(sim.WithFOV(2*math.Pi), sim.WithRays(360))

	g := posegraph.New()
	d, err := decider.New(g, nil, nil, nil, decider.WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	drive(t, g, d, poses[:20], func(i int) scan.Observation {
		return scan.Observation{Scan: caster.RayCast(world, poses[i])}
	})

	tally := d.EdgeTypeTally()
	require.Positive(t, tally[decider.TypeICP2D])
	require.Equal(t, tally[decider.TypeICP2D], g.CountByKind()[posegraph.ScanMatch])
	for _, e := range g.AllEdges() {
		if e.Kind != posegraph.ScanMatch {
			continue
		}
		want, _ := g.Pose(e.To)
		from, _ := g.Pose(e.From)
		require.InDelta(t, 0, from.Compose(e.PDF.Mean).Sub(want).Norm(), 0.15, "edge %v", e)
	}
}

func TestNodesWithoutScansAreNotRegistered(t *testing.T) {
	g := posegraph.New()
	calls := 0
	m := icp.MatcherFunc(func(_, _ *scan.Scan, guess se2.Pose) (icp.Result, error) {
		calls++
		return icp.Result{Pose: se2.PDF{Mean: guess, Unc: se2.ScaledIdentity(se2.Information, 1)}, Goodness: 1}, nil
	})
	d, err := decider.New(g, m, nil, nil)
	require.NoError(t, err)

	g.AddNode(se2.Pose{})
	require.NoError(t, d.UpdateState(scan.Observation{}))
	g.AddNode(se2.Pose{X: 1})
	require.NoError(t, d.UpdateState(scan.Observation{}))
	require.Zero(t, calls)
	require.Zero(t, g.EdgeCount())

	// No new node: the scan is remembered but nothing is registered.
	require.NoError(t, d.UpdateState(valid))
	require.Zero(t, calls)

	g.AddNode(se2.Pose{X: 2})
	require.NoError(t, d.UpdateState(scan.Observation{}))
	require.Zero(t, calls, "earlier nodes have no scans to match against")
	g.AddNode(se2.Pose{X: 3})
	require.NoError(t, d.UpdateState(scan.Observation{}))
	require.Equal(t, 1, calls)
	require.Equal(t, 1, d.EdgeTypeTally()[decider.TypeICP2D])
}
