package projection_test

import (
	"fmt"

	"github.com/katalvlaran/lvslam/posegraph"
	"github.com/katalvlaran/lvslam/projection"
	"github.com/katalvlaran/lvslam/se2"
)

// ExampleProjector shows a precise shortcut beating a chain of loose edges.
//
//	0 ─ 1 ─ 2 ─ 3   information 1 per edge
//	0 ───────── 3   information 100
func ExampleProjector() {
	g := posegraph.New()
	for i := 0; i < 4; i++ {
		g.AddNode(se2.Pose{X: float64(i)})
	}
	for i := posegraph.NodeID(0); i < 3; i++ {
		_ = g.InsertEdge(posegraph.Edge{From: i, To: i + 1,
			PDF: se2.PDF{Mean: se2.Pose{X: 1}, Unc: se2.ScaledIdentity(se2.Information, 1)}})
	}
	_ = g.InsertEdge(posegraph.Edge{From: 0, To: 3,
		PDF: se2.PDF{Mean: se2.Pose{X: 3}, Unc: se2.ScaledIdentity(se2.Information, 100)}})

	pr, _ := projection.NewProjector(g, projection.WithMinNodes(1))
	if err := pr.Project(); err != nil {
		fmt.Println(err)
		return
	}
	for _, id := range []posegraph.NodeID{1, 3} {
		p, _ := pr.Optimal(id)
		fmt.Println(p.Nodes())
	}
	// Output:
	// [0 1]
	// [0 3]
}
