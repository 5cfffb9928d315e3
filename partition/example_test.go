package partition_test

import (
	"fmt"

	"github.com/katalvlaran/lvslam/partition"
	"github.com/katalvlaran/lvslam/se2"
)

// ExampleGrid buckets four nodes into 2 m cells. The cell holding the
// newest node is listed first.
func ExampleGrid() {
	g := partition.NewGrid(2)
	g.AddObservation(0, se2.Pose{X: 0.5, Y: 0.5}, nil)
	g.AddObservation(1, se2.Pose{X: 1, Y: 1}, nil)
	g.AddObservation(2, se2.Pose{X: 5}, nil)
	g.AddObservation(3, se2.Pose{X: 0.2, Y: 1.9}, nil)

	for _, p := range g.ComputePartitions() {
		fmt.Println(p)
	}
	// Output:
	// [0 1 3]
	// [2]
}

// ExampleDiff reports which partitions changed between two computations.
func ExampleDiff() {
	prev := []partition.Partition{{0, 1}, {2}}
	curr := []partition.Partition{{0, 1}, {2, 3}}

	ch := partition.Diff(prev, curr)
	fmt.Println("stale:", ch.Stale)
	fmt.Println("fresh:", ch.Fresh)
	// Output:
	// stale: [[2]]
	// fresh: [[2 3]]
}
