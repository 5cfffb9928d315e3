package se2_test

import (
	"fmt"
	"math"

	"github.com/katalvlaran/lvslam/se2"
)

// ExamplePose_Compose walks one metre forward after turning left.
func ExamplePose_Compose() {
	turned := se2.Pose{X: 1, Phi: math.Pi / 2}
	fmt.Println(turned.Compose(se2.Pose{X: 1}))
	// Output:
	// (1.000, 1.000, 90.0°)
}

// ExamplePose_Sub recovers the relative transform between two node poses.
func ExamplePose_Sub() {
	a := se2.Pose{X: 1, Y: 1}
	b := se2.Pose{X: 2, Y: 1}
	fmt.Println(b.Sub(a))
	// Output:
	// (1.000, 0.000, 0.0°)
}
