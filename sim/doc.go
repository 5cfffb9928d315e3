// Package sim builds deterministic synthetic SLAM fixtures: a planar world
// of wall segments, looping trajectories through it, ray-cast range scans
// and odometry constraints.
//
// It exists so tests and the lcsim demo can drive the decider end to end
// without a recorded dataset.
//
// The package offers:
//
//   - World / Segment: line-segment maps; Room builds a walled room with
//     interior pillars so that scans taken at different places differ.
//   - RayCast: simulates a range finder at a pose.
//   - Loop: a rectangular trajectory lapping a configurable number of times.
//   - Odometry: the relative-pose constraint between consecutive poses.
//
// Configuration follows the functional-options style: Option mutates an
// internal config; option constructors panic on meaningless inputs;
// randomness is disabled unless WithSeed is given.
package sim
