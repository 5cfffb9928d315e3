// Package decider is the loop-closure edge-registration decider for 2D
// pose-graph SLAM.
//
// The host owns the pose graph: it adds nodes (and odometry edges) and then
// hands every sensor frame to Decider.UpdateState. For each new node the
// decider runs, in order:
//
//  1. the scan-matching registrar (edges to the previous W nodes),
//  2. a partition refresh (full every Partitions.FullUpdatePeriod nodes),
//  3. the uncertainty projection (every Projection.Interval nodes),
//  4. candidate detection and pairwise consistency evaluation of each
//     flagged partition, committing accepted loop closures.
//
// Observations without usable range data are counted. More than
// Dataset.InvalidThreshold of them in a row marks the dataset unusable, and
// every later UpdateState returns ErrUnusableDataset.
//
// A Decider is meant to be driven from one goroutine. It serialises calls
// with a mutex, but the graph it shares with the host must not be mutated
// while UpdateState runs.
//
// Metrics are exported through Prometheus collectors registered on the
// Registerer given with WithRegisterer.
package decider
