// Package projection computes minimum-uncertainty paths from the pose-graph
// root to every node: a Dijkstra-style greedy expansion where the "distance"
// is a composed Gaussian pose estimate and the order is its determinant.
//
// Path is the relaxation unit: a node sequence plus the composed se2.PDF
// from source to destination. A single-node path carries no PDF and acts as
// the identity under Concat.
//
// Projector.Project runs the expansion:
//
//  1. Seed the pool with the best single hop from the root to each neighbour.
//  2. Pop the most certain path (largest determinant in information form,
//     smallest in covariance form). A path whose destination is already
//     visited is stale and is dropped.
//  3. Record it as the destination's optimal path, mark the destination
//     visited, and push its extension to every unvisited neighbour except
//     the node it just came from.
//  4. Stop when every node is visited or the pool is empty; nodes not
//     connected to the root stay absent from the table.
//
// The pool is an arena of Path values addressed by integer handles kept in a
// container/heap; popping moves the value out of its slot and recycles the
// handle. Degenerate (all-zero) edge uncertainty is replaced by prior·I
// before any composition.
//
// Complexity:
//
//   - Time:  O((V + E) log E) heap work plus O(E) fixed-size 3×3 compositions.
//   - Space: O(V·L + E) for the table (L = path length) and the pool.
//
// Errors (sentinel):
//
//   - ErrDisjointPaths  Concat of paths that do not share the junction node.
//   - ErrNoEstimate     Confidence of a single-node path.
//   - posegraph.ErrEdgeNotFound, posegraph.ErrNilGraph, se2.ErrMixedForm propagate.
package projection
