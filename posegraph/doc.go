// Package posegraph defines the pose-graph container the loop-closure decider
// reads from and writes edges into, plus Memory, a thread-safe in-memory
// implementation.
//
// Nodes are identified by dense, zero-based, monotonically increasing NodeID
// values and stored in an arena; every cross-reference (edges, adjacency) is
// by ID lookup, never by pointer. Edges are directed, carry a relative pose
// estimate with its uncertainty, and are never removed.
//
// A graph has exactly one canonical uncertainty form (se2.Information by
// default). InsertEdge rejects an edge of the other form with
// se2.ErrMixedForm, so every path composed over the graph stays in one form.
//
// Errors (sentinel):
//
//   - ErrNilGraph      a nil Graph was handed to a consumer.
//   - ErrNodeNotFound  the referenced node does not exist.
//   - ErrEdgeNotFound  no edge joins the requested pair.
//   - ErrSelfLoop      an edge from a node to itself was inserted.
//
// Concurrency: Memory guards all state with a single sync.RWMutex. Returned
// slices are copies; Edge values share their uncertainty matrices, which are
// read-only by convention.
package posegraph
