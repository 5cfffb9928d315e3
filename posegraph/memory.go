// SPDX-License-Identifier: MIT

package posegraph

import (
	"fmt"
	"sort"
	"sync"

	"github.com/katalvlaran/lvslam/se2"
)

// edgeKey addresses the bucket of parallel edges from→to.
type edgeKey struct {
	from, to NodeID
}

// Memory is an in-memory pose graph.
//
// poses is the node arena; edges[k] holds indices into log for every edge
// with key k; adj[id] is the undirected neighbour set of id.
type Memory struct {
	mu sync.RWMutex

	root NodeID
	form se2.Form

	poses []se2.Pose
	log   []Edge
	edges map[edgeKey][]int
	adj   []map[NodeID]struct{}
}

var _ Graph = (*Memory)(nil)

// New creates an empty Memory graph.
// By default the root is node 0 and the canonical form is se2.Information.
// Complexity: O(1).
func New(opts ...Option) *Memory {
	g := &Memory{
		form:  se2.Information,
		edges: make(map[edgeKey][]int),
	}
	for _, opt := range opts {
		opt(g)
	}

	return g
}

// AddNode appends a node with the given pose and returns its ID.
// Complexity: O(1) amortised.
func (g *Memory) AddNode(p se2.Pose) NodeID {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := NodeID(len(g.poses))
	g.poses = append(g.poses, p)
	g.adj = append(g.adj, make(map[NodeID]struct{}))

	return id
}

// SetPose overwrites the pose estimate of id (the host optimiser's job).
func (g *Memory) SetPose(id NodeID, p se2.Pose) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.hasNode(id) {
		return fmt.Errorf("SetPose(%d): %w", id, ErrNodeNotFound)
	}
	g.poses[id] = p

	return nil
}

// hasNode must be called with mu held.
func (g *Memory) hasNode(id NodeID) bool {
	return id >= 0 && int(id) < len(g.poses)
}

// NodeCount returns the number of nodes.
func (g *Memory) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.poses)
}

// Root returns the projection root.
func (g *Memory) Root() NodeID { return g.root }

// Form returns the canonical uncertainty form.
func (g *Memory) Form() se2.Form { return g.form }

// Pose returns the current pose estimate of id.
func (g *Memory) Pose(id NodeID) (se2.Pose, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if !g.hasNode(id) {
		return se2.Pose{}, fmt.Errorf("Pose(%d): %w", id, ErrNodeNotFound)
	}

	return g.poses[id], nil
}

// InsertEdge adds e after validating it.
//
// Implementation:
//   - Stage 1: Validate endpoints exist and differ.
//   - Stage 2: Validate the uncertainty shape and canonical form.
//   - Stage 3: Append to the log, index by (from,to), mirror adjacency.
//
// Errors: ErrNodeNotFound, ErrSelfLoop, se2.ErrBadUncertainty, se2.ErrMixedForm.
//
// Complexity: O(1) amortised.
func (g *Memory) InsertEdge(e Edge) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.hasNode(e.From) || !g.hasNode(e.To) {
		return fmt.Errorf("InsertEdge(%d→%d): %w", e.From, e.To, ErrNodeNotFound)
	}
	if e.From == e.To {
		return fmt.Errorf("InsertEdge(%d→%d): %w", e.From, e.To, ErrSelfLoop)
	}
	if _, err := se2.NewPDF(e.PDF.Mean, e.PDF.Unc); err != nil {
		return fmt.Errorf("InsertEdge(%d→%d): %w", e.From, e.To, err)
	}
	if e.PDF.Unc.Form != g.form {
		return fmt.Errorf("InsertEdge(%d→%d): edge is %s, graph is %s: %w",
			e.From, e.To, e.PDF.Unc.Form, g.form, se2.ErrMixedForm)
	}

	k := edgeKey{from: e.From, to: e.To}
	g.edges[k] = append(g.edges[k], len(g.log))
	g.log = append(g.log, e)
	g.adj[e.From][e.To] = struct{}{}
	g.adj[e.To][e.From] = struct{}{}

	return nil
}

// Edges returns every edge from→to in insertion order, or nil.
// Complexity: O(m) for m parallel edges.
func (g *Memory) Edges(from, to NodeID) []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	idx := g.edges[edgeKey{from: from, to: to}]
	if len(idx) == 0 {
		return nil
	}
	out := make([]Edge, len(idx))
	for i, j := range idx {
		out[i] = g.log[j]
	}

	return out
}

// EdgeExists reports whether at least one edge from→to exists.
func (g *Memory) EdgeExists(from, to NodeID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.edges[edgeKey{from: from, to: to}]) > 0
}

// Neighbors returns the IDs adjacent to id in either direction, sorted ascending.
// Errors: ErrNodeNotFound.
// Complexity: O(d log d).
func (g *Memory) Neighbors(id NodeID) ([]NodeID, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if !g.hasNode(id) {
		return nil, fmt.Errorf("Neighbors(%d): %w", id, ErrNodeNotFound)
	}
	out := make([]NodeID, 0, len(g.adj[id]))
	for nb := range g.adj[id] {
		out = append(out, nb)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out, nil
}

// EdgeCount returns the total number of edges.
func (g *Memory) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.log)
}

// AllEdges returns a copy of every edge in insertion order.
func (g *Memory) AllEdges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Edge, len(g.log))
	copy(out, g.log)

	return out
}

// CountByKind returns the number of edges of each kind.
func (g *Memory) CountByKind() map[EdgeKind]int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[EdgeKind]int, 3)
	for _, e := range g.log {
		out[e.Kind]++
	}

	return out
}
