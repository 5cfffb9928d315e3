// SPDX-License-Identifier: MIT

package posegraph

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/lvslam/se2"
)

// Sentinel errors for pose-graph operations.
var (
	// ErrNilGraph indicates that a nil Graph was passed to a consumer.
	ErrNilGraph = errors.New("posegraph: graph is nil")

	// ErrNodeNotFound indicates an operation referenced a non-existent node.
	ErrNodeNotFound = errors.New("posegraph: node not found")

	// ErrEdgeNotFound indicates that no edge joins the requested pair of nodes.
	ErrEdgeNotFound = errors.New("posegraph: edge not found")

	// ErrSelfLoop indicates an edge whose endpoints coincide.
	ErrSelfLoop = errors.New("posegraph: self-loop not allowed")
)

// NodeID identifies a node. IDs are zero-based and assigned in insertion order.
type NodeID int

// EdgeKind classifies where an edge came from.
type EdgeKind int

const (
	// Odometry edges are supplied by the host between consecutive poses.
	Odometry EdgeKind = iota

	// ScanMatch edges are committed by the registrar.
	ScanMatch

	// LoopClosure edges are committed by the consistency evaluator.
	LoopClosure
)

// String implements fmt.Stringer.
func (k EdgeKind) String() string {
	switch k {
	case Odometry:
		return "odometry"
	case ScanMatch:
		return "scan-match"
	case LoopClosure:
		return "loop-closure"
	default:
		return fmt.Sprintf("EdgeKind(%d)", int(k))
	}
}

// Edge is a directed relative-pose constraint From→To.
// PDF.Mean is the pose of To expressed in the frame of From.
type Edge struct {
	From, To NodeID
	PDF      se2.PDF
	Kind     EdgeKind
}

// String implements fmt.Stringer.
func (e Edge) String() string {
	return fmt.Sprintf("%d→%d %s %v", e.From, e.To, e.Kind, e.PDF)
}

// Graph is the view of a pose graph consumed by the decider.
//
// Implementations must keep node IDs dense (0..NodeCount()-1) and must
// return Neighbors sorted ascending without duplicates, counting edges in
// either direction.
type Graph interface {
	// NodeCount returns the number of nodes.
	NodeCount() int

	// Root returns the node the uncertainty projection starts from.
	Root() NodeID

	// Form returns the canonical uncertainty form of every edge.
	Form() se2.Form

	// Pose returns the current pose estimate of id.
	Pose(id NodeID) (se2.Pose, error)

	// Edges returns every edge from→to, in insertion order.
	Edges(from, to NodeID) []Edge

	// EdgeExists reports whether at least one edge from→to exists.
	EdgeExists(from, to NodeID) bool

	// InsertEdge adds e to the graph.
	InsertEdge(e Edge) error

	// Neighbors returns the IDs adjacent to id in either direction.
	Neighbors(id NodeID) ([]NodeID, error)
}

// Option configures a Memory graph before first use.
type Option func(*Memory)

// WithRoot sets the projection root. Default is node 0.
// Panics on a negative id.
func WithRoot(id NodeID) Option {
	if id < 0 {
		panic(fmt.Sprintf("posegraph: WithRoot(%d): root must be non-negative", id))
	}

	return func(g *Memory) { g.root = id }
}

// WithForm sets the canonical uncertainty form. Default is se2.Information.
func WithForm(f se2.Form) Option {
	return func(g *Memory) { g.form = f }
}
