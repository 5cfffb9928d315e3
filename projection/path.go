// SPDX-License-Identifier: MIT

package projection

import (
	"errors"
	"fmt"
	"strings"

	"github.com/katalvlaran/lvslam/posegraph"
	"github.com/katalvlaran/lvslam/se2"
)

// Sentinel errors for path algebra.
var (
	// ErrDisjointPaths indicates Concat of a path that does not start where the receiver ends.
	ErrDisjointPaths = errors.New("projection: paths do not share a junction node")

	// ErrNoEstimate indicates a single-node path, which has no composed estimate.
	ErrNoEstimate = errors.New("projection: path has no pose estimate")
)

// Path is an ordered, non-empty node sequence with the composed pose estimate
// from its first node (source) to its last (destination).
//
// The zero value is not usable; build paths with NewPath or Hop.
type Path struct {
	nodes []posegraph.NodeID
	pdf   *se2.PDF // nil for a single-node path

	conf   float64 // cached determinant
	cached bool
}

// NewPath returns the single-node path at src. It is the identity for Concat.
func NewPath(src posegraph.NodeID) Path {
	return Path{nodes: []posegraph.NodeID{src}}
}

// Hop returns the two-node path from→to carrying pdf.
func Hop(from, to posegraph.NodeID, pdf se2.PDF) Path {
	return Path{nodes: []posegraph.NodeID{from, to}, pdf: &pdf}
}

// Source returns the first node.
func (p Path) Source() posegraph.NodeID { return p.nodes[0] }

// Destination returns the last node.
func (p Path) Destination() posegraph.NodeID { return p.nodes[len(p.nodes)-1] }

// SecondToLast returns the node before the destination, if any.
func (p Path) SecondToLast() (posegraph.NodeID, bool) {
	if len(p.nodes) < 2 {
		return 0, false
	}

	return p.nodes[len(p.nodes)-2], true
}

// Len returns the number of nodes.
func (p Path) Len() int { return len(p.nodes) }

// Nodes returns a copy of the node sequence.
func (p Path) Nodes() []posegraph.NodeID {
	out := make([]posegraph.NodeID, len(p.nodes))
	copy(out, p.nodes)

	return out
}

// PDF returns the composed estimate, or false for a single-node path.
func (p Path) PDF() (se2.PDF, bool) {
	if p.pdf == nil {
		return se2.PDF{}, false
	}

	return *p.pdf, true
}

// Form returns the uncertainty form of the estimate, or false for a single-node path.
func (p Path) Form() (se2.Form, bool) {
	if p.pdf == nil {
		return 0, false
	}

	return p.pdf.Unc.Form, true
}

// Append extends the path by one node reached through edge.
func (p *Path) Append(node posegraph.NodeID, edge se2.PDF) error {
	return p.Concat(Hop(p.Destination(), node, edge))
}

// Concat appends other onto p (p += other).
//
// Requires other.Source() == p.Destination(); the shared node appears once
// in the result and the estimates compose as p ⊕ other. On error p is left
// unchanged.
//
// Errors: ErrDisjointPaths, se2.ErrMixedForm, matrix.ErrSingular.
func (p *Path) Concat(other Path) error {
	if other.Source() != p.Destination() {
		return fmt.Errorf("concat %d..%d with %d..%d: %w",
			p.Source(), p.Destination(), other.Source(), other.Destination(), ErrDisjointPaths)
	}

	var pdf *se2.PDF
	switch {
	case p.pdf == nil:
		pdf = other.pdf
	case other.pdf == nil:
		pdf = p.pdf
	default:
		c, err := p.pdf.Compose(*other.pdf)
		if err != nil {
			return fmt.Errorf("concat %d..%d with %d..%d: %w",
				p.Source(), p.Destination(), other.Source(), other.Destination(), err)
		}
		pdf = &c
	}

	nodes := make([]posegraph.NodeID, 0, len(p.nodes)+len(other.nodes)-1)
	nodes = append(nodes, p.nodes...)
	nodes = append(nodes, other.nodes[1:]...)
	p.nodes = nodes
	p.pdf = pdf
	p.cached = false

	return nil
}

// Confidence returns the determinant of the composed uncertainty matrix,
// caching it until the next mutation.
// Errors: ErrNoEstimate for a single-node path.
func (p *Path) Confidence() (float64, error) {
	if p.cached {
		return p.conf, nil
	}
	if p.pdf == nil {
		return 0, ErrNoEstimate
	}
	d, err := p.pdf.Unc.Confidence()
	if err != nil {
		return 0, err
	}
	p.conf, p.cached = d, true

	return d, nil
}

// Better reports whether p is strictly more certain than o under their
// shared form's ordering.
// Errors: ErrNoEstimate, se2.ErrMixedForm.
func (p *Path) Better(o *Path) (bool, error) {
	pf, ok := p.Form()
	if !ok {
		return false, ErrNoEstimate
	}
	of, ok := o.Form()
	if !ok {
		return false, ErrNoEstimate
	}
	if pf != of {
		return false, fmt.Errorf("%s vs %s: %w", pf, of, se2.ErrMixedForm)
	}
	a, err := p.Confidence()
	if err != nil {
		return false, err
	}
	b, err := o.Confidence()
	if err != nil {
		return false, err
	}

	return se2.BetterConfidence(pf, a, b), nil
}

// Clone returns a copy that shares no node storage with p.
// The PDF is immutable and shared.
func (p Path) Clone() Path {
	return Path{nodes: p.Nodes(), pdf: p.pdf, conf: p.conf, cached: p.cached}
}

// String implements fmt.Stringer.
func (p Path) String() string {
	var sb strings.Builder
	for i, n := range p.nodes {
		if i > 0 {
			sb.WriteString("→")
		}
		fmt.Fprintf(&sb, "%d", n)
	}
	if p.pdf != nil {
		fmt.Fprintf(&sb, " %v", *p.pdf)
	}

	return sb.String()
}
