// SPDX-License-Identifier: MIT

package projection

import (
	"fmt"

	"github.com/katalvlaran/lvslam/posegraph"
)

// MinUncertaintyHop returns the most certain single-hop path from→to.
//
// Implementation:
//   - Stage 1: Collect every edge from→to as is and every edge to→from inverted.
//   - Stage 2: Replace degenerate uncertainty by prior·I before inverting or comparing.
//   - Stage 3: Keep the candidate whose determinant wins under the graph's form.
//
// Errors: posegraph.ErrNilGraph, posegraph.ErrEdgeNotFound when no edge joins
// the pair, se2.ErrMixedForm, matrix.ErrSingular.
//
// Complexity: O(m) for m parallel edges between the pair.
func MinUncertaintyHop(g posegraph.Graph, from, to posegraph.NodeID, prior float64) (Path, error) {
	if g == nil {
		return Path{}, posegraph.ErrNilGraph
	}

	var (
		best  Path
		found bool
	)
	consider := func(cand Path) error {
		if !found {
			best, found = cand, true
			return nil
		}
		better, err := cand.Better(&best)
		if err != nil {
			return err
		}
		if better {
			best = cand
		}

		return nil
	}

	for _, e := range g.Edges(from, to) {
		pdf := e.PDF
		pdf.Unc = pdf.Unc.Regularize(prior)
		if err := consider(Hop(from, to, pdf)); err != nil {
			return Path{}, fmt.Errorf("hop %d→%d: %w", from, to, err)
		}
	}
	for _, e := range g.Edges(to, from) {
		pdf := e.PDF
		pdf.Unc = pdf.Unc.Regularize(prior)
		inv, err := pdf.Inverse()
		if err != nil {
			return Path{}, fmt.Errorf("hop %d→%d (inverted): %w", from, to, err)
		}
		if err = consider(Hop(from, to, inv)); err != nil {
			return Path{}, fmt.Errorf("hop %d→%d: %w", from, to, err)
		}
	}
	if !found {
		return Path{}, fmt.Errorf("hop %d→%d: %w", from, to, posegraph.ErrEdgeNotFound)
	}

	return best, nil
}
