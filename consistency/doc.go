// Package consistency validates loop-closure hypotheses inside a candidate
// partition with a pairwise consistency check and spectral selection.
//
// For a partition split at its node-ID gap into an early and a late group,
// the Evaluator matches early scans against late scans and keeps every match
// whose goodness clears the threshold as a hypothesis h = (a → b, T).
//
// Two hypotheses i and j close a cycle through the graph:
//
//	a_i --T_i--> b_i --rel(b_i,b_j)--> b_j --T_j⁻¹--> a_j --rel(a_j,a_i)--> a_i
//
// If both are correct the composed transform is close to the identity. The
// pairwise score is
//
//	A_ij = exp(-½ εᵀ Σ⁻¹ ε)
//
// with ε the composed pose read as a residual and Σ its propagated
// covariance. rel comes from the projector's optimal paths when both
// endpoints have one, and from the graph poses with a variance growing with
// the node-ID distance otherwise.
//
// Selection follows Olson's single-cluster graph partitioning: take the
// dominant eigenvector v1 of A, sort its entries in descending order, and keep
// the prefix u that maximises uᵀAu / uᵀu. When λ1/λ2 is below the
// configured ratio the partition is ambiguous and nothing is accepted.
//
// Accepted hypotheses are committed as posegraph.LoopClosure edges. A
// partition, identified by its member IDs, is evaluated at most once.
//
// Errors (sentinel):
//
//   - ErrNilMatcher   New was given no matcher.
//   - posegraph.ErrNilGraph, posegraph insertion errors propagate.
package consistency
