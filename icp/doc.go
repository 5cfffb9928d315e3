// Package icp provides the scan matcher the registrar and the consistency
// evaluator delegate to, plus PointToPoint, a reference 2D ICP.
//
// Match(a, b, guess) estimates the pose of scan b expressed in the frame of
// scan a, i.e. the relative transform an edge a→b carries. The result holds
// the estimate as an information-form se2.PDF together with a goodness score
// in [0,1] (the fraction of b's points that found a correspondence in a).
//
// PointToPoint iterates:
//
//  1. transform b's points by the current estimate;
//  2. pair each with its nearest neighbour in a (hash-grid lookup, bounded
//     by the maximum correspondence distance);
//  3. drop pairs above the configured distance percentile;
//  4. solve the closed-form 2D rigid fit and left-compose it onto the estimate;
//
// until the mean residual stops improving by more than the convergence
// threshold or the iteration cap is hit. The information matrix is
// JᵀJ/σ², where J stacks the point-to-point residual Jacobians and σ² is the
// mean squared inlier residual.
package icp
