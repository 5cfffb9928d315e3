// SPDX-License-Identifier: MIT

package se2

import (
	"fmt"
	"math"
)

// Pose is a planar pose: translation (X, Y) in metres and heading Phi in radians.
type Pose struct {
	X, Y, Phi float64
}

// WrapAngle maps a to the half-open interval (-π, π].
func WrapAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}

	return a - math.Pi
}

// Compose returns p ⊕ q, the pose reached by applying q in the frame of p.
// Complexity: O(1).
func (p Pose) Compose(q Pose) Pose {
	c, s := math.Cos(p.Phi), math.Sin(p.Phi)

	return Pose{
		X:   p.X + c*q.X - s*q.Y,
		Y:   p.Y + s*q.X + c*q.Y,
		Phi: WrapAngle(p.Phi + q.Phi),
	}
}

// Inverse returns p⁻¹ such that p ⊕ p⁻¹ is the identity.
func (p Pose) Inverse() Pose {
	c, s := math.Cos(p.Phi), math.Sin(p.Phi)

	return Pose{
		X:   -c*p.X - s*p.Y,
		Y:   s*p.X - c*p.Y,
		Phi: WrapAngle(-p.Phi),
	}
}

// Sub returns the pose of p expressed in the frame of b, i.e. b⁻¹ ⊕ p.
// For two node poses this is the relative transform an edge b→p carries.
func (p Pose) Sub(b Pose) Pose {
	return b.Inverse().Compose(p)
}

// Norm returns the Euclidean length of the translation part.
func (p Pose) Norm() float64 {
	return math.Hypot(p.X, p.Y)
}

// Vector returns [x, y, φ] with φ wrapped.
func (p Pose) Vector() []float64 {
	return []float64{p.X, p.Y, WrapAngle(p.Phi)}
}

// ApproxEqual reports whether p and q agree within eps on every component,
// comparing headings modulo 2π.
func (p Pose) ApproxEqual(q Pose, eps float64) bool {
	return math.Abs(p.X-q.X) <= eps &&
		math.Abs(p.Y-q.Y) <= eps &&
		math.Abs(WrapAngle(p.Phi-q.Phi)) <= eps
}

// String implements fmt.Stringer.
func (p Pose) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.1f°)", p.X, p.Y, p.Phi*180/math.Pi)
}
