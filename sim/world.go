// SPDX-License-Identifier: MIT

package sim

import (
	"math"

	"github.com/katalvlaran/lvslam/scan"
	"github.com/katalvlaran/lvslam/se2"
)

// Segment is a wall from A to B.
type Segment struct {
	A, B scan.Point
}

// World is a static map of wall segments.
type World struct {
	Segments []Segment
}

// box appends the four walls of the axis-aligned rectangle (x0,y0)-(x1,y1).
func (w *World) box(x0, y0, x1, y1 float64) {
	a := scan.Point{X: x0, Y: y0}
	b := scan.Point{X: x1, Y: y0}
	c := scan.Point{X: x1, Y: y1}
	d := scan.Point{X: x0, Y: y1}
	w.Segments = append(w.Segments,
		Segment{A: a, B: b}, Segment{A: b, B: c},
		Segment{A: c, B: d}, Segment{A: d, B: a})
}

// Room returns a width×height walled room with the origin at its lower-left
// corner and a few square pillars placed asymmetrically so that scans from
// different places along a loop are distinguishable.
// Complexity: O(1).
func Room(width, height float64) *World {
	w := &World{}
	w.box(0, 0, width, height)
	// Interior obstacles, at fractions of the room size.
	pillars := [][3]float64{
		{0.50, 0.50, 0.08},
		{0.22, 0.70, 0.04},
		{0.78, 0.30, 0.05},
		{0.85, 0.80, 0.03},
	}
	for _, p := range pillars {
		cx, cy, half := p[0]*width, p[1]*height, p[2]*math.Min(width, height)
		w.box(cx-half, cy-half, cx+half, cy+half)
	}

	return w
}

// hit returns the distance along the ray o + t·d to segment s, or +Inf.
func hit(o scan.Point, dx, dy float64, s Segment) float64 {
	ex, ey := s.B.X-s.A.X, s.B.Y-s.A.Y
	den := dx*ey - dy*ex
	if den == 0 { // parallel
		return math.Inf(1)
	}
	qx, qy := s.A.X-o.X, s.A.Y-o.Y
	t := (qx*ey - qy*ex) / den
	u := (qx*dy - qy*dx) / den
	if t <= 0 || u < 0 || u > 1 {
		return math.Inf(1)
	}

	return t
}

// Simulator ray-casts scans and produces odometry for a World.
type Simulator struct {
	cfg config
}

// New builds a Simulator from deterministic defaults plus opts.
func New(opts ...Option) *Simulator {
	return &Simulator{cfg: newConfig(opts...)}
}

// RayCast simulates one scan taken at p. Beams that hit nothing within
// range report MaxRange, which scan.Scan treats as invalid.
// Complexity: O(rays × segments).
func (s *Simulator) RayCast(w *World, p se2.Pose) *scan.Scan {
	c := s.cfg
	out := &scan.Scan{
		Ranges:    make([]float64, c.rays),
		AngleMin:  -c.fov / 2,
		AngleStep: c.fov / float64(c.rays-1),
		MaxRange:  c.maxRange,
	}
	o := scan.Point{X: p.X, Y: p.Y}
	for i := range out.Ranges {
		a := p.Phi + out.AngleMin + float64(i)*out.AngleStep
		dx, dy := math.Cos(a), math.Sin(a)
		best := math.Inf(1)
		for _, seg := range w.Segments {
			if t := hit(o, dx, dy, seg); t < best {
				best = t
			}
		}
		if best >= c.maxRange {
			out.Ranges[i] = c.maxRange
			continue
		}
		out.Ranges[i] = best + c.gauss(c.rangeSigma)
	}

	return out
}
