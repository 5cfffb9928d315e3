// Package scan holds 2D laser range scans, the observations the host feeds
// the decider, and the node-ID → scan store kept by the registrar.
//
// Scans are shared, never copied: a Store holds pointers to scans owned by
// the host, and nothing in this module mutates a Scan after construction.
package scan

import (
	"math"
	"time"
)

// Point is a 2D point in the sensor frame.
type Point struct {
	X, Y float64
}

// Scan is a planar range scan. Ranges[i] is measured at bearing
// AngleMin + i·AngleStep. Readings outside (0, MaxRange) are invalid.
type Scan struct {
	Ranges    []float64
	AngleMin  float64
	AngleStep float64
	MaxRange  float64
}

// validRange reports whether r is a usable reading.
func (s *Scan) validRange(r float64) bool {
	return r > 0 && r < s.MaxRange && !math.IsNaN(r) && !math.IsInf(r, 0)
}

// Valid reports whether s carries at least one usable reading.
// A nil scan is not valid.
func (s *Scan) Valid() bool {
	if s == nil {
		return false
	}
	for _, r := range s.Ranges {
		if s.validRange(r) {
			return true
		}
	}

	return false
}

// Points projects every usable reading into Cartesian sensor coordinates.
// Complexity: O(len(Ranges)).
func (s *Scan) Points() []Point {
	if s == nil {
		return nil
	}
	out := make([]Point, 0, len(s.Ranges))
	for i, r := range s.Ranges {
		if !s.validRange(r) {
			continue
		}
		a := s.AngleMin + float64(i)*s.AngleStep
		out = append(out, Point{X: r * math.Cos(a), Y: r * math.Sin(a)})
	}

	return out
}

// Observation is one sensor frame delivered to the decider.
// A nil Scan means the frame carried no range data.
type Observation struct {
	Scan      *Scan
	Timestamp time.Time
}

// HasScan reports whether the observation carries usable range data.
func (o Observation) HasScan() bool {
	return o.Scan.Valid()
}
