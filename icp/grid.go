package icp

import (
	"math"

	"github.com/katalvlaran/lvslam/scan"
)

type cellKey struct{ x, y int }

// grid is a uniform hash grid over the target points. With the cell edge
// equal to the correspondence gate, any point within the gate of a query
// lies in the query's cell or one of its eight neighbours.
type grid struct {
	cell    float64
	pts     []scan.Point
	buckets map[cellKey][]int
}

func newGrid(pts []scan.Point, cell float64) *grid {
	g := &grid{cell: cell, pts: pts, buckets: make(map[cellKey][]int, len(pts))}
	for i, p := range pts {
		k := g.key(p)
		g.buckets[k] = append(g.buckets[k], i)
	}

	return g
}

func (g *grid) key(p scan.Point) cellKey {
	return cellKey{x: int(math.Floor(p.X / g.cell)), y: int(math.Floor(p.Y / g.cell))}
}

// nearest returns the closest indexed point within the gate.
func (g *grid) nearest(p scan.Point) (scan.Point, float64, bool) {
	k := g.key(p)
	best, bestD := -1, g.cell
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for _, i := range g.buckets[cellKey{x: k.x + dx, y: k.y + dy}] {
				if d := math.Hypot(p.X-g.pts[i].X, p.Y-g.pts[i].Y); d <= bestD {
					best, bestD = i, d
				}
			}
		}
	}
	if best < 0 {
		return scan.Point{}, 0, false
	}

	return g.pts[best], bestD, true
}

// correspond pairs every query point with its nearest neighbour, dropping
// points with none inside the gate.
func (g *grid) correspond(src []scan.Point) []pair {
	out := make([]pair, 0, len(src))
	for _, p := range src {
		if q, d, ok := g.nearest(p); ok {
			out = append(out, pair{src: p, tgt: q, d: d})
		}
	}

	return out
}
