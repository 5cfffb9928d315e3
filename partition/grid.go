package partition

import (
	"fmt"
	"math"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/katalvlaran/lvslam/posegraph"
	"github.com/katalvlaran/lvslam/scan"
	"github.com/katalvlaran/lvslam/se2"
)

type cell struct{ x, y int }

// Grid buckets nodes by the square cell their pose falls into.
//
// Ordering of ComputePartitions: the cell holding the newest (largest)
// node ID comes first, the rest follow by ascending smallest member.
// Scans are accepted for interface compatibility and otherwise unused.
type Grid struct {
	size   float64
	cells  map[cell]*roaring.Bitmap
	where  map[posegraph.NodeID]cell
	newest posegraph.NodeID
}

var _ Partitioner = (*Grid)(nil)

// NewGrid returns a Grid with square cells of edge size metres.
// Panics if size <= 0.
func NewGrid(size float64) *Grid {
	if size <= 0 {
		panic(fmt.Sprintf("partition: NewGrid(%g): cell size must be positive", size))
	}
	g := &Grid{size: size}
	g.Reset()

	return g
}

// CellSize returns the configured cell edge.
func (g *Grid) CellSize() float64 { return g.size }

// Reset forgets every observation.
func (g *Grid) Reset() {
	g.cells = make(map[cell]*roaring.Bitmap)
	g.where = make(map[posegraph.NodeID]cell)
	g.newest = -1
}

func (g *Grid) cellOf(p se2.Pose) cell {
	return cell{x: int(math.Floor(p.X / g.size)), y: int(math.Floor(p.Y / g.size))}
}

// AddObservation places id in the cell containing pose, moving it if it was
// placed before. Negative IDs are ignored.
// Complexity: O(log n) amortised.
func (g *Grid) AddObservation(id posegraph.NodeID, pose se2.Pose, _ *scan.Scan) {
	if id < 0 {
		return
	}
	c := g.cellOf(pose)
	if old, ok := g.where[id]; ok {
		if old == c {
			g.touch(id)
			return
		}
		b := g.cells[old]
		b.Remove(uint32(id))
		if b.IsEmpty() {
			delete(g.cells, old)
		}
	}
	b, ok := g.cells[c]
	if !ok {
		b = roaring.New()
		g.cells[c] = b
	}
	b.Add(uint32(id))
	g.where[id] = c
	g.touch(id)
}

func (g *Grid) touch(id posegraph.NodeID) {
	if id > g.newest {
		g.newest = id
	}
}

// ComputePartitions returns one partition per non-empty cell.
// Complexity: O(C log C + N) for C cells and N nodes.
func (g *Grid) ComputePartitions() []Partition {
	if len(g.cells) == 0 {
		return nil
	}
	head, hasHead := g.where[g.newest]

	out := make([]Partition, 0, len(g.cells))
	rest := make([]Partition, 0, len(g.cells))
	for c, b := range g.cells {
		p := FromBitmap(b)
		if hasHead && c == head {
			out = append(out, p)
			continue
		}
		rest = append(rest, p)
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].Min() < rest[j].Min() })

	return append(out, rest...)
}
