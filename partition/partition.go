// Package partition groups pose-graph nodes into spatially coherent sets.
//
// The decider treats the partitioner as an external collaborator reached
// through the Partitioner interface; Grid is the bundled implementation.
//
// Node IDs are passed explicitly with every observation, so the partitions
// returned never depend on submission order, and resubmitting an ID moves
// it rather than duplicating it. That makes incremental updates idempotent.
package partition

import (
	"sort"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/katalvlaran/lvslam/posegraph"
	"github.com/katalvlaran/lvslam/scan"
	"github.com/katalvlaran/lvslam/se2"
)

// Partition is a set of node IDs sorted ascending.
type Partition []posegraph.NodeID

// FromBitmap converts a roaring bitmap into a Partition.
func FromBitmap(b *roaring.Bitmap) Partition {
	out := make(Partition, 0, b.GetCardinality())
	it := b.Iterator()
	for it.HasNext() {
		out = append(out, posegraph.NodeID(it.Next()))
	}

	return out
}

// Bitmap returns p as a roaring bitmap.
func (p Partition) Bitmap() *roaring.Bitmap {
	b := roaring.New()
	for _, id := range p {
		b.Add(uint32(id))
	}

	return b
}

// Key is a canonical string identity for the partition's content.
func (p Partition) Key() string {
	var sb strings.Builder
	for i, id := range p {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(int(id)))
	}

	return sb.String()
}

// Min returns the smallest ID, or -1 for an empty partition.
func (p Partition) Min() posegraph.NodeID {
	if len(p) == 0 {
		return -1
	}

	return p[0]
}

// Contains reports whether id is a member.
func (p Partition) Contains(id posegraph.NodeID) bool {
	i := sort.Search(len(p), func(i int) bool { return p[i] >= id })

	return i < len(p) && p[i] == id
}

// Partitioner consumes (node, pose, scan) observations and groups nodes.
type Partitioner interface {
	// AddObservation records id at pose. Re-adding an id replaces it.
	AddObservation(id posegraph.NodeID, pose se2.Pose, s *scan.Scan)

	// ComputePartitions returns the current grouping. The first partition
	// holds the most recently added node.
	ComputePartitions() []Partition

	// Reset forgets every observation.
	Reset()
}

// Change is the outcome of comparing two partitionings.
type Change struct {
	// Stale partitions existed before and are gone or changed now.
	Stale []Partition
	// Fresh partitions are new or changed.
	Fresh []Partition
}

// Empty reports whether nothing changed.
func (c Change) Empty() bool { return len(c.Stale) == 0 && len(c.Fresh) == 0 }

// Diff compares two partitionings by content, ignoring order.
// Complexity: O(N) over the total number of members.
func Diff(prev, curr []Partition) Change {
	seen := make(map[string]struct{}, len(prev))
	for _, p := range prev {
		seen[p.Key()] = struct{}{}
	}
	now := make(map[string]struct{}, len(curr))
	var ch Change
	for _, p := range curr {
		k := p.Key()
		now[k] = struct{}{}
		if _, ok := seen[k]; !ok {
			ch.Fresh = append(ch.Fresh, p)
		}
	}
	for _, p := range prev {
		if _, ok := now[p.Key()]; !ok {
			ch.Stale = append(ch.Stale, p)
		}
	}

	return ch
}
