package scan

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/katalvlaran/lvslam/posegraph"
)

// Store maps node IDs to the most recent scan recorded for that node.
// It is not safe for concurrent use; the decider serialises access.
type Store struct {
	scans map[posegraph.NodeID]*Scan
	ids   *roaring.Bitmap
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		scans: make(map[posegraph.NodeID]*Scan),
		ids:   roaring.New(),
	}
}

// Put records s for id, replacing any earlier scan. A nil s is ignored.
func (st *Store) Put(id posegraph.NodeID, s *Scan) {
	if s == nil || id < 0 {
		return
	}
	st.scans[id] = s
	st.ids.Add(uint32(id))
}

// Get returns the scan for id and whether one was recorded.
func (st *Store) Get(id posegraph.NodeID) (*Scan, bool) {
	s, ok := st.scans[id]

	return s, ok
}

// Has reports whether a scan is recorded for id.
func (st *Store) Has(id posegraph.NodeID) bool {
	return id >= 0 && st.ids.Contains(uint32(id))
}

// Len returns the number of recorded scans.
func (st *Store) Len() int { return len(st.scans) }

// Each calls fn for every recorded scan in ascending ID order until fn
// returns false.
func (st *Store) Each(fn func(id posegraph.NodeID, s *Scan) bool) {
	it := st.ids.Iterator()
	for it.HasNext() {
		id := posegraph.NodeID(it.Next())
		if !fn(id, st.scans[id]) {
			return
		}
	}
}
