package scan_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvslam/posegraph"
	"github.com/katalvlaran/lvslam/scan"
)

func TestPointsDropsInvalidReadings(t *testing.T) {
	s := &scan.Scan{
		Ranges:    []float64{1, 0, math.NaN(), 2, 50},
		AngleMin:  0,
		AngleStep: math.Pi / 2,
		MaxRange:  10,
	}
	pts := s.Points()
	require.Len(t, pts, 2)
	require.InDelta(t, 1.0, pts[0].X, 1e-12)
	require.InDelta(t, 0.0, pts[0].Y, 1e-12)
	// index 3 → bearing 3π/2
	require.InDelta(t, 0.0, pts[1].X, 1e-12)
	require.InDelta(t, -2.0, pts[1].Y, 1e-12)
	require.True(t, s.Valid())
}

func TestValid(t *testing.T) {
	var nilScan *scan.Scan
	require.False(t, nilScan.Valid())
	require.False(t, (&scan.Scan{Ranges: []float64{0, 0}, MaxRange: 5}).Valid())
	require.False(t, scan.Observation{}.HasScan())
	require.True(t, scan.Observation{Scan: &scan.Scan{Ranges: []float64{1}, MaxRange: 5}}.HasScan())
}

func TestStoreOrderedIteration(t *testing.T) {
	st := scan.NewStore()
	a := &scan.Scan{MaxRange: 1}
	b := &scan.Scan{MaxRange: 2}
	st.Put(7, a)
	st.Put(2, b)
	st.Put(5, nil) // ignored
	st.Put(7, b)   // replaces

	require.Equal(t, 2, st.Len())
	require.True(t, st.Has(2))
	require.False(t, st.Has(5))

	got, ok := st.Get(7)
	require.True(t, ok)
	require.Same(t, b, got)

	var ids []posegraph.NodeID
	st.Each(func(id posegraph.NodeID, _ *scan.Scan) bool {
		ids = append(ids, id)
		return true
	})
	require.Equal(t, []posegraph.NodeID{2, 7}, ids)
}
