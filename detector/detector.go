// Package detector finds map partitions that may contain a loop closure.
//
// The detector feeds (node, pose, scan) observations to a
// partition.Partitioner and inspects the resulting groups. A partition is a
// candidate when two consecutive node IDs inside it differ by more than the
// minimum node-ID gap: the robot has been in the same region at two times
// far apart in the trajectory.
//
// The first partition returned by the partitioner holds the newest node and
// is never a candidate.
package detector

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/katalvlaran/lvslam/partition"
	"github.com/katalvlaran/lvslam/posegraph"
	"github.com/katalvlaran/lvslam/scan"
)

// ErrNilPartitioner indicates New was called without a partitioner.
var ErrNilPartitioner = errors.New("detector: partitioner is nil")

// DefaultMinNodeIDDiff is the default minimum node-ID gap.
const DefaultMinNodeIDDiff = 30

// Candidate is a partition flagged for loop-closure evaluation together with
// the first gap that flagged it.
type Candidate struct {
	Partition partition.Partition
	GapFrom   posegraph.NodeID
	GapTo     posegraph.NodeID
}

type options struct {
	minDiff int
	log     *zap.Logger
}

// Option configures a Detector.
type Option func(*options)

// WithMinNodeIDDiff sets the gap a partition must contain to be flagged.
// Panics if d < 0.
func WithMinNodeIDDiff(d int) Option {
	if d < 0 {
		panic(fmt.Sprintf("detector: WithMinNodeIDDiff(%d): must be non-negative", d))
	}

	return func(o *options) { o.minDiff = d }
}

// WithLogger attaches a logger; nil means zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l == nil {
			l = zap.NewNop()
		}
		o.log = l
	}
}

// Detector keeps the partitioner in step with the graph and reports candidates.
type Detector struct {
	p       partition.Partitioner
	g       posegraph.Graph
	scans   *scan.Store
	minDiff posegraph.NodeID
	log     *zap.Logger

	prev []partition.Partition
	curr []partition.Partition
}

// New binds a detector to its partitioner, the graph (for poses) and the
// node→scan store. Errors: ErrNilPartitioner, posegraph.ErrNilGraph.
func New(p partition.Partitioner, g posegraph.Graph, scans *scan.Store, opts ...Option) (*Detector, error) {
	if p == nil {
		return nil, ErrNilPartitioner
	}
	if g == nil {
		return nil, posegraph.ErrNilGraph
	}
	if scans == nil {
		scans = scan.NewStore()
	}
	o := options{minDiff: DefaultMinNodeIDDiff, log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	return &Detector{
		p:       p,
		g:       g,
		scans:   scans,
		minDiff: posegraph.NodeID(o.minDiff),
		log:     o.log.Named("detector"),
	}, nil
}

// RefreshPartitions updates the partitioner and recomputes the partitions.
//
// A full refresh resets the partitioner and resubmits every node that has a
// scan. Otherwise only the newest node is submitted, and only if it has a
// scan. The previous partitioning is retained for Previous and Stale.
func (d *Detector) RefreshPartitions(full bool) error {
	if full {
		d.log.Info("full partition refresh", zap.Int("scans", d.scans.Len()))
		d.p.Reset()
		var err error
		d.scans.Each(func(id posegraph.NodeID, s *scan.Scan) bool {
			err = d.submit(id, s)
			return err == nil
		})
		if err != nil {
			return err
		}
	} else if n := d.g.NodeCount(); n > 0 {
		newest := posegraph.NodeID(n - 1)
		if s, ok := d.scans.Get(newest); ok {
			if err := d.submit(newest, s); err != nil {
				return err
			}
		}
	}

	d.prev = d.curr
	d.curr = d.p.ComputePartitions()
	d.log.Debug("partitions computed", zap.Int("count", len(d.curr)))

	return nil
}

func (d *Detector) submit(id posegraph.NodeID, s *scan.Scan) error {
	pose, err := d.g.Pose(id)
	if err != nil {
		return fmt.Errorf("detector: %w", err)
	}
	d.p.AddObservation(id, pose, s)

	return nil
}

// Current returns the partitions computed by the last refresh.
func (d *Detector) Current() []partition.Partition { return d.curr }

// Previous returns the partitions computed by the refresh before that.
func (d *Detector) Previous() []partition.Partition { return d.prev }

// Stale compares the last two partitionings.
func (d *Detector) Stale() partition.Change { return partition.Diff(d.prev, d.curr) }

// FindLoopClosureCandidates flags every partition, other than the first,
// that contains two consecutive IDs more than the minimum gap apart.
// Each partition is flagged at most once, at its first such gap.
//
// Complexity: O(N) over all partition members.
func (d *Detector) FindLoopClosureCandidates() []Candidate {
	var out []Candidate
	for i := 1; i < len(d.curr); i++ {
		p := d.curr[i]
		for j := 1; j < len(p); j++ {
			if p[j]-p[j-1] <= d.minDiff {
				continue
			}
			d.log.Warn("potential loop closure",
				zap.Int("partition", i),
				zap.Int("from", int(p[j-1])),
				zap.Int("to", int(p[j])))
			out = append(out, Candidate{Partition: p, GapFrom: p[j-1], GapTo: p[j]})

			break
		}
	}

	return out
}
