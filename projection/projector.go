// SPDX-License-Identifier: MIT

package projection

import (
	"container/heap"
	"fmt"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"go.uber.org/zap"

	"github.com/katalvlaran/lvslam/posegraph"
	"github.com/katalvlaran/lvslam/se2"
)

// Defaults for NewProjector.
const (
	DefaultPrior    = 1e-4
	DefaultMinNodes = 5
)

// Options configures a Projector.
type Options struct {
	Prior    float64     // k in the k·I substitute for degenerate uncertainty
	MinNodes int         // Project is a no-op below this node count
	Logger   *zap.Logger // never nil after NewProjector
}

// Option is a functional option for NewProjector.
type Option func(*Options)

// WithPrior sets k for the k·I substitute. Panics if k <= 0.
func WithPrior(k float64) Option {
	if k <= 0 {
		panic("projection: WithPrior requires k > 0")
	}

	return func(o *Options) { o.Prior = k }
}

// WithMinNodes sets the node count below which Project does nothing. Panics if n < 1.
func WithMinNodes(n int) Option {
	if n < 1 {
		panic("projection: WithMinNodes requires n >= 1")
	}

	return func(o *Options) { o.MinNodes = n }
}

// WithLogger attaches a logger. A nil logger is replaced by zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		if l == nil {
			l = zap.NewNop()
		}
		o.Logger = l
	}
}

// Projector owns the optimal-path table for one pose graph.
// It is not safe for concurrent use.
type Projector struct {
	g    posegraph.Graph
	opts Options
	log  *zap.Logger

	optimal  map[posegraph.NodeID]Path
	upToDate bool
	last     Stats
}

// Stats describes the most recent projection run.
type Stats struct {
	Nodes     int           // graph size at run time
	Projected int           // table entries written
	Pushed    int           // pool insertions
	Stale     int           // pops discarded because the destination was already visited
	Elapsed   time.Duration // wall time
}

// NewProjector binds a projector to g.
// Errors: posegraph.ErrNilGraph.
func NewProjector(g posegraph.Graph, opts ...Option) (*Projector, error) {
	if g == nil {
		return nil, posegraph.ErrNilGraph
	}
	o := Options{Prior: DefaultPrior, MinNodes: DefaultMinNodes, Logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	return &Projector{
		g:       g,
		opts:    o,
		log:     o.Logger.Named("projection"),
		optimal: make(map[posegraph.NodeID]Path),
	}, nil
}

// Invalidate marks the table stale; the next Project recomputes it.
func (pr *Projector) Invalidate() { pr.upToDate = false }

// UpToDate reports whether the table reflects the graph as of the last Project.
func (pr *Projector) UpToDate() bool { return pr.upToDate }

// Len returns the number of table entries.
func (pr *Projector) Len() int { return len(pr.optimal) }

// LastStats returns statistics of the most recent run that did work.
func (pr *Projector) LastStats() Stats { return pr.last }

// Reset clears the table and marks it stale.
func (pr *Projector) Reset() {
	pr.optimal = make(map[posegraph.NodeID]Path)
	pr.upToDate = false
}

// Optimal returns a copy of the minimum-uncertainty path root→id.
// A node that has not been projected reports false; that is not an error.
func (pr *Projector) Optimal(id posegraph.NodeID) (Path, bool) {
	p, ok := pr.optimal[id]
	if !ok {
		return Path{}, false
	}

	return p.Clone(), true
}

// Project recomputes the optimal-path table.
//
// It does nothing when the table is up to date or the graph has fewer than
// MinNodes nodes. On error the previous table is kept and the projector
// stays stale.
//
// Errors: posegraph.ErrNodeNotFound for a root outside the graph, plus any
// error from MinUncertaintyHop.
func (pr *Projector) Project() error {
	n := pr.g.NodeCount()
	if pr.upToDate || n < pr.opts.MinNodes {
		return nil
	}
	root := pr.g.Root()
	if root < 0 || int(root) >= n {
		return fmt.Errorf("projection: root %d: %w", root, posegraph.ErrNodeNotFound)
	}

	start := time.Now()
	r := &runner{
		g:       pr.g,
		prior:   pr.opts.Prior,
		form:    pr.g.Form(),
		n:       n,
		visited: roaring.New(),
		optimal: make(map[posegraph.NodeID]Path, n),
	}
	r.pq.form = r.form
	if err := r.seed(root); err != nil {
		return err
	}
	if err := r.process(); err != nil {
		return err
	}

	pr.optimal = r.optimal
	pr.upToDate = true
	pr.last = Stats{
		Nodes:     n,
		Projected: len(r.optimal),
		Pushed:    r.pushed,
		Stale:     r.stale,
		Elapsed:   time.Since(start),
	}
	pr.log.Debug("projection complete",
		zap.Int("nodes", n),
		zap.Int("projected", pr.last.Projected),
		zap.Int("pushed", r.pushed),
		zap.Int("stale", r.stale),
		zap.Duration("elapsed", pr.last.Elapsed))
	if unreached := n - 1 - len(r.optimal); unreached > 0 {
		pr.log.Info("nodes unreachable from root", zap.Int("count", unreached), zap.Int("root", int(root)))
	}

	return nil
}

// runner holds the mutable state of one projection run.
type runner struct {
	g     posegraph.Graph
	prior float64
	form  se2.Form
	n     int

	visited *roaring.Bitmap
	optimal map[posegraph.NodeID]Path

	arena []Path // pool storage; a popped slot is zeroed and its handle recycled
	free  []int
	pq    handlePQ

	pushed, stale int
}

// push moves p into the arena and queues its handle.
func (r *runner) push(p Path) error {
	conf, err := p.Confidence()
	if err != nil {
		return err
	}
	var h int
	if k := len(r.free); k > 0 {
		h, r.free = r.free[k-1], r.free[:k-1]
		r.arena[h] = p
	} else {
		h = len(r.arena)
		r.arena = append(r.arena, p)
	}
	heap.Push(&r.pq, poolItem{handle: h, conf: conf, dest: p.Destination()})
	r.pushed++

	return nil
}

// pop moves the most certain path out of the arena and recycles its slot.
func (r *runner) pop() Path {
	it := heap.Pop(&r.pq).(poolItem)
	p := r.arena[it.handle]
	r.arena[it.handle] = Path{}
	r.free = append(r.free, it.handle)

	return p
}

// seed marks the root visited and pushes the best hop to each neighbour.
func (r *runner) seed(root posegraph.NodeID) error {
	r.visited.Add(uint32(root))
	nbs, err := r.g.Neighbors(root)
	if err != nil {
		return fmt.Errorf("projection: seed: %w", err)
	}
	for _, nb := range nbs {
		hop, err := MinUncertaintyHop(r.g, root, nb, r.prior)
		if err != nil {
			return fmt.Errorf("projection: seed: %w", err)
		}
		if err = r.push(hop); err != nil {
			return err
		}
	}

	return nil
}

// process is the greedy expansion loop.
func (r *runner) process() error {
	for r.visited.GetCardinality() < uint64(r.n) && r.pq.Len() > 0 {
		cur := r.pop()
		dest := cur.Destination()
		if r.visited.Contains(uint32(dest)) {
			r.stale++
			continue
		}
		r.optimal[dest] = cur
		r.visited.Add(uint32(dest))

		if err := r.expand(cur); err != nil {
			return err
		}
	}

	return nil
}

// expand pushes cur extended by one hop to each neighbour of its destination,
// skipping the node it came from and nodes already finalised.
func (r *runner) expand(cur Path) error {
	dest := cur.Destination()
	prev, hasPrev := cur.SecondToLast()
	nbs, err := r.g.Neighbors(dest)
	if err != nil {
		return fmt.Errorf("projection: expand %d: %w", dest, err)
	}
	for _, nb := range nbs {
		if (hasPrev && nb == prev) || r.visited.Contains(uint32(nb)) {
			continue
		}
		hop, err := MinUncertaintyHop(r.g, dest, nb, r.prior)
		if err != nil {
			return fmt.Errorf("projection: expand %d: %w", dest, err)
		}
		ext := cur.Clone()
		if err = ext.Concat(hop); err != nil {
			return fmt.Errorf("projection: expand %d: %w", dest, err)
		}
		if err = r.push(ext); err != nil {
			return err
		}
	}

	return nil
}

// poolItem is one heap entry: a handle into the arena plus the ordering key.
type poolItem struct {
	handle int
	conf   float64
	dest   posegraph.NodeID
}

// handlePQ is a max-certainty heap of arena handles. Ties go to the smaller
// destination ID so runs are deterministic.
type handlePQ struct {
	form  se2.Form
	items []poolItem
}

func (pq handlePQ) Len() int { return len(pq.items) }

func (pq handlePQ) Less(i, j int) bool {
	a, b := pq.items[i], pq.items[j]
	if a.conf != b.conf {
		return se2.BetterConfidence(pq.form, a.conf, b.conf)
	}

	return a.dest < b.dest
}

func (pq handlePQ) Swap(i, j int) { pq.items[i], pq.items[j] = pq.items[j], pq.items[i] }

func (pq *handlePQ) Push(x interface{}) { pq.items = append(pq.items, x.(poolItem)) }

func (pq *handlePQ) Pop() interface{} {
	old := pq.items
	n := len(old)
	it := old[n-1]
	pq.items = old[:n-1]

	return it
}
