package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/katalvlaran/lvslam/decider"
	"github.com/katalvlaran/lvslam/posegraph"
	"github.com/katalvlaran/lvslam/scan"
	"github.com/katalvlaran/lvslam/se2"
	"github.com/katalvlaran/lvslam/sim"
)

var (
	laps        int
	step        float64
	seed        int64
	rangeNoise  float64
	dumpMetrics bool
)

// runCmd simulates the trajectory and drives the decider.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate a looping trajectory and register edges",
	Long: `Builds a 12×8 m room with pillars, walks a rectangle inside it --laps times
in steps of --step metres, and for every step:

  1. adds a node at the dead-reckoned pose with an odometry edge,
  2. ray-casts a 360° scan and hands it to the decider.

Loop closures are expected once the robot revisits the start.`,
	Args: cobra.NoArgs,
	RunE: runSimulation,
}

func init() {
	runCmd.Flags().IntVar(&laps, "laps", 2, "Number of laps around the room")
	runCmd.Flags().Float64Var(&step, "step", 0.5, "Distance between consecutive poses, metres")
	runCmd.Flags().Int64Var(&seed, "seed", 1, "Noise seed; 0 disables noise")
	runCmd.Flags().Float64Var(&rangeNoise, "range-noise", 0.005, "Range reading std-dev, metres")
	runCmd.Flags().BoolVar(&dumpMetrics, "metrics", false, "Print the Prometheus metrics after the run")
}

func runSimulation(cmd *cobra.Command, args []string) error {
	truth, err := sim.Loop(1.5, 1.2, 10.5, 6.8, step, laps)
	if err != nil {
		return err
	}
	opts := []sim.Option{sim.WithFOV(2 * math.Pi), sim.WithRays(360)}
	if seed != 0 {
		opts = append(opts, sim.WithSeed(seed), sim.WithRangeNoise(rangeNoise))
	}
	world := sim.Room(12, 8)
	robot := sim.New(opts...)

	g := posegraph.New()
	reg := prometheus.NewRegistry()
	d, err := decider.New(g, nil, nil, cfg,
		decider.WithLogger(logger),
		decider.WithRegisterer(reg))
	if err != nil {
		return err
	}

	start := time.Now()
	var estimate se2.Pose
	for i, p := range truth {
		if i == 0 {
			estimate = p
			g.AddNode(estimate)
		} else {
			odo, err := robot.Odometry(truth[i-1], p, g.Form())
			if err != nil {
				return err
			}
			estimate = estimate.Compose(odo.Mean)
			id := g.AddNode(estimate)
			if err = g.InsertEdge(posegraph.Edge{From: id - 1, To: id, PDF: odo, Kind: posegraph.Odometry}); err != nil {
				return err
			}
		}
		obs := scan.Observation{Scan: robot.RayCast(world, p), Timestamp: start.Add(time.Duration(i) * 100 * time.Millisecond)}
		if err = d.UpdateState(obs); err != nil {
			if errors.Is(err, decider.ErrUnusableDataset) {
				logger.Warn("stopping: dataset unusable", zap.Int("node", i))
				break
			}

			return err
		}
	}
	logger.Info("simulation finished",
		zap.Int("nodes", g.NodeCount()),
		zap.Int("edges", g.EdgeCount()),
		zap.Duration("elapsed", time.Since(start)))

	out := cmd.OutOrStdout()
	fmt.Fprint(out, d.Report())
	printLoopClosures(out, g)
	if err = printProjection(out, d, g); err != nil {
		return err
	}
	if dumpMetrics {
		return writeMetrics(out, reg)
	}

	return nil
}

func printLoopClosures(w io.Writer, g *posegraph.Memory) {
	fmt.Fprintln(w, "Loop closures:")
	n := 0
	for _, e := range g.AllEdges() {
		if e.Kind != posegraph.LoopClosure {
			continue
		}
		fmt.Fprintf(w, "  %4d -> %-4d %v\n", e.From, e.To, e.PDF.Mean)
		n++
	}
	if n == 0 {
		fmt.Fprintln(w, "  none")
	}
}

func printProjection(w io.Writer, d *decider.Decider, g *posegraph.Memory) error {
	if err := d.Project(); err != nil {
		return err
	}
	last := posegraph.NodeID(g.NodeCount() - 1)
	p, ok := d.QueryOptimalPath(last)
	if !ok {
		fmt.Fprintf(w, "Node %d is not projected\n", last)
		return nil
	}
	conf, err := p.Confidence()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Optimal path to node %d: %d hops, det = %.4g\n", last, p.Len()-1, conf)

	return nil
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	mfs, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range mfs {
		if _, err = expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}

	return nil
}
