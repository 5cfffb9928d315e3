// SPDX-License-Identifier: MIT

package sim

import (
	"math"
	"math/rand"
)

// Deterministic defaults.
const (
	defaultRays     = 181
	defaultFOV      = math.Pi
	defaultMaxRange = 15.0
)

// config aggregates the simulator knobs. Passed by value.
type config struct {
	rng        *rand.Rand // nil disables every noise source
	rays       int
	fov        float64
	maxRange   float64
	rangeSigma float64
	odomXY     float64 // odometry translation std-dev, metres
	odomPhi    float64 // odometry heading std-dev, radians
}

func newConfig(opts ...Option) config {
	cfg := config{
		rays:     defaultRays,
		fov:      defaultFOV,
		maxRange: defaultMaxRange,
		odomXY:   0.02,
		odomPhi:  0.01,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

// gauss returns N(0, sigma²) or 0 when randomness is off.
func (c config) gauss(sigma float64) float64 {
	if c.rng == nil || sigma == 0 {
		return 0
	}

	return c.rng.NormFloat64() * sigma
}

// Option customises the simulator.
type Option func(*config)

// WithSeed enables noise with a reproducible RNG.
func WithSeed(seed int64) Option {
	return func(c *config) { c.rng = rand.New(rand.NewSource(seed)) }
}

// WithRays sets the number of beams per scan. Panics if n < 2.
func WithRays(n int) Option {
	if n < 2 {
		panic("sim: WithRays requires n >= 2")
	}

	return func(c *config) { c.rays = n }
}

// WithFOV sets the angular field of view in radians. Panics unless 0 < fov <= 2π.
func WithFOV(fov float64) Option {
	if fov <= 0 || fov > 2*math.Pi {
		panic("sim: WithFOV requires 0 < fov <= 2π")
	}

	return func(c *config) { c.fov = fov }
}

// WithMaxRange sets the sensor range in metres. Panics if r <= 0.
func WithMaxRange(r float64) Option {
	if r <= 0 {
		panic("sim: WithMaxRange requires r > 0")
	}

	return func(c *config) { c.maxRange = r }
}

// WithRangeNoise sets the per-beam range std-dev. Panics if sigma < 0.
func WithRangeNoise(sigma float64) Option {
	if sigma < 0 {
		panic("sim: WithRangeNoise requires sigma >= 0")
	}

	return func(c *config) { c.rangeSigma = sigma }
}

// WithOdometryNoise sets odometry std-devs. Panics on negative inputs.
func WithOdometryNoise(xy, phi float64) Option {
	if xy < 0 || phi < 0 {
		panic("sim: WithOdometryNoise requires non-negative sigmas")
	}

	return func(c *config) { c.odomXY, c.odomPhi = xy, phi }
}
