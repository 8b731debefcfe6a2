// Package pso implements the pose refiner's particle-swarm search: a
// population of 6-DoF pose offsets is rendered against a matched
// template's mesh, scored against the scene's depth/normals/edge data,
// and iteratively moved toward the best pose any particle (or the swarm
// as a whole) has found.
//
// The original classifier draws its initial population from a GSL Sobol
// quasi-random sequence; no Go library in the retrieval pack provides a
// Sobol generator, so the population is instead seeded with a
// radical-inverse (van der Corput) low-discrepancy sequence, a standard
// substitute with the same "spread the population evenly before any
// feedback" property, built from plain arithmetic rather than a
// fabricated dependency. Per-particle initial velocities are drawn with
// math/rand, matching the teacher's own RNG choice
// (internal/lidar/visualiser/synthetic.go).
package pso

import (
	"math"
	"math/rand"

	"github.com/golang/geo/r3"

	"github.com/cadmatch/detect/internal/detect/model"
)

// radicalInverse computes the base-b van der Corput radical inverse of n:
// digits of n in base b, reversed after the "decimal" point.
func radicalInverse(n int, base int) float64 {
	inv := 1.0 / float64(base)
	result := 0.0
	f := inv
	for n > 0 {
		result += float64(n%base) * f
		n /= base
		f *= inv
	}
	return result
}

// halton6 returns the i-th point of a 6-dimensional Halton sequence (the
// six smallest primes), each coordinate in [0, 1).
func halton6(i int) [6]float64 {
	bases := [6]int{2, 3, 5, 7, 11, 13}
	var v [6]float64
	for d, b := range bases {
		v[d] = radicalInverse(i+1, b) // skip i=0, the degenerate all-zero point
	}
	return v
}

// InitPopulation draws n particles: pose offsets spread by a low-
// discrepancy sequence across translation offsets of order tens of
// millimetres and rotation offsets under one radian, with modest random
// initial velocities.
func InitPopulation(n int, rng *rand.Rand) []model.Particle {
	particles := make([]model.Particle, n)
	for i := 0; i < n; i++ {
		v := halton6(i)
		pose := model.PoseOffset{
			Translation: r3.Vector{
				X: (v[0] - 0.5) * 50,
				Y: (v[1] - 0.5) * 50,
				Z: (v[2] - 0.8) * 200,
			},
			Rotation: r3.Vector{
				X: v[3] - 0.5,
				Y: v[4] - 0.5,
				Z: v[5] - 0.5,
			},
		}
		velocity := model.PoseOffset{
			Translation: r3.Vector{X: rng.Float64() * 20, Y: rng.Float64() * 20, Z: rng.Float64() * 40},
			Rotation:    r3.Vector{X: rng.Float64() * 0.2, Y: rng.Float64() * 0.2, Z: rng.Float64() * 0.2},
		}
		particles[i] = model.Particle{
			Pose:        pose,
			Velocity:    velocity,
			BestPose:    pose,
			BestFitness: math.Inf(1),
		}
	}
	return particles
}
