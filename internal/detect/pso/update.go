package pso

import (
	"math/rand"

	"github.com/cadmatch/detect/internal/detect/model"
)

// updateVelocity applies the standard PSO velocity rule per dimension:
// v <- w*v + c1*r1*(pBest - x) + c2*r2*(gBest - x), with r1, r2 drawn
// independently per dimension.
func updateVelocity(p model.Particle, gBest model.PoseOffset, w, c1, c2 float64, rng *rand.Rand) model.PoseOffset {
	var r1, r2 [6]float64
	for i := range r1 {
		r1[i] = rng.Float64()
		r2[i] = rng.Float64()
	}

	toPBest := p.BestPose.Sub(p.Pose).HadamardScale(scaleAll(c1, r1))
	toGBest := gBest.Sub(p.Pose).HadamardScale(scaleAll(c2, r2))
	return p.Velocity.Scale(w).Add(toPBest).Add(toGBest)
}

func scaleAll(c float64, r [6]float64) [6]float64 {
	var out [6]float64
	for i := range r {
		out[i] = c * r[i]
	}
	return out
}

// Step advances a particle one PSO iteration given its fitness at the
// current pose: refreshes the particle's personal best if the current
// pose improved on it, then updates velocity and moves the pose. The
// swarm best is updated by the caller after comparing across the whole
// population.
func Step(p *model.Particle, currentFitness float64, gBest model.PoseOffset, w, c1, c2 float64, rng *rand.Rand) {
	if currentFitness < p.BestFitness {
		p.BestFitness = currentFitness
		p.BestPose = p.Pose
	}
	p.Velocity = updateVelocity(*p, gBest, w, c1, c2, rng)
	p.Pose = p.Pose.Add(p.Velocity)
}
