package pso

import (
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"

	"github.com/cadmatch/detect/internal/detect/model"
)

func TestStepMovesTowardGBestOverManyIterations(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	gBest := model.PoseOffset{Translation: r3.Vector{X: 100}}
	p := model.Particle{
		Pose:        model.PoseOffset{Translation: r3.Vector{X: -100}},
		BestPose:    model.PoseOffset{Translation: r3.Vector{X: -100}},
		BestFitness: 0,
	}

	startDist := p.Pose.Translation.X - gBest.Translation.X
	for i := 0; i < 100; i++ {
		// A constant, unimproving fitness means pBest never updates, isolating
		// the pull toward gBest in the velocity rule. w=0.85, c1=c2=0.2 match
		// the refiner's own defaults.
		Step(&p, 1, gBest, 0.85, 0.2, 0.2, rng)
	}
	endDist := p.Pose.Translation.X - gBest.Translation.X

	if absF(endDist) >= absF(startDist) {
		t.Errorf("expected the particle to move closer to gBest, started at distance %f, ended at %f", startDist, endDist)
	}
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func TestStepUpdatesPersonalBestOnImprovement(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	p := model.Particle{BestFitness: 10}
	Step(&p, 2, model.PoseOffset{}, 0.5, 0.2, 0.2, rng)
	if p.BestFitness != 2 {
		t.Errorf("expected BestFitness to drop to 2, got %f", p.BestFitness)
	}
}

func TestStepKeepsPersonalBestWithoutImprovement(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	p := model.Particle{BestFitness: 1, BestPose: model.PoseOffset{Translation: r3.Vector{X: 7}}}
	Step(&p, 5, model.PoseOffset{}, 0.5, 0.2, 0.2, rng)
	if p.BestFitness != 1 || p.BestPose.Translation.X != 7 {
		t.Errorf("expected personal best to stay unchanged when fitness doesn't improve")
	}
}
