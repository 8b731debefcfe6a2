package hashindex

import (
	"image"
	"math/rand"

	"github.com/cadmatch/detect/internal/detect/model"
)

// GenerateTriplets samples tablesCount pairwise-unique triplets inside a
// gridSize x gridSize reference grid. Each candidate's centre is drawn
// from a Gaussian biased toward the grid's populated centre quadrant;
// p1 and p2 are then drawn uniformly within neighbourhoodLimit of the
// centre. Candidates equal (as unordered sets of three) to an
// already-kept triplet are discarded and resampled until tablesCount
// unique triplets are kept or ten times the candidate budget
// (tablesCount*trainingMultiplier, at least tablesCount) has been drawn;
// in the latter case fewer than tablesCount triplets are returned.
func GenerateTriplets(rng *rand.Rand, gridSize, tablesCount, trainingMultiplier, neighbourhoodLimit int) []model.Triplet {
	kept := make([]model.Triplet, 0, tablesCount)
	budget := tablesCount * trainingMultiplier
	if budget < tablesCount {
		budget = tablesCount
	}

	attempts := 0
	maxAttempts := budget * 10 // generous ceiling so a pathological run terminates
	for len(kept) < tablesCount && attempts < maxAttempts {
		attempts++
		candidate := sampleTriplet(rng, gridSize, neighbourhoodLimit)
		if containsEqual(kept, candidate) {
			continue
		}
		kept = append(kept, candidate)
	}
	return kept
}

func sampleTriplet(rng *rand.Rand, gridSize, neighbourhoodLimit int) model.Triplet {
	mean := float64(gridSize) / 2
	sigma := float64(gridSize) / 4

	c := image.Point{
		X: clampGauss(rng, mean, sigma, gridSize),
		Y: clampGauss(rng, mean, sigma, gridSize),
	}
	p1 := jitter(rng, c, neighbourhoodLimit, gridSize)
	p2 := jitter(rng, c, neighbourhoodLimit, gridSize)
	return model.Triplet{C: c, P1: p1, P2: p2}
}

func clampGauss(rng *rand.Rand, mean, sigma float64, gridSize int) int {
	v := int(rng.NormFloat64()*sigma + mean)
	if v < 0 {
		v = 0
	}
	if v >= gridSize {
		v = gridSize - 1
	}
	return v
}

func jitter(rng *rand.Rand, c image.Point, limit, gridSize int) image.Point {
	dx := rng.Intn(2*limit+1) - limit
	dy := rng.Intn(2*limit+1) - limit
	p := image.Point{X: c.X + dx, Y: c.Y + dy}
	if p.X < 0 {
		p.X = 0
	}
	if p.Y < 0 {
		p.Y = 0
	}
	if p.X >= gridSize {
		p.X = gridSize - 1
	}
	if p.Y >= gridSize {
		p.Y = gridSize - 1
	}
	return p
}

func containsEqual(kept []model.Triplet, candidate model.Triplet) bool {
	for _, t := range kept {
		if t.Equal(candidate) {
			return true
		}
	}
	return false
}
