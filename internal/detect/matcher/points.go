// Package matcher implements the cascaded matcher: training-time
// feature-point selection and extraction, and detection-time five-test
// verification of admitted windows against their hashing-stage
// candidates.
//
// Grounded on the teacher's internal/lidar/hungarian.go and
// velocity_estimation.go style of small numeric helper functions composed
// into one verification pipeline, and on the synthetic-data generator's
// (internal/lidar/visualiser/synthetic.go) use of stdlib math/rand for
// candidate shuffling.
package matcher

import (
	"fmt"
	"image"
	"math"
	"math/rand"
	"sort"

	"github.com/cadmatch/detect/internal/detect/detecterr"
	"github.com/cadmatch/detect/internal/detect/model"
	"github.com/cadmatch/detect/internal/detect/quant"
	"github.com/cadmatch/detect/internal/detect/raster"
)

// maxSobelMagnitude normalizes a raw Sobel magnitude on an 8-bit image to
// [0, 1]: the kernel's L1 weight is 4 per axis, so the worst-case gradient
// is 4*255 per axis and the worst-case magnitude is that value times sqrt(2).
const maxSobelMagnitude = 4 * 255 * math.Sqrt2

type candidate struct {
	Point     image.Point
	Magnitude float64 // normalized to [0, 1]
}

// GenerateFeaturePoints selects a template's edge and stable point sets
// from its gray image within objBB: pixels with normalized Sobel
// magnitude >= 0.3 are edge candidates, pixels with normalized intensity
// >= 0.2 and magnitude below 0.3 are stable candidates. Both candidate
// pools are "cherry-picked" down to exactly n points each, starting from
// an estimated minimum pairwise distance and relaxing it by 0.5 until n
// points fit. Points are returned relative to objBB's top-left.
func GenerateFeaturePoints(gray *raster.GrayMap, objBB image.Rectangle, n int, rng *rand.Rand) (edge, stable []model.FeaturePoint, err error) {
	var edgeCandidates, stableCandidates []candidate

	for y := objBB.Min.Y; y < objBB.Max.Y; y++ {
		for x := objBB.Min.X; x < objBB.Max.X; x++ {
			mag := quant.Magnitude(gray, x, y) / maxSobelMagnitude
			intensity := float64(gray.At(x, y)) / 255

			p := image.Point{X: x, Y: y}
			switch {
			case mag >= 0.3:
				edgeCandidates = append(edgeCandidates, candidate{Point: p, Magnitude: mag})
			case intensity >= 0.2:
				stableCandidates = append(stableCandidates, candidate{Point: p, Magnitude: mag})
			}
		}
	}

	if len(edgeCandidates) < n || len(stableCandidates) < n {
		return nil, nil, fmt.Errorf(
			"matcher: insufficient feature candidates (edge=%d stable=%d, need %d each): %w",
			len(edgeCandidates), len(stableCandidates), n, detecterr.ErrEmptyResult)
	}

	sort.Slice(edgeCandidates, func(i, j int) bool { return edgeCandidates[i].Magnitude > edgeCandidates[j].Magnitude })
	rng.Shuffle(len(stableCandidates), func(i, j int) {
		stableCandidates[i], stableCandidates[j] = stableCandidates[j], stableCandidates[i]
	})

	estimate := estimateMinDist(objBB, n)
	edgePicked, ok := cherryPick(edgeCandidates, n, estimate)
	if !ok {
		return nil, nil, fmt.Errorf("matcher: could not cherry-pick %d edge points: %w", n, detecterr.ErrEmptyResult)
	}
	stablePicked, ok := cherryPick(stableCandidates, n, estimate)
	if !ok {
		return nil, nil, fmt.Errorf("matcher: could not cherry-pick %d stable points: %w", n, detecterr.ErrEmptyResult)
	}

	return toFeaturePoints(edgePicked, objBB.Min), toFeaturePoints(stablePicked, objBB.Min), nil
}

// estimateMinDist guesses a starting minimum pairwise distance assuming n
// points spread roughly evenly over objBB's area.
func estimateMinDist(objBB image.Rectangle, n int) float64 {
	area := float64(objBB.Dx() * objBB.Dy())
	if n <= 0 {
		return 0
	}
	return math.Sqrt(area/float64(n)) / 2
}

// cherryPick greedily selects points from an already-ordered candidate
// list, keeping a point only if it is at least minDist from every
// previously kept point, and relaxes minDist by 0.5 until n points fit or
// minDist reaches zero with still not enough points.
func cherryPick(candidates []candidate, n int, minDist float64) ([]candidate, bool) {
	for d := minDist; d >= 0; d -= 0.5 {
		picked := greedyPick(candidates, n, d)
		if len(picked) >= n {
			return picked[:n], true
		}
	}
	picked := greedyPick(candidates, n, 0)
	return picked, len(picked) >= n
}

func greedyPick(candidates []candidate, n int, minDist float64) []candidate {
	picked := make([]candidate, 0, n)
	for _, c := range candidates {
		ok := true
		for _, p := range picked {
			if dist(c.Point, p.Point) < minDist {
				ok = false
				break
			}
		}
		if ok {
			picked = append(picked, c)
			if len(picked) == n {
				break
			}
		}
	}
	return picked
}

func dist(a, b image.Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Hypot(dx, dy)
}

func toFeaturePoints(cs []candidate, origin image.Point) []model.FeaturePoint {
	out := make([]model.FeaturePoint, len(cs))
	for i, c := range cs {
		out[i] = model.FeaturePoint{Point: c.Point.Sub(origin)}
	}
	return out
}
