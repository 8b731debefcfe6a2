package matcher

import (
	"image"
	"runtime"
	"sync"

	"github.com/cadmatch/detect/internal/detect/model"
)

// EvaluateCandidate runs the five-test cascade for one window/template
// pair, aborting early whenever a test's score falls below
// criteria.MinThreshold(). It returns ok=false if test I (an admission
// gate, not part of the score) or any later test fails to clear the
// threshold.
func EvaluateCandidate(scene SceneMaps, w *model.Window, t *model.Template, scale float64, c *model.Criteria) (model.Match, bool) {
	anchor := w.Rect.Min
	threshold := c.MinThreshold()
	var sub model.SubScores

	sub.ObjectSize = countPasses(t.StablePoints, func(i int, centre image.Point) bool {
		return testObjectSize(scene, centre, t.Features.Depths[i], scale, c.DepthDeviation, c.Neighbourhood)
	}, anchor)
	if int(sub.ObjectSize) < threshold {
		return model.Match{}, false
	}

	sub.Normal = countPasses(t.StablePoints, func(i int, centre image.Point) bool {
		return testNormal(scene, centre, t.Features.Normals[i], c.Neighbourhood)
	}, anchor)
	if int(sub.Normal) < threshold {
		return model.Match{}, false
	}

	sub.Gradient = countPasses(t.EdgePoints, func(i int, centre image.Point) bool {
		return testGradient(scene, centre, t.Features.Gradients[i], c.MinGradientMagnitude, c.Neighbourhood)
	}, anchor)
	if int(sub.Gradient) < threshold {
		return model.Match{}, false
	}

	sub.DepthMed = countPasses(t.StablePoints, func(i int, centre image.Point) bool {
		return testDepthMedian(scene, centre, t.Features.DepthMedian, scale, c.DepthConstantTestIV, t.Diameter, c.DepthScaleFactor, c.Neighbourhood)
	}, anchor)
	if int(sub.DepthMed) < threshold {
		return model.Match{}, false
	}

	sub.Hue = countPasses(t.StablePoints, func(i int, centre image.Point) bool {
		return testHue(scene, centre, t.Features.Hue[i], c.ColorTestTolerance, c.Neighbourhood)
	}, anchor)
	if int(sub.Hue) < threshold {
		return model.Match{}, false
	}

	n := float64(c.FeaturePointCount)
	score := (sub.Normal + sub.Gradient + sub.DepthMed + sub.Hue) / (4 * n)

	bb := image.Rectangle{
		Min: anchor,
		Max: anchor.Add(t.ObjBB.Size()),
	}
	return model.Match{Template: t, BB: bb, Scale: scale, Score: score, SubScores: sub}, true
}

// countPasses evaluates cond at each feature point (anchored at window's
// top-left) and returns the number of points that pass, as a float for
// direct use in the score-average formula.
func countPasses(points []model.FeaturePoint, cond func(i int, centre image.Point) bool, anchor image.Point) float64 {
	count := 0
	for i, p := range points {
		if cond(i, p.Point.Add(anchor)) {
			count++
		}
	}
	return float64(count)
}

// RunCascade evaluates every admitted window's candidates in parallel
// (bounded by GOMAXPROCS worker goroutines) and returns the matches that
// clear the full cascade, in no particular order. Matches are appended
// under a mutex, per the cascade's "shared list under mutual exclusion"
// concurrency model.
func RunCascade(scene SceneMaps, windows []*model.Window, store *model.TemplateStore, scale float64, c *model.Criteria) []model.Match {
	var (
		mu      sync.Mutex
		matches []model.Match
		wg      sync.WaitGroup
	)

	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)

	for _, w := range windows {
		if !w.HasCandidates() {
			continue
		}
		w := w
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			var local []model.Match
			for _, cand := range w.Candidates {
				t, ok := store.Get(cand.TemplateID)
				if !ok {
					continue
				}
				if m, ok := EvaluateCandidate(scene, w, t, scale, c); ok {
					local = append(local, m)
				}
			}
			if len(local) == 0 {
				return
			}
			mu.Lock()
			matches = append(matches, local...)
			mu.Unlock()
		}()
	}
	wg.Wait()
	return matches
}
