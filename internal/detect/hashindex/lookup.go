package hashindex

import (
	"image"
	"sort"

	"github.com/cadmatch/detect/internal/detect/model"
	"github.com/cadmatch/detect/internal/detect/raster"
)

// Vote runs every table against one admitted window, anchoring the shared
// reference grid at the window's own rectangle (the objectness stage
// already sized windows to the largest trained template's extent). Tables
// whose triplet falls outside the scene image are skipped. Templates with
// at least minVotes accumulated votes are kept, sorted by vote count
// descending and truncated to at most len(tables); the result becomes the
// window's candidate list. A window whose candidate list ends up empty is
// left with an empty list so callers can discard it via Window.HasCandidates.
func Vote(tables []*model.HashTable, w *model.Window, sceneDepth *raster.DepthMap, sceneNormals *raster.FeatureMap, gridSize, minVotes int) {
	votes := make(map[uint32]int)

	for _, table := range tables {
		key, ok := sceneKey(table, w.Rect, sceneDepth, sceneNormals, gridSize)
		if !ok {
			continue
		}
		for _, id := range table.Buckets[key] {
			votes[id]++
		}
	}

	candidates := make([]model.WindowCandidate, 0, len(votes))
	for id, v := range votes {
		if v >= minVotes {
			candidates = append(candidates, model.WindowCandidate{TemplateID: id, Votes: v})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Votes != candidates[j].Votes {
			return candidates[i].Votes > candidates[j].Votes
		}
		return candidates[i].TemplateID < candidates[j].TemplateID
	})
	if len(candidates) > len(tables) {
		candidates = candidates[:len(tables)]
	}
	w.Candidates = candidates
}

func sceneKey(table *model.HashTable, rect image.Rectangle, depth *raster.DepthMap, normals *raster.FeatureMap, gridSize int) (model.HashKey, bool) {
	size := rect.Size()
	pc := project(rect.Min, size, gridSize, table.Triplet.C)
	p1 := project(rect.Min, size, gridSize, table.Triplet.P1)
	p2 := project(rect.Min, size, gridSize, table.Triplet.P2)

	bounds := depth.Bounds()
	if !inBounds(pc, bounds) || !inBounds(p1, bounds) || !inBounds(p2, bounds) {
		return model.HashKey{}, false
	}

	dc := depth.At(pc.X, pc.Y)
	d1 := depth.At(p1.X, p1.Y)
	d2 := depth.At(p2.X, p2.Y)
	if dc == 0 || d1 == 0 || d2 == 0 {
		return model.HashKey{}, false
	}

	b1 := table.BinIndex(int32(d1) - int32(dc))
	b2 := table.BinIndex(int32(d2) - int32(dc))
	if b1 < 0 || b2 < 0 {
		return model.HashKey{}, false
	}

	nc := octantIndex(normals.At(pc.X, pc.Y))
	n1 := octantIndex(normals.At(p1.X, p1.Y))
	n2 := octantIndex(normals.At(p2.X, p2.Y))
	if nc < 0 || n1 < 0 || n2 < 0 {
		return model.HashKey{}, false
	}

	return model.MakeHashKey(byte(b1), byte(b2), byte(nc), byte(n1), byte(n2)), true
}

func inBounds(p image.Point, bounds image.Rectangle) bool {
	return p.In(bounds)
}
