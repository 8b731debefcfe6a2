package hashindex

import (
	"fmt"
	"image"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/cadmatch/detect/internal/detect/detecterr"
	"github.com/cadmatch/detect/internal/detect/model"
)

// CalibrateBins establishes a table's depth-bin ranges from the training
// set: for every template, the triplet is projected onto the template's
// canonical view (centred in the largest-trained-template box), the two
// relative depths d(p1)-d(c) and d(p2)-d(c) are computed, and the pooled
// set of relative depths (both d1 and d2 across every template) is
// partitioned into depthBinCount equal-count bins via the empirical
// quantile function. The first bin's lower bound is widened to
// model.MinRelativeDepth and the last bin's upper bound to
// model.MaxRelativeDepth so every possible relative depth falls inside
// some bin.
func CalibrateBins(table *model.HashTable, templates []*model.Template, largestBox image.Rectangle, gridSize, depthBinCount int) error {
	values := make([]float64, 0, len(templates)*2)
	for _, t := range templates {
		d1, d2, ok := relativeDepths(table.Triplet, t, largestBox, gridSize)
		if !ok {
			continue
		}
		values = append(values, float64(d1), float64(d2))
	}
	if len(values) == 0 {
		return fmt.Errorf("hashindex: no template yielded calibration samples: %w", detecterr.ErrEmptyResult)
	}
	sort.Float64s(values)

	edges := make([]float64, depthBinCount-1)
	for i := range edges {
		p := float64(i+1) / float64(depthBinCount)
		edges[i] = stat.Quantile(p, stat.Empirical, values, nil)
	}

	var ranges [5]model.BinRange
	low := model.MinRelativeDepth
	for i := 0; i < depthBinCount; i++ {
		high := model.MaxRelativeDepth + 1 // BinRange.High is exclusive; +1 so the last bin still contains the max
		if i < len(edges) {
			high = int32(edges[i])
		}
		ranges[i] = model.BinRange{Low: low, High: high}
		low = high
	}
	table.BinRanges = ranges
	return nil
}

// relativeDepths computes d(p1)-d(c) and d(p2)-d(c) for one template,
// returning ok=false if any of the three projected points falls outside
// the template's depth map or samples a zero (no-data) depth.
func relativeDepths(tr model.Triplet, t *model.Template, largestBox image.Rectangle, gridSize int) (int32, int32, bool) {
	if t.DepthMap == nil {
		return 0, 0, false
	}
	origin := t.ObjBB.Min
	size := largestBox.Size()

	pc := project(origin, size, gridSize, tr.C)
	p1 := project(origin, size, gridSize, tr.P1)
	p2 := project(origin, size, gridSize, tr.P2)

	dc := t.DepthMap.At(pc.X, pc.Y)
	d1 := t.DepthMap.At(p1.X, p1.Y)
	d2 := t.DepthMap.At(p2.X, p2.Y)
	if dc == 0 || d1 == 0 || d2 == 0 {
		return 0, 0, false
	}
	return int32(d1) - int32(dc), int32(d2) - int32(dc), true
}
