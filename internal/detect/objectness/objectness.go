// Package objectness implements the sliding-window edgel pre-filter that
// admits candidate windows into the hashing stage before any per-template
// work happens.
//
// Grounded on the teacher's internal/lidar/l3grid integral/cumulative
// accumulation style used for fast windowed background statistics,
// adapted here into the classic integral-image summed-area table for
// O(1) per-window edgel counting.
package objectness

import (
	"image"
	"math"

	"github.com/cadmatch/detect/internal/detect/model"
	"github.com/cadmatch/detect/internal/detect/raster"
)

// integralImage is a summed-area table over a boolean (0/255) edgel mask,
// one entry taller and wider than the source so prefix sums need no
// special-casing at the top/left border.
type integralImage struct {
	sums          []int64
	width, height int // dimensions of sums, i.e. src dims + 1
}

func buildIntegral(mask *raster.FeatureMap) *integralImage {
	w, h := mask.Width+1, mask.Height+1
	sums := make([]int64, w*h)
	for y := 1; y < h; y++ {
		rowSum := int64(0)
		for x := 1; x < w; x++ {
			if mask.At(x-1, y-1) != 0 {
				rowSum++
			}
			sums[y*w+x] = sums[(y-1)*w+x] + rowSum
		}
	}
	return &integralImage{sums: sums, width: w, height: h}
}

// count returns the number of set pixels inside rect, clamped to the
// image bounds.
func (ii *integralImage) count(rect image.Rectangle) int {
	x0, y0 := clamp(rect.Min.X, 0, ii.width-1), clamp(rect.Min.Y, 0, ii.height-1)
	x1, y1 := clamp(rect.Max.X, 0, ii.width-1), clamp(rect.Max.Y, 0, ii.height-1)
	if x1 <= x0 || y1 <= y0 {
		return 0
	}
	total := ii.sums[y1*ii.width+x1] - ii.sums[y0*ii.width+x1] - ii.sums[y1*ii.width+x0] + ii.sums[y0*ii.width+x0]
	return int(total)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Slide produces the admitted windows for one pyramid level's edgel mask:
// a window of size (width x height) equal to the largest trained
// template's extent, stepped by criteria.WindowStep, admitted when its
// edgel count is at least objectness_factor * min_edgels.
func Slide(edgels *raster.FeatureMap, level int, windowSize model.Size, c *model.Criteria) []*model.Window {
	if windowSize.Width <= 0 || windowSize.Height <= 0 {
		return nil
	}

	ii := buildIntegral(edgels)
	threshold := int(math.Ceil(c.ObjectnessFactor * float64(c.MinEdgelCount)))

	var windows []*model.Window
	for y := 0; y+windowSize.Height <= edgels.Height; y += c.WindowStep {
		for x := 0; x+windowSize.Width <= edgels.Width; x += c.WindowStep {
			rect := image.Rect(x, y, x+windowSize.Width, y+windowSize.Height)
			if ii.count(rect) >= threshold {
				windows = append(windows, &model.Window{Rect: rect, Level: level})
			}
		}
	}
	return windows
}
