package matcher

import (
	"image"

	"github.com/cadmatch/detect/internal/detect/model"
	"github.com/cadmatch/detect/internal/detect/quant"
	"github.com/cadmatch/detect/internal/detect/raster"
)

// SceneMaps bundles the per-level scene rasters the five tests read from:
// raw depth and gray (for magnitude), spread quantized normals/gradients
// for the bit-AND tests, and the remapped hue map.
type SceneMaps struct {
	Depth           *raster.DepthMap
	Gray            *raster.GrayMap
	Hue             *raster.GrayMap
	NormalsSpread   *raster.FeatureMap
	GradientsSpread *raster.FeatureMap
}

// searchNeighbourhood reports whether cond holds at any offset inside nb
// around centre, per the cascade's "any offset admits" rule.
func searchNeighbourhood(nb model.Neighbourhood, centre image.Point, cond func(p image.Point) bool) bool {
	for dy := nb.Start; dy <= nb.End; dy++ {
		for dx := nb.Start; dx <= nb.End; dx++ {
			if cond(image.Point{X: centre.X + dx, Y: centre.Y + dy}) {
				return true
			}
		}
	}
	return false
}

// testObjectSize is cascade test I: the scene depth at some offset of
// centre must fall within a depth-deviation-scaled band of the template's
// own depth sample at that point, scaled by the window's pyramid scale.
func testObjectSize(scene SceneMaps, centre image.Point, tDepth uint16, scale float64, dev model.DepthDeviationFunc, nb model.Neighbourhood) bool {
	scaledT := float64(tDepth) * scale
	return searchNeighbourhood(nb, centre, func(p image.Point) bool {
		sDepth := float64(scene.Depth.At(p.X, p.Y))
		if sDepth == 0 {
			return false
		}
		r := 1 - dev.Eval(sDepth)
		if r <= 0 {
			return false
		}
		return sDepth >= scaledT*r && sDepth <= scaledT/r
	})
}

// testNormal is cascade test II: the scene's spread normal byte must
// share a bit with the template's quantized normal code (equivalent to
// the un-spread exact match once spreading makes a bit-AND sufficient).
func testNormal(scene SceneMaps, centre image.Point, tNormal byte, nb model.Neighbourhood) bool {
	if tNormal == 0 {
		return false
	}
	return searchNeighbourhood(nb, centre, func(p image.Point) bool {
		return scene.NormalsSpread.At(p.X, p.Y)&tNormal != 0
	})
}

// testGradient is cascade test III: the scene's spread gradient byte must
// share a bit with the template's quantized gradient code, and the scene's
// raw gradient magnitude at the admitting offset must exceed minMagnitude.
func testGradient(scene SceneMaps, centre image.Point, tGradient byte, minMagnitude float64, nb model.Neighbourhood) bool {
	if tGradient == 0 {
		return false
	}
	return searchNeighbourhood(nb, centre, func(p image.Point) bool {
		if scene.GradientsSpread.At(p.X, p.Y)&tGradient == 0 {
			return false
		}
		return quant.Magnitude(scene.Gray, p.X, p.Y) > minMagnitude
	})
}

// testDepthMedian is cascade test IV: the scene depth at some offset must
// be within depth_k * diameter * depth_scale_factor of the template's
// depth_median scaled to the window's pyramid scale.
func testDepthMedian(scene SceneMaps, centre image.Point, depthMedian, scale, depthK, diameter, depthScaleFactor float64, nb model.Neighbourhood) bool {
	tolerance := depthK * diameter * depthScaleFactor
	scaledMedian := depthMedian * scale
	return searchNeighbourhood(nb, centre, func(p image.Point) bool {
		sDepth := float64(scene.Depth.At(p.X, p.Y))
		if sDepth == 0 {
			return false
		}
		diff := sDepth - scaledMedian
		if diff < 0 {
			diff = -diff
		}
		return diff < tolerance
	})
}

// testHue is cascade test V: the scene's remapped hue at some offset must
// be within tolerance of the template's remapped hue sample.
func testHue(scene SceneMaps, centre image.Point, tHue byte, tolerance float64, nb model.Neighbourhood) bool {
	return searchNeighbourhood(nb, centre, func(p image.Point) bool {
		return float64(quant.HueDistance(tHue, scene.Hue.At(p.X, p.Y))) < tolerance
	})
}
