package matcher

import (
	"image"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/cadmatch/detect/internal/detect/model"
	"github.com/cadmatch/detect/internal/detect/raster"
)

// ExtractFeatures samples a template's matching features at its already
// selected edge and stable points: quantized gradient at each edge point,
// quantized normal / raw depth / remapped hue at each stable point, and
// the median of the non-zero stable-point depths.
func ExtractFeatures(objBBMin image.Point, edge, stable []model.FeaturePoint, gradients, normals *raster.FeatureMap, depth *raster.DepthMap, hue *raster.GrayMap) model.MatchingFeatures {
	mf := model.MatchingFeatures{
		Gradients: make([]byte, len(edge)),
		Normals:   make([]byte, len(stable)),
		Depths:    make([]uint16, len(stable)),
		Hue:       make([]byte, len(stable)),
	}

	for i, p := range edge {
		abs := p.Point.Add(objBBMin)
		mf.Gradients[i] = gradients.At(abs.X, abs.Y)
	}

	depths := make([]float64, 0, len(stable))
	for i, p := range stable {
		abs := p.Point.Add(objBBMin)
		mf.Normals[i] = normals.At(abs.X, abs.Y)
		d := depth.At(abs.X, abs.Y)
		mf.Depths[i] = d
		mf.Hue[i] = hue.At(abs.X, abs.Y)
		if d != 0 {
			depths = append(depths, float64(d))
		}
	}

	mf.DepthMedian = medianOf(depths)
	return mf
}

func medianOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}
