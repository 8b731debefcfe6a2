package pso

import (
	"github.com/golang/geo/r3"

	"github.com/cadmatch/detect/internal/detect/quant"
	"github.com/cadmatch/detect/internal/detect/raster"
)

// BuildGroundTruth computes the full-scene continuous normal field
// alongside a scene's depth map and edgel mask, assembling the GroundTruth
// the refiner compares every rendered candidate pose against.
func BuildGroundTruth(depth *raster.DepthMap, edgels *raster.FeatureMap, p quant.NormalParams) GroundTruth {
	normals := make([]r3.Vector, depth.Width*depth.Height)
	for y := 0; y < depth.Height; y++ {
		for x := 0; x < depth.Width; x++ {
			n, ok := quant.VectorAt(depth, x, y, p)
			if ok {
				normals[y*depth.Width+x] = n
			}
		}
	}
	return GroundTruth{
		Depth:   depth,
		Normals: normals,
		Width:   depth.Width,
		Height:  depth.Height,
		Edgels:  edgels,
	}
}
