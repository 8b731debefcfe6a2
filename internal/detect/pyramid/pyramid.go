// Package pyramid builds the scene's scale pyramid: per-level resized
// depth/gray/hue rasters, rescaled camera intrinsics, and the quantized
// feature maps and their spread versions materialized at each level.
//
// Grounded on the teacher's internal/lidar/l3grid background-grid
// per-cell processing style (plain structs of resolved inputs, one
// exported build function per stage) and the viamrobotics-rdk depth
// pinhole-scaling reference, which rescales camera intrinsics by the same
// ratio used to resize the depth image.
package pyramid

import (
	"github.com/cadmatch/detect/internal/detect/model"
	"github.com/cadmatch/detect/internal/detect/quant"
	"github.com/cadmatch/detect/internal/detect/raster"
)

// Level is one scale level of the scene pyramid: the resized rasters, the
// rescaled camera, and the materialized quantized feature maps together
// with their spread counterparts.
type Level struct {
	Index int
	Scale float64

	Gray  *raster.GrayMap
	Hue   *raster.GrayMap
	Depth *raster.DepthMap

	Camera model.Camera

	Normals   *raster.FeatureMap
	Gradients *raster.FeatureMap
	Edgels    *raster.FeatureMap

	NormalsSpread   *raster.FeatureMap
	GradientsSpread *raster.FeatureMap
}

// Scene is the raw, native-scale input the pyramid is built from.
type Scene struct {
	Gray           *raster.GrayMap
	Depth          *raster.DepthMap
	Hue, Sat, Val  *raster.GrayMap // native-scale HSV channels, hue remapped per level
	Camera         model.Camera
}

// Build constructs the full pyramid for a scene against a frozen (or
// training-in-progress) Criteria, returning one Level per pyramid index
// in ascending order.
func Build(scene Scene, c *model.Criteria, hueParams quant.HueParams) []*Level {
	n := c.LevelCount()
	levels := make([]*Level, n)
	for i := 0; i < n; i++ {
		scale := c.LevelScale(i)
		levels[i] = buildLevel(scene, c, hueParams, i, scale)
	}
	return levels
}

func buildLevel(scene Scene, c *model.Criteria, hueParams quant.HueParams, index int, scale float64) *Level {
	w := scaleDim(scene.Gray.Width, scale)
	h := scaleDim(scene.Gray.Height, scale)

	gray := resizeGrayBilinear(scene.Gray, w, h)
	hue := resizeGrayBilinear(scene.Hue, w, h)
	sat := resizeGrayBilinear(scene.Sat, w, h)
	val := resizeGrayBilinear(scene.Val, w, h)
	remappedHue := quant.RemapHue(hue, sat, val, hueParams)

	depth := resizeDepthAreaScaled(scene.Depth, w, h, scale)
	depth = medianBlurDepth(depth, 5)

	camera := scene.Camera.Rescale(scale)

	normals := quant.Normals(depth, quant.NormalParams{MaxDepthDiff: c.MaxDepthDiff, MaxDepth: c.MaxDepth})
	gradients := quant.Gradients(gray, quant.GradientParams{MinMagnitude: c.MinGradientMagnitude})
	edgelThreshold := c.ObjectnessDiameterThresh * c.SmallestDiameter * c.DepthScaleFactor
	edgels := quant.Edgels(depth, quant.EdgelParams{MinDepth: c.MinDepth, MaxDepth: c.MaxDepth, MagnitudeThreshold: edgelThreshold})

	return &Level{
		Index:  index,
		Scale:  scale,
		Gray:   gray,
		Hue:    remappedHue,
		Depth:  depth,
		Camera: camera,

		Normals:   normals,
		Gradients: gradients,
		Edgels:    edgels,

		NormalsSpread:   quant.Spread(normals, c.FeatureSpreadPatchOffset),
		GradientsSpread: quant.Spread(gradients, c.FeatureSpreadPatchOffset),
	}
}

func scaleDim(v int, scale float64) int {
	n := int(float64(v)*scale + 0.5)
	if n < 1 {
		n = 1
	}
	return n
}
