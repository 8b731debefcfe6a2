package quant

import (
	"math"

	"github.com/cadmatch/detect/internal/detect/raster"
)

// Set/unset byte values for the boolean edgel mask.
const (
	EdgelUnset byte = 0
	EdgelSet   byte = 255
)

// EdgelParams controls depth-edgel extraction.
type EdgelParams struct {
	MinDepth uint16
	MaxDepth uint16

	// MagnitudeThreshold is derived by the caller as
	// objectness_diameter_threshold * smallest_diameter * depth_scale_factor.
	MagnitudeThreshold float64
}

// Edgels produces a boolean mask of pixels whose depth falls inside
// [MinDepth, MaxDepth] and whose depth edge-response magnitude exceeds
// MagnitudeThreshold. The edge response reuses the Sobel derivative,
// applied to the depth map's raw values.
func Edgels(dm *raster.DepthMap, p EdgelParams) *raster.FeatureMap {
	out := raster.NewFeatureMap(dm.Width, dm.Height)
	for y := 0; y < dm.Height; y++ {
		for x := 0; x < dm.Width; x++ {
			d := dm.At(x, y)
			if d < p.MinDepth || d > p.MaxDepth {
				continue
			}
			if depthEdgeMagnitude(dm, x, y) > p.MagnitudeThreshold {
				out.Set(x, y, EdgelSet)
			}
		}
	}
	return out
}

func depthEdgeMagnitude(dm *raster.DepthMap, x, y int) float64 {
	var gx, gy float64
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			v := float64(dm.At(x+dx, y+dy))
			gx += sobelX[dy+1][dx+1] * v
			gy += sobelY[dy+1][dx+1] * v
		}
	}
	return math.Hypot(gx, gy)
}
