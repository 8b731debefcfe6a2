package quant

import "github.com/cadmatch/detect/internal/detect/raster"

// Spread produces, for a quantized feature map, a second map whose byte at
// (x, y) is the bitwise OR of every source byte in the
// (2*patchOffset+1)^2 neighbourhood centred on (x, y). Matching a point
// against the spread map with a single bit-AND is equivalent to checking
// whether any offset inside that neighbourhood carries the matching
// source code, which is exactly what tests II and III of the cascaded
// matcher require.
func Spread(src *raster.FeatureMap, patchOffset int) *raster.FeatureMap {
	out := raster.NewFeatureMap(src.Width, src.Height)
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			var acc byte
			for dy := -patchOffset; dy <= patchOffset; dy++ {
				for dx := -patchOffset; dx <= patchOffset; dx++ {
					acc |= src.At(x+dx, y+dy)
				}
			}
			out.Set(x, y, acc)
		}
	}
	return out
}
