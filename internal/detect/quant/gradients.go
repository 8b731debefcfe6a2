package quant

import (
	"math"

	"github.com/cadmatch/detect/internal/detect/raster"
)

// Gradient bin codes. Orientation is wrapped into [0, 180) before binning,
// since gradient direction and its 180-degree opposite describe the same
// edge.
const (
	GradientBin0 byte = 1 << iota
	GradientBin1
	GradientBin2
	GradientBin3
	GradientBin4
)

const gradientBinWidth = 180.0 / 5.0 // 36 degrees

var gradientBins = [5]byte{GradientBin0, GradientBin1, GradientBin2, GradientBin3, GradientBin4}

// GradientParams controls gradient quantization.
type GradientParams struct {
	MinMagnitude float64
}

// sobelKernels are the standard 3x3 Sobel derivative kernels.
var sobelX = [3][3]float64{
	{-1, 0, 1},
	{-2, 0, 2},
	{-1, 0, 1},
}

var sobelY = [3][3]float64{
	{-1, -2, -1},
	{0, 0, 0},
	{1, 2, 1},
}

// Gradients computes the per-pixel quantized dominant-orientation map from
// an 8-bit gray image via a Sobel derivative, discarding pixels whose
// magnitude falls below MinMagnitude.
func Gradients(gray *raster.GrayMap, p GradientParams) *raster.FeatureMap {
	out := raster.NewFeatureMap(gray.Width, gray.Height)
	for y := 0; y < gray.Height; y++ {
		for x := 0; x < gray.Width; x++ {
			out.Set(x, y, gradientAt(gray, x, y, p))
		}
	}
	return out
}

func gradientAt(gray *raster.GrayMap, x, y int, p GradientParams) byte {
	var gx, gy float64
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			v := float64(gray.At(x+dx, y+dy))
			gx += sobelX[dy+1][dx+1] * v
			gy += sobelY[dy+1][dx+1] * v
		}
	}
	magnitude := math.Hypot(gx, gy)
	if magnitude < p.MinMagnitude {
		return 0
	}
	angle := math.Atan2(gy, gx) * 180 / math.Pi // (-180, 180]
	angle = math.Mod(angle, 180)
	if angle < 0 {
		angle += 180
	}
	bin := int(angle / gradientBinWidth)
	if bin > 4 {
		bin = 4
	}
	return gradientBins[bin]
}

// Magnitude computes the raw Sobel gradient magnitude at a pixel, used by
// test III of the cascaded matcher alongside the quantized bin code.
func Magnitude(gray *raster.GrayMap, x, y int) float64 {
	var gx, gy float64
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			v := float64(gray.At(x+dx, y+dy))
			gx += sobelX[dy+1][dx+1] * v
			gy += sobelY[dy+1][dx+1] * v
		}
	}
	return math.Hypot(gx, gy)
}
