package pyramid

import (
	"sort"

	"github.com/cadmatch/detect/internal/detect/raster"
)

// resizeGrayBilinear resizes an 8-bit raster with bilinear interpolation,
// the standard choice for continuous-valued channels (gray, hue, sat, val).
func resizeGrayBilinear(src *raster.GrayMap, w, h int) *raster.GrayMap {
	out := raster.NewGrayMap(w, h)
	if src.Width <= 1 || src.Height <= 1 {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out.Set(x, y, src.At(0, 0))
			}
		}
		return out
	}

	xRatio := float64(src.Width-1) / float64(maxInt(w, 1))
	yRatio := float64(src.Height-1) / float64(maxInt(h, 1))

	for y := 0; y < h; y++ {
		sy := float64(y) * yRatio
		y0 := int(sy)
		fy := sy - float64(y0)
		for x := 0; x < w; x++ {
			sx := float64(x) * xRatio
			x0 := int(sx)
			fx := sx - float64(x0)

			p00 := float64(src.At(x0, y0))
			p10 := float64(src.At(x0+1, y0))
			p01 := float64(src.At(x0, y0+1))
			p11 := float64(src.At(x0+1, y0+1))

			top := p00*(1-fx) + p10*fx
			bot := p01*(1-fx) + p11*fx
			v := top*(1-fy) + bot*fy
			out.Set(x, y, uint8(v+0.5))
		}
	}
	return out
}

// resizeDepthAreaScaled area-averages a depth map down (or up-samples by
// nearest neighbour when growing) to a new size, then divides every
// surviving sample by the pyramid scale so depth stays in metric units
// regardless of pixel resolution.
func resizeDepthAreaScaled(src *raster.DepthMap, w, h int, scale float64) *raster.DepthMap {
	out := raster.NewDepthMap(w, h)
	xRatio := float64(src.Width) / float64(maxInt(w, 1))
	yRatio := float64(src.Height) / float64(maxInt(h, 1))

	for y := 0; y < h; y++ {
		sy0 := int(float64(y) * yRatio)
		sy1 := int(float64(y+1) * yRatio)
		if sy1 <= sy0 {
			sy1 = sy0 + 1
		}
		for x := 0; x < w; x++ {
			sx0 := int(float64(x) * xRatio)
			sx1 := int(float64(x+1) * xRatio)
			if sx1 <= sx0 {
				sx1 = sx0 + 1
			}

			var sum float64
			var count int
			for sy := sy0; sy < sy1; sy++ {
				for sx := sx0; sx < sx1; sx++ {
					if d := src.At(sx, sy); d != 0 {
						sum += float64(d)
						count++
					}
				}
			}
			if count == 0 {
				continue
			}
			avg := sum / float64(count) / scale
			out.Set(x, y, clampDepth(avg))
		}
	}
	return out
}

func clampDepth(v float64) uint16 {
	if v < 0 {
		return 0
	}
	if v > 65535 {
		return 65535
	}
	return uint16(v + 0.5)
}

// medianBlurDepth applies a kernel x kernel median filter to a depth map,
// ignoring zero (no-data) samples in the window unless every sample in the
// window is zero.
func medianBlurDepth(src *raster.DepthMap, kernel int) *raster.DepthMap {
	out := raster.NewDepthMap(src.Width, src.Height)
	r := kernel / 2
	window := make([]uint16, 0, kernel*kernel)

	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			window = window[:0]
			for dy := -r; dy <= r; dy++ {
				for dx := -r; dx <= r; dx++ {
					if v := src.At(x+dx, y+dy); v != 0 {
						window = append(window, v)
					}
				}
			}
			if len(window) == 0 {
				continue
			}
			sort.Slice(window, func(i, j int) bool { return window[i] < window[j] })
			out.Set(x, y, window[len(window)/2])
		}
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
