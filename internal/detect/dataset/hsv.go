package dataset

import (
	"image"

	"github.com/cadmatch/detect/internal/detect/raster"
)

// decodeChannels converts a decoded color image into the gray and
// HSV-channel rasters the orchestrator's TemplateView/pyramid.Scene need,
// following the BGR2GRAY / BGR2HSV conversions the original dataset tool
// applies before any quantization runs. Hue is kept on the 0..180 scale
// (half of the conventional 0..360 degrees) to match the rest of this
// codebase's OpenCV-style hue convention; saturation and value stay on
// 0..255.
func decodeChannels(img image.Image) (gray, hue, sat, val *raster.GrayMap) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	gray = raster.NewGrayMap(w, h)
	hue = raster.NewGrayMap(w, h)
	sat = raster.NewGrayMap(w, h)
	val = raster.NewGrayMap(w, h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			r8, g8, b8 := uint8(r>>8), uint8(g>>8), uint8(bl>>8)

			gray.Set(x, y, grayIntensity(r8, g8, b8))
			h8, s8, v8 := rgbToHSV(r8, g8, b8)
			hue.Set(x, y, h8)
			sat.Set(x, y, s8)
			val.Set(x, y, v8)
		}
	}
	return gray, hue, sat, val
}

// grayIntensity applies the standard BT.601 luma weights OpenCV's
// BGR2GRAY conversion uses.
func grayIntensity(r, g, b uint8) uint8 {
	return uint8((299*uint32(r) + 587*uint32(g) + 114*uint32(b)) / 1000)
}

// rgbToHSV converts one RGB sample to OpenCV's 8-bit HSV scale: hue on
// 0..180, saturation and value on 0..255.
func rgbToHSV(r, g, b uint8) (h, s, v uint8) {
	maxC := max3(r, g, b)
	minC := min3(r, g, b)
	delta := int(maxC) - int(minC)

	v = maxC
	if maxC == 0 {
		return 0, 0, 0
	}
	s = uint8(delta * 255 / int(maxC))
	if delta == 0 {
		return 0, s, v
	}

	var hf float64
	switch maxC {
	case r:
		hf = 60 * (float64(int(g)-int(b)) / float64(delta))
	case g:
		hf = 60*(float64(int(b)-int(r))/float64(delta)) + 120
	default:
		hf = 60*(float64(int(r)-int(g))/float64(delta)) + 240
	}
	if hf < 0 {
		hf += 360
	}
	h = uint8(hf / 2)
	return h, s, v
}

func max3(a, b, c uint8) uint8 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

func min3(a, b, c uint8) uint8 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
