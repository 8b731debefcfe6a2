package quant

import "github.com/cadmatch/detect/internal/detect/raster"

// HueParams controls the hue remap that makes black/white regions
// distinguishable under the hue-only color test (test V of the cascade).
type HueParams struct {
	VThresh uint8 // value at or below which a pixel is remapped to BlueHue
	SThresh uint8 // saturation below which a bright pixel is remapped to YellowHue

	BlueHue   uint8
	YellowHue uint8
}

// DefaultHueParams returns v_thresh=30, s_thresh=40, with hue fixed at the
// conventional 0..180 OpenCV-style scale midpoints for blue and yellow.
func DefaultHueParams() HueParams {
	return HueParams{
		VThresh:   30,
		SThresh:   40,
		BlueHue:   120,
		YellowHue: 30,
	}
}

// HSVPixel is one HSV sample on the 0..180 hue / 0..255 saturation-value
// scale used throughout the package.
type HSVPixel struct {
	H, S, V uint8
}

// Remap remaps one HSV sample's hue per HueParams: pixels with V <= VThresh
// become BlueHue, pixels with V > VThresh and S < SThresh become
// YellowHue, otherwise the original hue passes through unchanged.
func (p HueParams) Remap(px HSVPixel) uint8 {
	switch {
	case px.V <= p.VThresh:
		return p.BlueHue
	case px.S < p.SThresh:
		return p.YellowHue
	default:
		return px.H
	}
}

// RemapHue produces the remapped-hue map for a full HSV image, given as
// three parallel gray maps (hue, saturation, value all on their native
// scales).
func RemapHue(hue, sat, val *raster.GrayMap, p HueParams) *raster.GrayMap {
	out := raster.NewGrayMap(hue.Width, hue.Height)
	for y := 0; y < hue.Height; y++ {
		for x := 0; x < hue.Width; x++ {
			px := HSVPixel{H: hue.At(x, y), S: sat.At(x, y), V: val.At(x, y)}
			out.Set(x, y, p.Remap(px))
		}
	}
	return out
}

// HueDistance returns the absolute difference between two remapped hue
// samples on the 0..180 scale, as used by the cascade's hue test.
func HueDistance(a, b uint8) int {
	d := int(a) - int(b)
	if d < 0 {
		d = -d
	}
	return d
}
