package quant

import "testing"

func TestHueRemapDarkPixelsGoBlue(t *testing.T) {
	p := DefaultHueParams()
	got := p.Remap(HSVPixel{H: 90, S: 200, V: 10})
	if got != p.BlueHue {
		t.Errorf("expected dark pixel remapped to blue hue %d, got %d", p.BlueHue, got)
	}
}

func TestHueRemapBrightLowSaturationGoesYellow(t *testing.T) {
	p := DefaultHueParams()
	got := p.Remap(HSVPixel{H: 200, S: 10, V: 200})
	if got != p.YellowHue {
		t.Errorf("expected bright desaturated pixel remapped to yellow hue %d, got %d", p.YellowHue, got)
	}
}

func TestHueRemapPassesThroughOtherwise(t *testing.T) {
	p := DefaultHueParams()
	got := p.Remap(HSVPixel{H: 77, S: 200, V: 200})
	if got != 77 {
		t.Errorf("expected saturated bright pixel's hue to pass through unchanged, got %d", got)
	}
}

func TestHueDistanceIsAbsolute(t *testing.T) {
	if d := HueDistance(10, 15); d != 5 {
		t.Errorf("expected distance 5, got %d", d)
	}
	if d := HueDistance(15, 10); d != 5 {
		t.Errorf("expected symmetric distance 5, got %d", d)
	}
}
