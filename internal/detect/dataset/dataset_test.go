package dataset

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

func writeColorPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 10 % 256), G: uint8(y * 10 % 256), B: 128, A: 255})
		}
	}
	writePNG(t, path, img)
}

func writeDepthPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewGray16(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.Gray16{Y: uint16(1000 + x)})
		}
	}
	writePNG(t, path, img)
}

func TestFileLoaderLoadViewsDecodesTemplates(t *testing.T) {
	root := t.TempDir()
	writeColorPNG(t, filepath.Join(root, "rgb", "0000.png"), 16, 16)
	writeDepthPNG(t, filepath.Join(root, "depth", "0000.png"), 16, 16)

	infoYAML := `
templates:
  - file: "0000"
    obj_bb: {x: 0, y: 0, width: 16, height: 16}
    diameter: 120.5
    resize_ratio: 1.0
    camera:
      k: [500, 0, 8, 0, 500, 8, 0, 0, 1]
      r: [1, 0, 0, 0, 1, 0, 0, 0, 1]
      t: [0, 0, 500]
      elev: 15
      mode: "0"
`
	if err := os.WriteFile(filepath.Join(root, "info.yaml"), []byte(infoYAML), 0o644); err != nil {
		t.Fatalf("write info.yaml: %v", err)
	}

	views, err := (FileLoader{}).LoadViews(1, root)
	if err != nil {
		t.Fatalf("LoadViews failed: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 view, got %d", len(views))
	}
	v := views[0]
	if v.Gray.Width != 16 || v.Gray.Height != 16 {
		t.Errorf("expected a 16x16 gray map, got %dx%d", v.Gray.Width, v.Gray.Height)
	}
	if v.Depth.At(8, 0) != 1008 {
		t.Errorf("expected depth 1008 at (8,0), got %d", v.Depth.At(8, 0))
	}
	if v.Diameter != 120.5 {
		t.Errorf("expected diameter 120.5, got %f", v.Diameter)
	}
	if v.Camera.K[0] != 500 {
		t.Errorf("expected fx=500, got %f", v.Camera.K[0])
	}
}

func TestFileLoaderLoadScenesDecodesScenes(t *testing.T) {
	dir := t.TempDir()
	writeColorPNG(t, filepath.Join(dir, "rgb", "scene-a.png"), 8, 8)
	writeDepthPNG(t, filepath.Join(dir, "depth", "scene-a.png"), 8, 8)

	infoYAML := `
scenes:
  - id: "scene-a"
    camera:
      k: [400, 0, 4, 0, 400, 4, 0, 0, 1]
      r: [1, 0, 0, 0, 1, 0, 0, 0, 1]
      t: [0, 0, 300]
`
	if err := os.WriteFile(filepath.Join(dir, "info.yaml"), []byte(infoYAML), 0o644); err != nil {
		t.Fatalf("write info.yaml: %v", err)
	}

	scenes, err := (FileLoader{}).LoadScenes(dir)
	if err != nil {
		t.Fatalf("LoadScenes failed: %v", err)
	}
	if len(scenes) != 1 || scenes[0].SceneID != "scene-a" {
		t.Fatalf("expected one scene named scene-a, got %+v", scenes)
	}
	if scenes[0].Scene.Depth.Width != 8 {
		t.Errorf("expected an 8-wide depth map, got %d", scenes[0].Scene.Depth.Width)
	}
}

func TestFileLoaderLoadViewsFailsOnMissingInfo(t *testing.T) {
	if _, err := (FileLoader{}).LoadViews(1, t.TempDir()); err == nil {
		t.Fatal("expected an error when info.yaml is missing")
	}
}
