package dataset

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/cadmatch/detect/internal/detect/model"
	"github.com/cadmatch/detect/internal/detect/orchestrator"
	"github.com/cadmatch/detect/internal/detect/pyramid"
	"github.com/cadmatch/detect/internal/detect/raster"
)

func (c cameraYAML) toModel() model.Camera {
	return model.Camera{K: c.K, R: c.R, T: c.T, Elev: c.Elev, Azimuth: c.Azimuth, Mode: c.Mode}
}

// FileLoader implements both orchestrator.ViewLoader and
// orchestrator.SceneLoader against the rgb/NNNN.png + depth/NNNN.png +
// info.yaml directory layout described in schema.go.
type FileLoader struct{}

var (
	_ orchestrator.ViewLoader  = FileLoader{}
	_ orchestrator.SceneLoader = FileLoader{}
)

// LoadViews reads root/info.yaml and decodes every listed template's
// rgb/<file>.png and depth/<file>.png into a TemplateView.
func (FileLoader) LoadViews(objID uint32, root string) ([]orchestrator.TemplateView, error) {
	info, err := loadYAML[templateInfoYAML](filepath.Join(root, "info.yaml"))
	if err != nil {
		return nil, err
	}

	views := make([]orchestrator.TemplateView, 0, len(info.Templates))
	for _, entry := range info.Templates {
		rgb, err := decodePNG(filepath.Join(root, "rgb", entry.File+".png"))
		if err != nil {
			return nil, fmt.Errorf("dataset: object %d template %s: %w", objID, entry.File, err)
		}
		depth, err := decodeDepthPNG(filepath.Join(root, "depth", entry.File+".png"))
		if err != nil {
			return nil, fmt.Errorf("dataset: object %d template %s: %w", objID, entry.File, err)
		}

		gray, hue, sat, val := decodeChannels(rgb)
		bb := image.Rect(entry.ObjBB.X, entry.ObjBB.Y, entry.ObjBB.X+entry.ObjBB.Width, entry.ObjBB.Y+entry.ObjBB.Height)

		views = append(views, orchestrator.TemplateView{
			FileName:    entry.File,
			Gray:        gray,
			Depth:       depth,
			Hue:         hue,
			Sat:         sat,
			Val:         val,
			Camera:      entry.Camera.toModel(),
			ObjBB:       bb,
			Diameter:    entry.Diameter,
			ResizeRatio: entry.ResizeRatio,
		})
	}
	return views, nil
}

// LoadScenes reads dir/info.yaml and decodes every listed scene's
// rgb/<id>.png and depth/<id>.png into a pyramid.Scene at native scale.
func (FileLoader) LoadScenes(dir string) ([]orchestrator.SceneSnapshot, error) {
	info, err := loadYAML[sceneInfoYAML](filepath.Join(dir, "info.yaml"))
	if err != nil {
		return nil, err
	}

	scenes := make([]orchestrator.SceneSnapshot, 0, len(info.Scenes))
	for _, entry := range info.Scenes {
		rgb, err := decodePNG(filepath.Join(dir, "rgb", entry.ID+".png"))
		if err != nil {
			return nil, fmt.Errorf("dataset: scene %s: %w", entry.ID, err)
		}
		depth, err := decodeDepthPNG(filepath.Join(dir, "depth", entry.ID+".png"))
		if err != nil {
			return nil, fmt.Errorf("dataset: scene %s: %w", entry.ID, err)
		}

		gray, hue, sat, val := decodeChannels(rgb)
		scenes = append(scenes, orchestrator.SceneSnapshot{
			SceneID: entry.ID,
			Scene: pyramid.Scene{
				Gray:   gray,
				Depth:  depth,
				Hue:    hue,
				Sat:    sat,
				Val:    val,
				Camera: entry.Camera.toModel(),
			},
		})
	}
	return scenes, nil
}

func decodePNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// decodeDepthPNG decodes a 16-bit single-channel PNG into a DepthMap.
func decodeDepthPNG(path string) (*raster.DepthMap, error) {
	img, err := decodePNG(path)
	if err != nil {
		return nil, err
	}
	gray16, ok := img.(*image.Gray16)
	if !ok {
		return nil, fmt.Errorf("%s: expected a 16-bit grayscale PNG, got %T", path, img)
	}

	b := gray16.Bounds()
	w, h := b.Dx(), b.Dy()
	out := raster.NewDepthMap(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Set(x, y, gray16.Gray16At(b.Min.X+x, b.Min.Y+y).Y)
		}
	}
	return out, nil
}
