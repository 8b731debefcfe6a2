// Package orchestrator wires the detection cascade's independent stages
// (pyramid, objectness, hashing, matching, NMS, pose refinement) into the
// three operations a caller actually drives: train, load and detect, plus
// refine for pose post-processing. It owns every I/O boundary the cascade
// itself never touches: reading training views and scenes through the
// loader interfaces below, and persisting/reloading trained state through
// internal/detect/store.
//
// Per the cascade's scope, image decoding and on-disk dataset layout are
// external collaborators: the orchestrator accepts already-decoded views
// and scenes through ViewLoader/SceneLoader rather than parsing PNG/YAML
// itself, so a caller can plug in any dataset format.
package orchestrator

import (
	"image"

	"github.com/cadmatch/detect/internal/detect/model"
	"github.com/cadmatch/detect/internal/detect/pyramid"
	"github.com/cadmatch/detect/internal/detect/raster"
)

// TemplateView is one decoded training view of one object: its gray,
// depth and HSV-channel rasters, captured camera, and the object's
// bounding box within the view's own pixel grid. The orchestrator derives
// everything else (quantized maps, feature points, matching features)
// from this.
type TemplateView struct {
	FileName string

	Gray          *raster.GrayMap
	Depth         *raster.DepthMap
	Hue, Sat, Val *raster.GrayMap

	Camera model.Camera
	ObjBB  image.Rectangle

	// Diameter is the object's physical diameter in the same units as
	// Camera's translation, used to derive the SmallestDiameter statistic
	// (which scales the edgel threshold) and the depth tolerance of
	// cascade test IV.
	Diameter float64

	// ResizeRatio is the scale applied by the loader's own view
	// preparation (independent of the orchestrator, which never resizes
	// or canonicalizes views itself) relative to the view's original
	// decoded resolution. Zero means the loader performed no resizing;
	// Train treats that the same as 1.
	ResizeRatio float64
}

// ViewLoader resolves one object's template roots into decoded views.
// Per spec, each root conventionally holds rgb/NNNN.png, depth/NNNN.png,
// info.yml and gt.yml, but the orchestrator never looks at the
// filesystem directly: it is the loader's job to produce TemplateViews
// from whatever layout a dataset uses.
type ViewLoader interface {
	LoadViews(objID uint32, root string) ([]TemplateView, error)
}

// SceneSnapshot is one decoded detection scene: the native-scale rasters
// the pyramid is built from, annotated with a caller-supplied identifier
// used to label the result stream.
type SceneSnapshot struct {
	SceneID string
	Scene   pyramid.Scene
}

// SceneLoader resolves a scene directory into decoded scenes. A
// directory may hold more than one scene (e.g. one per frame); the
// orchestrator detects across all of them in the order returned.
type SceneLoader interface {
	LoadScenes(dir string) ([]SceneSnapshot, error)
}
