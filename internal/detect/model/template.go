package model

import (
	"image"

	"github.com/cadmatch/detect/internal/detect/raster"
)

// FeaturePoint is a single sparse sample point used by the cascaded
// matcher, stored relative to the template's bounding-box top-left.
type FeaturePoint struct {
	image.Point
}

// MatchingFeatures is the per-template record of sampled feature values,
// one slot per feature point in the corresponding EdgePoints/StablePoints
// slice. Gradients are sampled at edge points; Normals, Depths and Hue are
// sampled at stable points. All four slices have length N.
type MatchingFeatures struct {
	Gradients   []byte   // quantized gradient code at each edge point
	Normals     []byte   // quantized normal code at each stable point
	Depths      []uint16 // raw depth sample at each stable point
	Hue         []byte   // remapped hue sample at each stable point
	DepthMedian float64  // median of non-zero stable-point depths
}

// Template is one trained view of one object: its captured camera, its
// feature maps, and the two disjoint feature-point sets the cascade tests
// against. Templates are built once during training and are immutable
// afterwards.
//
// Invariant: len(EdgePoints) == len(StablePoints) == N (the criteria's
// FeaturePointCount); every point lies strictly inside ObjBB; every stable
// point's underlying depth sample is non-zero.
type Template struct {
	ID       uint32
	ObjID    uint32
	FileName string

	Diameter    float64
	ResizeRatio float64
	ObjBB       image.Rectangle

	Camera Camera

	MinDepth uint16
	MaxDepth uint16
	ObjArea  float64

	GradientMap *raster.FeatureMap // quantized-gradient map over the canonical view
	NormalMap   *raster.FeatureMap // quantized-normal map over the canonical view
	DepthMap    *raster.DepthMap   // raw depth over the canonical view, used by triplet-hash bin calibration

	EdgePoints   []FeaturePoint
	StablePoints []FeaturePoint

	Features MatchingFeatures
}

// Validate checks the structural invariants of a trained template.
func (t *Template) Validate(n int) error {
	if len(t.EdgePoints) != n || len(t.StablePoints) != n {
		return errInvariant("template %d: expected %d edge/stable points, got %d/%d", t.ID, n, len(t.EdgePoints), len(t.StablePoints))
	}
	for _, p := range t.EdgePoints {
		if !p.Point.Add(t.ObjBB.Min).In(t.ObjBB) {
			return errInvariant("template %d: edge point %v outside object bounding box %v", t.ID, p.Point, t.ObjBB)
		}
	}
	for i, p := range t.StablePoints {
		if !p.Point.Add(t.ObjBB.Min).In(t.ObjBB) {
			return errInvariant("template %d: stable point %v outside object bounding box %v", t.ID, p.Point, t.ObjBB)
		}
		if i < len(t.Features.Depths) && t.Features.Depths[i] == 0 {
			return errInvariant("template %d: stable point %d has zero depth", t.ID, i)
		}
	}
	if len(t.Features.Gradients) != n || len(t.Features.Normals) != n ||
		len(t.Features.Depths) != n || len(t.Features.Hue) != n {
		return errInvariant("template %d: matching-feature arrays must have length %d", t.ID, n)
	}
	return nil
}
