package model

import "image"

// SubScores holds the five per-test scores the cascaded matcher assembles
// for a candidate window/template pair. Test I is an admission gate and is
// not part of the aggregate score average; it is still recorded for
// diagnostics.
type SubScores struct {
	ObjectSize float64 // test I, admission gate only
	Normal     float64 // test II
	Gradient   float64 // test III
	DepthMed   float64 // test IV
	Hue        float64 // test V
}

// Match is one verified detection: a non-owning reference to the matched
// template, its scaled bounding box in scene coordinates, the pyramid
// scale it was found at, and the assembled score.
type Match struct {
	Template *Template // non-owning; must not outlive the owning TemplateStore

	BB    image.Rectangle
	Scale float64

	Score     float64
	SubScores SubScores

	// Pose is the 6-DoF offset found by the pose refiner, zero-valued until
	// Refine has run on this match.
	Pose PoseOffset
}

// Overlap returns the NMS overlap ratio between two matches' bounding
// boxes: area(A∩B) / min(area(A), area(B)).
func (m *Match) Overlap(o *Match) float64 {
	inter := m.BB.Intersect(o.BB)
	if inter.Empty() {
		return 0
	}
	interArea := float64(inter.Dx()) * float64(inter.Dy())
	areaA := float64(m.BB.Dx()) * float64(m.BB.Dy())
	areaB := float64(o.BB.Dx()) * float64(o.BB.Dy())
	minArea := areaA
	if areaB < minArea {
		minArea = areaB
	}
	if minArea <= 0 {
		return 0
	}
	return interArea / minArea
}
