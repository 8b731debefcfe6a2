// Package hashindex implements the triplet hash index: table generation
// over a shared reference grid, per-table depth-bin calibration from the
// training set, population of template references into hash buckets, and
// scene-time vote lookup.
//
// Grounded on the teacher's internal/lidar/hungarian.go style of small,
// well-isolated numeric routines operating on plain slices, and on
// gonum/stat (already used by internal/db for percentile calculation) for
// the equal-size bin partitioning that calibration requires.
package hashindex

import "image"

// project maps a point in the shared gridSize x gridSize reference grid
// into pixel coordinates anchored at origin, with the grid centred inside
// a box of the given size (conventionally the largest trained template's
// extent, shared by every template and by the objectness window so all
// three use the same reference frame).
func project(origin image.Point, boxSize image.Point, gridSize int, gridPt image.Point) image.Point {
	offsetX := origin.X + (boxSize.X-gridSize)/2
	offsetY := origin.Y + (boxSize.Y-gridSize)/2
	return image.Point{X: offsetX + gridPt.X, Y: offsetY + gridPt.Y}
}
