// Package render implements the pose refiner's rendering boundary: a pure
// function from a mesh and a pair of camera transforms to a depth image
// and a camera-space normals image. The refiner treats any conforming
// Renderer as a black box; RasterRenderer is the one concrete
// implementation carried in this repository.
package render

import (
	"fmt"

	"github.com/golang/geo/r3"

	"github.com/cadmatch/detect/internal/detect/detecterr"
)

// Mesh is an object-space triangle mesh: a vertex position list, a
// matching per-vertex normal list, and a triangle index list. Validate
// checks the normal list's length; the rasterizer computes face normals
// and skips zero-area faces, so it does not read the per-vertex normals.
type Mesh struct {
	Vertices []r3.Vector
	Normals  []r3.Vector
	Faces    [][3]int
}

// Validate checks that every face index refers to an existing vertex and
// that the vertex/normal slices have matching length.
func (m Mesh) Validate() error {
	if len(m.Vertices) != len(m.Normals) {
		return fmt.Errorf("render: %d vertices but %d normals: %w", len(m.Vertices), len(m.Normals), detecterr.ErrInvariantViolated)
	}
	for i, f := range m.Faces {
		for _, vi := range f {
			if vi < 0 || vi >= len(m.Vertices) {
				return fmt.Errorf("render: face %d references out-of-range vertex %d (have %d vertices): %w", i, vi, len(m.Vertices), detecterr.ErrInvariantViolated)
			}
		}
	}
	return nil
}
