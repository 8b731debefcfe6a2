// Rasterizer is a flat-shaded, z-buffered CPU triangle rasterizer. Its
// per-pixel barycentric setup, screen-space bounding box and z-buffer
// comparison loop are the same shape as the reference raster/triangle.go
// hot path, stripped of texturing, lighting and tone mapping and
// repurposed to emit a metric depth value and a camera-space face normal
// at every covered pixel instead of a shaded color.
package render

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"

	"github.com/cadmatch/detect/internal/detect/detecterr"
	"github.com/cadmatch/detect/internal/detect/posealgebra"
)

// Renderer renders a mesh under a pair of camera transforms into a depth
// image and a camera-space normals image, both sized width x height. It
// is a pure function: the same inputs always produce the same outputs,
// and it never mutates the mesh.
type Renderer interface {
	Render(mesh Mesh, modelView, modelViewProjection posealgebra.Mat4, width, height int, near, far float64) (*DepthImage, *NormalsImage, error)
}

// RasterRenderer is the concrete CPU software rasterizer used by the pose
// refiner.
type RasterRenderer struct{}

// screenVertex is a mesh vertex after its camera-space position and
// screen-space projection have both been computed once per Render call.
type screenVertex struct {
	camera r3.Vector // camera-space position (used for the z-buffer and face normals)
	sx, sy float64   // screen-space pixel coordinates
}

// Render implements Renderer.
func (RasterRenderer) Render(mesh Mesh, modelView, modelViewProjection posealgebra.Mat4, width, height int, near, far float64) (*DepthImage, *NormalsImage, error) {
	if width <= 0 || height <= 0 {
		return nil, nil, fmt.Errorf("render: invalid image size %dx%d: %w", width, height, detecterr.ErrInvariantViolated)
	}
	if err := mesh.Validate(); err != nil {
		return nil, nil, err
	}

	depth := NewDepthImage(width, height)
	normals := NewNormalsImage(width, height)
	zbuf := make([]float64, width*height)
	for i := range zbuf {
		zbuf[i] = math.Inf(1)
	}

	verts := make([]screenVertex, len(mesh.Vertices))
	for i, v := range mesh.Vertices {
		cam, _ := posealgebra.Transform(modelView, v)
		clip, w := posealgebra.Transform(modelViewProjection, v)
		sv := screenVertex{camera: cam}
		if w != 0 {
			sv.sx = (clip.X/w + 1) / 2 * float64(width)
			sv.sy = (1 - (clip.Y/w+1)/2) * float64(height)
		}
		verts[i] = sv
	}

	for _, face := range mesh.Faces {
		rasterizeTriangle(depth, normals, zbuf, verts[face[0]], verts[face[1]], verts[face[2]], near, far)
	}

	return depth, normals, nil
}

func rasterizeTriangle(depth *DepthImage, normals *NormalsImage, zbuf []float64, a, b, c screenVertex, near, far float64) {
	// Face normal in camera space, from the camera-space triangle edges.
	e1 := b.camera.Sub(a.camera)
	e2 := c.camera.Sub(a.camera)
	normal := e1.Cross(e2)
	nl := normal.Norm()
	if nl < 1e-9 {
		return // degenerate (zero-area) triangle
	}
	normal = normal.Mul(1 / nl)
	// Face the camera: camera looks down +Z, so a front-facing triangle's
	// normal should point back toward the origin (negative Z component).
	if normal.Z > 0 {
		normal = normal.Mul(-1)
	}

	width, height := depth.Width, depth.Height
	minX := int(math.Min(math.Min(a.sx, b.sx), c.sx))
	maxX := int(math.Max(math.Max(a.sx, b.sx), c.sx)) + 1
	minY := int(math.Min(math.Min(a.sy, b.sy), c.sy))
	maxY := int(math.Max(math.Max(a.sy, b.sy), c.sy)) + 1
	if minX < 0 {
		minX = 0
	}
	if maxX > width {
		maxX = width
	}
	if minY < 0 {
		minY = 0
	}
	if maxY > height {
		maxY = height
	}
	if minX >= maxX || minY >= maxY {
		return
	}

	det := (b.sy-c.sy)*(a.sx-c.sx) + (c.sx-b.sx)*(a.sy-c.sy)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1.0 / det

	dy12 := b.sy - c.sy
	dx21 := c.sx - b.sx
	dy20 := c.sy - a.sy
	dx02 := a.sx - c.sx

	for sy := minY; sy < maxY; sy++ {
		dsy := float64(sy) - c.sy
		rowOff := sy * width
		for sx := minX; sx < maxX; sx++ {
			dsx := float64(sx) - c.sx
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1
			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			z := w0*a.camera.Z + w1*b.camera.Z + w2*c.camera.Z
			if z < near || z > far {
				continue
			}
			idx := rowOff + sx
			if z >= zbuf[idx] {
				continue
			}
			zbuf[idx] = z
			depth.set(sx, sy, z)
			normals.set(sx, sy, normal)
		}
	}
}
