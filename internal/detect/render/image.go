package render

import "github.com/golang/geo/r3"

// DepthImage is a float64-per-pixel metric depth buffer in the units of
// the mesh/camera that produced it. Zero means "no surface rendered at
// this pixel" (background).
type DepthImage struct {
	Pix           []float64
	Width, Height int
}

// NewDepthImage allocates a zeroed depth image.
func NewDepthImage(width, height int) *DepthImage {
	return &DepthImage{Pix: make([]float64, width*height), Width: width, Height: height}
}

// At returns the depth at (x, y), or 0 if out of bounds.
func (d *DepthImage) At(x, y int) float64 {
	if x < 0 || y < 0 || x >= d.Width || y >= d.Height {
		return 0
	}
	return d.Pix[y*d.Width+x]
}

func (d *DepthImage) set(x, y int, v float64) {
	d.Pix[y*d.Width+x] = v
}

// NormalsImage is a per-pixel camera-space unit surface normal buffer.
// The zero vector marks background (no surface rendered).
type NormalsImage struct {
	Pix           []r3.Vector
	Width, Height int
}

// NewNormalsImage allocates a zeroed normals image.
func NewNormalsImage(width, height int) *NormalsImage {
	return &NormalsImage{Pix: make([]r3.Vector, width*height), Width: width, Height: height}
}

// At returns the normal at (x, y), or the zero vector if out of bounds.
func (n *NormalsImage) At(x, y int) r3.Vector {
	if x < 0 || y < 0 || x >= n.Width || y >= n.Height {
		return r3.Vector{}
	}
	return n.Pix[y*n.Width+x]
}

func (n *NormalsImage) set(x, y int, v r3.Vector) {
	n.Pix[y*n.Width+x] = v
}
