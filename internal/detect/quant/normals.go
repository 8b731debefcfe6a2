// Package quant turns raw depth/gray/HSV scene data into the quantized
// feature maps the cascade matches against: quantized normals, quantized
// gradients, depth edgels, remapped hue, and the bitwise-OR "spread" map
// built from any of the above.
//
// Grounded on the finite-difference depth-gradient and neighbour-validity
// patterns used by the pack's RGB-D processing reference code (Sobel/
// forward depth gradients ignoring neighbours beyond a depth-difference
// threshold), adapted here to emit octant-quantized surface normals
// instead of a continuous gradient field.
package quant

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/cadmatch/detect/internal/detect/raster"
)

// Octant bit codes, one per upper-hemisphere octant. Undefined normals are
// encoded as 0 (no bit set).
const (
	Octant0 byte = 1 << iota
	Octant1
	Octant2
	Octant3
	Octant4
	Octant5
	Octant6
	Octant7
)

// octantLUTSize is the resolution of the fixed tangent-slope lookup table,
// per the specification's "SHOULD use a fixed 20x20 lookup" guidance.
const octantLUTSize = 20

var octantLUT = buildOctantLUT(octantLUTSize)

// buildOctantLUT precomputes the octant code for every (sx, sy) cell of a
// size x size grid covering the tangent-slope square [-1, 1]^2. Each cell
// maps the angle atan2(sy, sx) into one of eight 45-degree wedges.
func buildOctantLUT(size int) [][]byte {
	lut := make([][]byte, size)
	for row := 0; row < size; row++ {
		lut[row] = make([]byte, size)
		for col := 0; col < size; col++ {
			sx := cellToSlope(col, size)
			sy := cellToSlope(row, size)
			lut[row][col] = octantFromSlope(sx, sy)
		}
	}
	return lut
}

func cellToSlope(cell, size int) float64 {
	// Map cell index [0, size) to the centre of its bucket in [-1, 1].
	step := 2.0 / float64(size)
	return -1 + step*(float64(cell)+0.5)
}

func octantFromSlope(sx, sy float64) byte {
	if sx == 0 && sy == 0 {
		return Octant0
	}
	angle := math.Atan2(sy, sx) // (-pi, pi]
	if angle < 0 {
		angle += 2 * math.Pi
	}
	idx := int(angle / (math.Pi / 4))
	if idx > 7 {
		idx = 7
	}
	return byte(1) << uint(idx)
}

// slopeToCell maps a tangent-slope component in [-1, 1] to a LUT index,
// clamping out-of-range values to the nearest edge cell.
func slopeToCell(v float64, size int) int {
	if v < -1 {
		v = -1
	}
	if v > 1 {
		v = 1
	}
	idx := int((v + 1) / 2 * float64(size))
	if idx >= size {
		idx = size - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

// octantCode quantizes a camera-space normal's tangent-plane components
// (nx, ny, with nz implicitly the hemisphere axis) via the fixed LUT.
func octantCode(nx, ny float64) byte {
	col := slopeToCell(nx, octantLUTSize)
	row := slopeToCell(ny, octantLUTSize)
	return octantLUT[row][col]
}

// NormalParams controls normal quantization.
type NormalParams struct {
	MaxDepthDiff float64 // max abs depth delta to a neighbour used in the finite difference
	MaxDepth     uint16  // depths above this are treated as background
}

// Normals computes the per-pixel quantized-normal map from a depth map by
// finite differences of neighbouring depth samples, discarding any
// neighbour whose absolute depth difference to the centre pixel exceeds
// MaxDepthDiff. A pixel's normal is undefined (byte 0) when its own depth
// is zero or beyond MaxDepth, or when neither the x- nor y-direction
// difference has valid support.
func Normals(dm *raster.DepthMap, p NormalParams) *raster.FeatureMap {
	out := raster.NewFeatureMap(dm.Width, dm.Height)
	for y := 0; y < dm.Height; y++ {
		for x := 0; x < dm.Width; x++ {
			code := normalAt(dm, x, y, p)
			out.Set(x, y, code)
		}
	}
	return out
}

func normalAt(dm *raster.DepthMap, x, y int, p NormalParams) byte {
	n, ok := VectorAt(dm, x, y, p)
	if !ok {
		return 0
	}
	return octantCode(n.X, n.Y)
}

// VectorAt computes the continuous surface normal at (x, y) by
// the same finite-difference construction normalAt quantizes, returning
// ok=false wherever the quantized map would be undefined (no depth, or no
// valid neighbour support). Used directly by the pose refiner's fitness
// function, which compares continuous normal vectors rather than octant
// codes.
func VectorAt(dm *raster.DepthMap, x, y int, p NormalParams) (r3.Vector, bool) {
	dc := dm.At(x, y)
	if dc == 0 || dc > p.MaxDepth {
		return r3.Vector{}, false
	}
	centre := float64(dc)

	dzdx, okx := centredDiff(dm, x-1, y, x+1, y, centre, p.MaxDepthDiff)
	dzdy, oky := centredDiff(dm, x, y-1, x, y+1, centre, p.MaxDepthDiff)
	if !okx && !oky {
		return r3.Vector{}, false
	}

	// Surface normal of z = f(x, y) is proportional to (-dz/dx, -dz/dy, 1).
	return r3.Vector{X: -dzdx, Y: -dzdy, Z: 1}.Normalize(), true
}

// centredDiff computes a centred finite difference between two neighbours
// of a centre depth value, falling back to a one-sided difference if only
// one neighbour has valid support, and reporting ok=false if neither does.
func centredDiff(dm *raster.DepthMap, xa, ya, xb, yb int, centre, maxDiff float64) (float64, bool) {
	da := float64(dm.At(xa, ya))
	db := float64(dm.At(xb, yb))
	aValid := da != 0 && math.Abs(da-centre) <= maxDiff
	bValid := db != 0 && math.Abs(db-centre) <= maxDiff
	switch {
	case aValid && bValid:
		return (db - da) / 2, true
	case bValid:
		return db - centre, true
	case aValid:
		return centre - da, true
	default:
		return 0, false
	}
}

// Popcount returns the number of set bits in a byte, used by invariant
// checks to confirm every quantized code has at most one bit set.
func Popcount(b byte) int {
	n := 0
	for b != 0 {
		n += int(b & 1)
		b >>= 1
	}
	return n
}
