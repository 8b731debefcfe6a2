// Package posealgebra is the flat-array pose math shared by the pose
// refiner and the renderer: composing a template's stored camera with a
// particle's 6-DoF offset into a model-view matrix, and turning pinhole
// intrinsics into a model-view-projection matrix.
//
// Rotations are built the same way as the viamrobotics-rdk pinhole
// extrinsic calibrator builds its roll/pitch/yaw matrices: three flat
// row-major 3x3 arrays multiplied together, rather than a quaternion or
// Euler-angle library. Matrices are plain row-major [9]float64 (3x3) and
// [16]float64 (4x4) arrays to match model.Camera's own K/R convention.
package posealgebra

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/cadmatch/detect/internal/detect/model"
)

// Mat4 is a row-major 4x4 homogeneous matrix.
type Mat4 [16]float64

// Identity4 returns the 4x4 identity matrix.
func Identity4() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// MultiplyMat3 returns the row-major 3x3 product a*b.
func MultiplyMat3(a, b [9]float64) [9]float64 {
	var out [9]float64
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += a[r*3+k] * b[k*3+c]
			}
			out[r*3+c] = sum
		}
	}
	return out
}

// ApplyMat3 applies a row-major 3x3 matrix to a vector.
func ApplyMat3(r [9]float64, v r3.Vector) r3.Vector {
	return r3.Vector{
		X: r[0]*v.X + r[1]*v.Y + r[2]*v.Z,
		Y: r[3]*v.X + r[4]*v.Y + r[5]*v.Z,
		Z: r[6]*v.X + r[7]*v.Y + r[8]*v.Z,
	}
}

// RotationXYZ builds the roll(rx)-pitch(ry)-yaw(rz) rotation matrix
// R = Yaw * Pitch * Roll, matching the order the pinhole extrinsic
// calibrator applies its three axis rotations in sequence.
func RotationXYZ(rx, ry, rz float64) [9]float64 {
	cr, sr := math.Cos(rx), math.Sin(rx)
	cp, sp := math.Cos(ry), math.Sin(ry)
	cy, sy := math.Cos(rz), math.Sin(rz)

	roll := [9]float64{
		1, 0, 0,
		0, cr, sr,
		0, -sr, cr,
	}
	pitch := [9]float64{
		cp, 0, -sp,
		0, 1, 0,
		sp, 0, cp,
	}
	yaw := [9]float64{
		cy, sy, 0,
		-sy, cy, 0,
		0, 0, 1,
	}
	return MultiplyMat3(yaw, MultiplyMat3(pitch, roll))
}

// ComposeRT assembles a 4x4 homogeneous transform from a 3x3 rotation and
// a translation.
func ComposeRT(r [9]float64, t [3]float64) Mat4 {
	return Mat4{
		r[0], r[1], r[2], t[0],
		r[3], r[4], r[5], t[1],
		r[6], r[7], r[8], t[2],
		0, 0, 0, 1,
	}
}

// MultiplyMat4 returns the row-major 4x4 product a*b.
func MultiplyMat4(a, b Mat4) Mat4 {
	var out Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += a[r*4+k] * b[k*4+c]
			}
			out[r*4+c] = sum
		}
	}
	return out
}

// Invert4 inverts a 4x4 matrix via gonum's dense LU solver.
func Invert4(m Mat4) (Mat4, error) {
	src := mat.NewDense(4, 4, m[:])
	var dst mat.Dense
	if err := dst.Inverse(src); err != nil {
		return Mat4{}, fmt.Errorf("posealgebra: matrix not invertible: %w", err)
	}
	var out Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			out[r*4+c] = dst.At(r, c)
		}
	}
	return out, nil
}

// ModelView composes a template's stored camera pose with a candidate
// pose offset (as drawn by the PSO population) into a single model-view
// transform: the offset's rotation is applied before the camera's own
// rotation, and its translation is added to the camera's own translation.
func ModelView(cam model.Camera, offset model.PoseOffset) Mat4 {
	offsetR := RotationXYZ(offset.Rotation.X, offset.Rotation.Y, offset.Rotation.Z)
	composedR := MultiplyMat3(cam.R, offsetR)
	composedT := [3]float64{
		cam.T[0] + offset.Translation.X,
		cam.T[1] + offset.Translation.Y,
		cam.T[2] + offset.Translation.Z,
	}
	return ComposeRT(composedR, composedT)
}

// PerspectiveFromIntrinsics builds a clip-space projection matrix from
// pinhole intrinsics (fx, fy, cx, cy) and an image size, for the
// positive-z-forward convention the depth sensor and Camera.R/T already
// use (a point with larger Z is farther from the camera). Camera-space z
// in [near, far] maps to clip-space ndc_z in [0, 1]; the homogeneous w is
// the camera-space z itself, so perspective divide (x/w, y/w) reproduces
// the pinhole projection screen_x = fx*X/Z + cx in NDC.
func PerspectiveFromIntrinsics(fx, fy, cx, cy float64, width, height int, near, far float64) Mat4 {
	w, h := float64(width), float64(height)
	return Mat4{
		2 * fx / w, 0, 2*cx/w - 1, 0,
		0, 2 * fy / h, 2*cy/h - 1, 0,
		0, 0, far / (far - near), -far * near / (far - near),
		0, 0, 1, 0,
	}
}

// ModelViewProjection combines a model-view transform with a projection
// transform into a single model-view-projection matrix.
func ModelViewProjection(modelView, projection Mat4) Mat4 {
	return MultiplyMat4(projection, modelView)
}

// Transform applies a 4x4 matrix to a homogeneous point (w=1) and returns
// the transformed point together with its homogeneous w component.
func Transform(m Mat4, p r3.Vector) (r3.Vector, float64) {
	x := m[0]*p.X + m[1]*p.Y + m[2]*p.Z + m[3]
	y := m[4]*p.X + m[5]*p.Y + m[6]*p.Z + m[7]
	z := m[8]*p.X + m[9]*p.Y + m[10]*p.Z + m[11]
	w := m[12]*p.X + m[13]*p.Y + m[14]*p.Z + m[15]
	return r3.Vector{X: x, Y: y, Z: z}, w
}
