package model

import "image"

// Camera is the pinhole camera state captured alongside a template view:
// intrinsics K, extrinsics (R, t), and the spherical capture angles used by
// the training-time viewpoint sampler.
//
// K, R are row-major 3x3 matrices; T is a translation in object units.
type Camera struct {
	K        [9]float64
	R        [9]float64
	T        [3]float64
	Elev     float64
	Azimuth  float64
	Mode     string
}

// Rescale returns a copy of the camera with its intrinsics scaled to match
// a resized image (fx, fy, cx, cy all scale by the same factor; skew term
// K[1] scales too since it carries the same units as fx).
func (c Camera) Rescale(factor float64) Camera {
	out := c
	out.K[0] *= factor // fx
	out.K[1] *= factor // skew
	out.K[2] *= factor // cx
	out.K[4] *= factor // fy
	out.K[5] *= factor // cy
	return out
}

// CropTo returns a copy of the camera with its principal point translated
// into the coordinate frame of a sub-image starting at bb.Min. Focal
// lengths are unaffected since cropping, unlike resizing, performs no
// resampling.
func (c Camera) CropTo(bb image.Rectangle) Camera {
	out := c
	out.K[2] -= float64(bb.Min.X) // cx
	out.K[5] -= float64(bb.Min.Y) // cy
	return out
}
