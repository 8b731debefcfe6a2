package model

import "github.com/golang/geo/r3"

// PoseOffset is a 6-DoF pose offset on top of a template's stored camera
// pose: a translation (object units) and a rotation (radians, applied as
// roll/pitch/yaw about the template's own axes).
type PoseOffset struct {
	Translation r3.Vector
	Rotation    r3.Vector
}

// Vector6 returns the offset as (tx, ty, tz, rx, ry, rz).
func (p PoseOffset) Vector6() [6]float64 {
	return [6]float64{
		p.Translation.X, p.Translation.Y, p.Translation.Z,
		p.Rotation.X, p.Rotation.Y, p.Rotation.Z,
	}
}

// PoseOffsetFromVector6 builds a PoseOffset from (tx, ty, tz, rx, ry, rz).
func PoseOffsetFromVector6(v [6]float64) PoseOffset {
	return PoseOffset{
		Translation: r3.Vector{X: v[0], Y: v[1], Z: v[2]},
		Rotation:    r3.Vector{X: v[3], Y: v[4], Z: v[5]},
	}
}

// Add returns the component-wise sum of two offsets.
func (p PoseOffset) Add(o PoseOffset) PoseOffset {
	return PoseOffset{
		Translation: p.Translation.Add(o.Translation),
		Rotation:    p.Rotation.Add(o.Rotation),
	}
}

// Sub returns the component-wise difference p - o.
func (p PoseOffset) Sub(o PoseOffset) PoseOffset {
	return PoseOffset{
		Translation: p.Translation.Sub(o.Translation),
		Rotation:    p.Rotation.Sub(o.Rotation),
	}
}

// Scale returns every component of p multiplied by s.
func (p PoseOffset) Scale(s float64) PoseOffset {
	return PoseOffset{
		Translation: p.Translation.Mul(s),
		Rotation:    p.Rotation.Mul(s),
	}
}

// HadamardScale multiplies each component of p by the matching component of
// factors, used to apply independent per-dimension PSO coefficients
// (c1*r1, c2*r2 are drawn per-dimension).
func (p PoseOffset) HadamardScale(factors [6]float64) PoseOffset {
	v := p.Vector6()
	for i := range v {
		v[i] *= factors[i]
	}
	return PoseOffsetFromVector6(v)
}

// Particle is one member of the PSO population: its current pose offset
// and velocity, plus its own best-seen (pose, fitness) pair.
type Particle struct {
	Pose     PoseOffset
	Velocity PoseOffset

	BestPose    PoseOffset
	BestFitness float64
}
