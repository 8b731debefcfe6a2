package posealgebra

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"

	"github.com/cadmatch/detect/internal/detect/model"
)

func TestRotationXYZZeroIsIdentity(t *testing.T) {
	r := RotationXYZ(0, 0, 0)
	want := [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
	for i := range r {
		if math.Abs(r[i]-want[i]) > 1e-9 {
			t.Fatalf("RotationXYZ(0,0,0) = %v, want identity", r)
		}
	}
}

func TestRotationXYZPreservesVectorLength(t *testing.T) {
	r := RotationXYZ(0.3, -0.6, 1.1)
	v := r3.Vector{X: 1, Y: 2, Z: 3}
	rotated := ApplyMat3(r, v)
	if math.Abs(rotated.Norm()-v.Norm()) > 1e-9 {
		t.Errorf("rotation changed vector length: %f -> %f", v.Norm(), rotated.Norm())
	}
}

func TestMultiplyMat4WithIdentityIsNoop(t *testing.T) {
	m := Mat4{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	got := MultiplyMat4(m, Identity4())
	for i := range m {
		if got[i] != m[i] {
			t.Fatalf("MultiplyMat4(m, I) = %v, want %v", got, m)
		}
	}
}

func TestInvert4RoundTrips(t *testing.T) {
	r := RotationXYZ(0.2, 0.4, -0.1)
	m := ComposeRT(r, [3]float64{10, -5, 200})
	inv, err := Invert4(m)
	if err != nil {
		t.Fatalf("Invert4 failed: %v", err)
	}
	product := MultiplyMat4(m, inv)
	id := Identity4()
	for i := range product {
		if math.Abs(product[i]-id[i]) > 1e-6 {
			t.Fatalf("m * inv(m) = %v, want identity", product)
		}
	}
}

func TestModelViewAddsOffsetTranslation(t *testing.T) {
	cam := model.Camera{
		R: [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1},
		T: [3]float64{0, 0, 500},
	}
	offset := model.PoseOffset{Translation: r3.Vector{X: 5, Y: -3, Z: 0}}
	mv := ModelView(cam, offset)
	if mv[3] != 5 || mv[7] != -3 || mv[11] != 500 {
		t.Errorf("expected translation column {5, -3, 500}, got {%f, %f, %f}", mv[3], mv[7], mv[11])
	}
}

func TestTransformProjectsOriginToPrincipalPoint(t *testing.T) {
	proj := PerspectiveFromIntrinsics(500, 500, 320, 240, 640, 480, 10, 1000)
	p, w := Transform(proj, r3.Vector{X: 0, Y: 0, Z: 100})
	if w == 0 {
		t.Fatal("homogeneous w must not be zero for a point in front of the camera")
	}
	ndcX, ndcY := p.X/w, p.Y/w
	if math.Abs(ndcX) > 1e-9 || math.Abs(ndcY) > 1e-9 {
		t.Errorf("expected the optical axis point to project to NDC origin, got (%f, %f)", ndcX, ndcY)
	}
}
