package math

import (
	"math"
	"testing"
)

func approxVec3(a, b Vec3, eps float32) bool {
	return absf(a.X-b.X) < eps && absf(a.Y-b.Y) < eps && absf(a.Z-b.Z) < eps
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3)
	result := m.Mul(Identity())
	if result != m {
		t.Errorf("M * I should equal M, got %v", result)
	}
}

func TestTransformPoint(t *testing.T) {
	m := Translate(10, 20, 30)
	got := m.TransformPoint(Vec3{1, 2, 3})
	want := Vec3{11, 22, 33}
	if got != want {
		t.Errorf("TransformPoint: got %v, want %v", got, want)
	}
}

func TestTransformDirectionIgnoresTranslation(t *testing.T) {
	m := Translate(10, 20, 30)
	got := m.TransformDirection(Vec3{0, 1, 0})
	if got != (Vec3{0, 1, 0}) {
		t.Errorf("TransformDirection: got %v, want (0,1,0)", got)
	}
}

func TestRotateY(t *testing.T) {
	m := RotateY(math.Pi / 2)
	got := m.TransformPoint(Vec3{1, 0, 0})
	want := Vec3{0, 0, -1}
	if !approxVec3(got, want, 1e-5) {
		t.Errorf("RotateY(90) * X = %v, want %v", got, want)
	}
}

func TestQuatMatchesRotateY(t *testing.T) {
	q := QuatFromAxisAngle(Up, math.Pi/3)
	m := q.ToMat4()
	r := RotateY(math.Pi / 3)
	for i := range m {
		if absf(m[i]-r[i]) > 1e-5 {
			t.Fatalf("quat matrix element %d = %f, want %f", i, m[i], r[i])
		}
	}
}

func TestQuatFromEulerDegreesYawOnly(t *testing.T) {
	q := QuatFromEulerDegrees(0, 90, 0)
	got := q.ToMat4().TransformPoint(Vec3{1, 0, 0})
	if !approxVec3(got, Vec3{0, 0, -1}, 1e-5) {
		t.Errorf("yaw 90 * X = %v, want (0,0,-1)", got)
	}
}

func TestCompose(t *testing.T) {
	m := Compose(Vec3{5, 0, 0}, QuatIdentity(), Vec3{2, 2, 2})
	got := m.TransformPoint(Vec3{1, 1, 1})
	want := Vec3{7, 2, 2}
	if got != want {
		t.Errorf("Compose: got %v, want %v", got, want)
	}
	if !Compose(Vec3{}, QuatIdentity(), Vec3{1, 1, 1}).IsIdentity() {
		t.Error("identity TRS should compose to identity")
	}
}
