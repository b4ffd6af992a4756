package math

import (
	"math"
	"testing"
)

func TestQuatIdentity(t *testing.T) {
	q := QuatIdentity()
	if q.X != 0 || q.Y != 0 || q.Z != 0 || q.W != 1 {
		t.Errorf("Identity quaternion should be (0,0,0,1), got (%v,%v,%v,%v)", q.X, q.Y, q.Z, q.W)
	}
}

func TestQuatNormalize(t *testing.T) {
	q := Quat{X: 1, Y: 2, Z: 3, W: 4}
	n := q.Normalize()

	length := float32(math.Sqrt(float64(n.X*n.X + n.Y*n.Y + n.Z*n.Z + n.W*n.W)))
	if math.Abs(float64(length-1.0)) > 0.0001 {
		t.Errorf("Normalized quaternion length should be 1, got %v", length)
	}
}

func TestQuatNormalizeZero(t *testing.T) {
	if got := (Quat{}).Normalize(); got != QuatIdentity() {
		t.Errorf("zero quaternion should normalize to identity, got %v", got)
	}
}

func TestQuatToMat4(t *testing.T) {
	// 90 degrees around Y maps +X to -Z
	got := rotY(math.Pi / 2).ToMat4().TransformVec3(Vec3{1, 0, 0})
	if !got.ApproxEqual(Vec3{0, 0, -1}, 1e-5) {
		t.Errorf("ToMat4 rotation: got %v, want (0, 0, -1)", got)
	}
}

func TestQuatToMat4Unnormalized(t *testing.T) {
	// Scaled quaternions rotate like their unit form
	q := rotY(math.Pi / 2)
	scaled := Quat{X: q.X * 3, Y: q.Y * 3, Z: q.Z * 3, W: q.W * 3}
	if !approxMat(scaled.ToMat4(), q.ToMat4(), 1e-6) {
		t.Error("ToMat4 should normalize its input")
	}
}
