package math

import (
	"math"
	"testing"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	if !m.IsIdentity() {
		t.Error("Identity().IsIdentity() = false")
	}
	if Translate(1, 0, 0).IsIdentity() {
		t.Error("Translate(1,0,0).IsIdentity() = true")
	}
}

func TestMulOrder(t *testing.T) {
	// Scale first, then translate.
	m := Translate(1, 2, 3).Mul(Scale(2, 2, 2))
	if got := m.TransformPoint(Vec3{1, 1, 1}); got != (Vec3{3, 4, 5}) {
		t.Errorf("T*S applied to (1,1,1) = %v, want (3, 4, 5)", got)
	}
	if got := m.Mul(Identity()); got != m {
		t.Errorf("M * I = %v, want %v", got, m)
	}
}

func TestTransformPoint(t *testing.T) {
	tests := []struct {
		name string
		m    Mat4
		p    Vec3
		want Vec3
	}{
		{"translate", Translate(10, 20, 30), Vec3{1, 2, 3}, Vec3{11, 22, 33}},
		{"scale", Scale(2, 3, 4), Vec3{1, 2, 3}, Vec3{2, 6, 12}},
		{"axes", FromAxes(UnitY, UnitZ, UnitX, Vec3{1, 2, 3}), UnitX, Vec3{1, 3, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.TransformPoint(tt.p); got != tt.want {
				t.Errorf("TransformPoint(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestTransformNormalIgnoresTranslation(t *testing.T) {
	m := Translate(5, 5, 5).Mul(Scale(3, 3, 3))
	got := m.TransformNormal(UnitZ)
	if !got.ApproxEqual(UnitZ, 1e-6) {
		t.Errorf("TransformNormal = %v, want (0, 0, 1)", got)
	}
}

func TestRotateZ90(t *testing.T) {
	got := RotateZ(float32(math.Pi / 2)).TransformPoint(UnitX)
	if !got.ApproxEqual(UnitY, 1e-6) {
		t.Errorf("RotateZ 90 of +X = %v, want +Y", got)
	}
}

func TestFromAxesColumns(t *testing.T) {
	m := FromAxes(UnitY, UnitZ, UnitX, Vec3{1, 2, 3})
	if m.Column(0) != UnitY || m.Column(1) != UnitZ || m.Column(2) != UnitX {
		t.Errorf("FromAxes columns = %v %v %v", m.Column(0), m.Column(1), m.Column(2))
	}
	if m.Translation() != (Vec3{1, 2, 3}) {
		t.Errorf("Translation() = %v, want (1, 2, 3)", m.Translation())
	}
}

func TestInverse(t *testing.T) {
	m := Translate(1, 2, 3).Mul(RotateZ(0.5)).Mul(Scale(2, 2, 2))
	p := Vec3{4, -1, 7}
	back := m.Inverse().TransformPoint(m.TransformPoint(p))
	if !back.ApproxEqual(p, 1e-4) {
		t.Errorf("Inverse round trip = %v, want %v", back, p)
	}
	if !m.Inverse().Mul(m).IsIdentity() {
		// Exact equality is too strict; compare element-wise.
		got := m.Inverse().Mul(m)
		for i, want := range Identity() {
			if d := got[i] - want; d > 1e-5 || d < -1e-5 {
				t.Errorf("M^-1 * M [%d] = %v, want %v", i, got[i], want)
			}
		}
	}
}

func TestInverseSingular(t *testing.T) {
	if got := Scale(1, 0, 1).Inverse(); !got.IsIdentity() {
		t.Errorf("singular inverse = %v, want identity", got)
	}
}
