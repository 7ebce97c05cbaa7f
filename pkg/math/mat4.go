package math

import "github.com/chewxy/math32"

// Mat4 is a 4x4 matrix in column-major order.
// Layout: [m0 m4 m8  m12]
//
//	[m1 m5 m9  m13]
//	[m2 m6 m10 m14]
//	[m3 m7 m11 m15]
//
// Transforms in this package are affine; the bottom row is assumed to be
// (0, 0, 0, 1).
type Mat4 [16]float32

// Identity returns an identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translate returns a translation matrix.
func Translate(x, y, z float32) Mat4 {
	m := Identity()
	m[12], m[13], m[14] = x, y, z
	return m
}

// Scale returns a scale matrix.
func Scale(x, y, z float32) Mat4 {
	m := Identity()
	m[0], m[5], m[10] = x, y, z
	return m
}

// RotateZ returns a counter-clockwise rotation about +Z, in radians.
func RotateZ(angle float32) Mat4 {
	s, c := math32.Sincos(angle)
	return FromAxes(Vec3{c, s, 0}, Vec3{-s, c, 0}, UnitZ, Vec3{})
}

// FromAxes builds a matrix whose columns are u, v, w and whose translation is origin.
func FromAxes(u, v, w, origin Vec3) Mat4 {
	return Mat4{
		u.X, u.Y, u.Z, 0,
		v.X, v.Y, v.Z, 0,
		w.X, w.Y, w.Z, 0,
		origin.X, origin.Y, origin.Z, 1,
	}
}

// Mul returns m * other, so other is applied first.
func (m Mat4) Mul(other Mat4) Mat4 {
	var result Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			result[col*4+row] = m[row]*other[col*4] +
				m[4+row]*other[col*4+1] +
				m[8+row]*other[col*4+2] +
				m[12+row]*other[col*4+3]
		}
	}
	return result
}

// TransformPoint applies the full affine transform to p.
func (m Mat4) TransformPoint(p Vec3) Vec3 {
	return m.TransformDirection(p).Add(m.Translation())
}

// TransformDirection applies the linear part of m, ignoring translation.
func (m Mat4) TransformDirection(d Vec3) Vec3 {
	return Vec3{
		m[0]*d.X + m[4]*d.Y + m[8]*d.Z,
		m[1]*d.X + m[5]*d.Y + m[9]*d.Z,
		m[2]*d.X + m[6]*d.Y + m[10]*d.Z,
	}
}

// TransformNormal transforms a direction and renormalizes it. Exact for
// rotations and uniform scale.
func (m Mat4) TransformNormal(n Vec3) Vec3 {
	return m.TransformDirection(n).Normalize()
}

// IsIdentity reports whether m is exactly the identity matrix.
func (m Mat4) IsIdentity() bool {
	return m == Identity()
}

// Column returns the first three components of column i.
func (m Mat4) Column(i int) Vec3 {
	return Vec3{m[i*4], m[i*4+1], m[i*4+2]}
}

// Translation returns the translation component.
func (m Mat4) Translation() Vec3 {
	return m.Column(3)
}

// Inverse returns the inverse of an affine transform. A singular linear
// part yields the identity.
func (m Mat4) Inverse() Mat4 {
	a, b, c := m.Column(0), m.Column(1), m.Column(2)

	// Rows of the inverse linear part are the cross products of the columns.
	r0 := b.Cross(c)
	r1 := c.Cross(a)
	r2 := a.Cross(b)
	det := a.Dot(r0)
	if math32.Abs(det) < 1e-12 {
		return Identity()
	}
	inv := 1 / det
	r0, r1, r2 = r0.Scale(inv), r1.Scale(inv), r2.Scale(inv)

	t := m.Translation()
	return Mat4{
		r0.X, r1.X, r2.X, 0,
		r0.Y, r1.Y, r2.Y, 0,
		r0.Z, r1.Z, r2.Z, 0,
		-r0.Dot(t), -r1.Dot(t), -r2.Dot(t), 1,
	}
}
