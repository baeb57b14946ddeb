package utils

import (
	"github.com/go-gl/mathgl/mgl32"
)

const Epsilon = 1e-5

// RotationOnly returns matrix with orthonormalized rotation part of m (no scale, no translation)
func RotationOnly(m mgl32.Mat4) mgl32.Mat4 {
	x := m.Col(0).Vec3()
	y := m.Col(1).Vec3()
	z := m.Col(2).Vec3()

	x = safeNormalize(x, mgl32.Vec3{1, 0, 0})
	y = safeNormalize(y.Sub(x.Mul(x.Dot(y))), mgl32.Vec3{0, 1, 0})
	zn := x.Cross(y)
	if zn.Dot(z) < 0 {
		// mirrored basis, keep handedness of source
		zn = zn.Mul(-1)
	}

	return mgl32.Mat4{
		x[0], x[1], x[2], 0,
		y[0], y[1], y[2], 0,
		zn[0], zn[1], zn[2], 0,
		0, 0, 0, 1,
	}
}

// LinearOnly returns m without translation part
func LinearOnly(m mgl32.Mat4) mgl32.Mat4 {
	m[12], m[13], m[14] = 0, 0, 0
	return m
}

func safeNormalize(v mgl32.Vec3, fallback mgl32.Vec3) mgl32.Vec3 {
	if l := v.Len(); l > Epsilon {
		return v.Mul(1 / l)
	}
	return fallback
}

func Position(m mgl32.Mat4) mgl32.Vec3 {
	return mgl32.Vec3{m[12], m[13], m[14]}
}

func TransformPoint(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}

func TransformVector(m mgl32.Mat4, v mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(v.Vec4(0)).Vec3()
}

// TransformNormal uses inverse transpose of linear part
func TransformNormal(m mgl32.Mat4, n mgl32.Vec3) mgl32.Vec3 {
	nm := m.Mat3().Inv().Transpose()
	return safeNormalize(nm.Mul3x1(n), n)
}

// TransformDirection rotates v without scale
func TransformDirection(m mgl32.Mat4, v mgl32.Vec3) mgl32.Vec3 {
	return safeNormalize(RotationOnly(m).Mul4x1(v.Vec4(0)).Vec3(), v)
}

func IsIdentity(m mgl32.Mat4) bool {
	return m.ApproxEqualThreshold(mgl32.Ident4(), Epsilon)
}

func IsZeroVec3(v mgl32.Vec3) bool {
	return v.ApproxEqualThreshold(mgl32.Vec3{}, Epsilon)
}
