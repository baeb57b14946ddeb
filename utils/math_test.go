package utils

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestTransforms(t *testing.T) {
	m := mgl32.Translate3D(1, 2, 3).Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(90))).Mul4(mgl32.Scale3D(2, 2, 2))

	tests := []struct {
		name string
		got  mgl32.Vec3
		want mgl32.Vec3
	}{
		{"position", Position(m), mgl32.Vec3{1, 2, 3}},
		{"point", TransformPoint(m, mgl32.Vec3{1, 0, 0}), mgl32.Vec3{1, 4, 3}},
		{"vector", TransformVector(m, mgl32.Vec3{1, 0, 0}), mgl32.Vec3{0, 2, 0}},
		{"normal", TransformNormal(m, mgl32.Vec3{1, 0, 0}), mgl32.Vec3{0, 1, 0}},
		{"direction", TransformDirection(m, mgl32.Vec3{0, 1, 0}), mgl32.Vec3{-1, 0, 0}},
		{"linear", TransformPoint(LinearOnly(m), mgl32.Vec3{0, 0, 1}), mgl32.Vec3{0, 0, 2}},
	}
	for _, tt := range tests {
		assert.True(t, tt.got.ApproxEqualThreshold(tt.want, 1e-5), "%s: %v != %v", tt.name, tt.got, tt.want)
	}
}

func TestRotationOnlyMirrored(t *testing.T) {
	r := RotationOnly(mgl32.Scale3D(2, 3, -4))
	assert.True(t, r.ApproxEqualThreshold(mgl32.Scale3D(1, 1, -1), 1e-5), "%v", r)
	assert.True(t, IsIdentity(RotationOnly(mgl32.Scale3D(5, 5, 5))))
	assert.True(t, IsZeroVec3(mgl32.Vec3{1e-7, 0, 0}))
}
