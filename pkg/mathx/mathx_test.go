package mathx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVector3AddSubScale(t *testing.T) {
	a := Vector3{1, 2, 3}
	b := Vector3{4, 5, 6}
	assert.Equal(t, Vector3{5, 7, 9}, a.Add(b))
	assert.Equal(t, Vector3{-3, -3, -3}, a.Sub(b))
	assert.Equal(t, Vector3{2, 4, 6}, a.Scale(2))
}

func TestVector3DotAndCross(t *testing.T) {
	x := Vector3{1, 0, 0}
	y := Vector3{0, 1, 0}
	assert.Equal(t, 0.0, x.Dot(y))
	assert.Equal(t, Vector3{0, 0, 1}, x.Cross(y))
}

func TestVector3NormalizeZeroVectorStaysZero(t *testing.T) {
	assert.Equal(t, Vector3{}, Vector3{}.Normalize())
}

func TestVector3NormalizeUnitLength(t *testing.T) {
	v := Vector3{3, 0, 4}.Normalize()
	assert.InDelta(t, 1.0, v.Length(), 1e-9)
}

func TestMatrix4IdentityIsMultiplicativeIdentity(t *testing.T) {
	m := Matrix4{{1, 2, 3, 4}, {5, 6, 7, 8}, {9, 10, 11, 12}, {13, 14, 15, 16}}
	assert.Equal(t, m, m.Mul(Identity4()))
}

func TestMatrix4MulVector4(t *testing.T) {
	m := Identity4()
	v := [4]float64{1, 2, 3, 4}
	assert.Equal(t, v, m.MulVector4(v))
}
