// Package mathx provides minimal numeric vector/matrix arithmetic: Vector3,
// which the VM's Real3 natives use, and a 4x4 Matrix4. It is deliberately
// not a general linear-algebra library; the shader packages do not import
// it.
package mathx

import "math"

// Vector3 is a fixed 3-component float64 vector, the concrete
// representation behind the Language's built-in Real3 / Vector3 handle
// type.
type Vector3 struct {
	X, Y, Z float64
}

// NewVector3 builds a Vector3 from an arbitrary-length component slice,
// zero-filling any components beyond len(c) -- the shape
// anyval.AnyValue.UnpackVector hands back.
func NewVector3(c []float64) Vector3 {
	var v Vector3
	if len(c) > 0 {
		v.X = c[0]
	}
	if len(c) > 1 {
		v.Y = c[1]
	}
	if len(c) > 2 {
		v.Z = c[2]
	}
	return v
}

// Components returns v as the 3-element slice anyval.PackVector expects.
func (v Vector3) Components() []float64 { return []float64{v.X, v.Y, v.Z} }

func (v Vector3) Add(o Vector3) Vector3 { return Vector3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vector3) Sub(o Vector3) Vector3 { return Vector3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vector3) Scale(s float64) Vector3 { return Vector3{v.X * s, v.Y * s, v.Z * s} }

func (v Vector3) Dot(o Vector3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vector3) Cross(o Vector3) Vector3 {
	return Vector3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

func (v Vector3) Length() float64 { return math.Sqrt(v.Dot(v)) }

// Normalize returns v scaled to unit length, or the zero vector if v
// itself is zero (no divide-by-zero panic on a degenerate input).
func (v Vector3) Normalize() Vector3 {
	l := v.Length()
	if l == 0 {
		return Vector3{}
	}
	return v.Scale(1 / l)
}

// Matrix4 is a 4x4 float64 matrix stored row-major, matching the
// Language's own convention (spec section 4.3). No VM native uses it, and
// the shader compiler's spirvfunc.MatrixMultiplyOperands, which flips
// operand order for SPIR-V's column-major requirement, does not use this
// type.
type Matrix4 [4][4]float64

// Identity4 returns the 4x4 identity matrix.
func Identity4() Matrix4 {
	var m Matrix4
	for i := 0; i < 4; i++ {
		m[i][i] = 1
	}
	return m
}

// Mul multiplies m by o (m then o, row-vector convention: result = m * o).
func (m Matrix4) Mul(o Matrix4) Matrix4 {
	var r Matrix4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[i][k] * o[k][j]
			}
			r[i][j] = sum
		}
	}
	return r
}

// MulVector4 applies m to the 4-component column vector v (result = m * v).
func (m Matrix4) MulVector4(v [4]float64) [4]float64 {
	var r [4]float64
	for i := 0; i < 4; i++ {
		var sum float64
		for j := 0; j < 4; j++ {
			sum += m[i][j] * v[j]
		}
		r[i] = sum
	}
	return r
}
