package quarkgl

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Scalar is the numeric type used by QuarkGL math operations.
type Scalar = float32

// Vec3 is a 3D vector.
type Vec3 = mgl32.Vec3

// Vec4 is a 4D vector.
type Vec4 = mgl32.Vec4

// Mat4 is a 4x4 matrix stored column-major (m[col*4+row]).
type Mat4 = mgl32.Mat4

// FullTurn is one revolution in radians.
const FullTurn Scalar = 2 * math32.Pi

var (
	// ErrDegenerateCamera means the camera basis could not be derived: the
	// camera sits at the origin or looks along the up/right hint.
	ErrDegenerateCamera = errors.New("quarkgl: degenerate camera basis")

	// ErrInvalidProjection means the projection parameters would divide by
	// zero or flip the frustum.
	ErrInvalidProjection = errors.New("quarkgl: invalid projection parameters")
)

// epsilon bounds what counts as a zero-length vector.
const epsilon = 1e-6

func V3(x, y, z Scalar) Vec3 { return Vec3{x, y, z} }

func Dot(a, b Vec3) Scalar   { return a.Dot(b) }
func Cross(a, b Vec3) Vec3   { return a.Cross(b) }
func Len(v Vec3) Scalar      { return math32.Sqrt(v.Dot(v)) }
func Mat4Identity() Mat4     { return mgl32.Ident4() }
func Mat4Mul(a, b Mat4) Mat4 { return a.Mul4(b) }

// Normalize returns v scaled to unit length, or the zero vector when v has no length.
func Normalize(v Vec3) Vec3 {
	l := Len(v)
	if l < epsilon {
		return Vec3{}
	}
	return v.Mul(1 / l)
}

// Mat4MulV4 transforms v as a row vector: v·M in row-vector notation.
func Mat4MulV4(m Mat4, v Vec4) Vec4 { return m.Mul4x1(v) }

// ViewMatrix builds the inverse camera transform for a camera at pos that
// always looks at the origin.
//
// The basis is corrected twice so that it stays orthonormal even when up and
// rightHint are not perpendicular to the look direction:
//
//	look  = normalize(-pos)
//	up    = normalize(look × rightHint)
//	right = normalize(up × look)
//
// When rightHint is the zero vector it is derived from up as normalize(up × look).
func ViewMatrix(pos, up, rightHint Vec3) (Mat4, error) {
	look := Normalize(pos.Mul(-1))
	if look == (Vec3{}) {
		return Mat4{}, ErrDegenerateCamera
	}

	hint := rightHint
	if hint == (Vec3{}) {
		hint = Normalize(Cross(up, look))
		if hint == (Vec3{}) {
			return Mat4{}, ErrDegenerateCamera
		}
	}

	u := Normalize(Cross(look, hint))
	if u == (Vec3{}) {
		return Mat4{}, ErrDegenerateCamera
	}
	r := Normalize(Cross(u, look))
	if r == (Vec3{}) {
		return Mat4{}, ErrDegenerateCamera
	}

	xp := -Dot(pos, r)
	yp := -Dot(pos, u)
	zp := -Dot(pos, look)

	return Mat4{
		r.X(), u.X(), look.X(), 0,
		r.Y(), u.Y(), look.Y(), 0,
		r.Z(), u.Z(), look.Z(), 0,
		xp, yp, zp, 1,
	}, nil
}

// ProjectionMatrix builds a perspective projection mapping view depth
// [zNear, zFar] to [0, 1] with Q = zFar/(zFar-zNear).
func ProjectionMatrix(fovY, aspect, zNear, zFar Scalar) (Mat4, error) {
	if aspect <= 0 || zFar == zNear || fovY <= 0 || fovY >= math32.Pi {
		return Mat4{}, ErrInvalidProjection
	}
	h := 1 / math32.Tan(fovY*0.5)
	w := h / aspect
	q := zFar / (zFar - zNear)

	return Mat4{
		w, 0, 0, 0,
		0, h, 0, 0,
		0, 0, q, 1,
		0, 0, -q * zNear, 0,
	}, nil
}

// WorldMatrix is a rotation of angle radians about the vertical axis.
func WorldMatrix(angle Scalar) Mat4 {
	c := math32.Cos(angle)
	s := math32.Sin(angle)
	return Mat4{
		c, 0, -s, 0,
		0, 1, 0, 0,
		s, 0, c, 0,
		0, 0, 0, 1,
	}
}

// Basis returns the right, up and look axes encoded in a view matrix built by ViewMatrix.
func Basis(view Mat4) (right, up, look Vec3) {
	right = Vec3{view[0], view[4], view[8]}
	up = Vec3{view[1], view[5], view[9]}
	look = Vec3{view[2], view[6], view[10]}
	return right, up, look
}

// WrapAngle folds a into [0, FullTurn).
func WrapAngle(a Scalar) Scalar {
	a = math32.Mod(a, FullTurn)
	if a < 0 {
		a += FullTurn
	}
	if a >= FullTurn {
		a = 0
	}
	return a
}
