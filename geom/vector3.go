package geom

import "math"

type Element = float32

type Vector3 struct {
	X Element
	Y Element
	Z Element
}

func NewVector3(x, y, z float32) Vector3 {
	return Vector3{X: x, Y: y, Z: z}
}

func NewVector3FromArray(arr [3]Element) Vector3 {
	return Vector3{X: arr[0], Y: arr[1], Z: arr[2]}
}

func NewVector3FromSlice(arr []Element) Vector3 {
	return Vector3{X: arr[0], Y: arr[1], Z: arr[2]}
}

// ZeroVector3 and OneVector3 are the identities for translation and scale.
func ZeroVector3() Vector3 { return Vector3{} }
func OneVector3() Vector3  { return Vector3{X: 1, Y: 1, Z: 1} }

func (v Vector3) Add(v2 Vector3) Vector3 {
	return Vector3{X: v.X + v2.X, Y: v.Y + v2.Y, Z: v.Z + v2.Z}
}

func (v Vector3) Sub(v2 Vector3) Vector3 {
	return Vector3{X: v.X - v2.X, Y: v.Y - v2.Y, Z: v.Z - v2.Z}
}

// Mul returns the component-wise product.
func (v Vector3) Mul(v2 Vector3) Vector3 {
	return Vector3{X: v.X * v2.X, Y: v.Y * v2.Y, Z: v.Z * v2.Z}
}

// Div returns the component-wise quotient.
func (v Vector3) Div(v2 Vector3) Vector3 {
	return Vector3{X: v.X / v2.X, Y: v.Y / v2.Y, Z: v.Z / v2.Z}
}

func (v Vector3) Dot(v2 Vector3) Element {
	return v.X*v2.X + v.Y*v2.Y + v.Z*v2.Z
}

func (v Vector3) Cross(v2 Vector3) Vector3 {
	return Vector3{
		X: v.Y*v2.Z - v.Z*v2.Y,
		Y: v.Z*v2.X - v.X*v2.Z,
		Z: v.X*v2.Y - v.Y*v2.X,
	}
}

func (v Vector3) Scale(s Element) Vector3 {
	return Vector3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

func (v Vector3) Len() Element {
	return Element(math.Sqrt(float64(v.X*v.X + v.Y*v.Y + v.Z*v.Z)))
}

func (v Vector3) LenSqr() Element {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

func (v Vector3) Normalize() Vector3 {
	l := v.Len()
	if l > 0 {
		return Vector3{X: v.X / l, Y: v.Y / l, Z: v.Z / l}
	}
	return Vector3{X: 1}
}

// Lerp returns v + (v2-v)*t.
func (v Vector3) Lerp(v2 Vector3, t Element) Vector3 {
	if t == 0 {
		return v
	}
	u := 1 - t
	return Vector3{X: u*v.X + t*v2.X, Y: u*v.Y + t*v2.Y, Z: u*v.Z + t*v2.Z}
}

// Component returns X, Y or Z for axis 0, 1 or 2.
func (v Vector3) Component(axis int) Element {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	case 2:
		return v.Z
	}
	panic("geom: axis out of range")
}

// WithComponent returns a copy of v with one axis replaced.
func (v Vector3) WithComponent(axis int, value Element) Vector3 {
	switch axis {
	case 0:
		v.X = value
	case 1:
		v.Y = value
	case 2:
		v.Z = value
	default:
		panic("geom: axis out of range")
	}
	return v
}

func (v Vector3) ApproxEquals(v2 Vector3, eps Element) bool {
	return Abs(v.X-v2.X) <= eps && Abs(v.Y-v2.Y) <= eps && Abs(v.Z-v2.Z) <= eps
}

func (v Vector3) Array() [3]Element {
	return [3]Element{v.X, v.Y, v.Z}
}

func Abs(v Element) Element {
	if v < 0 {
		return -v
	}
	return v
}
