package geom

import "math"

type RotationOrder int

const (
	RotationOrderXYZ RotationOrder = iota
	RotationOrderYXZ
	RotationOrderZXY
	RotationOrderZYX
)

type EulerAngles struct {
	Vector3
	Order RotationOrder
}

func NewEuler(x, y, z float32, order RotationOrder) *EulerAngles {
	return &EulerAngles{Vector3: Vector3{x, y, z}, Order: order}
}

// NewEulerDegrees builds Euler angles from degrees.
func NewEulerDegrees(x, y, z float32, order RotationOrder) *EulerAngles {
	const d = math.Pi / 180
	return NewEuler(x*d, y*d, z*d, order)
}

func (v *EulerAngles) ToQuaternion() Quaternion {
	cx := math.Cos(float64(v.X / 2))
	cy := math.Cos(float64(v.Y / 2))
	cz := math.Cos(float64(v.Z / 2))
	sx := math.Sin(float64(v.X / 2))
	sy := math.Sin(float64(v.Y / 2))
	sz := math.Sin(float64(v.Z / 2))

	switch v.Order {
	case RotationOrderXYZ:
		return Quaternion{
			X: float32(sx*cy*cz + cx*sy*sz),
			Y: float32(cx*sy*cz - sx*cy*sz),
			Z: float32(cx*cy*sz + sx*sy*cz),
			W: float32(cx*cy*cz - sx*sy*sz)}
	case RotationOrderYXZ:
		return Quaternion{
			X: float32(sx*cy*cz + cx*sy*sz),
			Y: float32(cx*sy*cz - sx*cy*sz),
			Z: float32(cx*cy*sz - sx*sy*cz),
			W: float32(cx*cy*cz + sx*sy*sz)}
	case RotationOrderZXY:
		return Quaternion{
			X: float32(sx*cy*cz - cx*sy*sz),
			Y: float32(cx*sy*cz + sx*cy*sz),
			Z: float32(cx*cy*sz + sx*sy*cz),
			W: float32(cx*cy*cz - sx*sy*sz)}
	case RotationOrderZYX:
		return Quaternion{
			X: float32(sx*cy*cz - cx*sy*sz),
			Y: float32(cx*sy*cz + sx*cy*sz),
			Z: float32(cx*cy*sz - sx*sy*cz),
			W: float32(cx*cy*cz + sx*sy*sz)}
	default:
		return IdentityQuaternion()
	}
}

var rotationOrderNames = map[string]RotationOrder{
	"XYZ": RotationOrderXYZ,
	"YXZ": RotationOrderYXZ,
	"ZXY": RotationOrderZXY,
	"ZYX": RotationOrderZYX,
}

// ParseRotationOrder accepts "XYZ", "YXZ", "ZXY" or "ZYX". Empty means XYZ.
func ParseRotationOrder(s string) (RotationOrder, bool) {
	if s == "" {
		return RotationOrderXYZ, true
	}
	o, ok := rotationOrderNames[s]
	return o, ok
}
