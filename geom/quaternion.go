package geom

import "math"

type Quaternion struct {
	X Element
	Y Element
	Z Element
	W Element
}

func NewQuaternion(x, y, z, w float32) Quaternion {
	return Quaternion{X: x, Y: y, Z: z, W: w}
}

func NewQuaternionFromArray(arr [4]Element) Quaternion {
	return Quaternion{X: arr[0], Y: arr[1], Z: arr[2], W: arr[3]}
}

func IdentityQuaternion() Quaternion {
	return Quaternion{W: 1}
}

// NewQuaternionFromAxisAngle returns a rotation of angle radians about axis.
func NewQuaternionFromAxisAngle(axis Vector3, angle float32) Quaternion {
	a := axis.Normalize()
	s := Element(math.Sin(float64(angle) / 2))
	return Quaternion{X: a.X * s, Y: a.Y * s, Z: a.Z * s, W: Element(math.Cos(float64(angle) / 2))}
}

func (q Quaternion) Add(q2 Quaternion) Quaternion {
	return Quaternion{X: q.X + q2.X, Y: q.Y + q2.Y, Z: q.Z + q2.Z, W: q.W + q2.W}
}

func (q Quaternion) Sub(q2 Quaternion) Quaternion {
	return Quaternion{X: q.X - q2.X, Y: q.Y - q2.Y, Z: q.Z - q2.Z, W: q.W - q2.W}
}

func (q Quaternion) Scale(s Element) Quaternion {
	return Quaternion{X: q.X * s, Y: q.Y * s, Z: q.Z * s, W: q.W * s}
}

func (q Quaternion) Negate() Quaternion {
	return Quaternion{X: -q.X, Y: -q.Y, Z: -q.Z, W: -q.W}
}

func (q Quaternion) Dot(q2 Quaternion) Element {
	return q.X*q2.X + q.Y*q2.Y + q.Z*q2.Z + q.W*q2.W
}

func (q Quaternion) Len() Element {
	return Element(math.Sqrt(float64(q.LenSqr())))
}

func (q Quaternion) LenSqr() Element {
	return q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W
}

func (q Quaternion) Normalize() Quaternion {
	l := q.Len()
	if l > 0 {
		return Quaternion{X: q.X / l, Y: q.Y / l, Z: q.Z / l, W: q.W / l}
	}
	return IdentityQuaternion()
}

func (q Quaternion) Conjugate() Quaternion {
	return Quaternion{X: -q.X, Y: -q.Y, Z: -q.Z, W: q.W}
}

// Inverse returns the multiplicative inverse. Zero has no inverse and yields identity.
func (q Quaternion) Inverse() Quaternion {
	n := q.LenSqr()
	if n == 0 {
		return IdentityQuaternion()
	}
	if n == 1 {
		return q.Conjugate()
	}
	return q.Conjugate().Scale(1 / n)
}

// Mul returns the Hamilton product q*b (b applied first).
func (a Quaternion) Mul(b Quaternion) Quaternion {
	return Quaternion{
		W: a.W*b.W - a.X*b.X - a.Y*b.Y - a.Z*b.Z, // 1
		X: a.W*b.X + a.X*b.W + a.Y*b.Z - a.Z*b.Y, // i
		Y: a.W*b.Y - a.X*b.Z + a.Y*b.W + a.Z*b.X, // j
		Z: a.W*b.Z + a.X*b.Y - a.Y*b.X + a.Z*b.W, // k
	}
}

// ApplyTo rotates v.
func (q Quaternion) ApplyTo(v Vector3) Vector3 {
	u := Vector3{X: q.X, Y: q.Y, Z: q.Z}
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(u.Cross(t))
}

// Aligned returns q or -q, whichever has a non-negative dot product with ref.
func (q Quaternion) Aligned(ref Quaternion) Quaternion {
	if q.Dot(ref) < 0 {
		return q.Negate()
	}
	return q
}

func (q Quaternion) ApproxEquals(q2 Quaternion, eps Element) bool {
	return Abs(q.X-q2.X) <= eps && Abs(q.Y-q2.Y) <= eps && Abs(q.Z-q2.Z) <= eps && Abs(q.W-q2.W) <= eps
}

// IsSameRotation reports whether q and q2 describe the same rotation, ignoring sign.
func (q Quaternion) IsSameRotation(q2 Quaternion, eps Element) bool {
	return q.ApproxEquals(q2, eps) || q.ApproxEquals(q2.Negate(), eps)
}

func (q Quaternion) Array() [4]Element {
	return [4]Element{q.X, q.Y, q.Z, q.W}
}

// Log returns the natural logarithm of a unit quaternion (a pure quaternion).
func (q Quaternion) Log() Quaternion {
	x, y, z, w := float64(q.X), float64(q.Y), float64(q.Z), float64(q.W)
	vlen := math.Sqrt(x*x + y*y + z*z)
	if vlen < 1e-12 {
		return Quaternion{X: q.X, Y: q.Y, Z: q.Z}
	}
	s := math.Atan2(vlen, w) / vlen
	return Quaternion{X: Element(x * s), Y: Element(y * s), Z: Element(z * s)}
}

// Exp returns the exponential of a pure quaternion (W is ignored).
func (q Quaternion) Exp() Quaternion {
	x, y, z := float64(q.X), float64(q.Y), float64(q.Z)
	theta := math.Sqrt(x*x + y*y + z*z)
	s := 1.0
	if theta > 1e-12 {
		s = math.Sin(theta) / theta
	}
	return Quaternion{X: Element(x * s), Y: Element(y * s), Z: Element(z * s), W: Element(math.Cos(theta))}
}

// Pow raises a unit quaternion to a real power.
func (q Quaternion) Pow(t Element) Quaternion {
	return q.Log().Scale(t).Exp()
}

// Nlerp blends along the shorter arc and renormalizes.
func (q Quaternion) Nlerp(q2 Quaternion, t Element) Quaternion {
	if t == 0 {
		return q
	}
	q2 = q2.Aligned(q)
	u := 1 - t
	return Quaternion{
		X: u*q.X + t*q2.X,
		Y: u*q.Y + t*q2.Y,
		Z: u*q.Z + t*q2.Z,
		W: u*q.W + t*q2.W,
	}.Normalize()
}

// Slerp interpolates along the shorter great arc at constant angular velocity.
func (q Quaternion) Slerp(q2 Quaternion, t Element) Quaternion {
	if t == 0 {
		return q
	}
	cosTheta := float64(q.Dot(q2))
	if cosTheta < 0 {
		q2 = q2.Negate()
		cosTheta = -cosTheta
	}
	s0, s1 := 1-float64(t), float64(t)
	if 1-cosTheta > 0.001 {
		theta := math.Acos(math.Min(cosTheta, 1))
		sinTheta := math.Sin(theta)
		s0 = math.Sin((1-float64(t))*theta) / sinTheta
		s1 = math.Sin(float64(t)*theta) / sinTheta
	}
	return Quaternion{
		X: Element(s0*float64(q.X) + s1*float64(q2.X)),
		Y: Element(s0*float64(q.Y) + s1*float64(q2.Y)),
		Z: Element(s0*float64(q.Z) + s1*float64(q2.Z)),
		W: Element(s0*float64(q.W) + s1*float64(q2.W)),
	}
}

// QuickSlerp approximates Slerp by correcting the blend factor of an Nlerp.
func (q Quaternion) QuickSlerp(q2 Quaternion, t Element) Quaternion {
	if t == 0 {
		return q
	}
	d := Abs(q.Dot(q2))
	k := 0.931872 - 1.25654*d + 0.331442*d*d
	tt := t + t*(t-0.5)*(t-1)*k
	return q.Nlerp(q2, tt)
}

// SlerpArc interpolates from q toward q2 without choosing the shorter arc.
func (q Quaternion) SlerpArc(q2 Quaternion, t Element) Quaternion {
	if t == 0 {
		return q
	}
	return q.Mul(q.Conjugate().Mul(q2).Pow(t))
}

// SquadA returns the Squad control point for q1 given its neighbours q0 and q2.
func SquadA(q0, q1, q2 Quaternion) Quaternion {
	inv := q1.Conjugate()
	sum := inv.Mul(q0).Log().Add(inv.Mul(q2).Log())
	return q1.Mul(sum.Scale(-0.25).Exp())
}

// Squad evaluates the spherical quadrangle p, a, b, q at t.
func Squad(t Element, p, a, b, q Quaternion) Quaternion {
	if t == 0 {
		return p
	}
	return p.SlerpArc(q, t).SlerpArc(a.SlerpArc(b, t), 2*t*(1-t))
}

// NewQuaternionFromMatrix4 extracts the rotation of a pure rotation matrix.
func NewQuaternionFromMatrix4(m *Matrix4) Quaternion {
	m00, m01, m02 := float64(m[0]), float64(m[4]), float64(m[8])
	m10, m11, m12 := float64(m[1]), float64(m[5]), float64(m[9])
	m20, m21, m22 := float64(m[2]), float64(m[6]), float64(m[10])

	var x, y, z, w float64
	trace := m00 + m11 + m22
	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		w = 0.25 / s
		x = (m21 - m12) * s
		y = (m02 - m20) * s
		z = (m10 - m01) * s
	case m00 > m11 && m00 > m22:
		s := 2 * math.Sqrt(1+m00-m11-m22)
		w = (m21 - m12) / s
		x = 0.25 * s
		y = (m01 + m10) / s
		z = (m02 + m20) / s
	case m11 > m22:
		s := 2 * math.Sqrt(1+m11-m00-m22)
		w = (m02 - m20) / s
		x = (m01 + m10) / s
		y = 0.25 * s
		z = (m12 + m21) / s
	default:
		s := 2 * math.Sqrt(1+m22-m00-m11)
		w = (m10 - m01) / s
		x = (m02 + m20) / s
		y = (m12 + m21) / s
		z = 0.25 * s
	}
	return Quaternion{X: Element(x), Y: Element(y), Z: Element(z), W: Element(w)}
}
