package geom

// Transform is a translation, rotation and scale applied in S, R, T order.
type Transform struct {
	Translation Vector3
	Rotation    Quaternion
	Scale       Vector3
}

func IdentityTransform() Transform {
	return Transform{Rotation: IdentityQuaternion(), Scale: OneVector3()}
}

func NewTransform(translation Vector3, rotation Quaternion, scale Vector3) Transform {
	return Transform{Translation: translation, Rotation: rotation, Scale: scale}
}

// CombineWithParent places t, expressed in parent's frame, into the parent's frame of reference.
// Rotations and scales multiply; the translation is rotated, then scaled by the parent.
func (t Transform) CombineWithParent(parent Transform) Transform {
	return Transform{
		Translation: parent.Rotation.ApplyTo(t.Translation).Mul(parent.Scale).Add(parent.Translation),
		Rotation:    parent.Rotation.Mul(t.Rotation),
		Scale:       parent.Scale.Mul(t.Scale),
	}
}

// ApplyTo transforms a point.
func (t Transform) ApplyTo(v Vector3) Vector3 {
	return t.Rotation.ApplyTo(v.Mul(t.Scale)).Add(t.Translation)
}

func (t Transform) Matrix() *Matrix4 {
	return NewTRSMatrix4(t.Translation, t.Rotation, t.Scale)
}

func (t Transform) IsIdentity() bool {
	return t == IdentityTransform()
}

func (t Transform) ApproxEquals(t2 Transform, eps Element) bool {
	return t.Translation.ApproxEquals(t2.Translation, eps) &&
		t.Rotation.IsSameRotation(t2.Rotation, eps) &&
		t.Scale.ApproxEquals(t2.Scale, eps)
}
