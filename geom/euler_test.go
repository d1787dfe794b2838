package geom

import (
	"math"
	"testing"
)

func TestEuler(t *testing.T) {
	const eps = 0.00001
	axes := [3]Vector3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

	for i, c := range []struct {
		order   RotationOrder
		axes    [3]int // application order of the axis rotations
		x, y, z float32
	}{
		{RotationOrderXYZ, [3]int{0, 1, 2}, 10, 20, 30},
		{RotationOrderXYZ, [3]int{0, 1, 2}, 10, 80, 0},
		{RotationOrderYXZ, [3]int{1, 0, 2}, 10, 20, 30},
		{RotationOrderYXZ, [3]int{1, 0, 2}, 80, 10, 0},
		{RotationOrderZXY, [3]int{2, 0, 1}, 10, 20, 30},
		{RotationOrderZXY, [3]int{2, 0, 1}, 80, 0, 10},
		{RotationOrderZYX, [3]int{2, 1, 0}, 10, 20, 30},
		{RotationOrderZYX, [3]int{2, 1, 0}, 0, 80, 10},
	} {
		e := NewEulerDegrees(c.x, c.y, c.z, c.order)
		q := e.ToQuaternion()
		angles := [3]Element{e.X, e.Y, e.Z}
		want := IdentityQuaternion()
		for _, a := range c.axes {
			want = want.Mul(NewQuaternionFromAxisAngle(axes[a], angles[a]))
		}

		if !q.ApproxEquals(want, eps) {
			t.Error("euler: ", i, q, want)
		}
		if Abs(q.Len()-1) > eps {
			t.Error("Quaternion.Len() != 1", e)
		}
	}
	if e := NewEulerDegrees(180, 0, 0, RotationOrderXYZ); Abs(e.X-math.Pi) > eps {
		t.Error("degrees: ", e.X)
	}
}

func TestParseRotationOrder(t *testing.T) {
	if o, ok := ParseRotationOrder(""); !ok || o != RotationOrderXYZ {
		t.Error("default order")
	}
	if o, ok := ParseRotationOrder("ZXY"); !ok || o != RotationOrderZXY {
		t.Error("ZXY")
	}
	if _, ok := ParseRotationOrder("XZY"); ok {
		t.Error("XZY is not supported")
	}
}
