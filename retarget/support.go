package retarget

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/binzume/animedit/geom"
	"github.com/binzume/animedit/skeleton"
	"github.com/binzume/animedit/track"
)

// singularDet is float32 machine epsilon.
const singularDet = 1.1920929e-7

// DefaultDelta is the translation step used for finite differences.
const DefaultDelta = 0.01

// SensitivityMatrix approximates the Jacobian of the model-space position of
// vertex with respect to the user translation of joint. Column k is the
// vertex displacement per unit translation along axis k. The pose is not modified.
func SensitivityMatrix(pose *skeleton.Pose, joint int, mesh *skeleton.SkinnedMesh, vertex int, delta float32) *mat.Dense {
	p := pose.Clone()
	base := mesh.VertexPosition(p, vertex)
	t := p.UserTransform(joint).Translation
	m := mat.NewDense(3, 3, nil)
	for axis := 0; axis < 3; axis++ {
		p.SetUserTranslation(joint, t.WithComponent(axis, t.Component(axis)+delta))
		d := mesh.VertexPosition(p, vertex).Sub(base).Scale(1 / delta)
		for row := 0; row < 3; row++ {
			m.Set(row, axis, float64(d.Component(row)))
		}
	}
	return m
}

// SupportCorrection returns the change of joint's user translation that moves
// vertex by offset in model space. ok is false when the joint cannot move the
// vertex in every direction.
func SupportCorrection(pose *skeleton.Pose, joint int, mesh *skeleton.SkinnedMesh, vertex int, offset geom.Vector3, delta float32) (geom.Vector3, bool) {
	s := SensitivityMatrix(pose, joint, mesh, vertex, delta)
	if math.Abs(mat.Det(s)) <= singularDet {
		return geom.Vector3{}, false
	}
	var inv mat.Dense
	if err := inv.Inverse(s); err != nil {
		return geom.Vector3{}, false
	}
	var x mat.VecDense
	x.MulVec(&inv, mat.NewVecDense(3, []float64{float64(offset.X), float64(offset.Y), float64(offset.Z)}))
	return geom.NewVector3(float32(x.AtVec(0)), float32(x.AtVec(1)), float32(x.AtVec(2))), true
}

// LowestVertex returns the vertex influenced by joint with the smallest model-space Y.
func LowestVertex(pose *skeleton.Pose, mesh *skeleton.SkinnedMesh, joint int) (int, bool) {
	lowest, found := -1, false
	var y float32
	positions := mesh.VertexPositions(pose)
	for v := range positions {
		influenced := false
		for k, w := range mesh.Weights[v] {
			if w > 0 && mesh.Joints[v][k] == joint {
				influenced = true
			}
		}
		if !influenced {
			continue
		}
		if !found || positions[v].Y < y {
			lowest, y, found = v, positions[v].Y, true
		}
	}
	return lowest, found
}

// FixSupport rewrites the translation track of joint so that vertex stays at
// its height at time 0. The new track is keyed at every joint keyframe time of
// the clip. ok is false when some pose does not allow the correction.
func FixSupport(clip *track.Clip, h *skeleton.Hierarchy, mesh *skeleton.SkinnedMesh, joint, vertex int, delta float32, tween track.TweenTransforms) (*track.Clip, bool) {
	var times []float32
	for _, tr := range clip.JointTracks() {
		times = append(times, tr.Times...)
	}
	times = append(times, 0)
	slices.Sort(times)
	times = slices.Compact(times)

	duration := clip.Duration()
	pose := skeleton.NewPose(h)
	pose.SetToClip(clip, 0, tween)
	height := mesh.VertexPosition(pose, vertex).Y

	old, hasOld := clip.TransformTrack(track.JointTarget(joint))
	translations := make([]geom.Vector3, len(times))
	rotations := make([]geom.Quaternion, len(times))
	scales := make([]geom.Vector3, len(times))
	for i, t := range times {
		pose.SetToClip(clip, t, tween)
		offset := geom.NewVector3(0, height-mesh.VertexPosition(pose, vertex).Y, 0)
		c, ok := SupportCorrection(pose, joint, mesh, vertex, offset, delta)
		if !ok {
			return nil, false
		}
		user := pose.UserTransform(joint)
		translations[i] = user.Translation.Add(c)
		rotations[i] = user.Rotation
		scales[i] = user.Scale
	}

	fixed := track.NewTransformTrack(track.JointTarget(joint), times,
		track.Some(translations), track.None[geom.Quaternion](), track.None[geom.Vector3]())
	if hasOld && old.Rotations.Present() {
		fixed.Rotations = track.Some(rotations)
	}
	if hasOld && old.Scales.Present() {
		fixed.Scales = track.Some(scales)
	}

	result := clip.Clone()
	replaced := false
	for i, tr := range result.Tracks {
		if t, ok := tr.(*track.TransformTrack); ok && t.Target == fixed.Target {
			result.Tracks[i] = fixed
			replaced = true
			break
		}
	}
	if !replaced {
		result.Add(fixed)
	}
	result.SetDuration(duration)
	return result, true
}
