package skeleton

import (
	"github.com/binzume/animedit/geom"
	"github.com/binzume/animedit/track"
)

// Pose holds a user transform per joint: the deviation from the joint's bind
// transform. Local and model transforms are derived on demand.
type Pose struct {
	h    *Hierarchy
	user []geom.Transform
}

// NewPose returns the bind pose of h.
func NewPose(h *Hierarchy) *Pose {
	p := &Pose{h: h, user: make([]geom.Transform, h.NumJoints())}
	p.ResetToBind()
	return p
}

// Clone copies the user transforms. The hierarchy is shared.
func (p *Pose) Clone() *Pose {
	user := make([]geom.Transform, len(p.user))
	copy(user, p.user)
	return &Pose{h: p.h, user: user}
}

func (p *Pose) Hierarchy() *Hierarchy { return p.h }

func (p *Pose) ResetToBind() {
	for i := range p.user {
		p.user[i] = geom.IdentityTransform()
	}
}

func (p *Pose) UserTransform(j int) geom.Transform {
	p.h.checkJoint(j)
	return p.user[j]
}

func (p *Pose) SetUserTransform(j int, t geom.Transform) {
	p.h.checkJoint(j)
	p.user[j] = t
}

func (p *Pose) SetUserRotation(j int, q geom.Quaternion) {
	p.h.checkJoint(j)
	p.user[j].Rotation = q
}

func (p *Pose) SetUserTranslation(j int, v geom.Vector3) {
	p.h.checkJoint(j)
	p.user[j].Translation = v
}

func (p *Pose) SetUserScale(j int, v geom.Vector3) {
	p.h.checkJoint(j)
	p.user[j].Scale = v
}

// LocalFromUser applies a user transform to a bind transform: translations
// add, rotations multiply (bind first) and scales multiply component-wise.
func LocalFromUser(bind, user geom.Transform) geom.Transform {
	return geom.Transform{
		Translation: bind.Translation.Add(user.Translation),
		Rotation:    bind.Rotation.Mul(user.Rotation),
		Scale:       bind.Scale.Mul(user.Scale),
	}
}

// UserFromLocal is the inverse of LocalFromUser.
func UserFromLocal(bind, local geom.Transform) geom.Transform {
	return geom.Transform{
		Translation: local.Translation.Sub(bind.Translation),
		Rotation:    bind.Rotation.Inverse().Mul(local.Rotation),
		Scale:       local.Scale.Div(bind.Scale),
	}
}

func (p *Pose) LocalTransform(j int) geom.Transform {
	p.h.checkJoint(j)
	return LocalFromUser(p.h.Bind(j), p.user[j])
}

// ModelTransform composes local transforms from the root down to j.
func (p *Pose) ModelTransform(j int) geom.Transform {
	local := p.LocalTransform(j)
	if parent := p.h.Parent(j); parent >= 0 {
		return local.CombineWithParent(p.ModelTransform(parent))
	}
	return local
}

// ModelTransforms returns the model transform of every joint.
func (p *Pose) ModelTransforms() []geom.Transform {
	model := make([]geom.Transform, len(p.user))
	for _, j := range p.h.PreOrder() {
		model[j] = p.LocalTransform(j)
		if parent := p.h.Parent(j); parent >= 0 {
			model[j] = model[j].CombineWithParent(model[parent])
		}
	}
	return model
}

func (p *Pose) ModelOrientation(j int) geom.Quaternion {
	local := p.LocalTransform(j).Rotation
	if parent := p.h.Parent(j); parent >= 0 {
		return p.ModelOrientation(parent).Mul(local)
	}
	return local
}

func (p *Pose) modelOrientations() []geom.Quaternion {
	ori := make([]geom.Quaternion, len(p.user))
	for _, j := range p.h.PreOrder() {
		ori[j] = p.LocalTransform(j).Rotation
		if parent := p.h.Parent(j); parent >= 0 {
			ori[j] = ori[parent].Mul(ori[j])
		}
	}
	return ori
}

// UserForModel returns the user rotation that gives joint j the model-space
// orientation q, given the current orientations of its ancestors.
func (p *Pose) UserForModel(j int, q geom.Quaternion) geom.Quaternion {
	p.h.checkJoint(j)
	if parent := p.h.Parent(j); parent >= 0 {
		return userForModel(p.h.Bind(j).Rotation, p.ModelOrientation(parent), q)
	}
	return p.h.Bind(j).Rotation.Inverse().Mul(q)
}

func userForModel(bind, parentModel, q geom.Quaternion) geom.Quaternion {
	return bind.Inverse().Mul(parentModel.Inverse().Mul(q))
}

// SkinningMatrix maps a vertex from bind pose to its posed position under joint j.
func (p *Pose) SkinningMatrix(j int) *geom.Matrix4 {
	return p.ModelTransform(j).Matrix().Mul(p.h.InverseBindMatrix(j))
}

func (p *Pose) SkinningMatrices() []*geom.Matrix4 {
	model := p.ModelTransforms()
	m := make([]*geom.Matrix4, len(model))
	for j, t := range model {
		m[j] = t.Matrix().Mul(p.h.InverseBindMatrix(j))
	}
	return m
}

// SetToClip resets the pose and applies every joint track of clip sampled at time.
// Joint tracks hold user transforms; node tracks are ignored.
func (p *Pose) SetToClip(clip *track.Clip, time float32, tween track.TweenTransforms) {
	p.ResetToBind()
	duration := clip.Duration()
	for _, tr := range clip.Tracks {
		t, ok := tr.(*track.TransformTrack)
		if !ok || !t.Target.IsJoint() || t.Target.Joint >= len(p.user) {
			continue
		}
		p.user[t.Target.Joint] = tween.Sample(t, time, duration)
	}
}

// SetToRetarget poses this skeleton like source. Each mapped joint gets the
// model orientation of its source joint followed by the mapping's twist.
// Unmapped joints stay in bind pose. Only rotations are transferred.
func (p *Pose) SetToRetarget(source *Pose, mapping *SkeletonMapping) {
	sourceOri := source.modelOrientations()
	ori := make([]geom.Quaternion, len(p.user))
	for _, j := range p.h.PreOrder() {
		p.user[j] = geom.IdentityTransform()
		parent := p.h.Parent(j)
		if m, ok := mapping.Get(p.h.Name(j)); ok {
			if sj, ok := source.h.Find(m.Source); ok {
				var user geom.Quaternion
				if parent >= 0 {
					user = userForModel(p.h.Bind(j).Rotation, ori[parent], sourceOri[sj])
				} else {
					user = p.h.Bind(j).Rotation.Inverse().Mul(sourceOri[sj])
				}
				p.user[j].Rotation = user.Mul(m.Twist).Normalize()
			}
		}
		ori[j] = p.LocalTransform(j).Rotation
		if parent >= 0 {
			ori[j] = ori[parent].Mul(ori[j])
		}
	}
}

// Capture records the pose as a clip with one keyframe at t=0 for every joint
// not in bind pose.
func (p *Pose) Capture(name string) *track.Clip {
	clip := track.NewClip(name)
	for _, j := range p.h.PreOrder() {
		u := p.user[j]
		if u.IsIdentity() {
			continue
		}
		clip.Add(track.NewTransformTrack(track.JointTarget(j), []float32{0},
			track.Some([]geom.Vector3{u.Translation}),
			track.Some([]geom.Quaternion{u.Rotation}),
			track.Some([]geom.Vector3{u.Scale})))
	}
	clip.SetDuration(0)
	return clip
}
