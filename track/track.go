package track

import (
	"fmt"

	"github.com/tiendc/go-deepcopy"

	"github.com/binzume/animedit/geom"
)

// Target identifies what a transform track animates: a skeleton joint by index,
// or a scene node by name when Joint is negative.
type Target struct {
	Joint int
	Node  string
}

func JointTarget(joint int) Target {
	return Target{Joint: joint}
}

func NodeTarget(name string) Target {
	return Target{Joint: -1, Node: name}
}

func (t Target) IsJoint() bool {
	return t.Joint >= 0
}

func (t Target) String() string {
	if t.IsJoint() {
		return fmt.Sprintf("joint %d", t.Joint)
	}
	return fmt.Sprintf("node %q", t.Node)
}

// Track is a TransformTrack or a MorphTrack.
type Track interface {
	KeyTimes() []float32
	LastTime() float32
	CloneTrack() Track
}

// TransformTrack holds keyframes for translation, rotation and scale of one target.
// Joint tracks hold user transforms, the deviation from the joint's bind transform.
// Node tracks hold local transforms.
type TransformTrack struct {
	Target       Target
	Times        []float32
	Translations Channel[geom.Vector3]
	Rotations    Channel[geom.Quaternion]
	Scales       Channel[geom.Vector3]
}

// NewTransformTrack panics if a present channel's length differs from len(times)
// or times are not ascending.
func NewTransformTrack(target Target, times []float32, translations Channel[geom.Vector3], rotations Channel[geom.Quaternion], scales Channel[geom.Vector3]) *TransformTrack {
	tr := &TransformTrack{
		Target:       target,
		Times:        times,
		Translations: translations,
		Rotations:    rotations,
		Scales:       scales,
	}
	if err := tr.Validate(); err != nil {
		panic("track: " + err.Error())
	}
	return tr
}

func (tr *TransformTrack) Validate() error {
	n := len(tr.Times)
	if n == 0 {
		return fmt.Errorf("%v: no keyframes", tr.Target)
	}
	for i := 1; i < n; i++ {
		if !(tr.Times[i] > tr.Times[i-1]) {
			return fmt.Errorf("%v: times not ascending at keyframe %d", tr.Target, i)
		}
	}
	if tr.Translations.Present() && tr.Translations.Len() != n {
		return fmt.Errorf("%v: %d translations for %d keyframes", tr.Target, tr.Translations.Len(), n)
	}
	if tr.Rotations.Present() && tr.Rotations.Len() != n {
		return fmt.Errorf("%v: %d rotations for %d keyframes", tr.Target, tr.Rotations.Len(), n)
	}
	if tr.Scales.Present() && tr.Scales.Len() != n {
		return fmt.Errorf("%v: %d scales for %d keyframes", tr.Target, tr.Scales.Len(), n)
	}
	return nil
}

func (tr *TransformTrack) KeyTimes() []float32 { return tr.Times }

func (tr *TransformTrack) Len() int { return len(tr.Times) }

func (tr *TransformTrack) LastTime() float32 {
	return tr.Times[len(tr.Times)-1]
}

// Keyframe returns keyframe i with absent channels filled by identity.
func (tr *TransformTrack) Keyframe(i int) geom.Transform {
	return geom.Transform{
		Translation: tr.Translations.At(i, geom.ZeroVector3()),
		Rotation:    tr.Rotations.At(i, geom.IdentityQuaternion()),
		Scale:       tr.Scales.At(i, geom.OneVector3()),
	}
}

// Clone returns a deep copy.
func (tr *TransformTrack) Clone() *TransformTrack {
	var dst TransformTrack
	if err := deepcopy.Copy(&dst, tr); err != nil {
		panic("track: clone: " + err.Error())
	}
	return &dst
}

func (tr *TransformTrack) CloneTrack() Track { return tr.Clone() }

// pick keeps the keyframes at the given indices, in order.
func (tr *TransformTrack) pick(indices []int) *TransformTrack {
	times := make([]float32, len(indices))
	for i, k := range indices {
		times[i] = tr.Times[k]
	}
	return &TransformTrack{
		Target:       tr.Target,
		Times:        times,
		Translations: tr.Translations.pick(indices),
		Rotations:    tr.Rotations.pick(indices),
		Scales:       tr.Scales.pick(indices),
	}
}

// MorphTrack holds blend-shape weights of one node.
type MorphTrack struct {
	Node    string
	Times   []float32
	Weights [][]float32
}

func (tr *MorphTrack) KeyTimes() []float32 { return tr.Times }

func (tr *MorphTrack) LastTime() float32 {
	return tr.Times[len(tr.Times)-1]
}

func (tr *MorphTrack) Clone() *MorphTrack {
	var dst MorphTrack
	if err := deepcopy.Copy(&dst, tr); err != nil {
		panic("track: clone: " + err.Error())
	}
	return &dst
}

func (tr *MorphTrack) CloneTrack() Track { return tr.Clone() }
