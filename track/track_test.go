package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binzume/animedit/geom"
	"github.com/binzume/animedit/interp"
)

func rotY(rad float32) geom.Quaternion {
	return geom.NewQuaternionFromAxisAngle(geom.NewVector3(0, 1, 0), rad)
}

func sampleTrack() *TransformTrack {
	return NewTransformTrack(JointTarget(1),
		[]float32{0, 0.25, 0.75, 1.5},
		Some([]geom.Vector3{
			geom.NewVector3(0, 0, 0),
			geom.NewVector3(1, 0, 0),
			geom.NewVector3(2, 1, 0),
			geom.NewVector3(4, 1, 0),
		}),
		Some([]geom.Quaternion{rotY(0), rotY(0.5), rotY(1), rotY(1.5)}),
		None[geom.Vector3](),
	)
}

func TestChannel(t *testing.T) {
	c := Some([]float32{1, 2})
	assert.True(t, c.Present())
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, float32(2), c.At(1, 9))

	none := None[float32]()
	assert.False(t, none.Present())
	assert.Nil(t, none.Values())
	assert.Equal(t, float32(9), none.At(1, 9))

	assert.True(t, Some[float32](nil).Present())
}

func TestTransformTrackValidate(t *testing.T) {
	tr := sampleTrack()
	require.NoError(t, tr.Validate())
	assert.Equal(t, float32(1.5), tr.LastTime())
	assert.Equal(t, geom.OneVector3(), tr.Keyframe(2).Scale)

	assert.Panics(t, func() {
		NewTransformTrack(JointTarget(0), []float32{0, 1}, Some([]geom.Vector3{{}}), None[geom.Quaternion](), None[geom.Vector3]())
	})
	assert.Panics(t, func() {
		NewTransformTrack(NodeTarget("a"), []float32{1, 0}, None[geom.Vector3](), None[geom.Quaternion](), None[geom.Vector3]())
	})
}

func TestCloneIsDeep(t *testing.T) {
	tr := sampleTrack()
	c := tr.Clone()
	assert.Equal(t, tr, c)

	c.Times[1] = 0.5
	c.Translations.Values()[0] = geom.NewVector3(9, 9, 9)
	assert.Equal(t, float32(0.25), tr.Times[1])
	assert.Equal(t, geom.ZeroVector3(), tr.Translations.Values()[0])
	assert.False(t, c.Scales.Present())

	m := &MorphTrack{Node: "face", Times: []float32{0, 1}, Weights: [][]float32{{0, 1}, {1, 0}}}
	mc := m.Clone()
	mc.Weights[0][0] = 5
	assert.Equal(t, float32(0), m.Weights[0][0])
}

func TestClipDuration(t *testing.T) {
	clip := NewClip("walk", sampleTrack(), &MorphTrack{Node: "face", Times: []float32{0, 2}, Weights: [][]float32{{0}, {1}}})
	assert.Equal(t, float32(2), clip.Duration())
	assert.False(t, clip.HasExplicitDuration())
	require.NoError(t, clip.Validate())

	clip.SetDuration(3)
	assert.Equal(t, float32(3), clip.Duration())
	require.NoError(t, clip.Validate())

	clip.SetDuration(1)
	assert.Error(t, clip.Validate())

	c := clip.Clone()
	assert.Equal(t, float32(1), c.Duration())
	assert.Len(t, c.Tracks, 2)

	tr, ok := clip.TransformTrack(JointTarget(1))
	require.True(t, ok)
	assert.Same(t, clip.Tracks[0], Track(tr))
	_, ok = clip.TransformTrack(JointTarget(2))
	assert.False(t, ok)
	assert.Len(t, clip.JointTracks(), 1)
}

func TestSampleAndCurve(t *testing.T) {
	tr := sampleTrack()
	for _, tw := range []TweenTransforms{
		DefaultTweenTransforms(),
		{Translations: interp.LoopFdcSpline, Rotations: interp.LoopSpline, Scales: interp.LoopLerp},
	} {
		curve := tw.Precompute(tr, 2)
		for i := 0; i <= 40; i++ {
			time := float32(i) * 0.05
			assert.Equal(t, tw.Sample(tr, time, 2), curve.Sample(time))
		}
	}

	got := DefaultTweenTransforms().Sample(tr, 0.5, 2)
	assert.Equal(t, geom.NewVector3(1.5, 0.5, 0), got.Translation)
	assert.True(t, got.Rotation.ApproxEquals(rotY(0.75), 1e-6))
	assert.Equal(t, geom.OneVector3(), got.Scale)
}

func TestBuilder(t *testing.T) {
	initial := geom.NewTransform(geom.NewVector3(1, 0, 0), rotY(0).Scale(2), geom.OneVector3())
	b := NewTransformTrackBuilder(NodeTarget("hips"), 2, initial)
	b.SetTechniques(interp.Nlerp, interp.Lerp)
	b.AddTranslation(1, geom.NewVector3(3, 0, 0))
	b.AddRotation(0.5, rotY(1).Scale(3))
	b.AddScale(2, geom.NewVector3(2, 2, 2))
	b.AddTranslation(1, geom.NewVector3(5, 0, 0))

	tr := b.Build()
	require.NoError(t, tr.Validate())
	assert.Equal(t, []float32{0, 0.5, 1, 2}, tr.Times)
	assert.Equal(t, NodeTarget("hips"), tr.Target)

	// Seeded rotation is normalized, later insertions too.
	assert.Equal(t, rotY(0), tr.Rotations.Values()[0])
	assert.InDelta(t, 1, tr.Rotations.Values()[1].Len(), 1e-6)
	// Re-inserting replaces; missing times are interpolated.
	assert.Equal(t, geom.NewVector3(5, 0, 0), tr.Translations.Values()[2])
	assert.Equal(t, geom.NewVector3(3, 0, 0), tr.Translations.Values()[1])
	assert.Equal(t, geom.NewVector3(5, 0, 0), tr.Translations.Values()[3])
	assert.Equal(t, geom.NewVector3(1.25, 1.25, 1.25), tr.Scales.Values()[1])

	assert.Panics(t, func() { b.AddRotation(3, rotY(0)) })
}

func TestBuilderDefaultTechniques(t *testing.T) {
	b := NewTransformTrackBuilder(JointTarget(0), 4, geom.IdentityTransform())
	b.AddRotation(1, rotY(1))
	b.AddRotation(2, rotY(2))
	b.AddTranslation(3, geom.NewVector3(0, 3, 0))

	tr := b.Build()
	assert.Equal(t, []float32{0, 1, 2, 3}, tr.Times)
	keys := []geom.Quaternion{geom.IdentityQuaternion(), rotY(1).Normalize(), rotY(2).Normalize()}
	want := interp.LoopSpline.Interpolate(3, []float32{0, 1, 2}, 4, keys)
	assert.Equal(t, want, tr.Rotations.Values()[3])
	assert.Equal(t, geom.OneVector3(), tr.Scales.Values()[2])
}

func TestReverseTwice(t *testing.T) {
	tr := sampleTrack()
	once := Reverse(tr)
	assert.Equal(t, []float32{0, 0.75, 1.25, 1.5}, once.Times)
	assert.Equal(t, tr.Rotations.Values()[3], once.Rotations.Values()[0])
	assert.False(t, once.Scales.Present())

	assert.Equal(t, tr, Reverse(once))

	// 0.7-0.1 rounds in float32, so times only come back within a rounding step.
	uneven := NewTransformTrack(JointTarget(0), []float32{0, 0.1, 0.3, 0.7},
		Some([]geom.Vector3{{X: 1}, {X: 2}, {X: 3}, {X: 4}}),
		None[geom.Quaternion](), None[geom.Vector3]())
	twice := Reverse(Reverse(uneven))
	assert.InDeltaSlice(t, uneven.Times, twice.Times, 1e-6)
	assert.Equal(t, uneven.Translations, twice.Translations)
	assert.False(t, twice.Rotations.Present())
}

func TestSplice(t *testing.T) {
	tr := sampleTrack()
	tween := DefaultTweenTransforms()

	cut := Truncate(tr, 1, tween)
	assert.Equal(t, []float32{0, 0.25, 0.75, 1}, cut.Times)
	assert.True(t, cut.Translations.Values()[3].ApproxEquals(geom.NewVector3(2+2.0/3, 1, 0), 1e-5))
	assert.Equal(t, []float32{0, 0.25}, Truncate(tr, 0.25, tween).Times)

	head := Behead(tr, 0.5, tween)
	assert.Equal(t, []float32{0, 0.25, 1}, head.Times)
	assert.Equal(t, geom.NewVector3(1.5, 0.5, 0), head.Translations.Values()[0])

	delayed := Delay(tr, 0.5)
	assert.Equal(t, []float32{0, 0.5, 0.75, 1.25, 2}, delayed.Times)
	assert.Equal(t, delayed.Keyframe(0), delayed.Keyframe(1))

	chained := Chain(tr, Reverse(tr), 1)
	assert.Equal(t, []float32{0, 0.25, 0.75, 1, 1.75, 2.25, 2.5}, chained.Times)
	require.NoError(t, chained.Validate())

	deleted := DeleteRange(tr, 0.5, 0.5, tween)
	assert.Equal(t, []float32{0, 0.25, 0.5, 1}, deleted.Times)
	assert.True(t, deleted.Translations.Values()[2].ApproxEquals(geom.NewVector3(2+2.0/3, 1, 0), 1e-5))

	reduced := Reduce(tr, 2)
	assert.Equal(t, []float32{0, 0.75, 1.5}, reduced.Times)
	assert.Equal(t, tr.Keyframe(2), reduced.Keyframe(1))
	assert.Equal(t, tr, Reduce(tr, 1))
}

func TestInPlace(t *testing.T) {
	tr := sampleTrack()
	flat, ok := InPlace(tr)
	require.True(t, ok)
	v := flat.Translations.Values()
	assert.True(t, v[3].ApproxEquals(v[0], 1e-6), "%v", v[3])
	assert.True(t, v[2].ApproxEquals(geom.NewVector3(0, 0.5, 0), 1e-6), "%v", v[2])
	assert.Equal(t, geom.NewVector3(4, 1, 0), tr.Translations.Values()[3])

	single := NewTransformTrack(JointTarget(0), []float32{0.5}, Some([]geom.Vector3{{X: 1}}), None[geom.Quaternion](), None[geom.Vector3]())
	res, ok := InPlace(single)
	assert.False(t, ok)
	assert.Nil(t, res)
}

func TestSmoothTrack(t *testing.T) {
	tr := sampleTrack()
	smoothed := Smooth(tr, 1.5, 0, SmoothTransforms{})
	assert.Equal(t, tr, smoothed)

	smoothed = Smooth(tr, 1.5, 2, SmoothTransforms{Rotations: interp.SmoothNlerp})
	assert.Equal(t, tr.Times, smoothed.Times)
	assert.False(t, smoothed.Scales.Present())
	assert.NotEqual(t, tr.Translations.Values()[1], smoothed.Translations.Values()[1])
	for _, q := range smoothed.Rotations.Values() {
		assert.InDelta(t, 1, q.Len(), 1e-5)
	}
}
