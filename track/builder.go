package track

import (
	"fmt"
	"slices"

	"github.com/binzume/animedit/geom"
	"github.com/binzume/animedit/interp"
)

// TransformTrackBuilder collects sparse keyframes per channel and merges them
// into one track whose channels share a single time array.
type TransformTrackBuilder struct {
	target       Target
	duration     float32
	rotTween     interp.TweenRotations
	vecTween     interp.TweenVectors
	translations map[float32]geom.Vector3
	rotations    map[float32]geom.Quaternion
	scales       map[float32]geom.Vector3
}

// NewTransformTrackBuilder seeds every channel at t=0 with initial.
func NewTransformTrackBuilder(target Target, duration float32, initial geom.Transform) *TransformTrackBuilder {
	if duration < 0 {
		panic(fmt.Sprintf("track: negative duration %v", duration))
	}
	return &TransformTrackBuilder{
		target:       target,
		duration:     duration,
		rotTween:     interp.LoopSpline,
		vecTween:     interp.LoopFdcSpline,
		translations: map[float32]geom.Vector3{0: initial.Translation},
		rotations:    map[float32]geom.Quaternion{0: initial.Rotation.Normalize()},
		scales:       map[float32]geom.Vector3{0: initial.Scale},
	}
}

func (b *TransformTrackBuilder) checkTime(time float32) {
	if time < 0 || time > b.duration {
		panic(fmt.Sprintf("track: keyframe time %v outside [0, %v]", time, b.duration))
	}
}

// AddTranslation sets the translation at time, replacing any value already there.
func (b *TransformTrackBuilder) AddTranslation(time float32, v geom.Vector3) {
	b.checkTime(time)
	b.translations[time] = v
}

func (b *TransformTrackBuilder) AddRotation(time float32, q geom.Quaternion) {
	b.checkTime(time)
	b.rotations[time] = q.Normalize()
}

func (b *TransformTrackBuilder) AddScale(time float32, v geom.Vector3) {
	b.checkTime(time)
	b.scales[time] = v
}

// SetTechniques selects how missing channel values are synthesized.
func (b *TransformTrackBuilder) SetTechniques(rot interp.TweenRotations, vec interp.TweenVectors) {
	b.rotTween = rot
	b.vecTween = vec
}

func sortedKeys[V any](m map[float32]V) ([]float32, []V) {
	times := make([]float32, 0, len(m))
	for t := range m {
		times = append(times, t)
	}
	slices.Sort(times)
	values := make([]V, len(times))
	for i, t := range times {
		values[i] = m[t]
	}
	return times, values
}

// Build merges all channel times. Times missing from a channel are filled by
// interpolating that channel, with the duration as the cycle time.
func (b *TransformTrackBuilder) Build() *TransformTrack {
	set := map[float32]struct{}{}
	for t := range b.translations {
		set[t] = struct{}{}
	}
	for t := range b.rotations {
		set[t] = struct{}{}
	}
	for t := range b.scales {
		set[t] = struct{}{}
	}
	times, _ := sortedKeys(set)

	tt, tv := sortedKeys(b.translations)
	rt, rv := sortedKeys(b.rotations)
	st, sv := sortedKeys(b.scales)
	tc := b.vecTween.Precompute(tt, b.duration, tv)
	rc := b.rotTween.Precompute(rt, b.duration, rv)
	sc := b.vecTween.Precompute(st, b.duration, sv)

	translations := make([]geom.Vector3, len(times))
	rotations := make([]geom.Quaternion, len(times))
	scales := make([]geom.Vector3, len(times))
	for i, t := range times {
		if v, ok := b.translations[t]; ok {
			translations[i] = v
		} else {
			translations[i] = b.vecTween.InterpolateCurve(t, tc)
		}
		if q, ok := b.rotations[t]; ok {
			rotations[i] = q
		} else {
			rotations[i] = b.rotTween.InterpolateCurve(t, rc)
		}
		if v, ok := b.scales[t]; ok {
			scales[i] = v
		} else {
			scales[i] = b.vecTween.InterpolateCurve(t, sc)
		}
	}
	return NewTransformTrack(b.target, times, Some(translations), Some(rotations), Some(scales))
}
