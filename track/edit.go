package track

import (
	"fmt"

	"github.com/binzume/animedit/geom"
)

// keyframes accumulates an edited track one keyframe at a time.
type keyframes struct {
	target               Target
	hasT, hasR, hasS     bool
	times                []float32
	translations, scales []geom.Vector3
	rotations            []geom.Quaternion
}

func newKeyframes(target Target, hasT, hasR, hasS bool) *keyframes {
	return &keyframes{target: target, hasT: hasT, hasR: hasR, hasS: hasS}
}

func keyframesLike(tr *TransformTrack) *keyframes {
	return newKeyframes(tr.Target, tr.Translations.Present(), tr.Rotations.Present(), tr.Scales.Present())
}

func (k *keyframes) add(time float32, t geom.Transform) {
	k.times = append(k.times, time)
	k.translations = append(k.translations, t.Translation)
	k.rotations = append(k.rotations, t.Rotation)
	k.scales = append(k.scales, t.Scale)
}

func (k *keyframes) build() *TransformTrack {
	tr := &TransformTrack{Target: k.target, Times: k.times}
	if k.hasT {
		tr.Translations = Some(k.translations)
	}
	if k.hasR {
		tr.Rotations = Some(k.rotations)
	}
	if k.hasS {
		tr.Scales = Some(k.scales)
	}
	return tr
}

// Truncate drops the keyframes after endTime, adding one sampled at endTime if needed.
func Truncate(tr *TransformTrack, endTime float32, tween TweenTransforms) *TransformTrack {
	if endTime < 0 {
		panic(fmt.Sprintf("track: negative end time %v", endTime))
	}
	k := keyframesLike(tr)
	for i, t := range tr.Times {
		if t > endTime {
			break
		}
		k.add(t, tr.Keyframe(i))
	}
	if len(k.times) == 0 || k.times[len(k.times)-1] < endTime {
		k.add(endTime, tween.Sample(tr, endTime, tr.LastTime()))
	}
	return k.build()
}

// Behead drops the keyframes before startTime and shifts the rest so that
// startTime becomes 0.
func Behead(tr *TransformTrack, startTime float32, tween TweenTransforms) *TransformTrack {
	if startTime < 0 {
		panic(fmt.Sprintf("track: negative start time %v", startTime))
	}
	k := keyframesLike(tr)
	k.add(0, tween.Sample(tr, startTime, tr.LastTime()))
	for i, t := range tr.Times {
		if t > startTime {
			k.add(t-startTime, tr.Keyframe(i))
		}
	}
	return k.build()
}

// Chain plays b after a: a's keyframes before start2 are kept and b's keyframes
// follow, offset by start2. Channels present in either track are present in the result.
func Chain(a, b *TransformTrack, start2 float32) *TransformTrack {
	if a.Target != b.Target {
		panic(fmt.Sprintf("track: cannot chain %v and %v", a.Target, b.Target))
	}
	if start2 < 0 {
		panic(fmt.Sprintf("track: negative start time %v", start2))
	}
	k := newKeyframes(a.Target,
		a.Translations.Present() || b.Translations.Present(),
		a.Rotations.Present() || b.Rotations.Present(),
		a.Scales.Present() || b.Scales.Present())
	for i, t := range a.Times {
		if t >= start2 {
			break
		}
		k.add(t, a.Keyframe(i))
	}
	for i, t := range b.Times {
		k.add(t+start2, b.Keyframe(i))
	}
	return k.build()
}

// Delay shifts all keyframes later by delay and holds the first keyframe from t=0.
func Delay(tr *TransformTrack, delay float32) *TransformTrack {
	if delay < 0 {
		panic(fmt.Sprintf("track: negative delay %v", delay))
	}
	if delay == 0 {
		return tr.Clone()
	}
	k := keyframesLike(tr)
	if tr.Times[0]+delay > 0 {
		k.add(0, tr.Keyframe(0))
	}
	for i, t := range tr.Times {
		k.add(t+delay, tr.Keyframe(i))
	}
	return k.build()
}

// DeleteRange removes the interval [start, start+duration] and moves later
// keyframes earlier by duration. The keyframe at start takes the value
// sampled at the end of the removed interval.
func DeleteRange(tr *TransformTrack, start, duration float32, tween TweenTransforms) *TransformTrack {
	if start < 0 || duration <= 0 {
		panic(fmt.Sprintf("track: invalid range %v+%v", start, duration))
	}
	end := start + duration
	k := keyframesLike(tr)
	for i, t := range tr.Times {
		if t >= start {
			break
		}
		k.add(t, tr.Keyframe(i))
	}
	k.add(start, tween.Sample(tr, end, tr.LastTime()))
	for i, t := range tr.Times {
		if t > end {
			k.add(t-duration, tr.Keyframe(i))
		}
	}
	return k.build()
}

// Reduce keeps every factor-th keyframe, always including the first and last.
func Reduce(tr *TransformTrack, factor int) *TransformTrack {
	if factor < 1 {
		panic(fmt.Sprintf("track: invalid reduction factor %d", factor))
	}
	n := len(tr.Times)
	var indices []int
	for i := 0; i < n; i += factor {
		indices = append(indices, i)
	}
	if indices[len(indices)-1] != n-1 {
		indices = append(indices, n-1)
	}
	return tr.pick(indices)
}

// Reverse plays the track backwards over [0, LastTime]. Reversing twice gives
// back the same keyframes in the same order; a time comes back bit-identical
// when LastTime-t is exact in float32, otherwise within one rounding step.
func Reverse(tr *TransformTrack) *TransformTrack {
	n := len(tr.Times)
	last := tr.LastTime()
	indices := make([]int, n)
	for i := range indices {
		indices[i] = n - 1 - i
	}
	result := tr.pick(indices)
	for i := range result.Times {
		result.Times[i] = last - result.Times[i]
	}
	return result
}

// InPlace removes the average drift of the translation channel, so that the
// last translation equals the first. It returns false when no time elapses
// between the first and last keyframes.
func InPlace(tr *TransformTrack) (*TransformTrack, bool) {
	n := len(tr.Times)
	elapsed := tr.Times[n-1] - tr.Times[0]
	if elapsed == 0 {
		return nil, false
	}
	result := tr.Clone()
	if !tr.Translations.Present() {
		return result, true
	}
	values := result.Translations.Values()
	velocity := values[n-1].Sub(values[0]).Scale(1 / elapsed)
	for i, t := range result.Times {
		values[i] = values[i].Sub(velocity.Scale(t - tr.Times[0]))
	}
	return result, true
}
