package track

import (
	"github.com/binzume/animedit/geom"
	"github.com/binzume/animedit/interp"
)

// TweenTransforms bundles the techniques used for each channel of a transform track.
type TweenTransforms struct {
	Translations interp.TweenVectors
	Rotations    interp.TweenRotations
	Scales       interp.TweenVectors
}

// DefaultTweenTransforms interpolates linearly without looping.
func DefaultTweenTransforms() TweenTransforms {
	return TweenTransforms{
		Translations: interp.Lerp,
		Rotations:    interp.Nlerp,
		Scales:       interp.Lerp,
	}
}

// Sample evaluates tr at time. Absent channels yield identity values.
func (tw TweenTransforms) Sample(tr *TransformTrack, time, cycleTime float32) geom.Transform {
	t := geom.IdentityTransform()
	if tr.Translations.Present() {
		t.Translation = tw.Translations.Interpolate(time, tr.Times, cycleTime, tr.Translations.Values())
	}
	if tr.Rotations.Present() {
		t.Rotation = tw.Rotations.Interpolate(time, tr.Times, cycleTime, tr.Rotations.Values())
	}
	if tr.Scales.Present() {
		t.Scale = tw.Scales.Interpolate(time, tr.Times, cycleTime, tr.Scales.Values())
	}
	return t
}

// TransformCurve is a transform track prepared for repeated sampling.
type TransformCurve struct {
	Track        *TransformTrack
	translations *interp.VectorCurve
	rotations    *interp.RotationCurve
	scales       *interp.VectorCurve
	tween        TweenTransforms
}

func (tw TweenTransforms) Precompute(tr *TransformTrack, cycleTime float32) *TransformCurve {
	c := &TransformCurve{Track: tr, tween: tw}
	if tr.Translations.Present() {
		c.translations = tw.Translations.Precompute(tr.Times, cycleTime, tr.Translations.Values())
	}
	if tr.Rotations.Present() {
		c.rotations = tw.Rotations.Precompute(tr.Times, cycleTime, tr.Rotations.Values())
	}
	if tr.Scales.Present() {
		c.scales = tw.Scales.Precompute(tr.Times, cycleTime, tr.Scales.Values())
	}
	return c
}

// Sample returns the same value as TweenTransforms.Sample on the underlying track.
func (c *TransformCurve) Sample(time float32) geom.Transform {
	t := geom.IdentityTransform()
	if c.translations != nil {
		t.Translation = c.tween.Translations.InterpolateCurve(time, c.translations)
	}
	if c.rotations != nil {
		t.Rotation = c.tween.Rotations.InterpolateCurve(time, c.rotations)
	}
	if c.scales != nil {
		t.Scale = c.tween.Scales.InterpolateCurve(time, c.scales)
	}
	return t
}

// SmoothTransforms bundles the smoothing filters for each channel.
type SmoothTransforms struct {
	Translations interp.SmoothVectors
	Rotations    interp.SmoothRotations
	Scales       interp.SmoothVectors
}

// Smooth returns a copy of tr with every present channel filtered over width.
func Smooth(tr *TransformTrack, duration, width float32, smooth SmoothTransforms) *TransformTrack {
	result := tr.Clone()
	if tr.Translations.Present() {
		result.Translations = Some(smooth.Translations.Smooth(tr.Times, duration, tr.Translations.Values(), width))
	}
	if tr.Rotations.Present() {
		result.Rotations = Some(smooth.Rotations.Smooth(tr.Times, duration, tr.Rotations.Values(), width))
	}
	if tr.Scales.Present() {
		result.Scales = Some(smooth.Scales.Smooth(tr.Times, duration, tr.Scales.Values(), width))
	}
	return result
}
