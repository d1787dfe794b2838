package interp

import (
	"fmt"
	"strings"

	"github.com/binzume/animedit/geom"
)

// TweenRotations selects how rotation keyframes are interpolated.
// Each technique is followed by its cyclic (Loop) counterpart.
type TweenRotations int

const (
	Nlerp TweenRotations = iota
	LoopNlerp
	QuickSlerp
	LoopQuickSlerp
	Slerp
	LoopSlerp
	Spline
	LoopSpline
)

var tweenRotationsNames = [...]string{
	"Nlerp", "LoopNlerp", "QuickSlerp", "LoopQuickSlerp", "Slerp", "LoopSlerp", "Spline", "LoopSpline",
}

func (tr TweenRotations) String() string {
	if tr < 0 || int(tr) >= len(tweenRotationsNames) {
		return fmt.Sprintf("TweenRotations(%d)", int(tr))
	}
	return tweenRotationsNames[tr]
}

// ParseTweenRotations looks up a technique by name, ignoring case.
func ParseTweenRotations(name string) (TweenRotations, error) {
	for i, n := range tweenRotationsNames {
		if strings.EqualFold(n, name) {
			return TweenRotations(i), nil
		}
	}
	return 0, fmt.Errorf("unknown rotation technique %q", name)
}

func (tr TweenRotations) IsCyclic() bool {
	return tr%2 == 1
}

// Acyclic returns the non-looping counterpart.
func (tr TweenRotations) Acyclic() TweenRotations {
	return tr &^ 1
}

// Cyclic returns the looping counterpart.
func (tr TweenRotations) Cyclic() TweenRotations {
	return tr | 1
}

func (tr TweenRotations) isSpline() bool {
	return tr.Acyclic() == Spline
}

func (tr TweenRotations) blend(q1, q2 geom.Quaternion, t float32) geom.Quaternion {
	switch tr.Acyclic() {
	case Nlerp:
		return q1.Nlerp(q2, t)
	case QuickSlerp:
		return q1.QuickSlerp(q2, t)
	case Slerp:
		return q1.Slerp(q2, t)
	}
	panic("interp: unknown rotation technique " + tr.String())
}

// squadWindow returns the segment ends and Squad control points for the segment
// i1 -> i2. Each quaternion is aligned to its predecessor in the window so that
// consecutive segments agree on the shorter arc.
func squadWindow(samples []geom.Quaternion, i1, i2, last int, cyclic bool) (q1, q2, a1, a2 geom.Quaternion) {
	i0, i3 := neighbors(i1, i2, last, cyclic)
	q1 = samples[i1]
	q0 := samples[i0].Aligned(q1)
	q2 = samples[i2].Aligned(q1)
	q3 := samples[i3].Aligned(q2)
	return q1, q2, geom.SquadA(q0, q1, q2), geom.SquadA(q1, q2, q3)
}

// Interpolate samples a rotation sequence at time. Times must be ascending.
// For cyclic techniques, cycleTime must not be before the last keyframe.
func (tr TweenRotations) Interpolate(time float32, times []float32, cycleTime float32, samples []geom.Quaternion) geom.Quaternion {
	checkSamples(len(times), len(samples))
	checkAscending(times)
	if len(samples) == 1 {
		return samples[0]
	}
	last, cyclic := effectiveLast(times, cycleTime, tr.IsCyclic())
	i1, i2, time, ok := locate(time, times, cycleTime, last, cyclic)
	if !ok {
		return samples[i1]
	}
	t := fraction(time, times[i1], segmentDuration(i1, times, cycleTime, last))
	if t == 0 {
		return samples[i1]
	}
	if tr.isSpline() {
		q1, q2, a1, a2 := squadWindow(samples, i1, i2, last, cyclic)
		return geom.Squad(t, q1, a1, a2, q2)
	}
	return tr.blend(samples[i1], samples[i2], t)
}

// Precompute builds a curve for repeated evaluation with InterpolateCurve.
func (tr TweenRotations) Precompute(times []float32, cycleTime float32, samples []geom.Quaternion) *RotationCurve {
	c := NewRotationCurve(times, cycleTime, samples)
	c.precompute(tr)
	return c
}

// InterpolateCurve evaluates a curve precomputed by the same technique.
// The result is identical to Interpolate over the curve's samples.
func (tr TweenRotations) InterpolateCurve(time float32, c *RotationCurve) geom.Quaternion {
	if c.technique != tr || !c.ready {
		panic(fmt.Sprintf("interp: curve not precomputed for %v", tr))
	}
	if len(c.samples) == 1 {
		return c.samples[0]
	}
	i1, _, time, ok := locate(time, c.times, c.cycleTime, c.lastIndex, c.cyclic)
	if !ok {
		return c.samples[i1]
	}
	t := fraction(time, c.times[i1], c.durations[i1])
	if t == 0 {
		return c.samples[i1]
	}
	if tr.isSpline() {
		return geom.Squad(t, c.samples[i1], c.control1[i1], c.control2[i1], c.ends[i1])
	}
	return tr.blend(c.samples[i1], c.ends[i1], t)
}
