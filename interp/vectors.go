package interp

import (
	"fmt"
	"math"
	"strings"

	"github.com/binzume/animedit/geom"
)

// TweenVectors selects how translation and scale keyframes are interpolated.
type TweenVectors int

const (
	Lerp TweenVectors = iota
	LoopLerp
	CatmullRomSpline
	LoopCatmullRomSpline
	CentripetalSpline
	LoopCentripetalSpline
	// FdcSpline takes its tangents from finite differences over the actual keyframe spacing.
	FdcSpline
	LoopFdcSpline
)

var tweenVectorsNames = [...]string{
	"Lerp", "LoopLerp", "CatmullRomSpline", "LoopCatmullRomSpline",
	"CentripetalSpline", "LoopCentripetalSpline", "FdcSpline", "LoopFdcSpline",
}

// catmullRomTension scales the uniform Catmull-Rom tangents.
const catmullRomTension = 0.5

// minKnotDistance guards the centripetal parameterization against coincident samples.
const minKnotDistance = 1e-4

func (tv TweenVectors) String() string {
	if tv < 0 || int(tv) >= len(tweenVectorsNames) {
		return fmt.Sprintf("TweenVectors(%d)", int(tv))
	}
	return tweenVectorsNames[tv]
}

func ParseTweenVectors(name string) (TweenVectors, error) {
	for i, n := range tweenVectorsNames {
		if strings.EqualFold(n, name) {
			return TweenVectors(i), nil
		}
	}
	return 0, fmt.Errorf("unknown vector technique %q", name)
}

func (tv TweenVectors) IsCyclic() bool {
	return tv%2 == 1
}

func (tv TweenVectors) Acyclic() TweenVectors {
	return tv &^ 1
}

func (tv TweenVectors) Cyclic() TweenVectors {
	return tv | 1
}

func (tv TweenVectors) isSpline() bool {
	return tv.Acyclic() != Lerp
}

func bezier(p0, c1, c2, p3 geom.Vector3, t float32) geom.Vector3 {
	u := 1 - t
	return p0.Scale(u * u * u).
		Add(c1.Scale(3 * u * u * t)).
		Add(c2.Scale(3 * u * t * t)).
		Add(p3.Scale(t * t * t))
}

func knotDistance(a, b geom.Vector3) float32 {
	d := float32(math.Sqrt(float64(b.Sub(a).Len())))
	if d < minKnotDistance {
		return 1
	}
	return d
}

// fdcTangent is the time derivative at sample k, averaged over the adjacent
// intervals and one-sided at the ends of an acyclic sequence.
func fdcTangent(k int, times []float32, cycleTime float32, samples []geom.Vector3, last int, cyclic bool) geom.Vector3 {
	var sum geom.Vector3
	var n float32
	if cyclic || k > 0 {
		prev := k - 1
		if prev < 0 {
			prev = last
		}
		dt := segmentDuration(prev, times, cycleTime, last)
		sum = sum.Add(samples[k].Sub(samples[prev]).Scale(1 / dt))
		n++
	}
	if cyclic || k < last {
		next := k + 1
		if next > last {
			next = 0
		}
		dt := segmentDuration(k, times, cycleTime, last)
		sum = sum.Add(samples[next].Sub(samples[k]).Scale(1 / dt))
		n++
	}
	return sum.Scale(1 / n)
}

// controls returns the inner Bezier control points of the segment i1 -> i2.
func (tv TweenVectors) controls(times []float32, cycleTime float32, samples []geom.Vector3, i1, i2, last int, cyclic bool) (c1, c2 geom.Vector3) {
	p1, p2 := samples[i1], samples[i2]
	i0, i3 := neighbors(i1, i2, last, cyclic)
	p0, p3 := samples[i0], samples[i3]

	switch tv.Acyclic() {
	case CatmullRomSpline:
		m1 := p2.Sub(p0).Scale(catmullRomTension)
		m2 := p3.Sub(p1).Scale(catmullRomTension)
		return p1.Add(m1.Scale(1.0 / 3)), p2.Sub(m2.Scale(1.0 / 3))
	case CentripetalSpline:
		d01, d12, d23 := knotDistance(p0, p1), knotDistance(p1, p2), knotDistance(p2, p3)
		m1 := p1.Sub(p0).Scale(1 / d01).Sub(p2.Sub(p0).Scale(1 / (d01 + d12))).Add(p2.Sub(p1).Scale(1 / d12)).Scale(d12)
		m2 := p2.Sub(p1).Scale(1 / d12).Sub(p3.Sub(p1).Scale(1 / (d12 + d23))).Add(p3.Sub(p2).Scale(1 / d23)).Scale(d12)
		return p1.Add(m1.Scale(1.0 / 3)), p2.Sub(m2.Scale(1.0 / 3))
	case FdcSpline:
		dt := segmentDuration(i1, times, cycleTime, last)
		m1 := fdcTangent(i1, times, cycleTime, samples, last, cyclic)
		m2 := fdcTangent(i2, times, cycleTime, samples, last, cyclic)
		return p1.Add(m1.Scale(dt / 3)), p2.Sub(m2.Scale(dt / 3))
	}
	panic("interp: no control points for " + tv.String())
}

// Interpolate samples a vector sequence at time.
func (tv TweenVectors) Interpolate(time float32, times []float32, cycleTime float32, samples []geom.Vector3) geom.Vector3 {
	checkSamples(len(times), len(samples))
	checkAscending(times)
	if len(samples) == 1 {
		return samples[0]
	}
	last, cyclic := effectiveLast(times, cycleTime, tv.IsCyclic())
	i1, i2, time, ok := locate(time, times, cycleTime, last, cyclic)
	if !ok {
		return samples[i1]
	}
	t := fraction(time, times[i1], segmentDuration(i1, times, cycleTime, last))
	if t == 0 {
		return samples[i1]
	}
	if tv.isSpline() {
		c1, c2 := tv.controls(times, cycleTime, samples, i1, i2, last, cyclic)
		return bezier(samples[i1], c1, c2, samples[i2], t)
	}
	return samples[i1].Lerp(samples[i2], t)
}

func (tv TweenVectors) Precompute(times []float32, cycleTime float32, samples []geom.Vector3) *VectorCurve {
	c := NewVectorCurve(times, cycleTime, samples)
	c.precompute(tv)
	return c
}

func (tv TweenVectors) InterpolateCurve(time float32, c *VectorCurve) geom.Vector3 {
	if c.technique != tv || !c.ready {
		panic(fmt.Sprintf("interp: curve not precomputed for %v", tv))
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
	if tv.isSpline() {
		return bezier(c.samples[i1], c.control1[i1], c.control2[i1], c.ends[i1], t)
	}
	return c.samples[i1].Lerp(c.ends[i1], t)
}
