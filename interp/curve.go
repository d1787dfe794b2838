package interp

import (
	"fmt"

	"github.com/binzume/animedit/geom"
)

// RotationCurve holds the per-segment data of a rotation sequence so that it
// can be evaluated repeatedly. Segment i starts at sample i.
// Curves are immutable once precomputed.
type RotationCurve struct {
	times     []float32
	cycleTime float32
	samples   []geom.Quaternion

	technique TweenRotations
	ready     bool
	lastIndex int
	cyclic    bool
	durations []float32
	ends      []geom.Quaternion
	control1  []geom.Quaternion
	control2  []geom.Quaternion
}

// NewRotationCurve allocates a curve over the given keyframes. It must be filled
// by a technique's Precompute before use.
func NewRotationCurve(times []float32, cycleTime float32, samples []geom.Quaternion) *RotationCurve {
	checkSamples(len(times), len(samples))
	checkAscending(times)
	return &RotationCurve{
		times:     times,
		cycleTime: cycleTime,
		samples:   samples,
		lastIndex: len(times) - 1,
	}
}

func (c *RotationCurve) precompute(tr TweenRotations) {
	c.technique = tr
	c.ready = true
	if len(c.samples) == 1 {
		return
	}
	c.lastIndex, c.cyclic = effectiveLast(c.times, c.cycleTime, tr.IsCyclic())
	n := numSegments(c.lastIndex, c.cyclic)
	c.durations = make([]float32, n)
	c.ends = make([]geom.Quaternion, n)
	if tr.isSpline() {
		c.control1 = make([]geom.Quaternion, n)
		c.control2 = make([]geom.Quaternion, n)
	}
	for i := 0; i < n; i++ {
		i2 := i + 1
		if i2 > c.lastIndex {
			i2 = 0
		}
		c.durations[i] = segmentDuration(i, c.times, c.cycleTime, c.lastIndex)
		if tr.isSpline() {
			_, c.ends[i], c.control1[i], c.control2[i] = squadWindow(c.samples, i, i2, c.lastIndex, c.cyclic)
		} else {
			c.ends[i] = c.samples[i2]
		}
	}
}

func (c *RotationCurve) Technique() TweenRotations { return c.technique }
func (c *RotationCurve) Times() []float32 { return c.times }
func (c *RotationCurve) CycleTime() float32 { return c.cycleTime }
func (c *RotationCurve) Samples() []geom.Quaternion { return c.samples }
func (c *RotationCurve) IsCyclic() bool { return c.cyclic }
func (c *RotationCurve) NumSegments() int { return len(c.durations) }
func (c *RotationCurve) IntervalDuration(i int) float32 { return c.durations[i] }

// LastIndex is the last sample taking part in interpolation. For a cyclic
// curve whose final keyframe lies on the cycle time it excludes that keyframe.
func (c *RotationCurve) LastIndex() int { return c.lastIndex }

func (c *RotationCurve) StartValue(i int) geom.Quaternion { return c.samples[i] }

// EndValue is the sample ending segment i. For splines it is sign-aligned to StartValue(i).
func (c *RotationCurve) EndValue(i int) geom.Quaternion { return c.ends[i] }

// ControlPoint1 and ControlPoint2 are the Squad control points of segment i.
func (c *RotationCurve) ControlPoint1(i int) geom.Quaternion {
	c.requireSpline()
	return c.control1[i]
}

func (c *RotationCurve) ControlPoint2(i int) geom.Quaternion {
	c.requireSpline()
	return c.control2[i]
}

func (c *RotationCurve) requireSpline() {
	if !c.technique.isSpline() {
		panic(fmt.Sprintf("interp: %v curve has no control points", c.technique))
	}
}

// VectorCurve is the vector counterpart of RotationCurve. Spline segments are
// stored as cubic Bezier control points.
type VectorCurve struct {
	times     []float32
	cycleTime float32
	samples   []geom.Vector3

	technique TweenVectors
	ready     bool
	lastIndex int
	cyclic    bool
	durations []float32
	ends      []geom.Vector3
	control1  []geom.Vector3
	control2  []geom.Vector3
}

func NewVectorCurve(times []float32, cycleTime float32, samples []geom.Vector3) *VectorCurve {
	checkSamples(len(times), len(samples))
	checkAscending(times)
	return &VectorCurve{
		times:     times,
		cycleTime: cycleTime,
		samples:   samples,
		lastIndex: len(times) - 1,
	}
}

func (c *VectorCurve) precompute(tv TweenVectors) {
	c.technique = tv
	c.ready = true
	if len(c.samples) == 1 {
		return
	}
	c.lastIndex, c.cyclic = effectiveLast(c.times, c.cycleTime, tv.IsCyclic())
	n := numSegments(c.lastIndex, c.cyclic)
	c.durations = make([]float32, n)
	c.ends = make([]geom.Vector3, n)
	if tv.isSpline() {
		c.control1 = make([]geom.Vector3, n)
		c.control2 = make([]geom.Vector3, n)
	}
	for i := 0; i < n; i++ {
		i2 := i + 1
		if i2 > c.lastIndex {
			i2 = 0
		}
		c.durations[i] = segmentDuration(i, c.times, c.cycleTime, c.lastIndex)
		c.ends[i] = c.samples[i2]
		if tv.isSpline() {
			c.control1[i], c.control2[i] = tv.controls(c.times, c.cycleTime, c.samples, i, i2, c.lastIndex, c.cyclic)
		}
	}
}

func (c *VectorCurve) Technique() TweenVectors { return c.technique }
func (c *VectorCurve) Times() []float32 { return c.times }
func (c *VectorCurve) CycleTime() float32 { return c.cycleTime }
func (c *VectorCurve) Samples() []geom.Vector3 { return c.samples }
func (c *VectorCurve) IsCyclic() bool { return c.cyclic }
func (c *VectorCurve) NumSegments() int { return len(c.durations) }
func (c *VectorCurve) LastIndex() int { return c.lastIndex }
func (c *VectorCurve) IntervalDuration(i int) float32 { return c.durations[i] }
func (c *VectorCurve) StartValue(i int) geom.Vector3 { return c.samples[i] }
func (c *VectorCurve) EndValue(i int) geom.Vector3 { return c.ends[i] }

func (c *VectorCurve) ControlPoint1(i int) geom.Vector3 {
	c.requireSpline()
	return c.control1[i]
}

func (c *VectorCurve) ControlPoint2(i int) geom.Vector3 {
	c.requireSpline()
	return c.control2[i]
}

func (c *VectorCurve) requireSpline() {
	if !c.technique.isSpline() {
		panic(fmt.Sprintf("interp: %v curve has no control points", c.technique))
	}
}
