package interp

import (
	"fmt"

	"github.com/binzume/animedit/geom"
)

// SmoothRotations is a moving-average filter over rotation keyframes.
type SmoothRotations int

const (
	SmoothNlerp SmoothRotations = iota
	SmoothLoopNlerp
)

// SmoothVectors is a moving-average filter over vector keyframes.
type SmoothVectors int

const (
	SmoothLerp SmoothVectors = iota
	SmoothLoopLerp
)

func (s SmoothRotations) String() string {
	switch s {
	case SmoothNlerp:
		return "SmoothNlerp"
	case SmoothLoopNlerp:
		return "SmoothLoopNlerp"
	}
	return fmt.Sprintf("SmoothRotations(%d)", int(s))
}

func (s SmoothRotations) IsCyclic() bool { return s == SmoothLoopNlerp }

func (s SmoothVectors) String() string {
	switch s {
	case SmoothLerp:
		return "SmoothLerp"
	case SmoothLoopLerp:
		return "SmoothLoopLerp"
	}
	return fmt.Sprintf("SmoothVectors(%d)", int(s))
}

func (s SmoothVectors) IsCyclic() bool { return s == SmoothLoopLerp }

// kernel returns the weight of a sample dt away from the centre, or 0 outside the window.
func kernel(dt, halfWidth float32) float32 {
	if dt >= halfWidth {
		return 0
	}
	return 1 - dt/halfWidth
}

func distance(a, b, cycleTime float32, cyclic bool) float32 {
	dt := geom.Abs(a - b)
	if cyclic && cycleTime-dt < dt {
		dt = cycleTime - dt
	}
	return dt
}

// window returns the number of samples to filter. A cyclic sequence ending on
// its cycle time repeats sample 0 there, so that sample is left out and copied back.
func window(times []float32, cycleTime float32, cyclic bool) int {
	n := len(times)
	if cyclic && n > 1 && times[n-1] == cycleTime {
		return n - 1
	}
	return n
}

// Smooth returns a new sample for every keyframe, averaging the samples within
// width/2 with a triangular kernel. Rotations are aligned to the centre sample
// before accumulation. A non-positive width returns a copy.
func (s SmoothRotations) Smooth(times []float32, cycleTime float32, samples []geom.Quaternion, width float32) []geom.Quaternion {
	checkSamples(len(times), len(samples))
	checkAscending(times)
	result := make([]geom.Quaternion, len(samples))
	copy(result, samples)
	if width <= 0 {
		return result
	}
	halfWidth := width / 2
	n := window(times, cycleTime, s.IsCyclic())
	for i := 0; i < n; i++ {
		center := samples[i]
		var sum geom.Quaternion
		for j := 0; j < n; j++ {
			w := kernel(distance(times[i], times[j], cycleTime, s.IsCyclic()), halfWidth)
			if w > 0 {
				sum = sum.Add(samples[j].Aligned(center).Scale(w))
			}
		}
		result[i] = sum.Normalize()
	}
	if n < len(samples) {
		result[n] = result[0]
	}
	return result
}

func (s SmoothVectors) Smooth(times []float32, cycleTime float32, samples []geom.Vector3, width float32) []geom.Vector3 {
	checkSamples(len(times), len(samples))
	checkAscending(times)
	result := make([]geom.Vector3, len(samples))
	copy(result, samples)
	if width <= 0 {
		return result
	}
	halfWidth := width / 2
	n := window(times, cycleTime, s.IsCyclic())
	for i := 0; i < n; i++ {
		var sum geom.Vector3
		var total float32
		for j := 0; j < n; j++ {
			w := kernel(distance(times[i], times[j], cycleTime, s.IsCyclic()), halfWidth)
			if w > 0 {
				sum = sum.Add(samples[j].Scale(w))
				total += w
			}
		}
		result[i] = sum.Scale(1 / total)
	}
	if n < len(samples) {
		result[n] = result[0]
	}
	return result
}
