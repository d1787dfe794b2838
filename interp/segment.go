package interp

import (
	"fmt"
	"math"
	"sort"
)

func checkSamples(times, samples int) {
	if times == 0 {
		panic("interp: no keyframes")
	}
	if times != samples {
		panic(fmt.Sprintf("interp: %d times but %d samples", times, samples))
	}
}

func checkAscending(times []float32) {
	for i := 1; i < len(times); i++ {
		if !(times[i] > times[i-1]) {
			panic(fmt.Sprintf("interp: keyframe times not ascending at %d (%v <= %v)", i, times[i], times[i-1]))
		}
	}
}

// effectiveLast returns the last sample index taking part in interpolation and
// whether the cyclic variant still applies. A final sample lying on cycleTime
// duplicates sample 0 and is dropped unless only one sample would remain, in
// which case the acyclic variant is used.
func effectiveLast(times []float32, cycleTime float32, cyclic bool) (int, bool) {
	last := len(times) - 1
	if !cyclic || last == 0 {
		return last, false
	}
	if cycleTime < times[last] {
		panic(fmt.Sprintf("interp: cycle time %v is before the last keyframe %v", cycleTime, times[last]))
	}
	if times[last] == cycleTime {
		if last > 1 {
			return last - 1, true
		}
		return last, false
	}
	return last, true
}

// segmentDuration is the length of the interval starting at sample i.
// The interval after the last sample of a cyclic sequence runs to cycleTime.
func segmentDuration(i int, times []float32, cycleTime float32, last int) float32 {
	if i >= last {
		return cycleTime - times[last]
	}
	return times[i+1] - times[i]
}

// locate returns the samples bracketing time. When ok is false the query lies
// outside every interval and samples[i1] is the answer.
func locate(time float32, times []float32, cycleTime float32, last int, cyclic bool) (i1, i2 int, local float32, ok bool) {
	if len(times) == 1 {
		return 0, 0, time, false
	}
	if cyclic && cycleTime > 0 && time >= cycleTime {
		time = float32(math.Mod(float64(time), float64(cycleTime)))
	}
	if time < times[0] {
		return 0, 0, time, false
	}
	i := sort.Search(last+1, func(k int) bool { return times[k] > time }) - 1
	if i < last {
		return i, i + 1, time, true
	}
	if !cyclic {
		return last, last, time, false
	}
	return last, 0, time, true
}

func fraction(time, start, duration float32) float32 {
	if duration <= 0 {
		return 0
	}
	return (time - start) / duration
}

// neighbors returns the samples before i1 and after i2, duplicating the
// boundary samples of an acyclic sequence.
func neighbors(i1, i2, last int, cyclic bool) (i0, i3 int) {
	i0, i3 = i1-1, i2+1
	if cyclic {
		if i0 < 0 {
			i0 = last
		}
		if i3 > last {
			i3 = 0
		}
		return i0, i3
	}
	return max(i0, 0), min(i3, last)
}

// numSegments is the number of intervals a curve over last+1 samples holds.
func numSegments(last int, cyclic bool) int {
	if cyclic {
		return last + 1
	}
	return last
}
