package gltfio

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/binzume/animedit/geom"
	"github.com/binzume/animedit/interp"
	"github.com/binzume/animedit/skeleton"
	"github.com/binzume/animedit/track"
)

// sampled holds one sampler's keys. Each key has width floats.
type sampled struct {
	times  []float32
	values []float32
	width  int
}

func (s *sampled) vectors() []geom.Vector3 {
	v := make([]geom.Vector3, len(s.times))
	for i := range v {
		v[i] = geom.NewVector3FromSlice(s.values[i*3:])
	}
	return v
}

func (s *sampled) rotations() []geom.Quaternion {
	q := make([]geom.Quaternion, len(s.times))
	for i := range q {
		q[i] = geom.NewQuaternion(s.values[i*4], s.values[i*4+1], s.values[i*4+2], s.values[i*4+3]).Normalize()
	}
	return q
}

func pathWidth(p gltf.TRSProperty) int {
	switch p {
	case gltf.TRSTranslation, gltf.TRSScale:
		return 3
	case gltf.TRSRotation:
		return 4
	}
	return 0
}

type nodeChannels struct {
	translation, rotation, scale, weights *sampled
}

func readSampler(doc *gltf.Document, a *gltf.Animation, index uint32) (*sampled, error) {
	if int(index) >= len(a.Samplers) {
		return nil, fmt.Errorf("sampler %d out of range", index)
	}
	sampler := a.Samplers[index]
	if sampler.Input == nil || sampler.Output == nil {
		return nil, fmt.Errorf("sampler %d: missing input or output", index)
	}
	times, n, err := readFloats(doc, *sampler.Input)
	if err != nil {
		return nil, fmt.Errorf("sampler %d input: %w", index, err)
	}
	if n != 1 || len(times) == 0 {
		return nil, fmt.Errorf("sampler %d: input must be non-empty scalars", index)
	}
	for i := 1; i < len(times); i++ {
		if !(times[i] > times[i-1]) {
			return nil, fmt.Errorf("sampler %d: key times not ascending at %d", index, i)
		}
	}
	values, n, err := readFloats(doc, *sampler.Output)
	if err != nil {
		return nil, fmt.Errorf("sampler %d output: %w", index, err)
	}

	groups := len(times)
	if sampler.Interpolation == gltf.InterpolationCubicSpline {
		groups *= 3
	}
	if len(values)%(groups*n) != 0 {
		return nil, fmt.Errorf("sampler %d: %d outputs for %d keys", index, len(values)/n, len(times))
	}
	width := len(values) / groups

	switch sampler.Interpolation {
	case gltf.InterpolationCubicSpline:
		// Each key is in-tangent, value, out-tangent; only the value is kept.
		kept := make([]float32, 0, len(times)*width)
		for i := range times {
			kept = append(kept, values[(3*i+1)*width:(3*i+2)*width]...)
		}
		values = kept
	case gltf.InterpolationStep:
		slog.Warn("STEP interpolation read as linear", "animation", a.Name, "sampler", index)
	}
	return &sampled{times: times, values: values, width: width}, nil
}

// unionTimes merges the key times of the present channels.
func unionTimes(channels ...*sampled) []float32 {
	var times []float32
	for _, c := range channels {
		if c != nil {
			times = append(times, c.times...)
		}
	}
	slices.Sort(times)
	return slices.Compact(times)
}

func vectorChannel(c *sampled, times []float32) track.Channel[geom.Vector3] {
	if c == nil {
		return track.None[geom.Vector3]()
	}
	v := c.vectors()
	if slices.Equal(c.times, times) {
		return track.Some(v)
	}
	resampled := make([]geom.Vector3, len(times))
	for i, t := range times {
		resampled[i] = interp.Lerp.Interpolate(t, c.times, 0, v)
	}
	return track.Some(resampled)
}

func rotationChannel(c *sampled, times []float32) track.Channel[geom.Quaternion] {
	if c == nil {
		return track.None[geom.Quaternion]()
	}
	q := c.rotations()
	if slices.Equal(c.times, times) {
		return track.Some(q)
	}
	resampled := make([]geom.Quaternion, len(times))
	for i, t := range times {
		resampled[i] = interp.Nlerp.Interpolate(t, c.times, 0, q)
	}
	return track.Some(resampled)
}

// toUser converts the local keyframes of a joint track into user transforms.
func toUser(tr *track.TransformTrack, bind geom.Transform) {
	t, r, s := tr.Translations.Values(), tr.Rotations.Values(), tr.Scales.Values()
	for i := range tr.Times {
		local := geom.Transform{
			Translation: tr.Translations.At(i, bind.Translation),
			Rotation:    tr.Rotations.At(i, bind.Rotation),
			Scale:       tr.Scales.At(i, bind.Scale),
		}
		user := skeleton.UserFromLocal(bind, local)
		if t != nil {
			t[i] = user.Translation
		}
		if r != nil {
			r[i] = user.Rotation
		}
		if s != nil {
			s[i] = user.Scale
		}
	}
}

// ImportClip reads animation anim. Channels of the skin joints jointNodes
// become joint tracks of h holding user transforms; other nodes get node
// tracks with local transforms, and morph weights become morph tracks.
func ImportClip(doc *gltf.Document, anim uint32, h *skeleton.Hierarchy, jointNodes []uint32) (*track.Clip, error) {
	if int(anim) >= len(doc.Animations) {
		return nil, fmt.Errorf("animation %d out of range", anim)
	}
	if h != nil && len(jointNodes) != h.NumJoints() {
		return nil, fmt.Errorf("%d joint nodes for %d joints", len(jointNodes), h.NumJoints())
	}
	a := doc.Animations[anim]
	joints := map[uint32]int{}
	for i, n := range jointNodes {
		joints[n] = i
	}

	var order []uint32
	nodes := map[uint32]*nodeChannels{}
	for ci, ch := range a.Channels {
		if ch.Target.Node == nil || ch.Sampler == nil {
			slog.Debug("skipping channel without target", "animation", a.Name, "channel", ci)
			continue
		}
		node := *ch.Target.Node
		if int(node) >= len(doc.Nodes) {
			return nil, fmt.Errorf("animation %q channel %d: node %d out of range", a.Name, ci, node)
		}
		s, err := readSampler(doc, a, *ch.Sampler)
		if err != nil {
			return nil, fmt.Errorf("animation %q channel %d: %w", a.Name, ci, err)
		}
		nc, ok := nodes[node]
		if !ok {
			nc = &nodeChannels{}
			nodes[node] = nc
			order = append(order, node)
		}
		switch ch.Target.Path {
		case gltf.TRSTranslation:
			nc.translation = s
		case gltf.TRSRotation:
			nc.rotation = s
		case gltf.TRSScale:
			nc.scale = s
		case gltf.TRSWeights:
			nc.weights = s
		}
		if w := pathWidth(ch.Target.Path); w != 0 && s.width != w {
			return nil, fmt.Errorf("animation %q channel %d: %d components per key", a.Name, ci, s.width)
		}
	}

	clip := track.NewClip(a.Name)
	for _, node := range order {
		nc := nodes[node]
		if nc.translation != nil || nc.rotation != nil || nc.scale != nil {
			times := unionTimes(nc.translation, nc.rotation, nc.scale)
			tr := &track.TransformTrack{
				Target:       track.NodeTarget(nodeName(doc, node)),
				Times:        times,
				Translations: vectorChannel(nc.translation, times),
				Rotations:    rotationChannel(nc.rotation, times),
				Scales:       vectorChannel(nc.scale, times),
			}
			if j, ok := joints[node]; ok && h != nil {
				tr.Target = track.JointTarget(j)
				toUser(tr, h.Bind(j))
			}
			if err := tr.Validate(); err != nil {
				return nil, fmt.Errorf("animation %q node %d: %w", a.Name, node, err)
			}
			clip.Add(tr)
		}
		if w := nc.weights; w != nil {
			m := &track.MorphTrack{Node: nodeName(doc, node), Times: w.times}
			for i := range w.times {
				m.Weights = append(m.Weights, slices.Clone(w.values[i*w.width:(i+1)*w.width]))
			}
			clip.Add(m)
		}
	}
	return clip, nil
}

func writeTimes(doc *gltf.Document, times []float32) uint32 {
	acc := modeler.WriteAccessor(doc, gltf.TargetNone, times)
	// input accessors require bounds
	doc.Accessors[acc].Min = []float32{times[0]}
	doc.Accessors[acc].Max = []float32{times[len(times)-1]}
	return acc
}

func addChannel(a *gltf.Animation, node, input, output uint32, path gltf.TRSProperty) {
	a.Samplers = append(a.Samplers, &gltf.AnimationSampler{
		Input:         gltf.Index(input),
		Output:        gltf.Index(output),
		Interpolation: gltf.InterpolationLinear,
	})
	a.Channels = append(a.Channels, &gltf.Channel{
		Sampler: gltf.Index(uint32(len(a.Samplers) - 1)),
		Target: gltf.ChannelTarget{
			Node: gltf.Index(node),
			Path: path,
		},
	})
}

func findNode(doc *gltf.Document, name string) (uint32, bool) {
	for i := range doc.Nodes {
		if nodeName(doc, uint32(i)) == name {
			return uint32(i), true
		}
	}
	return 0, false
}

// ExportClip appends clip to doc as a new animation with linear samplers and
// returns its index. Joint tracks are converted back to local transforms of
// jointNodes; node and morph tracks are matched to nodes by name.
func ExportClip(doc *gltf.Document, clip *track.Clip, h *skeleton.Hierarchy, jointNodes []uint32) (uint32, error) {
	if h != nil && len(jointNodes) != h.NumJoints() {
		return 0, fmt.Errorf("%d joint nodes for %d joints", len(jointNodes), h.NumJoints())
	}
	if err := clip.Validate(); err != nil {
		return 0, err
	}
	a := &gltf.Animation{Name: clip.Name}
	for _, tr := range clip.Tracks {
		switch t := tr.(type) {
		case *track.TransformTrack:
			if err := exportTransformTrack(doc, a, t, h, jointNodes); err != nil {
				return 0, fmt.Errorf("clip %q: %w", clip.Name, err)
			}
		case *track.MorphTrack:
			node, ok := findNode(doc, t.Node)
			if !ok {
				return 0, fmt.Errorf("clip %q: no node named %q", clip.Name, t.Node)
			}
			if len(t.Times) == 0 {
				continue
			}
			var weights []float32
			for _, w := range t.Weights {
				weights = append(weights, w...)
			}
			addChannel(a, node, writeTimes(doc, t.Times), modeler.WriteAccessor(doc, gltf.TargetNone, weights), gltf.TRSWeights)
		}
	}
	doc.Animations = append(doc.Animations, a)
	return uint32(len(doc.Animations) - 1), nil
}

func exportTransformTrack(doc *gltf.Document, a *gltf.Animation, tr *track.TransformTrack, h *skeleton.Hierarchy, jointNodes []uint32) error {
	var node uint32
	bind := geom.IdentityTransform()
	if tr.Target.IsJoint() {
		if h == nil || tr.Target.Joint >= len(jointNodes) {
			return fmt.Errorf("no node for %v", tr.Target)
		}
		node = jointNodes[tr.Target.Joint]
		bind = h.Bind(tr.Target.Joint)
	} else {
		var ok bool
		if node, ok = findNode(doc, tr.Target.Node); !ok {
			return fmt.Errorf("no node named %q", tr.Target.Node)
		}
	}
	if tr.Len() == 0 {
		return nil
	}

	var translations, scales [][3]float32
	var rotations [][4]float32
	for i := range tr.Times {
		local := tr.Keyframe(i)
		if tr.Target.IsJoint() {
			local = skeleton.LocalFromUser(bind, local)
		}
		translations = append(translations, local.Translation.Array())
		rotations = append(rotations, local.Rotation.Array())
		scales = append(scales, local.Scale.Array())
	}

	times := writeTimes(doc, tr.Times)
	if tr.Translations.Present() {
		addChannel(a, node, times, modeler.WriteAccessor(doc, gltf.TargetNone, translations), gltf.TRSTranslation)
	}
	if tr.Rotations.Present() {
		addChannel(a, node, times, modeler.WriteAccessor(doc, gltf.TargetNone, rotations), gltf.TRSRotation)
	}
	if tr.Scales.Present() {
		addChannel(a, node, times, modeler.WriteAccessor(doc, gltf.TargetNone, scales), gltf.TRSScale)
	}
	return nil
}
