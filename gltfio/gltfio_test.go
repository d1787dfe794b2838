package gltfio

import (
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binzume/animedit/geom"
	"github.com/binzume/animedit/track"
)

const eps = 1e-5

var rotY = geom.NewQuaternionFromAxisAngle(geom.NewVector3(0, 1, 0), 0.3)

func testDocument() *gltf.Document {
	doc := gltf.NewDocument()
	doc.Nodes = []*gltf.Node{
		{Name: "hips", Translation: [3]float32{0, 1, 0}, Rotation: rotY.Array(), Scale: [3]float32{1, 1, 1}, Children: []uint32{1}},
		{Name: "leg", Translation: [3]float32{0.1, -0.5, 0}, Rotation: [4]float32{0, 0, 0, 1}, Scale: [3]float32{1, 1, 1}},
		{Name: "camera", Translation: [3]float32{0, 0, 5}, Rotation: [4]float32{0, 0, 0, 1}, Scale: [3]float32{1, 1, 1}},
		{Name: "face", Rotation: [4]float32{0, 0, 0, 1}, Scale: [3]float32{1, 1, 1}},
	}
	doc.Skins = []*gltf.Skin{{Joints: []uint32{0, 1}}}
	return doc
}

func writeMatrices(doc *gltf.Document, m [][16]float32) uint32 {
	cols := make([][4][4]float32, len(m))
	for i, e := range m {
		for k, v := range e {
			cols[i][k/4][k%4] = v
		}
	}
	return modeler.WriteAccessor(doc, gltf.TargetNone, cols)
}

func addSampler(doc *gltf.Document, a *gltf.Animation, node uint32, path gltf.TRSProperty, interpolation gltf.Interpolation, times []float32, output any) {
	in := modeler.WriteAccessor(doc, gltf.TargetNone, times)
	out := modeler.WriteAccessor(doc, gltf.TargetNone, output)
	a.Samplers = append(a.Samplers, &gltf.AnimationSampler{Input: gltf.Index(in), Output: gltf.Index(out), Interpolation: interpolation})
	a.Channels = append(a.Channels, &gltf.Channel{
		Sampler: gltf.Index(uint32(len(a.Samplers) - 1)),
		Target:  gltf.ChannelTarget{Node: gltf.Index(node), Path: path},
	})
}

func TestImportHierarchy(t *testing.T) {
	doc := testDocument()
	h, nodes, err := ImportHierarchy(doc, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1}, nodes)
	assert.Equal(t, 2, h.NumJoints())
	assert.Equal(t, "leg", h.Name(1))
	assert.Equal(t, 0, h.Parent(1))
	assert.Equal(t, -1, h.Parent(0))
	assert.True(t, h.Bind(0).Rotation.ApproxEquals(rotY, eps))
	assert.Equal(t, geom.NewVector3(0.1, -0.5, 0), h.Bind(1).Translation)

	// The derived inverse bind matrix undoes the bind pose.
	p := h.Bind(1).CombineWithParent(h.Bind(0)).ApplyTo(geom.ZeroVector3())
	assert.True(t, h.InverseBindMatrix(1).ApplyTo(p).ApproxEquals(geom.ZeroVector3(), eps))

	ibm := [][16]float32{geom.NewMatrix4().Array(), geom.NewMatrix4().Array()}
	ibm[1][13] = 2
	doc.Skins[0].InverseBindMatrices = gltf.Index(writeMatrices(doc, ibm))
	h, _, err = ImportHierarchy(doc, 0)
	require.NoError(t, err)
	assert.Equal(t, ibm[1], h.InverseBindMatrix(1).Array())

	_, _, err = ImportHierarchy(doc, 1)
	assert.Error(t, err)
	doc.Skins[0].Joints = []uint32{0, 9}
	_, _, err = ImportHierarchy(doc, 0)
	assert.Error(t, err)
}

func testClip() *track.Clip {
	kick := geom.NewQuaternionFromAxisAngle(geom.NewVector3(1, 0, 0), 0.8)
	return track.NewClip("walk",
		track.NewTransformTrack(track.JointTarget(1), []float32{0, 0.5, 1},
			track.Some([]geom.Vector3{{}, {Y: 0.2}, {}}),
			track.Some([]geom.Quaternion{geom.IdentityQuaternion(), kick, geom.IdentityQuaternion()}),
			track.None[geom.Vector3]()),
		track.NewTransformTrack(track.NodeTarget("camera"), []float32{0, 2},
			track.Some([]geom.Vector3{{Z: 5}, {X: 1, Z: 5}}),
			track.None[geom.Quaternion](),
			track.None[geom.Vector3]()),
		&track.MorphTrack{Node: "face", Times: []float32{0, 1}, Weights: [][]float32{{0, 1}, {0.5, 0.25}}},
	)
}

func TestExportImportClip(t *testing.T) {
	doc := testDocument()
	h, nodes, err := ImportHierarchy(doc, 0)
	require.NoError(t, err)

	clip := testClip()
	index, err := ExportClip(doc, clip, h, nodes)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), index)
	a := doc.Animations[0]
	assert.Equal(t, "walk", a.Name)
	assert.Len(t, a.Channels, 4)
	for _, s := range a.Samplers {
		assert.Equal(t, gltf.InterpolationLinear, s.Interpolation)
	}

	// Joint channels hold local transforms.
	values, n, err := readFloats(doc, *a.Samplers[0].Output)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.InDelta(t, 0.1, values[0], eps)
	assert.InDelta(t, -0.3, values[4], eps)

	imported, err := ImportClip(doc, index, h, nodes)
	require.NoError(t, err)
	assert.Equal(t, clip.Duration(), imported.Duration())

	leg, ok := imported.TransformTrack(track.JointTarget(1))
	require.True(t, ok)
	want, _ := clip.TransformTrack(track.JointTarget(1))
	assert.Equal(t, want.Times, leg.Times)
	assert.False(t, leg.Scales.Present())
	for i := range want.Times {
		assert.True(t, leg.Keyframe(i).ApproxEquals(want.Keyframe(i), eps), "key %d: %v", i, leg.Keyframe(i))
	}

	camera, ok := imported.TransformTrack(track.NodeTarget("camera"))
	require.True(t, ok)
	assert.Equal(t, []geom.Vector3{{Z: 5}, {X: 1, Z: 5}}, camera.Translations.Values())

	require.Len(t, imported.Tracks, 3)
	morph := imported.Tracks[2].(*track.MorphTrack)
	assert.Equal(t, "face", morph.Node)
	assert.Equal(t, [][]float32{{0, 1}, {0.5, 0.25}}, morph.Weights)
}

func TestExportErrors(t *testing.T) {
	doc := testDocument()
	h, nodes, err := ImportHierarchy(doc, 0)
	require.NoError(t, err)

	_, err = ExportClip(doc, testClip(), h, nodes[:1])
	assert.Error(t, err)
	clip := track.NewClip("lost", track.NewTransformTrack(track.NodeTarget("nowhere"), []float32{0},
		track.Some([]geom.Vector3{{}}), track.None[geom.Quaternion](), track.None[geom.Vector3]()))
	_, err = ExportClip(doc, clip, h, nodes)
	assert.Error(t, err)
	assert.Empty(t, doc.Animations)
}

func TestImportInterpolationModes(t *testing.T) {
	doc := testDocument()
	a := &gltf.Animation{Name: "modes"}
	// in-tangent, value, out-tangent per key
	addSampler(doc, a, 2, gltf.TRSTranslation, gltf.InterpolationCubicSpline, []float32{0, 1},
		[][3]float32{{9, 9, 9}, {1, 2, 3}, {9, 9, 9}, {8, 8, 8}, {4, 5, 6}, {8, 8, 8}})
	addSampler(doc, a, 3, gltf.TRSScale, gltf.InterpolationStep, []float32{0, 1},
		[][3]float32{{1, 1, 1}, {2, 2, 2}})
	doc.Animations = append(doc.Animations, a)

	clip, err := ImportClip(doc, 0, nil, nil)
	require.NoError(t, err)
	camera, ok := clip.TransformTrack(track.NodeTarget("camera"))
	require.True(t, ok)
	assert.Equal(t, []geom.Vector3{{X: 1, Y: 2, Z: 3}, {X: 4, Y: 5, Z: 6}}, camera.Translations.Values())

	face, ok := clip.TransformTrack(track.NodeTarget("face"))
	require.True(t, ok)
	assert.Equal(t, []geom.Vector3{{X: 1, Y: 1, Z: 1}, {X: 2, Y: 2, Z: 2}}, face.Scales.Values())
	assert.False(t, face.Translations.Present())
}

func TestImportResamplesChannels(t *testing.T) {
	doc := testDocument()
	a := &gltf.Animation{Name: "mixed"}
	addSampler(doc, a, 2, gltf.TRSTranslation, gltf.InterpolationLinear, []float32{0, 1},
		[][3]float32{{0, 0, 0}, {2, 0, 0}})
	addSampler(doc, a, 2, gltf.TRSRotation, gltf.InterpolationLinear, []float32{0, 0.5, 1},
		[][4]float32{{0, 0, 0, 1}, rotY.Array(), {0, 0, 0, 1}})
	doc.Animations = append(doc.Animations, a)

	clip, err := ImportClip(doc, 0, nil, nil)
	require.NoError(t, err)
	require.Len(t, clip.Tracks, 1)
	tr := clip.Tracks[0].(*track.TransformTrack)
	assert.Equal(t, []float32{0, 0.5, 1}, tr.Times)
	assert.Equal(t, geom.NewVector3(1, 0, 0), tr.Translations.Values()[1])
	assert.True(t, tr.Rotations.Values()[1].ApproxEquals(rotY, eps))
}

func TestImportErrors(t *testing.T) {
	doc := testDocument()
	_, err := ImportClip(doc, 0, nil, nil)
	assert.Error(t, err)

	a := &gltf.Animation{Name: "bad"}
	addSampler(doc, a, 2, gltf.TRSTranslation, gltf.InterpolationLinear, []float32{1, 0},
		[][3]float32{{0, 0, 0}, {2, 0, 0}})
	doc.Animations = append(doc.Animations, a)
	_, err = ImportClip(doc, 0, nil, nil)
	assert.Error(t, err)

	a = &gltf.Animation{Name: "short"}
	addSampler(doc, a, 2, gltf.TRSRotation, gltf.InterpolationLinear, []float32{0, 1},
		[][3]float32{{0, 0, 0}, {2, 0, 0}})
	doc.Animations = append(doc.Animations, a)
	_, err = ImportClip(doc, 1, nil, nil)
	assert.Error(t, err)
}

func TestImportSparseWeights(t *testing.T) {
	doc := testDocument()
	in := modeler.WriteAccessor(doc, gltf.TargetNone, []float32{0})
	indices := modeler.WriteBufferView(doc, gltf.TargetNone, []uint8{1})
	values := modeler.WriteBufferView(doc, gltf.TargetNone, []float32{1})
	doc.Accessors = append(doc.Accessors, &gltf.Accessor{
		ComponentType: gltf.ComponentFloat,
		Type:          gltf.AccessorScalar,
		Count:         3,
		Sparse: &gltf.Sparse{
			Count:   1,
			Indices: gltf.SparseIndices{BufferView: indices, ComponentType: gltf.ComponentUbyte},
			Values:  gltf.SparseValues{BufferView: values},
		},
	})
	out := uint32(len(doc.Accessors) - 1)
	a := &gltf.Animation{Name: "blink"}
	a.Samplers = append(a.Samplers, &gltf.AnimationSampler{Input: gltf.Index(in), Output: gltf.Index(out), Interpolation: gltf.InterpolationLinear})
	a.Channels = append(a.Channels, &gltf.Channel{
		Sampler: gltf.Index(0),
		Target:  gltf.ChannelTarget{Node: gltf.Index(3), Path: gltf.TRSWeights},
	})
	doc.Animations = append(doc.Animations, a)

	clip, err := ImportClip(doc, 0, nil, nil)
	require.NoError(t, err)
	require.Len(t, clip.Tracks, 1)
	morph := clip.Tracks[0].(*track.MorphTrack)
	assert.Equal(t, "face", morph.Node)
	assert.Equal(t, [][]float32{{0, 1, 0}}, morph.Weights)
}

func TestImportNormalizedRotations(t *testing.T) {
	doc := testDocument()
	a := &gltf.Animation{Name: "packed"}
	addSampler(doc, a, 2, gltf.TRSRotation, gltf.InterpolationLinear, []float32{0, 1},
		[][4]int16{{0, 0, 0, 32767}, {0, 32767, 0, 0}})
	doc.Accessors[*a.Samplers[0].Output].Normalized = true
	doc.Animations = append(doc.Animations, a)

	clip, err := ImportClip(doc, 0, nil, nil)
	require.NoError(t, err)
	camera, ok := clip.TransformTrack(track.NodeTarget("camera"))
	require.True(t, ok)
	assert.True(t, camera.Rotations.Values()[0].ApproxEquals(geom.IdentityQuaternion(), eps))
	assert.True(t, camera.Rotations.Values()[1].ApproxEquals(geom.NewQuaternion(0, 1, 0, 0), eps))
}

func TestSaveAndOpen(t *testing.T) {
	doc := testDocument()
	h, nodes, err := ImportHierarchy(doc, 0)
	require.NoError(t, err)
	_, err = ExportClip(doc, testClip(), h, nodes)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "walk.glb")
	require.NoError(t, SaveBinary(doc, path))
	loaded, err := Open(path)
	require.NoError(t, err)

	h2, nodes2, err := ImportHierarchy(loaded, 0)
	require.NoError(t, err)
	clip, err := ImportClip(loaded, 0, h2, nodes2)
	require.NoError(t, err)
	assert.Equal(t, "walk", clip.Name)
	assert.Len(t, clip.Tracks, 3)
}

func TestImportSkinnedMesh(t *testing.T) {
	doc := testDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0.1, 0, 0}, {0, 1, 0}})
	joints := modeler.WriteJoints(doc, [][4]uint8{{1, 0, 0, 0}, {0, 1, 0, 0}})
	weights := modeler.WriteWeights(doc, [][4]float32{{1, 0, 0, 0}, {0.5, 0.5, 0, 0}})
	doc.Meshes = []*gltf.Mesh{{Name: "body", Primitives: []*gltf.Primitive{{
		Attributes: map[string]uint32{"POSITION": pos, "JOINTS_0": joints, "WEIGHTS_0": weights},
	}}}}
	doc.Nodes = append(doc.Nodes, &gltf.Node{Name: "body", Mesh: gltf.Index(0), Skin: gltf.Index(0)})

	m, err := ImportSkinnedMesh(doc, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, m.NumVertices())
	assert.Equal(t, geom.NewVector3(0, 1, 0), m.Positions[1])
	assert.Equal(t, [][4]int{{1, 0, 0, 0}, {0, 1, 0, 0}}, m.Joints)
	assert.Equal(t, [4]float32{0.5, 0.5, 0, 0}, m.Weights[1])

	_, err = ImportSkinnedMesh(doc, 0)
	assert.Error(t, err)
}
