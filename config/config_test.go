package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binzume/animedit/geom"
	"github.com/binzume/animedit/interp"
	"github.com/binzume/animedit/skeleton"
	"github.com/binzume/animedit/track"
)

const sample = `
name: walk-retarget
interpolation:
  rotations: loopSpline
  translations: LoopFdcSpline
smoothing:
  width: 0.2
  loop: true
support:
  joint: leftFoot
  vertex: -1
mappings:
  - target: Chest
    source: spine
    twist: [0, 90, 0]
    order: YXZ
  - target: Hips
    source: hips
matchNames:
  fold: true
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(sample))
	require.NoError(t, err)
	assert.Equal(t, "walk-retarget", c.Name)

	tw, err := c.Tween()
	require.NoError(t, err)
	assert.Equal(t, track.TweenTransforms{
		Translations: interp.LoopFdcSpline,
		Rotations:    interp.LoopSpline,
		Scales:       interp.Lerp,
	}, tw)

	smooth, width := c.Smooth()
	assert.Equal(t, float32(0.2), width)
	assert.Equal(t, interp.SmoothLoopNlerp, smooth.Rotations)

	require.NotNil(t, c.Support)
	assert.Equal(t, -1, c.Support.Vertex)
	assert.Equal(t, float32(DefaultSupportDelta), c.Support.Delta)

	q, err := c.Mappings[0].TwistQuaternion()
	require.NoError(t, err)
	want := geom.NewQuaternionFromAxisAngle(geom.NewVector3(0, 1, 0), 1.5707964)
	assert.True(t, q.IsSameRotation(want, 1e-5), "%v", q)
}

func TestDefaults(t *testing.T) {
	c, err := Parse([]byte("name: plain\n"))
	require.NoError(t, err)
	tw, err := c.Tween()
	require.NoError(t, err)
	assert.Equal(t, track.DefaultTweenTransforms(), tw)
	_, width := c.Smooth()
	assert.Zero(t, width)
	assert.Nil(t, c.Support)
	assert.Nil(t, c.MatchNames)
}

func TestParseErrors(t *testing.T) {
	for name, src := range map[string]string{
		"technique":   "interpolation: {rotations: cubic}\n",
		"unknown key": "speed: 2\n",
		"width":       "smoothing: {width: -1}\n",
		"support":     "support: {vertex: 3}\n",
		"order":       "mappings: [{target: a, source: b, twist: [1, 2, 3], order: XZY}]\n",
		"twist":       "mappings: [{target: a, source: b, twist: [1, 2]}]\n",
		"source":      "mappings: [{target: a}]\n",
		"yaml":        "mappings: [\n",
	} {
		_, err := Parse([]byte(src))
		assert.Error(t, err, name)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "retarget.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))
	c, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, c.Mappings, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestMapping(t *testing.T) {
	identity := geom.IdentityTransform()
	target, err := skeleton.NewHierarchy([]skeleton.Joint{
		{Name: "Hips", Parent: -1, Bind: identity},
		{Name: "Chest", Parent: 0, Bind: identity},
		{Name: "LeftFoot", Parent: 0, Bind: identity},
	})
	require.NoError(t, err)
	source, err := skeleton.NewHierarchy([]skeleton.Joint{
		{Name: "hips", Parent: -1, Bind: identity},
		{Name: "chest", Parent: 0, Bind: identity},
		{Name: "spine", Parent: 0, Bind: identity},
		{Name: "leftfoot", Parent: 0, Bind: identity},
	})
	require.NoError(t, err)

	c, err := Parse([]byte(sample))
	require.NoError(t, err)
	m, err := c.Mapping(target, source)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Len())
	b, ok := m.Get("Chest")
	require.True(t, ok)
	assert.Equal(t, "spine", b.Source)
	b, ok = m.Get("LeftFoot")
	require.True(t, ok)
	assert.Equal(t, "leftfoot", b.Source)

	c.MatchNames = nil
	m, err = c.Mapping(target, source)
	require.NoError(t, err)
	assert.Equal(t, []string{"Chest", "Hips"}, m.Targets())

	// Configs built in code skip Validate; a bad twist still fails.
	built := &Config{Mappings: []*BoneMapping{{Target: "Chest", Source: "spine", Twist: []float32{90}}}}
	_, err = built.Mapping(target, source)
	assert.ErrorContains(t, err, "Chest")
	built.Mappings[0] = &BoneMapping{Target: "Chest", Source: "spine", Twist: []float32{0, 90, 0}, Order: "XZY"}
	_, err = built.Mapping(target, source)
	assert.Error(t, err)

	_, err = c.SupportJoint(target)
	assert.Error(t, err)
	c.Support.Joint = "LeftFoot"
	j, err := c.SupportJoint(target)
	require.NoError(t, err)
	assert.Equal(t, 2, j)
}
