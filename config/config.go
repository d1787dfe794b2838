// Package config reads retargeting and editing settings from YAML.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/binzume/animedit/geom"
	"github.com/binzume/animedit/interp"
	"github.com/binzume/animedit/skeleton"
	"github.com/binzume/animedit/track"
)

const DefaultSupportDelta = 0.01

type Config struct {
	Name          string         `yaml:"name"`
	Interpolation Interpolation  `yaml:"interpolation"`
	Smoothing     Smoothing      `yaml:"smoothing"`
	Support       *Support       `yaml:"support"`
	Mappings      []*BoneMapping `yaml:"mappings"`
	MatchNames    *MatchNames    `yaml:"matchNames"`
}

// Interpolation names the technique per channel, e.g. "Nlerp" or "LoopFdcSpline".
type Interpolation struct {
	Rotations    string `yaml:"rotations"`
	Translations string `yaml:"translations"`
	Scales       string `yaml:"scales"`
}

type Smoothing struct {
	Width float32 `yaml:"width"`
	Loop  bool    `yaml:"loop"`
}

// Support selects the vertex kept on the ground. Vertex -1 picks the lowest
// vertex influenced by the joint.
type Support struct {
	Joint  string  `yaml:"joint"`
	Vertex int     `yaml:"vertex"`
	Delta  float32 `yaml:"delta"`
}

// BoneMapping maps a target joint to a source joint. Twist holds Euler
// angles in degrees, applied in Order.
type BoneMapping struct {
	Target string    `yaml:"target"`
	Source string    `yaml:"source"`
	Twist  []float32 `yaml:"twist"`
	Order  string    `yaml:"order"`
}

type MatchNames struct {
	Fold bool `yaml:"fold"`
}

// Default matches joints by folded name and interpolates linearly.
func Default() *Config {
	c := &Config{MatchNames: &MatchNames{Fold: true}}
	c.setDefaults()
	return c
}

// Parse reads a config and fills in defaults. Unknown keys are errors.
func Parse(data []byte) (*Config, error) {
	var c Config
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.setDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func (c *Config) setDefaults() {
	if c.Interpolation.Rotations == "" {
		c.Interpolation.Rotations = interp.Nlerp.String()
	}
	if c.Interpolation.Translations == "" {
		c.Interpolation.Translations = interp.Lerp.String()
	}
	if c.Interpolation.Scales == "" {
		c.Interpolation.Scales = interp.Lerp.String()
	}
	if c.Support != nil && c.Support.Delta == 0 {
		c.Support.Delta = DefaultSupportDelta
	}
}

func (c *Config) Validate() error {
	var errs []error
	if _, err := c.Tween(); err != nil {
		errs = append(errs, err)
	}
	if c.Smoothing.Width < 0 {
		errs = append(errs, fmt.Errorf("smoothing width %v is negative", c.Smoothing.Width))
	}
	if s := c.Support; s != nil {
		if s.Joint == "" {
			errs = append(errs, errors.New("support joint is required"))
		}
		if s.Vertex < -1 {
			errs = append(errs, fmt.Errorf("support vertex %d is invalid", s.Vertex))
		}
		if s.Delta <= 0 {
			errs = append(errs, fmt.Errorf("support delta %v must be positive", s.Delta))
		}
	}
	for i, m := range c.Mappings {
		if m.Target == "" || m.Source == "" {
			errs = append(errs, fmt.Errorf("mapping %d: target and source are required", i))
		}
		if _, err := m.TwistQuaternion(); err != nil {
			errs = append(errs, fmt.Errorf("mapping %d (%s): %w", i, m.Target, err))
		}
	}
	return errors.Join(errs...)
}

// Tween returns the configured interpolation techniques.
func (c *Config) Tween() (track.TweenTransforms, error) {
	var tw track.TweenTransforms
	var err error
	if tw.Rotations, err = interp.ParseTweenRotations(c.Interpolation.Rotations); err != nil {
		return tw, err
	}
	if tw.Translations, err = interp.ParseTweenVectors(c.Interpolation.Translations); err != nil {
		return tw, err
	}
	if tw.Scales, err = interp.ParseTweenVectors(c.Interpolation.Scales); err != nil {
		return tw, err
	}
	return tw, nil
}

// Smooth returns the smoothing filters and window width. A width of 0 disables smoothing.
func (c *Config) Smooth() (track.SmoothTransforms, float32) {
	if c.Smoothing.Loop {
		return track.SmoothTransforms{
			Translations: interp.SmoothLoopLerp,
			Rotations:    interp.SmoothLoopNlerp,
			Scales:       interp.SmoothLoopLerp,
		}, c.Smoothing.Width
	}
	return track.SmoothTransforms{
		Translations: interp.SmoothLerp,
		Rotations:    interp.SmoothNlerp,
		Scales:       interp.SmoothLerp,
	}, c.Smoothing.Width
}

func (m *BoneMapping) TwistQuaternion() (geom.Quaternion, error) {
	order, ok := geom.ParseRotationOrder(m.Order)
	if !ok {
		return geom.Quaternion{}, fmt.Errorf("unknown rotation order %q", m.Order)
	}
	switch len(m.Twist) {
	case 0:
		return geom.IdentityQuaternion(), nil
	case 3:
		return geom.NewEulerDegrees(m.Twist[0], m.Twist[1], m.Twist[2], order).ToQuaternion(), nil
	}
	return geom.Quaternion{}, fmt.Errorf("twist needs 3 angles, got %d", len(m.Twist))
}

// Mapping builds the bone mapping from target to source. With matchNames,
// joints of equal name are mapped first; explicit mappings take precedence.
// An explicit mapping with an invalid twist is an error.
func (c *Config) Mapping(target, source *skeleton.Hierarchy) (*skeleton.SkeletonMapping, error) {
	explicit := map[string]bool{}
	for _, m := range c.Mappings {
		explicit[m.Target] = true
	}
	result := skeleton.NewSkeletonMapping()
	if c.MatchNames != nil {
		matched := skeleton.MatchByName(target, source, c.MatchNames.Fold)
		for _, name := range matched.Targets() {
			if b, _ := matched.Get(name); !explicit[name] {
				result.Map(name, b.Source, b.Twist)
			}
		}
	}
	for _, m := range c.Mappings {
		twist, err := m.TwistQuaternion()
		if err != nil {
			return nil, fmt.Errorf("mapping %q: %w", m.Target, err)
		}
		result.Map(m.Target, m.Source, twist)
	}
	return result, nil
}

// SupportJoint resolves the support settings against h.
func (c *Config) SupportJoint(h *skeleton.Hierarchy) (int, error) {
	if c.Support == nil {
		return -1, errors.New("no support configured")
	}
	j, ok := h.Find(c.Support.Joint)
	if !ok {
		return -1, fmt.Errorf("support joint %q not found", c.Support.Joint)
	}
	return j, nil
}
