package skeleton

import (
	"log/slog"

	"golang.org/x/text/cases"
	"golang.org/x/text/transform"
	"golang.org/x/text/width"

	"github.com/binzume/animedit/geom"
)

// BoneMapping maps one target joint to a source joint. Twist is applied after
// the source orientation to make up for differing bind orientations.
type BoneMapping struct {
	Target string
	Source string
	Twist  geom.Quaternion
}

// SkeletonMapping associates target joint names with source joints.
// Each target name has at most one mapping.
type SkeletonMapping struct {
	byTarget map[string]BoneMapping
	targets  []string
}

func NewSkeletonMapping() *SkeletonMapping {
	return &SkeletonMapping{byTarget: map[string]BoneMapping{}}
}

// Map adds a mapping. A second mapping for the same target replaces the first.
func (m *SkeletonMapping) Map(target, source string, twist geom.Quaternion) {
	if old, ok := m.byTarget[target]; ok {
		slog.Warn("duplicate bone mapping", "target", target, "old", old.Source, "new", source)
	} else {
		m.targets = append(m.targets, target)
	}
	m.byTarget[target] = BoneMapping{Target: target, Source: source, Twist: twist}
}

func (m *SkeletonMapping) Get(target string) (BoneMapping, bool) {
	b, ok := m.byTarget[target]
	return b, ok
}

func (m *SkeletonMapping) Len() int { return len(m.targets) }

// Targets returns the mapped target names in insertion order.
func (m *SkeletonMapping) Targets() []string { return m.targets }

// Inverse maps source names to target names with inverted twists.
func (m *SkeletonMapping) Inverse() *SkeletonMapping {
	inv := NewSkeletonMapping()
	for _, t := range m.targets {
		b := m.byTarget[t]
		inv.Map(b.Source, b.Target, b.Twist.Inverse())
	}
	return inv
}

// IdentityMapping maps every joint of h to the joint of the same name.
func IdentityMapping(h *Hierarchy) *SkeletonMapping {
	m := NewSkeletonMapping()
	for _, j := range h.PreOrder() {
		m.Map(h.Name(j), h.Name(j), geom.IdentityQuaternion())
	}
	return m
}

// NormalizeName folds case and character width, so "Ｈｉｐｓ" and "hips" compare equal.
func NormalizeName(name string) string {
	s, _, err := transform.String(transform.Chain(width.Fold, cases.Fold()), name)
	if err != nil {
		return name
	}
	return s
}

// MatchByName maps target joints to source joints with the same name.
// With fold, names are compared after NormalizeName.
func MatchByName(target, source *Hierarchy, fold bool) *SkeletonMapping {
	key := func(s string) string { return s }
	if fold {
		key = NormalizeName
	}
	sources := map[string]string{}
	for _, j := range source.PreOrder() {
		k := key(source.Name(j))
		if _, dup := sources[k]; !dup {
			sources[k] = source.Name(j)
		}
	}
	m := NewSkeletonMapping()
	for _, j := range target.PreOrder() {
		name := target.Name(j)
		if s, ok := sources[key(name)]; ok {
			m.Map(name, s, geom.IdentityQuaternion())
		} else {
			slog.Debug("no source joint", "target", name)
		}
	}
	return m
}
