package skeleton

import (
	"fmt"

	"github.com/binzume/animedit/geom"
)

// Joint is one node of a skinning hierarchy.
type Joint struct {
	Name   string
	Parent int // -1 for roots
	// Bind is the rest transform relative to the parent.
	Bind geom.Transform
	// InverseBindMatrix maps model space to the joint's bind space.
	// Derived from the bind transforms when nil.
	InverseBindMatrix *geom.Matrix4
}

// Hierarchy is an immutable forest of joints indexed by position.
type Hierarchy struct {
	joints      []Joint
	children    [][]int
	roots       []int
	preorder    []int
	byName      map[string]int
	inverseBind []*geom.Matrix4
}

func NewHierarchy(joints []Joint) (*Hierarchy, error) {
	n := len(joints)
	h := &Hierarchy{
		joints:      make([]Joint, n),
		children:    make([][]int, n),
		byName:      make(map[string]int, n),
		inverseBind: make([]*geom.Matrix4, n),
	}
	copy(h.joints, joints)

	for i, j := range h.joints {
		if j.Parent < -1 || j.Parent >= n || j.Parent == i {
			return nil, fmt.Errorf("joint %d (%s): invalid parent %d", i, j.Name, j.Parent)
		}
		if _, dup := h.byName[j.Name]; dup {
			return nil, fmt.Errorf("joint %d: duplicate name %q", i, j.Name)
		}
		h.byName[j.Name] = i
		if j.Parent < 0 {
			h.roots = append(h.roots, i)
		} else {
			h.children[j.Parent] = append(h.children[j.Parent], i)
		}
	}

	var visit func(i int)
	visit = func(i int) {
		h.preorder = append(h.preorder, i)
		for _, c := range h.children[i] {
			visit(c)
		}
	}
	for _, r := range h.roots {
		visit(r)
	}
	if len(h.preorder) != n {
		return nil, fmt.Errorf("joint hierarchy has a cycle (%d of %d joints reachable)", len(h.preorder), n)
	}

	model := make([]geom.Transform, n)
	for _, i := range h.preorder {
		j := &h.joints[i]
		model[i] = j.Bind
		if j.Parent >= 0 {
			model[i] = j.Bind.CombineWithParent(model[j.Parent])
		}
		if j.InverseBindMatrix != nil {
			h.inverseBind[i] = j.InverseBindMatrix.Clone()
		} else {
			h.inverseBind[i] = model[i].Matrix().Inverse()
		}
	}
	return h, nil
}

func (h *Hierarchy) NumJoints() int { return len(h.joints) }

func (h *Hierarchy) Joint(i int) Joint { return h.joints[i] }

func (h *Hierarchy) Name(i int) string { return h.joints[i].Name }

func (h *Hierarchy) Parent(i int) int { return h.joints[i].Parent }

func (h *Hierarchy) Bind(i int) geom.Transform { return h.joints[i].Bind }

func (h *Hierarchy) Children(i int) []int { return h.children[i] }

func (h *Hierarchy) Roots() []int { return h.roots }

// PreOrder lists every joint with parents before their children.
func (h *Hierarchy) PreOrder() []int { return h.preorder }

func (h *Hierarchy) InverseBindMatrix(i int) *geom.Matrix4 { return h.inverseBind[i] }

// Find returns the index of the joint with the given name.
func (h *Hierarchy) Find(name string) (int, bool) {
	i, ok := h.byName[name]
	return i, ok
}

func (h *Hierarchy) checkJoint(i int) {
	if i < 0 || i >= len(h.joints) {
		panic(fmt.Sprintf("skeleton: joint index %d out of range [0, %d)", i, len(h.joints)))
	}
}
