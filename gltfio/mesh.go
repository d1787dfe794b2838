package gltfio

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/binzume/animedit/geom"
	"github.com/binzume/animedit/skeleton"
)

// ImportSkinnedMesh collects the skinned vertices of every primitive of the
// mesh attached to node. Joint indices refer to the joints of the node's skin.
func ImportSkinnedMesh(doc *gltf.Document, node uint32) (*skeleton.SkinnedMesh, error) {
	if int(node) >= len(doc.Nodes) {
		return nil, fmt.Errorf("node %d out of range", node)
	}
	n := doc.Nodes[node]
	if n.Mesh == nil || n.Skin == nil {
		return nil, fmt.Errorf("node %d has no skinned mesh", node)
	}
	if int(*n.Skin) >= len(doc.Skins) {
		return nil, fmt.Errorf("node %d: skin %d out of range", node, *n.Skin)
	}
	numJoints := len(doc.Skins[*n.Skin].Joints)
	m := &skeleton.SkinnedMesh{}
	for pi, p := range doc.Meshes[*n.Mesh].Primitives {
		posAcc, ok := p.Attributes["POSITION"]
		if !ok {
			continue
		}
		jointsAcc, ok1 := p.Attributes["JOINTS_0"]
		weightsAcc, ok2 := p.Attributes["WEIGHTS_0"]
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("mesh %d primitive %d: missing JOINTS_0 or WEIGHTS_0", *n.Mesh, pi)
		}
		var accs [3]*gltf.Accessor
		for k, index := range []uint32{posAcc, jointsAcc, weightsAcc} {
			acr, err := accessor(doc, index)
			if err != nil {
				return nil, fmt.Errorf("mesh %d primitive %d: %w", *n.Mesh, pi, err)
			}
			accs[k] = acr
		}
		pos, err := modeler.ReadPosition(doc, accs[0], nil)
		if err != nil {
			return nil, fmt.Errorf("mesh %d primitive %d: %w", *n.Mesh, pi, err)
		}
		joints, err := modeler.ReadJoints(doc, accs[1], nil)
		if err != nil {
			return nil, fmt.Errorf("mesh %d primitive %d: %w", *n.Mesh, pi, err)
		}
		weights, err := modeler.ReadWeights(doc, accs[2], nil)
		if err != nil {
			return nil, fmt.Errorf("mesh %d primitive %d: %w", *n.Mesh, pi, err)
		}
		if len(joints) != len(pos) || len(weights) != len(pos) {
			return nil, fmt.Errorf("mesh %d primitive %d: attribute counts differ", *n.Mesh, pi)
		}
		for v := range pos {
			m.Positions = append(m.Positions, geom.NewVector3FromArray(pos[v]))
			var j [4]int
			for k := 0; k < 4; k++ {
				j[k] = int(joints[v][k])
				if weights[v][k] > 0 && j[k] >= numJoints {
					return nil, fmt.Errorf("mesh %d primitive %d: vertex %d uses joint %d of %d", *n.Mesh, pi, v, j[k], numJoints)
				}
			}
			m.Joints = append(m.Joints, j)
			m.Weights = append(m.Weights, weights[v])
		}
	}
	return m, nil
}
