package gltfio

import (
	"fmt"

	"github.com/qmuntal/gltf"

	"github.com/binzume/animedit/geom"
	"github.com/binzume/animedit/skeleton"
)

// nodeTransform returns the local TRS of a node, decomposing its matrix when set.
func nodeTransform(n *gltf.Node) geom.Transform {
	if m := n.MatrixOrDefault(); m != gltf.DefaultMatrix {
		t, r, s := geom.NewMatrix4FromSlice(m[:]).Decompose()
		return geom.NewTransform(t, r, s)
	}
	return geom.NewTransform(
		geom.NewVector3FromArray(n.Translation),
		geom.NewQuaternionFromArray(n.RotationOrDefault()),
		geom.NewVector3FromArray(n.ScaleOrDefault()))
}

func nodeName(doc *gltf.Document, node uint32) string {
	if name := doc.Nodes[node].Name; name != "" {
		return name
	}
	return fmt.Sprintf("node%d", node)
}

// ImportHierarchy builds the joint hierarchy of a skin. Joint i is node
// jointNodes[i]. A joint whose parent node is not part of the skin is a root.
func ImportHierarchy(doc *gltf.Document, skin uint32) (*skeleton.Hierarchy, []uint32, error) {
	if int(skin) >= len(doc.Skins) {
		return nil, nil, fmt.Errorf("skin %d out of range", skin)
	}
	s := doc.Skins[skin]
	jointNodes := append([]uint32(nil), s.Joints...)

	index := map[uint32]int{}
	for i, n := range jointNodes {
		if int(n) >= len(doc.Nodes) {
			return nil, nil, fmt.Errorf("skin %d: joint node %d out of range", skin, n)
		}
		index[n] = i
	}

	var ibm [][16]float32
	if s.InverseBindMatrices != nil {
		var err error
		if ibm, err = readMatrices(doc, *s.InverseBindMatrices); err != nil {
			return nil, nil, fmt.Errorf("skin %d: %w", skin, err)
		}
		if len(ibm) < len(jointNodes) {
			return nil, nil, fmt.Errorf("skin %d: %d inverse bind matrices for %d joints", skin, len(ibm), len(jointNodes))
		}
	}

	joints := make([]skeleton.Joint, len(jointNodes))
	for i, n := range jointNodes {
		joints[i] = skeleton.Joint{
			Name:   nodeName(doc, n),
			Parent: -1,
			Bind:   nodeTransform(doc.Nodes[n]),
		}
		if ibm != nil {
			joints[i].InverseBindMatrix = geom.NewMatrix4FromSlice(ibm[i][:])
		}
	}
	for p, node := range doc.Nodes {
		pi, ok := index[uint32(p)]
		if !ok {
			continue
		}
		for _, c := range node.Children {
			if ci, ok := index[c]; ok {
				joints[ci].Parent = pi
			}
		}
	}

	h, err := skeleton.NewHierarchy(joints)
	if err != nil {
		return nil, nil, fmt.Errorf("skin %d: %w", skin, err)
	}
	return h, jointNodes, nil
}
