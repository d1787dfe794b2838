package skeleton

import "github.com/binzume/animedit/geom"

// SkinnedMesh is the vertex data needed to locate skinned vertices.
// Each vertex has up to four joint influences; unused slots have zero weight.
type SkinnedMesh struct {
	Positions []geom.Vector3
	Joints    [][4]int
	Weights   [][4]float32
}

func (m *SkinnedMesh) NumVertices() int { return len(m.Positions) }

// VertexPosition returns the model-space position of vertex v in pose p using
// linear blend skinning. Weights are normalized; a vertex without weight stays put.
func (m *SkinnedMesh) VertexPosition(p *Pose, v int) geom.Vector3 {
	return m.skin(v, p.SkinningMatrix)
}

// VertexPositions skins every vertex.
func (m *SkinnedMesh) VertexPositions(p *Pose) []geom.Vector3 {
	matrices := p.SkinningMatrices()
	result := make([]geom.Vector3, len(m.Positions))
	for v := range m.Positions {
		result[v] = m.skin(v, func(j int) *geom.Matrix4 { return matrices[j] })
	}
	return result
}

func (m *SkinnedMesh) skin(v int, matrix func(j int) *geom.Matrix4) geom.Vector3 {
	pos := m.Positions[v]
	var sum geom.Vector3
	var total float32
	for k, w := range m.Weights[v] {
		if w <= 0 {
			continue
		}
		sum = sum.Add(matrix(m.Joints[v][k]).ApplyTo(pos).Scale(w))
		total += w
	}
	if total == 0 {
		return pos
	}
	return sum.Scale(1 / total)
}
