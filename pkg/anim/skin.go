package anim

import (
	"fmt"

	"github.com/Faultbox/skelanim/pkg/math"
	"github.com/Faultbox/skelanim/pkg/scene"
)

// weightEpsilon bounds how far a skinned vertex's weights may drift from
// summing to one.
const weightEpsilon = 1e-3

// Influence binds one bone to a vertex with a blend weight.
type Influence struct {
	Bone   int
	Weight float32
}

// MeshFrame holds one mesh's posed geometry for one frame: positions and
// normals in the same length and order as the mesh's bind-pose arrays.
// A fresh MeshFrame is produced by every GetMeshFrame call; the model does
// not retain it.
type MeshFrame struct {
	Mesh      int
	Positions [][3]float32
	Normals   [][3]float32
}

// buildInfluences inverts a mesh's per-bone weight lists into a per-vertex
// influence table and checks the partition of unity: every vertex that has
// any weight must have weights summing to one within weightEpsilon.
// Vertices with no weights stay rigid under the identity transform.
func buildInfluences(mesh *scene.Mesh, boneID map[string]int) ([][]Influence, error) {
	influences := make([][]Influence, len(mesh.Positions))
	for _, sb := range mesh.Bones {
		id := boneID[sb.Node]
		for _, w := range sb.Weights {
			if w.Weight < 0 {
				return nil, fmt.Errorf("%w: mesh %q vertex %d has negative weight %g", ErrInconsistentAsset, mesh.Name, w.Vertex, w.Weight)
			}
			influences[w.Vertex] = append(influences[w.Vertex], Influence{Bone: id, Weight: w.Weight})
		}
	}

	for v, inf := range influences {
		if len(inf) == 0 {
			continue
		}
		var sum float32
		for _, i := range inf {
			sum += i.Weight
		}
		if sum < 1-weightEpsilon || sum > 1+weightEpsilon {
			return nil, fmt.Errorf("%w: mesh %q vertex %d weights sum to %g", ErrInconsistentAsset, mesh.Name, v, sum)
		}
	}

	return influences, nil
}

// skinMesh applies linear blend skinning: each vertex is transformed by the
// weighted sum of its bones' skinning matrices. Summing matrices rather
// than transformed positions matches classic LBS and lets a caller cache
// the blended matrix per vertex if it ever needs to.
func skinMesh(meshID int, mesh *scene.Mesh, influences [][]Influence, boneMatrices []math.Mat4) *MeshFrame {
	frame := &MeshFrame{
		Mesh:      meshID,
		Positions: make([][3]float32, len(mesh.Positions)),
		Normals:   make([][3]float32, len(mesh.Normals)),
	}

	for v := range mesh.Positions {
		inf := influences[v]
		if len(inf) == 0 {
			// Un-skinned vertex: rigid under identity.
			frame.Positions[v] = mesh.Positions[v]
			frame.Normals[v] = mesh.Normals[v]
			continue
		}

		m := boneMatrices[inf[0].Bone].MulScalar(inf[0].Weight)
		for _, i := range inf[1:] {
			m = m.Add(boneMatrices[i.Bone].MulScalar(i.Weight))
		}

		frame.Positions[v] = m.TransformPoint(mesh.Positions[v])
		// Blended matrices do not preserve length, so re-normalize.
		// A degenerate normal stays zero instead of going NaN.
		frame.Normals[v] = math.NormalizeArray(m.TransformDirection(mesh.Normals[v]))
	}

	return frame
}
