// Package gltfscene imports glTF 2.0 assets into the scene view consumed
// by the animation runtime. Node hierarchy, mesh primitives, skins with
// inverse bind matrices, and keyframed animations are all converted; how
// materials turn into textures is left to an injected factory so the
// package carries no GPU dependency.
package gltfscene

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/skelanim/pkg/math"
	"github.com/Faultbox/skelanim/pkg/scene"
)

// ErrBadDocument reports a glTF document the importer cannot represent:
// missing required attributes, out-of-range indices, or accessor types
// outside the float paths the runtime consumes.
var ErrBadDocument = errors.New("malformed gltf document")

// Load opens a .glb or .gltf file and converts it into a scene. factory
// builds a scene.Material per glTF material; pass nil to get untextured
// materials throughout (CLI tools and tests).
func Load(path string, factory MaterialFactory) (*scene.Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf open %q: %w", path, err)
	}
	return fromDocument(doc, filepath.Dir(path), factory)
}

func fromDocument(doc *gltf.Document, dir string, factory MaterialFactory) (*scene.Scene, error) {
	if len(doc.Nodes) == 0 {
		return nil, fmt.Errorf("%w: no nodes", ErrBadDocument)
	}

	names := nodeNames(doc)
	nodes, root := buildNodes(doc, names)

	materials := make([]scene.Material, len(doc.Materials))
	for i, gm := range doc.Materials {
		materials[i] = makeMaterial(doc, dir, gm, factory)
	}
	defaultMat := -1

	var meshes []scene.Mesh
	for ni, gn := range doc.Nodes {
		if gn.Mesh == nil || *gn.Mesh >= len(doc.Meshes) {
			continue
		}
		gm := doc.Meshes[*gn.Mesh]

		var joints []int
		var offsets []math.Mat4
		if gn.Skin != nil && *gn.Skin < len(doc.Skins) {
			sk := doc.Skins[*gn.Skin]
			joints = sk.Joints
			var err error
			offsets, err = readInverseBind(doc, sk)
			if err != nil {
				return nil, err
			}
		}

		for pi, prim := range gm.Primitives {
			mesh, err := buildPrimitive(doc, names, ni, gm.Name, pi, prim, joints, offsets)
			if err != nil {
				return nil, fmt.Errorf("mesh %q primitive %d: %w", gm.Name, pi, err)
			}

			if prim.Material != nil && *prim.Material < len(materials) {
				mesh.Material = *prim.Material
			} else {
				if defaultMat < 0 {
					materials = append(materials, makeMaterial(doc, dir, nil, factory))
					defaultMat = len(materials) - 1
				}
				mesh.Material = defaultMat
			}
			meshes = append(meshes, *mesh)
		}
	}

	clips, err := importClips(doc, names)
	if err != nil {
		return nil, err
	}

	sc := &scene.Scene{
		Nodes:     nodes,
		Root:      root,
		Meshes:    meshes,
		Materials: materials,
		Clips:     clips,
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

// nodeNames assigns every node a non-empty unique name, synthesizing
// node_<i> for unnamed nodes. Channels and skins reference nodes by name
// downstream, so uniqueness matters more than prettiness.
func nodeNames(doc *gltf.Document) []string {
	names := make([]string, len(doc.Nodes))
	used := make(map[string]bool, len(doc.Nodes))
	for i, gn := range doc.Nodes {
		name := gn.Name
		if name == "" {
			name = fmt.Sprintf("node_%d", i)
		}
		if used[name] {
			name = fmt.Sprintf("%s_%d", name, i)
		}
		used[name] = true
		names[i] = name
	}
	return names
}

// buildNodes converts the node list and wires parent/child links. glTF
// permits several root nodes; when there is more than one, a synthetic
// root is appended so the runtime sees a single tree.
func buildNodes(doc *gltf.Document, names []string) ([]scene.Node, int) {
	nodes := make([]scene.Node, len(doc.Nodes))
	for i, gn := range doc.Nodes {
		nodes[i] = scene.Node{
			Name:      names[i],
			Transform: nodeTransform(gn),
			Parent:    scene.NoParent,
		}
	}
	for i, gn := range doc.Nodes {
		for _, c := range gn.Children {
			if c < 0 || c >= len(nodes) {
				continue
			}
			nodes[i].Children = append(nodes[i].Children, c)
			nodes[c].Parent = i
		}
	}

	var roots []int
	for i := range nodes {
		if nodes[i].Parent == scene.NoParent {
			roots = append(roots, i)
		}
	}
	if len(roots) == 1 {
		return nodes, roots[0]
	}

	root := len(nodes)
	nodes = append(nodes, scene.Node{
		Name:      fmt.Sprintf("scene_root_%d", root),
		Transform: math.Identity(),
		Parent:    scene.NoParent,
		Children:  roots,
	})
	for _, r := range roots {
		nodes[r].Parent = root
	}
	return nodes, root
}

var identityMatrix = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

// nodeTransform returns a node's local transform, honoring an explicit
// matrix when present and composing TRS otherwise. glTF matrices are
// column-major, same as the runtime's.
func nodeTransform(gn *gltf.Node) math.Mat4 {
	if gn.Matrix != identityMatrix && gn.Matrix != ([16]float64{}) {
		var m math.Mat4
		for i, v := range gn.Matrix {
			m[i] = float32(v)
		}
		return m
	}
	t := gn.TranslationOrDefault()
	r := gn.RotationOrDefault()
	s := gn.ScaleOrDefault()
	return math.Compose(
		math.Vec3{X: float32(s[0]), Y: float32(s[1]), Z: float32(s[2])},
		math.Quat{X: float32(r[0]), Y: float32(r[1]), Z: float32(r[2]), W: float32(r[3])},
		math.Vec3{X: float32(t[0]), Y: float32(t[1]), Z: float32(t[2])},
	)
}

// readInverseBind decodes a skin's inverse bind matrices, one per joint,
// defaulting to identity when the accessor is absent.
func readInverseBind(doc *gltf.Document, sk *gltf.Skin) ([]math.Mat4, error) {
	out := make([]math.Mat4, len(sk.Joints))
	for i := range out {
		out[i] = math.Identity()
	}
	if sk.InverseBindMatrices == nil {
		return out, nil
	}

	raw, err := modeler.ReadAccessor(doc, doc.Accessors[*sk.InverseBindMatrices], nil)
	if err != nil {
		return nil, fmt.Errorf("inverse bind matrices: %w", err)
	}
	mats, ok := raw.([][4][4]float32)
	if !ok {
		return nil, fmt.Errorf("%w: inverse bind matrices are not float MAT4", ErrBadDocument)
	}
	for i := 0; i < len(out) && i < len(mats); i++ {
		out[i] = mat4FromColumns(mats[i])
	}
	return out, nil
}

func mat4FromColumns(cols [4][4]float32) math.Mat4 {
	var m math.Mat4
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			m[4*c+r] = cols[c][r]
		}
	}
	return m
}

// buildPrimitive converts one glTF primitive into a bind-pose mesh. Skinned
// primitives get their bone table from the enclosing skin's joints; rigid
// primitives are bound fully to their own node so node transforms and node
// animations still carry them.
func buildPrimitive(doc *gltf.Document, names []string, nodeIdx int, meshName string, primIdx int, prim *gltf.Primitive, joints []int, offsets []math.Mat4) (*scene.Mesh, error) {
	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return nil, fmt.Errorf("%w: primitive has no POSITION", ErrBadDocument)
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}

	normals := make([][3]float32, len(positions))
	if idx, ok := prim.Attributes["NORMAL"]; ok {
		read, err := modeler.ReadNormal(doc, doc.Accessors[idx], nil)
		if err != nil {
			return nil, fmt.Errorf("normals: %w", err)
		}
		copy(normals, read)
	} else {
		for i := range normals {
			normals[i] = [3]float32{0, 1, 0}
		}
	}

	var uvs [][2]float32
	if idx, ok := prim.Attributes["TEXCOORD_0"]; ok {
		uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil)
		if err != nil {
			return nil, fmt.Errorf("texture coords: %w", err)
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	name := fmt.Sprintf("%s_p%d", meshName, primIdx)
	if meshName == "" {
		name = fmt.Sprintf("%s_p%d", names[nodeIdx], primIdx)
	}

	mesh := &scene.Mesh{
		Name:      name,
		Positions: positions,
		Normals:   normals,
		UVs:       uvs,
		Indices:   indices,
	}

	jattr, hasJoints := prim.Attributes["JOINTS_0"]
	wattr, hasWeights := prim.Attributes["WEIGHTS_0"]
	if len(joints) > 0 && hasJoints && hasWeights {
		jv, err := modeler.ReadJoints(doc, doc.Accessors[jattr], nil)
		if err != nil {
			return nil, fmt.Errorf("joints: %w", err)
		}
		wv, err := modeler.ReadWeights(doc, doc.Accessors[wattr], nil)
		if err != nil {
			return nil, fmt.Errorf("weights: %w", err)
		}
		bones, err := skinBones(names, joints, offsets, jv, wv)
		if err != nil {
			return nil, err
		}
		mesh.Bones = bones
		return mesh, nil
	}

	// Rigid mesh: one full-weight bone on its own node.
	weights := make([]scene.VertexWeight, len(positions))
	for v := range weights {
		weights[v] = scene.VertexWeight{Vertex: v, Weight: 1}
	}
	mesh.Bones = []scene.SkinBone{{
		Node:    names[nodeIdx],
		Offset:  math.Identity(),
		Weights: weights,
	}}
	return mesh, nil
}

// skinBones inverts per-vertex JOINTS_0/WEIGHTS_0 into the per-bone weight
// lists the runtime expects. Weights are re-normalized per vertex since
// quantized exports drift; a vertex whose weights are all zero stays rigid.
func skinBones(names []string, joints []int, offsets []math.Mat4, jv [][4]uint16, wv [][4]float32) ([]scene.SkinBone, error) {
	perJoint := make([][]scene.VertexWeight, len(joints))
	for v := range jv {
		if v >= len(wv) {
			break
		}
		var sum float32
		for k := 0; k < 4; k++ {
			if wv[v][k] > 0 {
				sum += wv[v][k]
			}
		}
		if sum <= 0 {
			continue
		}
		for k := 0; k < 4; k++ {
			w := wv[v][k]
			if w <= 0 {
				continue
			}
			j := int(jv[v][k])
			if j >= len(joints) {
				return nil, fmt.Errorf("%w: joint index %d outside skin with %d joints", ErrBadDocument, j, len(joints))
			}
			perJoint[j] = append(perJoint[j], scene.VertexWeight{Vertex: v, Weight: w / sum})
		}
	}

	bones := make([]scene.SkinBone, len(joints))
	for j, n := range joints {
		bones[j] = scene.SkinBone{
			Node:    names[n],
			Offset:  offsets[j],
			Weights: perJoint[j],
		}
	}
	return bones, nil
}
