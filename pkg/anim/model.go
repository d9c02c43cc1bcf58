// Package anim implements the skeletal-animation runtime: the bone table,
// keyframe sampling, hierarchical pose evaluation, and linear blend
// skinning. A Model wraps an immutable scene.Scene and produces posed
// vertex and normal arrays for any clip and time.
//
// The per-frame protocol is CreateFrame, optionally overwrite one or more
// Bones[i].LocalTransformation, then GetMeshFrame and DrawMeshFrame per
// mesh. DrawFrame bundles the whole sequence. Overrides written between
// CreateFrame and GetMeshFrame are detected and folded in by re-running
// the hierarchy traversal lazily on the next read.
package anim

import (
	"fmt"

	"github.com/Faultbox/skelanim/pkg/scene"
)

// Model is a skeletal-animation model over a parsed scene. Bones and
// BoneID are exported for direct bone manipulation and lookup; everything
// else is read through methods.
//
// A Model is not safe for concurrent use: CreateFrame and GetMeshFrame
// share the single internal Pose. Build one Model per animated instance;
// they can share the same Scene.
type Model struct {
	Scene *scene.Scene

	// Bones is the flat bone table, indexed by bone id. The
	// LocalTransformation field of each entry is the one caller-writable
	// field of the model.
	Bones []Bone

	// BoneID maps a bone name to its id in Bones.
	BoneID map[string]int

	boneAtNode []int          // node index -> bone id, -1 when not a bone
	influences [][][]Influence // per mesh, per vertex
	pose       *Pose
	gfx        Graphics
}

// New builds a Model from a parsed scene ("read" in the original library's
// terms). gfx may be nil for evaluate-only use; the draw entry points then
// return ErrNoGraphics. The scene is validated structurally and
// semantically, and the initial pose is the static (bind) pose, so
// GetMeshFrame works before any CreateFrame.
func New(sc *scene.Scene, gfx Graphics) (*Model, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	if err := checkChannels(sc); err != nil {
		return nil, err
	}

	bones, byName, err := buildBones(sc)
	if err != nil {
		return nil, err
	}

	m := &Model{
		Scene:      sc,
		Bones:      bones,
		BoneID:     byName,
		boneAtNode: make([]int, len(sc.Nodes)),
		influences: make([][][]Influence, len(sc.Meshes)),
		pose:       newPose(len(sc.Nodes), len(bones)),
		gfx:        gfx,
	}

	for i := range m.boneAtNode {
		m.boneAtNode[i] = -1
	}
	for id := range m.Bones {
		m.boneAtNode[m.Bones[id].node] = id
	}

	for i := range sc.Meshes {
		inf, err := buildInfluences(&sc.Meshes[i], byName)
		if err != nil {
			return nil, err
		}
		m.influences[i] = inf
	}

	m.resetStaticLocals()
	m.pose.evaluate(sc, m.Bones, m.boneAtNode)
	return m, nil
}

// resetStaticLocals loads every node's static local transform into the pose
// and every bone's LocalTransformation.
func (m *Model) resetStaticLocals() {
	for i := range m.Scene.Nodes {
		m.pose.locals[i] = m.Scene.Nodes[i].Transform
	}
	for i := range m.Bones {
		m.Bones[i].LocalTransformation = m.Scene.Nodes[m.Bones[i].node].Transform
	}
}

// CreateFrame samples the clip at the given time in seconds and evaluates
// the pose. After it returns, every bone's LocalTransformation holds the
// clip-sampled local transform and Pose().BoneMatrices holds the skinning
// matrices. Times outside [0, duration) wrap around.
func (m *Model) CreateFrame(clipID int, seconds float64) error {
	if clipID < 0 || clipID >= len(m.Scene.Clips) {
		return fmt.Errorf("%w: clip %d of %d", ErrNoSuchClip, clipID, len(m.Scene.Clips))
	}
	clip := &m.Scene.Clips[clipID]
	ticks := clipTicks(clip, seconds)

	m.resetStaticLocals()
	for i := range clip.Channels {
		ch := &clip.Channels[i]
		n := m.Scene.NodeByName(ch.Node)
		if n == scene.NoParent {
			// Channels for nodes outside the tree never influence the
			// pose; skip rather than fail.
			continue
		}
		local := sampleChannel(ch, ticks)
		m.pose.locals[n] = local
		if b := m.boneAtNode[n]; b >= 0 {
			m.Bones[b].LocalTransformation = local
		}
	}

	m.pose.evaluate(m.Scene, m.Bones, m.boneAtNode)
	return nil
}

// GetMeshFrame skins one mesh against the current pose and returns a fresh
// MeshFrame. If any bone's LocalTransformation was overwritten since the
// pose was last evaluated, the hierarchy traversal re-runs first so the
// override reaches every descendant bone.
func (m *Model) GetMeshFrame(meshID int) (*MeshFrame, error) {
	if meshID < 0 || meshID >= len(m.Scene.Meshes) {
		return nil, fmt.Errorf("%w: mesh %d of %d", ErrNoSuchMesh, meshID, len(m.Scene.Meshes))
	}

	if m.pose.overridden(m.Bones) {
		m.pose.evaluate(m.Scene, m.Bones, m.boneAtNode)
	}

	return skinMesh(meshID, &m.Scene.Meshes[meshID], m.influences[meshID], m.pose.BoneMatrices), nil
}

// DrawMeshFrame draws a posed mesh frame: it binds the mesh material's
// diffuse texture when one exists and submits the triangle list with the
// mesh's UVs and indices.
func (m *Model) DrawMeshFrame(meshID int, frame *MeshFrame) error {
	if m.gfx == nil {
		return ErrNoGraphics
	}
	if meshID < 0 || meshID >= len(m.Scene.Meshes) {
		return fmt.Errorf("%w: mesh %d of %d", ErrNoSuchMesh, meshID, len(m.Scene.Meshes))
	}

	mesh := &m.Scene.Meshes[meshID]
	if mat := m.Scene.Materials[mesh.Material]; mat.HasTexture() {
		mat.BindTexture(scene.TextureDiffuse, 0)
	}
	m.gfx.DrawTriangles(frame.Positions, frame.Normals, mesh.UVs, mesh.Indices)
	return nil
}

// DrawFrame runs the full per-frame sequence: CreateFrame, then per mesh
// GetMeshFrame and DrawMeshFrame.
func (m *Model) DrawFrame(clipID int, seconds float64) error {
	if m.gfx == nil {
		return ErrNoGraphics
	}
	if err := m.CreateFrame(clipID, seconds); err != nil {
		return err
	}
	for i := range m.Scene.Meshes {
		frame, err := m.GetMeshFrame(i)
		if err != nil {
			return err
		}
		if err := m.DrawMeshFrame(i, frame); err != nil {
			return err
		}
	}
	return nil
}

// DrawStatic draws the model in its static pose, ignoring all clips. This
// is the unanimated draw path: node transforms apply, no clip sampling.
func (m *Model) DrawStatic() error {
	if m.gfx == nil {
		return ErrNoGraphics
	}
	m.resetStaticLocals()
	m.pose.evaluate(m.Scene, m.Bones, m.boneAtNode)
	for i := range m.Scene.Meshes {
		frame, err := m.GetMeshFrame(i)
		if err != nil {
			return err
		}
		if err := m.DrawMeshFrame(i, frame); err != nil {
			return err
		}
	}
	return nil
}

// Pose returns the current pose. The returned value is owned by the model
// and overwritten by the next evaluation.
func (m *Model) Pose() *Pose {
	return m.pose
}

// BoneByName returns the id of the named bone.
func (m *Model) BoneByName(name string) (int, error) {
	id, ok := m.BoneID[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrNoSuchBone, name)
	}
	return id, nil
}
