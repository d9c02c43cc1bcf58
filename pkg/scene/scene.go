// Package scene defines the parsed-asset view consumed by the skeletal
// animation runtime: the node tree, bind-pose meshes with per-vertex bone
// weights, material capabilities, and keyframed animation clips.
//
// A Scene is built once by an importer (or by hand in tests) and is
// read-only afterwards. The runtime never mutates it.
package scene

import (
	"github.com/Faultbox/skelanim/pkg/math"
)

// NoParent marks a node or bone without a parent.
const NoParent = -1

// Node is one element of the asset's transform hierarchy.
type Node struct {
	Name      string
	Transform math.Mat4 // local transform relative to the parent
	Parent    int       // node index, NoParent for the root
	Children  []int     // node indices in asset order
}

// VertexWeight attaches a skinning weight to one vertex of a mesh.
type VertexWeight struct {
	Vertex int
	Weight float32
}

// SkinBone is a mesh's reference to a bone: the name of the node the bone
// follows, the offset matrix (mesh space to bone space at bind pose), and
// the vertices the bone influences.
type SkinBone struct {
	Node    string
	Offset  math.Mat4
	Weights []VertexWeight
}

// Mesh holds bind-pose geometry for one mesh of the asset.
// Positions, Normals, and UVs are parallel arrays; Indices describes a
// triangle list into them.
type Mesh struct {
	Name      string
	Positions [][3]float32
	Normals   [][3]float32
	UVs       [][2]float32
	Indices   []uint32
	Material  int // index into Scene.Materials
	Bones     []SkinBone
}

// TextureSlot enumerates texture semantics a material can bind.
type TextureSlot int

const (
	// TextureDiffuse is the base color texture slot.
	TextureDiffuse TextureSlot = iota
)

// Material is the capability a mesh needs from its material: report whether
// any texture exists and bind one for the upcoming draw. How textures are
// loaded and stored is the renderer's business.
type Material interface {
	HasTexture() bool
	BindTexture(slot TextureSlot, id int)
}

// Untextured is a Material with no textures. Importers use it when an asset
// carries no material, and non-rendering tools use it everywhere.
type Untextured struct{}

// HasTexture always reports false.
func (Untextured) HasTexture() bool { return false }

// BindTexture does nothing.
func (Untextured) BindTexture(TextureSlot, int) {}

// VectorKey is a time-stamped 3-vector keyframe (translation or scale).
// Time is in clip ticks.
type VectorKey struct {
	Time  float64
	Value [3]float32
}

// QuatKey is a time-stamped rotation keyframe. Time is in clip ticks.
type QuatKey struct {
	Time  float64
	Value math.Quat
}

// Channel holds the keyframe sequences animating one node. Each present
// sequence is non-empty with strictly increasing times.
type Channel struct {
	Node         string
	PositionKeys []VectorKey
	RotationKeys []QuatKey
	ScaleKeys    []VectorKey
}

// Clip is one named animation: a duration in ticks, a tick rate, and a
// sparse set of per-node channels. Nodes without a channel keep their
// static transform.
type Clip struct {
	Name           string
	Duration       float64 // in ticks
	TicksPerSecond float64
	Channels       []Channel
}

// Scene is the immutable view of a parsed asset.
type Scene struct {
	Nodes     []Node
	Root      int // index into Nodes
	Meshes    []Mesh
	Materials []Material
	Clips     []Clip
}

// NodeByName returns the index of the named node, or NoParent if absent.
func (s *Scene) NodeByName(name string) int {
	for i := range s.Nodes {
		if s.Nodes[i].Name == name {
			return i
		}
	}
	return NoParent
}

// ClipByName returns the index of the named clip, or -1 if absent.
func (s *Scene) ClipByName(name string) int {
	for i := range s.Clips {
		if s.Clips[i].Name == name {
			return i
		}
	}
	return -1
}
