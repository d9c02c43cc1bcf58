package anim

import (
	"errors"
	"testing"

	"github.com/Faultbox/skelanim/pkg/math"
	"github.com/Faultbox/skelanim/pkg/scene"
)

// boneChainScene builds root -> armature -> hip -> spacer -> head where only
// hip and head are referenced as bones. armature and spacer exist to prove
// parent resolution skips non-bone ancestors.
func boneChainScene() *scene.Scene {
	return &scene.Scene{
		Nodes: []scene.Node{
			{Name: "root", Transform: math.Identity(), Parent: scene.NoParent, Children: []int{1}},
			{Name: "armature", Transform: math.Identity(), Parent: 0, Children: []int{2}},
			{Name: "hip", Transform: math.Identity(), Parent: 1, Children: []int{3}},
			{Name: "spacer", Transform: math.Identity(), Parent: 2, Children: []int{4}},
			{Name: "head", Transform: math.Identity(), Parent: 3},
		},
		Root: 0,
		Meshes: []scene.Mesh{{
			Name:      "body",
			Positions: [][3]float32{{0, 0, 0}, {0, 1, 0}},
			Normals:   [][3]float32{{0, 0, 1}, {0, 0, 1}},
			Bones: []scene.SkinBone{
				{Node: "hip", Offset: math.Identity(), Weights: []scene.VertexWeight{{Vertex: 0, Weight: 1}}},
				{Node: "head", Offset: math.Identity(), Weights: []scene.VertexWeight{{Vertex: 1, Weight: 1}}},
			},
		}},
		Materials: []scene.Material{scene.Untextured{}},
	}
}

func TestBuildBonesFirstSeenOrder(t *testing.T) {
	sc := boneChainScene()
	// Second mesh references head first and introduces a new bone; ids must
	// stay in first-seen order across meshes.
	sc.Meshes = append(sc.Meshes, scene.Mesh{
		Name:      "hat",
		Positions: [][3]float32{{0, 2, 0}},
		Normals:   [][3]float32{{0, 0, 1}},
		Bones: []scene.SkinBone{
			{Node: "head", Offset: math.Identity(), Weights: []scene.VertexWeight{{Vertex: 0, Weight: 0.5}}},
			{Node: "spacer", Offset: math.Identity(), Weights: []scene.VertexWeight{{Vertex: 0, Weight: 0.5}}},
		},
	})

	bones, byName, err := buildBones(sc)
	if err != nil {
		t.Fatalf("buildBones: %v", err)
	}
	if len(bones) != 3 {
		t.Fatalf("got %d bones, want 3", len(bones))
	}
	for name, want := range map[string]int{"hip": 0, "head": 1, "spacer": 2} {
		if byName[name] != want {
			t.Errorf("bone %q has id %d, want %d", name, byName[name], want)
		}
	}
}

func TestBuildBonesParentSkipsNonBones(t *testing.T) {
	bones, byName, err := buildBones(boneChainScene())
	if err != nil {
		t.Fatalf("buildBones: %v", err)
	}
	if got := bones[byName["hip"]].Parent; got != scene.NoParent {
		t.Errorf("hip parent = %d, want NoParent", got)
	}
	if got := bones[byName["head"]].Parent; got != byName["hip"] {
		t.Errorf("head parent = %d, want %d (hip)", got, byName["hip"])
	}
}

func TestBuildBonesOffsetMismatch(t *testing.T) {
	sc := boneChainScene()
	sc.Meshes = append(sc.Meshes, scene.Mesh{
		Name:      "hat",
		Positions: [][3]float32{{0, 2, 0}},
		Normals:   [][3]float32{{0, 0, 1}},
		Bones: []scene.SkinBone{
			{Node: "head", Offset: math.Translate(1, 0, 0), Weights: []scene.VertexWeight{{Vertex: 0, Weight: 1}}},
		},
	})

	_, _, err := buildBones(sc)
	if !errors.Is(err, ErrInconsistentAsset) {
		t.Fatalf("buildBones = %v, want ErrInconsistentAsset", err)
	}
}

func TestBuildBonesUnknownNode(t *testing.T) {
	sc := boneChainScene()
	sc.Meshes[0].Bones[0].Node = "ghost"

	_, _, err := buildBones(sc)
	if !errors.Is(err, ErrInconsistentAsset) {
		t.Fatalf("buildBones = %v, want ErrInconsistentAsset", err)
	}
}
