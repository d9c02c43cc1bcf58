package anim

import (
	"testing"

	"github.com/Faultbox/skelanim/pkg/math"
	"github.com/Faultbox/skelanim/pkg/scene"
)

func skeletonScene() *scene.Scene {
	fullWeight := func(v int) []scene.VertexWeight {
		return []scene.VertexWeight{{Vertex: v, Weight: 1}}
	}
	return &scene.Scene{
		Nodes: []scene.Node{
			{Name: "root", Transform: math.Identity(), Parent: scene.NoParent, Children: []int{1}},
			{Name: "hip", Transform: math.Identity(), Parent: 0, Children: []int{2, 4}},
			{Name: "spine", Transform: math.Identity(), Parent: 1, Children: []int{3}},
			{Name: "head", Transform: math.Identity(), Parent: 2},
			{Name: "tail", Transform: math.Identity(), Parent: 1},
		},
		Root: 0,
		Meshes: []scene.Mesh{{
			Name:      "body",
			Positions: [][3]float32{{0, 0, 0}, {0, 1, 0}, {0, 2, 0}, {0, -1, 0}},
			Normals:   [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
			Bones: []scene.SkinBone{
				{Node: "hip", Offset: math.Identity(), Weights: fullWeight(0)},
				{Node: "spine", Offset: math.Identity(), Weights: fullWeight(1)},
				{Node: "head", Offset: math.Identity(), Weights: fullWeight(2)},
				{Node: "tail", Offset: math.Identity(), Weights: fullWeight(3)},
			},
		}},
		Materials: []scene.Material{scene.Untextured{}},
	}
}

func TestWalkBoneHierarchyPreOrder(t *testing.T) {
	m, err := New(skeletonScene(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var order []int
	var depths []int
	m.WalkBoneHierarchy(func(id, depth int) {
		order = append(order, id)
		depths = append(depths, depth)
	})

	wantOrder := []int{0, 1, 2, 3} // hip, spine, head, tail
	wantDepths := []int{0, 1, 2, 1}
	if len(order) != len(wantOrder) {
		t.Fatalf("visited %d bones, want %d", len(order), len(wantOrder))
	}
	for i := range wantOrder {
		if order[i] != wantOrder[i] || depths[i] != wantDepths[i] {
			t.Fatalf("walk = %v depths %v, want %v depths %v", order, depths, wantOrder, wantDepths)
		}
	}
}

func TestFormatBoneHierarchy(t *testing.T) {
	m, err := New(skeletonScene(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	want := "0 hip\n  1 spine\n    2 head\n  3 tail\n"
	if got := m.FormatBoneHierarchy(); got != want {
		t.Fatalf("FormatBoneHierarchy:\n%q\nwant\n%q", got, want)
	}
}
