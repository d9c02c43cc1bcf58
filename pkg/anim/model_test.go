package anim

import (
	"errors"
	gomath "math"
	"testing"

	"github.com/Faultbox/skelanim/pkg/math"
	"github.com/Faultbox/skelanim/pkg/scene"
)

func approx3(t *testing.T, label string, got, want [3]float32) {
	t.Helper()
	for i := range want {
		if absf(float64(got[i]-want[i])) > eps {
			t.Fatalf("%s = %v, want %v", label, got, want)
		}
	}
}

// singleBoneScene is a triangle fully weighted to one bone under the root.
func singleBoneScene(clips ...scene.Clip) *scene.Scene {
	return &scene.Scene{
		Nodes: []scene.Node{
			{Name: "root", Transform: math.Identity(), Parent: scene.NoParent, Children: []int{1}},
			{Name: "bone", Transform: math.Identity(), Parent: 0},
		},
		Root: 0,
		Meshes: []scene.Mesh{{
			Name:      "tri",
			Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
			Normals:   [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
			UVs:       [][2]float32{{0, 0}, {1, 0}, {0, 1}},
			Indices:   []uint32{0, 1, 2},
			Bones: []scene.SkinBone{{
				Node:   "bone",
				Offset: math.Identity(),
				Weights: []scene.VertexWeight{
					{Vertex: 0, Weight: 1},
					{Vertex: 1, Weight: 1},
					{Vertex: 2, Weight: 1},
				},
			}},
		}},
		Materials: []scene.Material{scene.Untextured{}},
		Clips:     clips,
	}
}

func identityClip() scene.Clip {
	return scene.Clip{
		Name:           "idle",
		Duration:       2,
		TicksPerSecond: 1,
		Channels: []scene.Channel{{
			Node:         "bone",
			PositionKeys: []scene.VectorKey{{Time: 0, Value: [3]float32{0, 0, 0}}},
			RotationKeys: []scene.QuatKey{{Time: 0, Value: math.QuatIdentity()}},
			ScaleKeys:    []scene.VectorKey{{Time: 0, Value: [3]float32{1, 1, 1}}},
		}},
	}
}

// spinClip rotates the bone 180 degrees about Z over two ticks.
func spinClip() scene.Clip {
	return scene.Clip{
		Name:           "spin",
		Duration:       2,
		TicksPerSecond: 1,
		Channels: []scene.Channel{{
			Node:         "bone",
			PositionKeys: []scene.VectorKey{{Time: 0, Value: [3]float32{0, 0, 0}}},
			RotationKeys: []scene.QuatKey{
				{Time: 0, Value: math.QuatIdentity()},
				{Time: 2, Value: math.QuatFromAxisAngle(math.Vec3{Z: 1}, gomath.Pi)},
			},
			ScaleKeys: []scene.VectorKey{{Time: 0, Value: [3]float32{1, 1, 1}}},
		}},
	}
}

// chainScene is two vertices on a two-bone chain: upper at the origin,
// lower offset one unit along X.
func chainScene() *scene.Scene {
	return &scene.Scene{
		Nodes: []scene.Node{
			{Name: "root", Transform: math.Identity(), Parent: scene.NoParent, Children: []int{1}},
			{Name: "upper", Transform: math.Identity(), Parent: 0, Children: []int{2}},
			{Name: "lower", Transform: math.Translate(1, 0, 0), Parent: 1},
		},
		Root: 0,
		Meshes: []scene.Mesh{{
			Name:      "chain",
			Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}},
			Normals:   [][3]float32{{0, 0, 1}, {0, 0, 1}},
			Bones: []scene.SkinBone{
				{Node: "upper", Offset: math.Identity(), Weights: []scene.VertexWeight{{Vertex: 0, Weight: 1}}},
				{Node: "lower", Offset: math.Translate(-1, 0, 0), Weights: []scene.VertexWeight{{Vertex: 1, Weight: 1}}},
			},
		}},
		Materials: []scene.Material{scene.Untextured{}},
	}
}

func TestBindPoseBeforeAnyFrame(t *testing.T) {
	sc := singleBoneScene()
	m, err := New(sc, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	frame, err := m.GetMeshFrame(0)
	if err != nil {
		t.Fatalf("GetMeshFrame: %v", err)
	}
	for v := range sc.Meshes[0].Positions {
		approx3(t, "bind position", frame.Positions[v], sc.Meshes[0].Positions[v])
		approx3(t, "bind normal", frame.Normals[v], sc.Meshes[0].Normals[v])
	}
}

func TestRestBoneSkinningMatrixIsIdentity(t *testing.T) {
	// offset = inverse(global bind), so an unanimated bone's skinning
	// matrix must be the identity.
	m, err := New(chainScene(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i, bm := range m.Pose().BoneMatrices {
		if !bm.ApproxEqual(math.Identity(), eps) {
			t.Errorf("bone %d skinning matrix at rest is not identity:\n%v", i, bm)
		}
	}
}

func TestCreateFrameIdentityClip(t *testing.T) {
	sc := singleBoneScene(identityClip())
	m, err := New(sc, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := m.CreateFrame(0, 1.3); err != nil {
		t.Fatalf("CreateFrame: %v", err)
	}

	frame, err := m.GetMeshFrame(0)
	if err != nil {
		t.Fatalf("GetMeshFrame: %v", err)
	}
	for v := range sc.Meshes[0].Positions {
		approx3(t, "position", frame.Positions[v], sc.Meshes[0].Positions[v])
	}
}

func TestCreateFrameSpinHalfway(t *testing.T) {
	m, err := New(singleBoneScene(spinClip()), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// Halfway through a 180-degree spin is a 90-degree rotation about Z.
	if err := m.CreateFrame(0, 1); err != nil {
		t.Fatalf("CreateFrame: %v", err)
	}

	frame, err := m.GetMeshFrame(0)
	if err != nil {
		t.Fatalf("GetMeshFrame: %v", err)
	}
	approx3(t, "rotated vertex", frame.Positions[1], [3]float32{0, 1, 0})
	approx3(t, "normal", frame.Normals[1], [3]float32{0, 0, 1})
}

func TestCreateFramePeriodicity(t *testing.T) {
	m, err := New(singleBoneScene(spinClip()), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := m.CreateFrame(0, 1); err != nil {
		t.Fatalf("CreateFrame: %v", err)
	}
	near, _ := m.GetMeshFrame(0)

	// 2000 full loops later the pose is the same.
	if err := m.CreateFrame(0, 1+2*2000); err != nil {
		t.Fatalf("CreateFrame: %v", err)
	}
	far, _ := m.GetMeshFrame(0)

	for v := range near.Positions {
		approx3(t, "wrapped position", far.Positions[v], near.Positions[v])
	}
}

func TestBoneOverridePropagatesToDescendants(t *testing.T) {
	m, err := New(chainScene(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	upper, err := m.BoneByName("upper")
	if err != nil {
		t.Fatalf("BoneByName: %v", err)
	}
	m.Bones[upper].LocalTransformation = math.Translate(0, 1, 0)

	frame, err := m.GetMeshFrame(0)
	if err != nil {
		t.Fatalf("GetMeshFrame: %v", err)
	}
	// Moving the parent bone carries the child bone's vertex along.
	approx3(t, "upper vertex", frame.Positions[0], [3]float32{0, 1, 0})
	approx3(t, "lower vertex", frame.Positions[1], [3]float32{1, 1, 0})
}

func TestBoneOverrideLocality(t *testing.T) {
	m, err := New(chainScene(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	lower, err := m.BoneByName("lower")
	if err != nil {
		t.Fatalf("BoneByName: %v", err)
	}
	m.Bones[lower].LocalTransformation = math.Translate(1, 1, 0)

	frame, err := m.GetMeshFrame(0)
	if err != nil {
		t.Fatalf("GetMeshFrame: %v", err)
	}
	// Only the leaf bone's vertex moves.
	approx3(t, "upper vertex", frame.Positions[0], [3]float32{0, 0, 0})
	approx3(t, "lower vertex", frame.Positions[1], [3]float32{1, 1, 0})
}

func TestHalfWeightBlend(t *testing.T) {
	sc := &scene.Scene{
		Nodes: []scene.Node{
			{Name: "root", Transform: math.Identity(), Parent: scene.NoParent, Children: []int{1, 2}},
			{Name: "a", Transform: math.Identity(), Parent: 0},
			{Name: "b", Transform: math.Identity(), Parent: 0},
		},
		Root: 0,
		Meshes: []scene.Mesh{{
			Name:      "point",
			Positions: [][3]float32{{0, 0, 0}},
			Normals:   [][3]float32{{0, 0, 1}},
			Bones: []scene.SkinBone{
				{Node: "a", Offset: math.Identity(), Weights: []scene.VertexWeight{{Vertex: 0, Weight: 0.5}}},
				{Node: "b", Offset: math.Identity(), Weights: []scene.VertexWeight{{Vertex: 0, Weight: 0.5}}},
			},
		}},
		Materials: []scene.Material{scene.Untextured{}},
	}
	m, err := New(sc, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	b, _ := m.BoneByName("b")
	m.Bones[b].LocalTransformation = math.Translate(1, 0, 0)

	frame, err := m.GetMeshFrame(0)
	if err != nil {
		t.Fatalf("GetMeshFrame: %v", err)
	}
	// Blend of staying put and moving one unit along X.
	approx3(t, "blended vertex", frame.Positions[0], [3]float32{0.5, 0, 0})
}

func TestUnknownChannelNodeIsSkipped(t *testing.T) {
	clip := identityClip()
	clip.Channels[0].Node = "ghost"
	m, err := New(singleBoneScene(clip), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := m.CreateFrame(0, 0.5); err != nil {
		t.Fatalf("CreateFrame: %v", err)
	}

	frame, err := m.GetMeshFrame(0)
	if err != nil {
		t.Fatalf("GetMeshFrame: %v", err)
	}
	approx3(t, "position", frame.Positions[1], [3]float32{1, 0, 0})
}

func TestBadWeightSumRejected(t *testing.T) {
	sc := singleBoneScene()
	sc.Meshes[0].Bones[0].Weights[1].Weight = 0.4

	_, err := New(sc, nil)
	if !errors.Is(err, ErrInconsistentAsset) {
		t.Fatalf("New = %v, want ErrInconsistentAsset", err)
	}
}

func TestEmptyChannelRejectedAtBuild(t *testing.T) {
	clip := identityClip()
	clip.Channels[0].ScaleKeys = nil

	_, err := New(singleBoneScene(clip), nil)
	if !errors.Is(err, ErrEmptyChannel) {
		t.Fatalf("New = %v, want ErrEmptyChannel", err)
	}
}

func TestCreateFrameNoSuchClip(t *testing.T) {
	m, err := New(singleBoneScene(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := m.CreateFrame(0, 0); !errors.Is(err, ErrNoSuchClip) {
		t.Fatalf("CreateFrame = %v, want ErrNoSuchClip", err)
	}
}

func TestGetMeshFrameNoSuchMesh(t *testing.T) {
	m, err := New(singleBoneScene(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := m.GetMeshFrame(1); !errors.Is(err, ErrNoSuchMesh) {
		t.Fatalf("GetMeshFrame = %v, want ErrNoSuchMesh", err)
	}
}

func TestBoneByNameNoSuchBone(t *testing.T) {
	m, err := New(singleBoneScene(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := m.BoneByName("ghost"); !errors.Is(err, ErrNoSuchBone) {
		t.Fatalf("BoneByName = %v, want ErrNoSuchBone", err)
	}
}

func TestDrawWithoutGraphics(t *testing.T) {
	m, err := New(singleBoneScene(identityClip()), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := m.DrawFrame(0, 0); !errors.Is(err, ErrNoGraphics) {
		t.Fatalf("DrawFrame = %v, want ErrNoGraphics", err)
	}
	frame, _ := m.GetMeshFrame(0)
	if err := m.DrawMeshFrame(0, frame); !errors.Is(err, ErrNoGraphics) {
		t.Fatalf("DrawMeshFrame = %v, want ErrNoGraphics", err)
	}
}

type recordingGraphics struct {
	transforms []math.Mat4
	draws      int
	positions  [][3]float32
	indices    []uint32
}

func (g *recordingGraphics) ApplyTransform(m math.Mat4) {
	g.transforms = append(g.transforms, m)
}

func (g *recordingGraphics) DrawTriangles(positions, normals [][3]float32, uvs [][2]float32, indices []uint32) {
	g.draws++
	g.positions = positions
	g.indices = indices
}

type recordingMaterial struct {
	binds []scene.TextureSlot
}

func (m *recordingMaterial) HasTexture() bool { return true }

func (m *recordingMaterial) BindTexture(slot scene.TextureSlot, id int) {
	m.binds = append(m.binds, slot)
}

func TestDrawFrameSubmitsEveryMesh(t *testing.T) {
	sc := singleBoneScene(identityClip())
	mat := &recordingMaterial{}
	sc.Materials[0] = mat

	gfx := &recordingGraphics{}
	m, err := New(sc, gfx)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := m.DrawFrame(0, 0); err != nil {
		t.Fatalf("DrawFrame: %v", err)
	}
	if gfx.draws != 1 {
		t.Fatalf("got %d draw calls, want 1", gfx.draws)
	}
	if len(gfx.indices) != 3 {
		t.Errorf("submitted %d indices, want 3", len(gfx.indices))
	}
	if len(mat.binds) != 1 || mat.binds[0] != scene.TextureDiffuse {
		t.Errorf("texture binds = %v, want one diffuse bind", mat.binds)
	}
}

func TestDrawStatic(t *testing.T) {
	sc := singleBoneScene()
	gfx := &recordingGraphics{}
	m, err := New(sc, gfx)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := m.DrawStatic(); err != nil {
		t.Fatalf("DrawStatic: %v", err)
	}
	if gfx.draws != 1 {
		t.Fatalf("got %d draw calls, want 1", gfx.draws)
	}
	approx3(t, "static position", gfx.positions[1], [3]float32{1, 0, 0})
}
