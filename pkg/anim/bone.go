package anim

import (
	"fmt"

	"github.com/Faultbox/skelanim/pkg/math"
	"github.com/Faultbox/skelanim/pkg/scene"
)

// offsetEpsilon bounds the element-wise difference allowed between two
// occurrences of the same bone's offset matrix.
const offsetEpsilon = 1e-5

// Bone is one entry of the model's flat bone table.
type Bone struct {
	// Node is the name of the node this bone follows.
	Node string

	// Offset transforms mesh space at bind pose into the bone's local
	// space (the inverse of the bone's global bind transform).
	Offset math.Mat4

	// Parent is the id of the nearest ancestor bone, or scene.NoParent
	// when no node ancestor is a bone.
	Parent int

	// LocalTransformation is the bone node's local transform for the
	// current frame. CreateFrame rewrites it from the sampled clip; a
	// caller may overwrite it before GetMeshFrame to pose the bone
	// directly, and the next evaluation picks the override up.
	LocalTransformation math.Mat4

	node int // node index, cached at build time
}

// buildBones assembles the bone table in two passes: ids are allocated in
// first-seen mesh order with offset consistency enforced, then each bone's
// parent is resolved by walking up the node tree to the nearest ancestor
// that is itself a bone.
func buildBones(sc *scene.Scene) ([]Bone, map[string]int, error) {
	var bones []Bone
	byName := make(map[string]int)

	for mi := range sc.Meshes {
		for _, sb := range sc.Meshes[mi].Bones {
			if id, ok := byName[sb.Node]; ok {
				if !bones[id].Offset.ApproxEqual(sb.Offset, offsetEpsilon) {
					return nil, nil, fmt.Errorf("%w: bone %q has two different offset matrices", ErrInconsistentAsset, sb.Node)
				}
				continue
			}

			node := sc.NodeByName(sb.Node)
			if node == scene.NoParent {
				return nil, nil, fmt.Errorf("%w: bone %q names a node not in the tree", ErrInconsistentAsset, sb.Node)
			}

			byName[sb.Node] = len(bones)
			bones = append(bones, Bone{
				Node:                sb.Node,
				Offset:              sb.Offset,
				Parent:              scene.NoParent,
				LocalTransformation: sc.Nodes[node].Transform,
				node:                node,
			})
		}
	}

	for i := range bones {
		n := sc.Nodes[bones[i].node].Parent
		for n != scene.NoParent {
			if pid, ok := byName[sc.Nodes[n].Name]; ok {
				bones[i].Parent = pid
				break
			}
			n = sc.Nodes[n].Parent
		}
	}

	return bones, byName, nil
}
