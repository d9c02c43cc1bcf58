package anim

import (
	"github.com/Faultbox/skelanim/pkg/math"
	"github.com/Faultbox/skelanim/pkg/scene"
)

// Pose is the transient per-frame result of evaluating the node hierarchy:
// one skinning matrix per bone, plus the node-global cache the traversal
// fills on the way down. Each evaluation overwrites the previous one.
type Pose struct {
	// BoneMatrices is indexed by bone id and holds each bone's final
	// skinning matrix, global(node) * offset(bone).
	BoneMatrices []math.Mat4

	locals  []math.Mat4 // per node: local transform sampled for this frame
	globals []math.Mat4 // per node: accumulated global transform
	sampled []math.Mat4 // per bone: LocalTransformation as of last evaluation
}

func newPose(nodeCount, boneCount int) *Pose {
	return &Pose{
		BoneMatrices: make([]math.Mat4, boneCount),
		locals:       make([]math.Mat4, nodeCount),
		globals:      make([]math.Mat4, nodeCount),
		sampled:      make([]math.Mat4, boneCount),
	}
}

// evaluate runs a pre-order traversal of the node tree, composing
// global(node) = global(parent) * local(node) and storing each bone's
// skinning matrix. For bone nodes the local comes from the bone's
// LocalTransformation field, which is how caller overrides take effect.
func (p *Pose) evaluate(sc *scene.Scene, bones []Bone, boneAtNode []int) {
	stack := make([]int, 0, len(sc.Nodes))
	stack = append(stack, sc.Root)

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		local := p.locals[n]
		b := boneAtNode[n]
		if b >= 0 {
			local = bones[b].LocalTransformation
		}

		if parent := sc.Nodes[n].Parent; parent == scene.NoParent {
			p.globals[n] = local
		} else {
			p.globals[n] = p.globals[parent].Mul(local)
		}

		if b >= 0 {
			p.BoneMatrices[b] = p.globals[n].Mul(bones[b].Offset)
			p.sampled[b] = bones[b].LocalTransformation
		}

		children := sc.Nodes[n].Children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
}

// overridden reports whether any bone's LocalTransformation was written
// since the last evaluation.
func (p *Pose) overridden(bones []Bone) bool {
	for i := range bones {
		if bones[i].LocalTransformation != p.sampled[i] {
			return true
		}
	}
	return false
}
