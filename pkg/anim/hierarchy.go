package anim

import (
	"fmt"
	"strings"

	"github.com/Faultbox/skelanim/pkg/scene"
)

// WalkBoneHierarchy visits every bone in pre-order, root bones first in id
// order, calling visit with the bone id and its depth below the nearest
// root bone. The walk is stack-driven, not recursive.
func (m *Model) WalkBoneHierarchy(visit func(boneID, depth int)) {
	children := make([][]int, len(m.Bones))
	for id := range m.Bones {
		if p := m.Bones[id].Parent; p != scene.NoParent {
			children[p] = append(children[p], id)
		}
	}

	type entry struct {
		bone  int
		depth int
	}
	var stack []entry

	// Push roots in reverse so pops come out in ascending id order.
	for id := len(m.Bones) - 1; id >= 0; id-- {
		if m.Bones[id].Parent == scene.NoParent {
			stack = append(stack, entry{bone: id})
		}
	}

	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visit(e.bone, e.depth)
		kids := children[e.bone]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, entry{bone: kids[i], depth: e.depth + 1})
		}
	}
}

// FormatBoneHierarchy renders the bone tree as "boneId boneName" lines,
// indented two spaces per depth level.
func (m *Model) FormatBoneHierarchy() string {
	var b strings.Builder
	m.WalkBoneHierarchy(func(id, depth int) {
		for i := 0; i < depth; i++ {
			b.WriteString("  ")
		}
		fmt.Fprintf(&b, "%d %s\n", id, m.Bones[id].Node)
	})
	return b.String()
}
