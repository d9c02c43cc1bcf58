package scene

import (
	"errors"
	"fmt"
)

// Structural validation errors.
var (
	ErrBadTree      = errors.New("node graph is not a rooted tree")
	ErrBadMesh      = errors.New("mesh arrays are inconsistent")
	ErrBadMaterial  = errors.New("material id out of range")
	ErrUnsortedKeys = errors.New("keyframe times are not strictly increasing")
)

// Validate checks the structural invariants of the scene: the node graph is
// a tree rooted at Root with consistent parent/child links, mesh arrays are
// parallel with in-range indices and material ids, and keyframe sequences
// are sorted. Semantic skinning checks (weight sums, bone resolution) are
// the animation model's job.
func (s *Scene) Validate() error {
	if err := s.validateTree(); err != nil {
		return err
	}
	for i := range s.Meshes {
		if err := s.validateMesh(i); err != nil {
			return err
		}
	}
	for i := range s.Clips {
		if err := s.validateClip(i); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scene) validateTree() error {
	if s.Root < 0 || s.Root >= len(s.Nodes) {
		return fmt.Errorf("%w: root %d with %d nodes", ErrBadTree, s.Root, len(s.Nodes))
	}
	if s.Nodes[s.Root].Parent != NoParent {
		return fmt.Errorf("%w: root %d has a parent", ErrBadTree, s.Root)
	}

	seen := make([]bool, len(s.Nodes))
	stack := []int{s.Root}
	visited := 0
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[n] {
			return fmt.Errorf("%w: node %d reached twice", ErrBadTree, n)
		}
		seen[n] = true
		visited++
		for _, c := range s.Nodes[n].Children {
			if c < 0 || c >= len(s.Nodes) {
				return fmt.Errorf("%w: node %d has child %d out of range", ErrBadTree, n, c)
			}
			if s.Nodes[c].Parent != n {
				return fmt.Errorf("%w: node %d claims child %d whose parent is %d", ErrBadTree, n, c, s.Nodes[c].Parent)
			}
			stack = append(stack, c)
		}
	}
	if visited != len(s.Nodes) {
		return fmt.Errorf("%w: %d of %d nodes reachable from root", ErrBadTree, visited, len(s.Nodes))
	}
	return nil
}

func (s *Scene) validateMesh(i int) error {
	m := &s.Meshes[i]
	n := len(m.Positions)
	if len(m.Normals) != n {
		return fmt.Errorf("%w: mesh %q has %d positions but %d normals", ErrBadMesh, m.Name, n, len(m.Normals))
	}
	if len(m.UVs) != 0 && len(m.UVs) != n {
		return fmt.Errorf("%w: mesh %q has %d positions but %d UVs", ErrBadMesh, m.Name, n, len(m.UVs))
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: mesh %q index count %d is not a triangle list", ErrBadMesh, m.Name, len(m.Indices))
	}
	for _, idx := range m.Indices {
		if int(idx) >= n {
			return fmt.Errorf("%w: mesh %q index %d with %d vertices", ErrBadMesh, m.Name, idx, n)
		}
	}
	if m.Material < 0 || m.Material >= len(s.Materials) {
		return fmt.Errorf("%w: mesh %q material %d with %d materials", ErrBadMaterial, m.Name, m.Material, len(s.Materials))
	}
	for _, b := range m.Bones {
		for _, w := range b.Weights {
			if w.Vertex < 0 || w.Vertex >= n {
				return fmt.Errorf("%w: mesh %q bone %q weights vertex %d with %d vertices", ErrBadMesh, m.Name, b.Node, w.Vertex, n)
			}
		}
	}
	return nil
}

func (s *Scene) validateClip(i int) error {
	c := &s.Clips[i]
	for j := range c.Channels {
		ch := &c.Channels[j]
		for k := 1; k < len(ch.PositionKeys); k++ {
			if ch.PositionKeys[k].Time <= ch.PositionKeys[k-1].Time {
				return fmt.Errorf("%w: clip %q node %q position keys", ErrUnsortedKeys, c.Name, ch.Node)
			}
		}
		for k := 1; k < len(ch.RotationKeys); k++ {
			if ch.RotationKeys[k].Time <= ch.RotationKeys[k-1].Time {
				return fmt.Errorf("%w: clip %q node %q rotation keys", ErrUnsortedKeys, c.Name, ch.Node)
			}
		}
		for k := 1; k < len(ch.ScaleKeys); k++ {
			if ch.ScaleKeys[k].Time <= ch.ScaleKeys[k-1].Time {
				return fmt.Errorf("%w: clip %q node %q scale keys", ErrUnsortedKeys, c.Name, ch.Node)
			}
		}
	}
	return nil
}
