package anim

import "github.com/Faultbox/skelanim/pkg/math"

// Graphics is the capability the model needs from a rendering backend.
// The backend owns all GPU state; the model only hands it posed geometry.
// Texture binding goes through scene.Material, not through this interface.
type Graphics interface {
	// ApplyTransform applies a modelview transform for subsequent draws.
	ApplyTransform(m math.Mat4)

	// DrawTriangles submits an indexed triangle list. positions and
	// normals are parallel arrays; uvs may be empty for untextured
	// meshes.
	DrawTriangles(positions, normals [][3]float32, uvs [][2]float32, indices []uint32)
}
