package math

import (
	"math"
	"testing"
)

func TestComposeIdentity(t *testing.T) {
	m := Compose(Vec3{1, 1, 1}, QuatIdentity(), Vec3{})
	if !m.ApproxEqual(Identity(), 1e-6) {
		t.Errorf("Compose of identity parts should be identity, got %v", m)
	}
}

func TestComposeOrder(t *testing.T) {
	// M = T * R * S: scale happens first, then rotation, then translation.
	scale := Vec3{2, 2, 2}
	rot := QuatFromAxisAngle(Vec3{X: 0, Y: 0, Z: 1}, float32(math.Pi/2))
	trans := Vec3{10, 0, 0}

	m := Compose(scale, rot, trans)
	p := m.TransformPoint([3]float32{1, 0, 0})

	// (1,0,0) scaled to (2,0,0), rotated to (0,2,0), translated to (10,2,0).
	want := [3]float32{10, 2, 0}
	for i := range p {
		if abs(p[i]-want[i]) > 0.001 {
			t.Fatalf("Compose applied to (1,0,0): got %v, want %v", p, want)
		}
	}
}

func TestDecomposeComposeRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		scale Vec3
		rot   Quat
		trans Vec3
	}{
		{"identity", Vec3{1, 1, 1}, QuatIdentity(), Vec3{}},
		{"translation only", Vec3{1, 1, 1}, QuatIdentity(), Vec3{3, -5, 11}},
		{"uniform scale", Vec3{2.5, 2.5, 2.5}, QuatIdentity(), Vec3{}},
		{"rotation Y", Vec3{1, 1, 1}, QuatFromAxisAngle(Vec3{X: 0, Y: 1, Z: 0}, 1.2), Vec3{}},
		{"rigid plus scale", Vec3{3, 3, 3}, QuatFromAxisAngle(Vec3{X: 1, Y: 0, Z: 0}, -0.8), Vec3{1, 2, 3}},
		{"non-uniform scale", Vec3{1, 2, 4}, QuatFromAxisAngle(Vec3{X: 0, Y: 0, Z: 1}, 0.4), Vec3{-2, 0, 9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Compose(tt.scale, tt.rot, tt.trans)
			s, r, p := m.Decompose()
			back := Compose(s, r, p)

			if !back.ApproxEqual(m, 1e-4) {
				t.Errorf("Compose(Decompose(M)) != M:\n got %v\nwant %v", back, m)
			}
		})
	}
}

func TestDecomposeParts(t *testing.T) {
	rot := QuatFromAxisAngle(Vec3{X: 0, Y: 1, Z: 0}, 0.9)
	m := Compose(Vec3{2, 2, 2}, rot, Vec3{4, 5, 6})

	s, r, p := m.Decompose()

	if abs(s.X-2) > 0.001 || abs(s.Y-2) > 0.001 || abs(s.Z-2) > 0.001 {
		t.Errorf("Decompose scale: got %v, want (2,2,2)", s)
	}
	if p != (Vec3{4, 5, 6}) {
		t.Errorf("Decompose translation: got %v, want (4,5,6)", p)
	}
	if math.Abs(math.Abs(float64(r.Dot(rot)))-1) > 0.001 {
		t.Errorf("Decompose rotation: got %v, want %v", r, rot)
	}
}

func TestDecomposeZeroScale(t *testing.T) {
	m := Scale(0, 0, 0)
	_, r, _ := m.Decompose()
	if r != QuatIdentity() {
		t.Errorf("Degenerate matrix should decompose to identity rotation, got %v", r)
	}
}
