package math

import "math"

// Compose builds an affine matrix from scale, rotation, and translation,
// applied in that order: M = T * R * S.
func Compose(scale Vec3, rot Quat, trans Vec3) Mat4 {
	m := rot.ToMat4()

	// Scale the rotation columns, then drop the translation in.
	m[0] *= scale.X
	m[1] *= scale.X
	m[2] *= scale.X
	m[4] *= scale.Y
	m[5] *= scale.Y
	m[6] *= scale.Y
	m[8] *= scale.Z
	m[9] *= scale.Z
	m[10] *= scale.Z

	m[12] = trans.X
	m[13] = trans.Y
	m[14] = trans.Z
	return m
}

// Decompose splits an affine matrix into scale, rotation, and translation so
// that Compose(scale, rot, trans) reproduces the matrix for any rigid plus
// positive-scale affine. Shear is not represented and is folded into the
// rotation columns.
func (m Mat4) Decompose() (scale Vec3, rot Quat, trans Vec3) {
	trans = Vec3{m[12], m[13], m[14]}

	scale = Vec3{
		X: columnLength(m, 0),
		Y: columnLength(m, 1),
		Z: columnLength(m, 2),
	}

	// Negative determinant means one axis is mirrored; conventionally the X
	// scale carries the sign.
	det := m[0]*(m[5]*m[10]-m[6]*m[9]) -
		m[4]*(m[1]*m[10]-m[2]*m[9]) +
		m[8]*(m[1]*m[6]-m[2]*m[5])
	if det < 0 {
		scale.X = -scale.X
	}

	if scale.X == 0 || scale.Y == 0 || scale.Z == 0 {
		return scale, QuatIdentity(), trans
	}

	r := m
	r[0] /= scale.X
	r[1] /= scale.X
	r[2] /= scale.X
	r[4] /= scale.Y
	r[5] /= scale.Y
	r[6] /= scale.Y
	r[8] /= scale.Z
	r[9] /= scale.Z
	r[10] /= scale.Z
	rot = QuatFromMat4(r)
	return scale, rot, trans
}

func columnLength(m Mat4, col int) float32 {
	i := col * 4
	return float32(math.Sqrt(float64(m[i]*m[i] + m[i+1]*m[i+1] + m[i+2]*m[i+2])))
}
